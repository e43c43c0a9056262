//go:build opencl

package blackcl

import (
	_ "embed"
	"fmt"
	"sync"

	"gitlab.com/microo8/blackcl"

	"github.com/rnstpu/rnstpu/backend"
	"github.com/rnstpu/rnstpu/matrix"
)

//go:embed matmul.cl
var matmulSrc string

// OpenCL is a single-precision accelerator backend. Device buffers are
// cached by role and size across calls, and calls are serialized on the
// device queue.
type OpenCL struct {
	mu sync.Mutex

	device *blackcl.Device
	kernel *blackcl.Kernel

	bufferCache map[string]map[int]*blackcl.Vector
}

// New returns a new OpenCL backend.
func New() *OpenCL {
	return &OpenCL{
		bufferCache: make(map[string]map[int]*blackcl.Vector),
	}
}

// SetupContext implements backend.Backend.
func (o *OpenCL) SetupContext() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var err error

	o.device, err = blackcl.GetDefaultDevice()
	if err != nil {
		return fmt.Errorf("backend/blackcl: failed to get default device: %w", err)
	}

	o.device.AddProgram(matmulSrc)
	o.kernel = o.device.Kernel("matmul")

	return nil
}

func (o *OpenCL) buffer(tag string, size int) (*blackcl.Vector, error) {
	if _, ok := o.bufferCache[tag]; !ok {
		o.bufferCache[tag] = make(map[int]*blackcl.Vector)
	}

	if buf, ok := o.bufferCache[tag][size]; ok {
		return buf, nil
	}

	buf, err := o.device.NewVector(size)
	if err != nil {
		return nil, fmt.Errorf("backend/blackcl: failed to create buffer: %w", err)
	}

	o.bufferCache[tag][size] = buf

	return buf, nil
}

// MatMul implements backend.Backend.
func (o *OpenCL) MatMul(a, b *matrix.Matrix[float64]) (*matrix.Matrix[float64], error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.device == nil {
		return nil, fmt.Errorf("backend/blackcl: %w", backend.ErrNotReady)
	}

	if err := backend.CheckShapes(a, b); err != nil {
		return nil, fmt.Errorf("backend/blackcl: %w", err)
	}

	a32 := backend.Narrow(a)
	b32 := backend.Narrow(b)

	outDev, err := o.buffer("out", a.Rows*b.Cols)
	if err != nil {
		return nil, err
	}

	aDev, err := o.buffer("a", len(a32.Data))
	if err != nil {
		return nil, err
	}

	aCopyComplete := aDev.Copy(a32.Data)

	bDev, err := o.buffer("b", len(b32.Data))
	if err != nil {
		return nil, err
	}

	bCopyComplete := bDev.Copy(b32.Data)

	if err := <-aCopyComplete; err != nil {
		return nil, fmt.Errorf("backend/blackcl: failed to copy left operand to device: %w", err)
	}

	if err := <-bCopyComplete; err != nil {
		return nil, fmt.Errorf("backend/blackcl: failed to copy right operand to device: %w", err)
	}

	if err = <-o.kernel.Global(a.Rows*b.Cols).Local(1).Run(outDev, aDev, bDev, uint32(a.Cols), uint32(b.Cols)); err != nil {
		return nil, fmt.Errorf("backend/blackcl: failed to run kernel: %w", err)
	}

	outHost, err := outDev.Data()
	if err != nil {
		return nil, fmt.Errorf("backend/blackcl: failed to get result data: %w", err)
	}

	out := &matrix.Matrix[float32]{Rows: a.Rows, Cols: b.Cols, Data: outHost}

	return backend.Widen(out), nil
}

// ExactBound implements backend.Backend.
func (*OpenCL) ExactBound() uint64 {
	return backend.Float32ExactBound
}

// Name implements backend.Backend.
func (*OpenCL) Name() string {
	return "opencl"
}

// Release implements backend.Backend.
func (o *OpenCL) Release() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, bufferMap := range o.bufferCache {
		for _, buf := range bufferMap {
			buf.Release()
		}
	}

	o.bufferCache = make(map[string]map[int]*blackcl.Vector)

	if o.device == nil {
		return nil
	}

	if err := o.device.Release(); err != nil {
		return fmt.Errorf("backend/blackcl: failed to release device: %w", err)
	}

	o.device = nil

	return nil
}

var _ backend.Backend = &OpenCL{}
