// Package buffer implements methods for writing and reading words to and
// from buffered io.Writer and io.Reader.
package buffer

import (
	"fmt"
	"io"
)

// Writer is the subset of bufio.Writer used by this package.
type Writer interface {
	io.Writer
	Flush() (err error)
}

// Reader is the subset of bufio.Reader used by this package.
type Reader interface {
	io.Reader
	Size() int
}

// Buffer is a fixed-size []byte-based buffer that complies to the Writer
// and Reader interfaces. Writes beyond capacity return an error.
type Buffer struct {
	buf []byte
	n   int
	off int
}

// NewBuffer creates a new Buffer with buff as a backing []byte. The read and
// write offsets are initialized at buff[0].
func NewBuffer(buff []byte) *Buffer {
	return &Buffer{buf: buff}
}

// Write writes p into b.
func (b *Buffer) Write(p []byte) (n int, err error) {
	if len(p)+b.n > len(b.buf) {
		return 0, fmt.Errorf("buffer too small")
	}
	n = copy(b.buf[b.n:], p)
	b.n += n
	return n, nil
}

// Flush doesn't do anything on this slice-based buffer.
func (b *Buffer) Flush() (err error) {
	return nil
}

// Bytes returns the written part of the backing slice.
func (b *Buffer) Bytes() []byte {
	return b.buf[:b.n]
}

// Read reads len(p) bytes from the read offset of b into p.
func (b *Buffer) Read(p []byte) (n int, err error) {
	n = copy(p, b.buf[b.off:])
	b.off += n
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the size of the buffer available for read.
func (b *Buffer) Size() int {
	return len(b.buf) - b.off
}
