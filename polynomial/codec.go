package polynomial

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/zeebo/blake3"

	"github.com/rnstpu/rnstpu/utils/buffer"
)

// MaxDecodeLength is the largest number of coefficients accepted when decoding.
const MaxDecodeLength = 1 << 24

// BinarySize returns the serialized size of the polynomial in bytes.
func (p Polynomial) BinarySize() int {
	return 8 + 8*len(p.Coeffs)
}

// WriteTo writes the polynomial on w: the number of coefficients followed by
// the coefficients, as little-endian uint64.
func (p Polynomial) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:
		if n, err = buffer.WriteUint64Slice(w, p.Coeffs); err != nil {
			return n, fmt.Errorf("polynomial.WriteTo: %w", err)
		}
		return n, w.Flush()
	default:
		return p.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads a polynomial written by WriteTo on p.
func (p *Polynomial) ReadFrom(r io.Reader) (n int64, err error) {
	switch r := r.(type) {
	case buffer.Reader:
		var coeffs []uint64
		if coeffs, n, err = buffer.ReadUint64Slice(r, MaxDecodeLength); err != nil {
			return n, fmt.Errorf("polynomial.ReadFrom: %w", err)
		}
		if len(coeffs) == 0 {
			return n, fmt.Errorf("polynomial.ReadFrom: %w", ErrEmpty)
		}
		p.Coeffs = coeffs
		return n, nil
	default:
		return p.ReadFrom(bufio.NewReader(r))
	}
}

// MarshalBinary encodes the polynomial on a slice of bytes.
func (p Polynomial) MarshalBinary() (data []byte, err error) {
	buf := buffer.NewBuffer(make([]byte, p.BinarySize()))
	if _, err = p.WriteTo(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a slice of bytes generated by MarshalBinary on p.
func (p *Polynomial) UnmarshalBinary(data []byte) (err error) {
	_, err = p.ReadFrom(buffer.NewBuffer(data))
	return
}

type polynomialJSON struct {
	Coeffs []uint64 `json:"coeffs"`
}

// MarshalJSON encodes the polynomial as {"coeffs":[...]}.
func (p Polynomial) MarshalJSON() ([]byte, error) {
	return json.Marshal(polynomialJSON{Coeffs: p.Coeffs})
}

// UnmarshalJSON decodes {"coeffs":[...]} on p.
func (p *Polynomial) UnmarshalJSON(data []byte) (err error) {
	var pj polynomialJSON
	if err = json.Unmarshal(data, &pj); err != nil {
		return err
	}
	if len(pj.Coeffs) == 0 {
		return ErrEmpty
	}
	p.Coeffs = pj.Coeffs
	return nil
}

// Digest returns the blake3 hash of the binary encoding of the polynomial.
// Two polynomials have the same digest iff they are equal (with overwhelming
// probability), which lets callers compare large results cheaply.
func (p Polynomial) Digest() (sum [32]byte) {
	h := blake3.New()
	// blake3.Hasher.Write never returns an error
	_, _ = p.WriteTo(h)
	copy(sum[:], h.Sum(nil))
	return
}
