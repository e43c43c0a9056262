package buffer

import (
	"encoding/binary"
	"fmt"
)

// WriteUint64 writes c to w in little-endian order.
func WriteUint64(w Writer, c uint64) (n int64, err error) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], c)
	inc, err := w.Write(b[:])
	return int64(inc), err
}

// WriteUint64Slice writes len(c) followed by the elements of c.
func WriteUint64Slice(w Writer, c []uint64) (n int64, err error) {

	if n, err = WriteUint64(w, uint64(len(c))); err != nil {
		return n, fmt.Errorf("buffer.WriteUint64Slice: %w", err)
	}

	// Chunked so that large slices do not need a second full-size allocation.
	var chunk [1024]byte
	for i := 0; i < len(c); {
		j := 0
		for ; j+8 <= len(chunk) && i < len(c); i, j = i+1, j+8 {
			binary.LittleEndian.PutUint64(chunk[j:], c[i])
		}
		inc, err := w.Write(chunk[:j])
		n += int64(inc)
		if err != nil {
			return n, fmt.Errorf("buffer.WriteUint64Slice: %w", err)
		}
	}

	return n, nil
}
