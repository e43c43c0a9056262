package buffer

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ReadUint64 reads a little-endian uint64 from r.
func ReadUint64(r Reader, c *uint64) (n int64, err error) {

	if c == nil {
		return 0, fmt.Errorf("cannot ReadUint64: c is nil")
	}

	var b [8]byte
	inc, err := io.ReadFull(r, b[:])
	if err != nil {
		return int64(inc), err
	}

	*c = binary.LittleEndian.Uint64(b[:])

	return int64(inc), nil
}

// ReadUint64Slice reads a slice written by WriteUint64Slice. At most maxLen
// elements are accepted so that a corrupted length prefix cannot trigger an
// arbitrary allocation.
func ReadUint64Slice(r Reader, maxLen int) (c []uint64, n int64, err error) {

	var size uint64
	if n, err = ReadUint64(r, &size); err != nil {
		return nil, n, fmt.Errorf("buffer.ReadUint64Slice: %w", err)
	}

	if size > uint64(maxLen) {
		return nil, n, fmt.Errorf("buffer.ReadUint64Slice: length %d exceeds the maximum of %d", size, maxLen)
	}

	c = make([]uint64, size)

	var b [8]byte
	for i := range c {
		inc, err := io.ReadFull(r, b[:])
		n += int64(inc)
		if err != nil {
			return nil, n, fmt.Errorf("buffer.ReadUint64Slice: %w", err)
		}
		c[i] = binary.LittleEndian.Uint64(b[:])
	}

	return c, n, nil
}
