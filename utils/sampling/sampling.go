// Package sampling implements sampling of bytes and integers from a PRNG.
package sampling

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	"math/bits"
)

// ReadUint64 reads a uniform uint64 from prng.
func ReadUint64(prng PRNG) (uint64, error) {
	var b [8]byte
	if _, err := prng.Read(b[:]); err != nil {
		return 0, fmt.Errorf("sampling.ReadUint64: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// UniformUint64 returns a uniform value in [0, bound-1] using rejection
// sampling on the smallest power-of-two mask that covers bound.
func UniformUint64(prng PRNG, bound uint64) (uint64, error) {

	if bound == 0 {
		return 0, fmt.Errorf("sampling.UniformUint64: bound must be positive")
	}

	if bound == 1 {
		return 0, nil
	}

	mask := uint64(1)<<uint(bits.Len64(bound-1)) - 1

	for {
		v, err := ReadUint64(prng)
		if err != nil {
			return 0, err
		}
		if v &= mask; v < bound {
			return v, nil
		}
	}
}

// UniformVector fills v with uniform values in [0, bound-1].
func UniformVector(prng PRNG, bound uint64, v []uint64) (err error) {
	for i := range v {
		if v[i], err = UniformUint64(prng, bound); err != nil {
			return
		}
	}
	return
}

// UniformInt returns a uniform value in [0, max-1].
func UniformInt(prng PRNG, max *big.Int) (n *big.Int, err error) {
	if n, err = rand.Int(prng, max); err != nil {
		return nil, fmt.Errorf("sampling.UniformInt: %w", err)
	}
	return
}
