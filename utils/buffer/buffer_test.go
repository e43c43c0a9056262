package buffer

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUint64Slice(t *testing.T) {

	c := make([]uint64, 300)
	for i := range c {
		c[i] = uint64(i) * 0x0123456789
	}

	t.Run("Buffer", func(t *testing.T) {
		b := NewBuffer(make([]byte, 8+8*len(c)))

		n, err := WriteUint64Slice(b, c)
		require.NoError(t, err)
		require.Equal(t, int64(len(b.Bytes())), n)

		got, m, err := ReadUint64Slice(b, len(c))
		require.NoError(t, err)
		require.Equal(t, n, m)
		require.Equal(t, c, got)
	})

	t.Run("Bufio", func(t *testing.T) {
		var bb bytes.Buffer
		w := bufio.NewWriter(&bb)
		_, err := WriteUint64Slice(w, c)
		require.NoError(t, err)
		require.NoError(t, w.Flush())

		got, _, err := ReadUint64Slice(bufio.NewReader(&bb), len(c))
		require.NoError(t, err)
		require.Equal(t, c, got)
	})

	t.Run("TooLong", func(t *testing.T) {
		b := NewBuffer(make([]byte, 8+8*len(c)))
		_, err := WriteUint64Slice(b, c)
		require.NoError(t, err)
		_, _, err = ReadUint64Slice(b, 10)
		require.Error(t, err)
	})

	t.Run("Overflow", func(t *testing.T) {
		b := NewBuffer(make([]byte, 16))
		_, err := WriteUint64Slice(b, c)
		require.Error(t, err)
	})
}
