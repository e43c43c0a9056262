package utils

// Resize returns a copy of s of length n, zero-padded or truncated.
func Resize[V any](s []V, n int) (r []V) {
	r = make([]V, n)
	copy(r, s)
	return
}
