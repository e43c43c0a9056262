// Package utils implements various helper functions.
package utils

import (
	"golang.org/x/exp/constraints"
)

// Max returns the maximum of a and b.
func Max[V constraints.Ordered](a, b V) V {
	if a >= b {
		return a
	}
	return b
}

// Min returns the minimum of a and b.
func Min[V constraints.Ordered](a, b V) V {
	if a <= b {
		return a
	}
	return b
}

// MaxSlice returns the maximum value of the slice, or the zero value if the slice is empty.
func MaxSlice[V constraints.Ordered](slice []V) (max V) {
	for i, v := range slice {
		if i == 0 || v > max {
			max = v
		}
	}
	return
}

// AbsDiff returns |a-b| without overflowing for unsigned types.
func AbsDiff[V constraints.Integer | constraints.Float](a, b V) V {
	if a >= b {
		return a - b
	}
	return b - a
}

// GCD computes the greatest common divisor between a and b.
func GCD[V constraints.Unsigned](a, b V) V {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
