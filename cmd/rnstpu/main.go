// Command rnstpu multiplies polynomials through matrix-multiplication
// backends, benchmarks them, and generates RNS channel moduli.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
