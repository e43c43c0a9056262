//go:build opencl

package main

import (
	"github.com/rnstpu/rnstpu/backend"
	"github.com/rnstpu/rnstpu/backend/blackcl"
)

func init() {
	backends["opencl"] = func(int) backend.Backend { return blackcl.New() }
}
