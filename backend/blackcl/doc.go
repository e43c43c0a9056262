// Package blackcl implements a float32 matrix-multiplication backend
// running on the default OpenCL device. It requires cgo and an OpenCL
// runtime, and the backend is only compiled with the opencl build tag.
package blackcl
