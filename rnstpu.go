/*
Package rnstpu multiplies polynomials on matrix-multiplication accelerators.
It maps linear, cyclic and negacyclic polynomial convolution onto dense
matrix products dispatched to a pluggable backend, checks every value against
the exact-integer range of the backend arithmetic, and splits large
coefficients over Residue Number System channels so that lattice-based
workloads over Z_Q[X]/(X^N+1) stay exact on single-precision hardware.
*/
package rnstpu
