package ring

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ALTree/bigfloat"

	"github.com/rnstpu/rnstpu/utils"
)

// ErrNotCoprime is returned by [NewBasis] when two moduli share a factor.
var ErrNotCoprime = errors.New("moduli are not pairwise coprime")

// Basis is a Residue Number System basis: a list of pairwise coprime moduli
// q_0, ..., q_{L-1} together with the precomputed constants needed to map an
// integer x in [0, Q) with Q = prod q_i to its residues (x mod q_i) and back
// via the Chinese Remainder Theorem.
type Basis struct {
	moduli []uint64
	brc    [][2]uint64

	q     *big.Int
	qHalf *big.Int

	// crt[i] = (Q/q_i) * ((Q/q_i)^-1 mod q_i)
	crt []*big.Int
}

// NewBasis creates a new Basis from the given moduli. It returns an error if
// the list is empty, if a modulus is smaller than 2 or if two moduli are not
// coprime.
func NewBasis(moduli []uint64) (b *Basis, err error) {

	if len(moduli) == 0 {
		return nil, fmt.Errorf("ring.NewBasis: moduli list is empty")
	}

	for i, qi := range moduli {
		if qi < 2 {
			return nil, fmt.Errorf("ring.NewBasis: modulus q[%d]=%d is smaller than 2", i, qi)
		}
		for j := 0; j < i; j++ {
			if utils.GCD(qi, moduli[j]) != 1 {
				return nil, fmt.Errorf("ring.NewBasis: q[%d]=%d and q[%d]=%d: %w", j, moduli[j], i, qi, ErrNotCoprime)
			}
		}
	}

	b = &Basis{
		moduli: make([]uint64, len(moduli)),
		brc:    make([][2]uint64, len(moduli)),
		q:      big.NewInt(1),
		crt:    make([]*big.Int, len(moduli)),
	}

	copy(b.moduli, moduli)

	for i, qi := range moduli {
		b.brc[i] = GenBRedConstant(qi)
		b.q.Mul(b.q, new(big.Int).SetUint64(qi))
	}

	b.qHalf = new(big.Int).Rsh(b.q, 1)

	QiB := new(big.Int)
	tmp := new(big.Int)

	for i, qi := range moduli {
		QiB.SetUint64(qi)
		b.crt[i] = new(big.Int).Quo(b.q, QiB)
		tmp.ModInverse(b.crt[i], QiB)
		b.crt[i].Mul(b.crt[i], tmp)
	}

	return
}

// Len returns the number of moduli of the basis.
func (b *Basis) Len() int {
	return len(b.moduli)
}

// Moduli returns a copy of the moduli of the basis.
func (b *Basis) Moduli() (moduli []uint64) {
	moduli = make([]uint64, len(b.moduli))
	copy(moduli, b.moduli)
	return
}

// At returns the i-th modulus and its Barrett constant.
func (b *Basis) At(i int) (qi uint64, brc [2]uint64) {
	return b.moduli[i], b.brc[i]
}

// Modulus returns a copy of Q = prod q_i.
func (b *Basis) Modulus() *big.Int {
	return new(big.Int).Set(b.q)
}

// LogModulus returns log2(Q).
func (b *Basis) LogModulus() float64 {
	const prec = 128
	x := new(big.Float).SetPrec(prec).SetInt(b.q)
	ln2 := bigfloat.Log(new(big.Float).SetPrec(prec).SetInt64(2))
	logQ := bigfloat.Log(x)
	f, _ := logQ.Quo(logQ, ln2).Float64()
	return f
}

// Decompose writes the residues of x modulo each q_i on res.
// Negative values are mapped to their representative in [0, Q).
func (b *Basis) Decompose(x *big.Int, res []uint64) {
	tmp := new(big.Int)
	QiB := new(big.Int)
	for i, qi := range b.moduli {
		res[i] = tmp.Mod(x, QiB.SetUint64(qi)).Uint64()
	}
}

// DecomposeUint64 writes the residues of x modulo each q_i on res.
func (b *Basis) DecomposeUint64(x uint64, res []uint64) {
	for i, qi := range b.moduli {
		res[i] = BRedAdd(x, qi, b.brc[i])
	}
}

// Reconstruct sets x to the unique value in [0, Q) whose residues are res and returns x.
func (b *Basis) Reconstruct(res []uint64, x *big.Int) *big.Int {
	x.SetUint64(0)
	tmp := new(big.Int)
	for i := range b.moduli {
		x.Add(x, tmp.Mul(tmp.SetUint64(res[i]), b.crt[i]))
	}
	return x.Mod(x, b.q)
}

// ReconstructCentered sets x to the unique value in (-Q/2, Q/2] whose residues are res and returns x.
func (b *Basis) ReconstructCentered(res []uint64, x *big.Int) *big.Int {
	b.Reconstruct(res, x)
	if x.Cmp(b.qHalf) > 0 {
		x.Sub(x, b.q)
	}
	return x
}
