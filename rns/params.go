package rns

import (
	"encoding/json"
	"fmt"
	"math/big"
	"math/bits"

	"github.com/google/go-cmp/cmp"

	"github.com/rnstpu/rnstpu/backend"
	"github.com/rnstpu/rnstpu/ring"
)

// ParametersLiteral is a literal representation of RNS parameters. It has
// public fields and is used to express unchecked user-defined parameters
// literally into Go programs. The [NewParametersFromLiteral] function is
// used to generate the actual checked parameters from the literal
// representation.
//
// Users must set exactly one of Moduli and LogQ. When LogQ is set, the
// largest primes allowed by ExactBound and MaxLength are selected until
// their product has at least LogQ bits.
//
// Every channel modulus q must satisfy MaxLength * (q-1)^2 < ExactBound, so
// that a channel product of operands of at most MaxLength coefficients is
// exact. ExactBound defaults to [backend.Float32ExactBound].
type ParametersLiteral struct {
	Moduli     []uint64 `json:",omitempty"`
	LogQ       int      `json:",omitempty"`
	MaxLength  int
	ExactBound uint64 `json:",omitempty"`
}

// Parameters is the checked, immutable RNS configuration.
type Parameters struct {
	basis      *ring.Basis
	maxLength  int
	exactBound uint64
}

// NewParametersFromLiteral instantiates a set of [Parameters] from a
// [ParametersLiteral].
func NewParametersFromLiteral(pl ParametersLiteral) (params Parameters, err error) {

	if pl.MaxLength < 1 {
		return Parameters{}, fmt.Errorf("rns.NewParametersFromLiteral: MaxLength must be positive but is %d", pl.MaxLength)
	}

	if pl.ExactBound == 0 {
		pl.ExactBound = backend.Float32ExactBound
	}

	if pl.Moduli == nil && pl.LogQ == 0 {
		return Parameters{}, fmt.Errorf("rns.NewParametersFromLiteral: both Moduli and LogQ fields are empty")
	}

	if pl.Moduli != nil && pl.LogQ != 0 {
		return Parameters{}, fmt.Errorf("rns.NewParametersFromLiteral: both Moduli and LogQ fields are set")
	}

	qMax := ring.ChannelBound(pl.ExactBound, pl.MaxLength)

	if qMax < 2 {
		return Parameters{}, fmt.Errorf("rns.NewParametersFromLiteral: no modulus satisfies MaxLength=%d and ExactBound=%d", pl.MaxLength, pl.ExactBound)
	}

	moduli := pl.Moduli

	if pl.LogQ != 0 {
		if pl.LogQ < 0 {
			return Parameters{}, fmt.Errorf("rns.NewParametersFromLiteral: LogQ must be positive but is %d", pl.LogQ)
		}
		if moduli, err = generateModuli(qMax, pl.LogQ); err != nil {
			return Parameters{}, fmt.Errorf("rns.NewParametersFromLiteral: %w", err)
		}
	}

	for i, qi := range moduli {
		if qi > qMax {
			return Parameters{}, fmt.Errorf("rns.NewParametersFromLiteral: Moduli[%d]=%d is larger than %d, the largest modulus allowed by MaxLength=%d and ExactBound=%d", i, qi, qMax, pl.MaxLength, pl.ExactBound)
		}
	}

	basis, err := ring.NewBasis(moduli)
	if err != nil {
		return Parameters{}, fmt.Errorf("rns.NewParametersFromLiteral: %w", err)
	}

	return Parameters{
		basis:      basis,
		maxLength:  pl.MaxLength,
		exactBound: pl.ExactBound,
	}, nil
}

// generateModuli returns the largest primes not greater than qMax, in
// decreasing order, until their product has at least logQ bits.
func generateModuli(qMax uint64, logQ int) ([]uint64, error) {

	// each prime contributes at least bits.Len64(qMax)-1 bits
	perPrime := bits.Len64(qMax) - 1
	if perPrime < 1 {
		perPrime = 1
	}

	count := (logQ + perPrime - 1) / perPrime

	for {
		moduli, err := ring.GenerateModuli(qMax+1, count)
		if err != nil {
			return nil, err
		}

		Q := new(big.Int).SetUint64(1)
		tmp := new(big.Int)
		for _, qi := range moduli {
			Q.Mul(Q, tmp.SetUint64(qi))
		}

		if Q.BitLen() >= logQ {
			// drop the smallest moduli that are not needed
			for len(moduli) > 1 {
				Q.Quo(Q, tmp.SetUint64(moduli[len(moduli)-1]))
				if Q.BitLen() < logQ {
					break
				}
				moduli = moduli[:len(moduli)-1]
			}
			return moduli, nil
		}

		count++
	}
}

// Basis returns the RNS basis of the parameters.
func (p Parameters) Basis() *ring.Basis {
	return p.basis
}

// Moduli returns a copy of the channel moduli.
func (p Parameters) Moduli() []uint64 {
	return p.basis.Moduli()
}

// Channels returns the number of channels.
func (p Parameters) Channels() int {
	return p.basis.Len()
}

// MaxLength returns the maximum number of coefficient products summed in a channel.
func (p Parameters) MaxLength() int {
	return p.maxLength
}

// ExactBound returns the exact bound the moduli were checked against.
func (p Parameters) ExactBound() uint64 {
	return p.exactBound
}

// Q returns a copy of the product of the moduli.
func (p Parameters) Q() *big.Int {
	return p.basis.Modulus()
}

// LogQ returns the size of Q in bits.
func (p Parameters) LogQ() float64 {
	return p.basis.LogModulus()
}

// ParametersLiteral returns the [ParametersLiteral] of the target
// [Parameters], with explicit moduli.
func (p Parameters) ParametersLiteral() ParametersLiteral {
	return ParametersLiteral{
		Moduli:     p.Moduli(),
		MaxLength:  p.maxLength,
		ExactBound: p.exactBound,
	}
}

// Equal returns true if the receiver is equal to the target.
func (p Parameters) Equal(other *Parameters) bool {
	return cmp.Equal(p.ParametersLiteral(), other.ParametersLiteral())
}

// MarshalJSON returns a JSON representation of this parameter set. See Marshal from the [encoding/json] package.
func (p Parameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ParametersLiteral())
}

// UnmarshalJSON reads a JSON representation of a parameter set into the receiver Parameter. See Unmarshal from the [encoding/json] package.
func (p *Parameters) UnmarshalJSON(data []byte) (err error) {
	var pl ParametersLiteral
	if err = json.Unmarshal(data, &pl); err != nil {
		return err
	}
	*p, err = NewParametersFromLiteral(pl)
	return
}
