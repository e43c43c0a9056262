package polymul

import (
	"encoding/json"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/cpuid/v2"

	"github.com/rnstpu/rnstpu/utils"
)

// OperandPolicy selects which operand of a linear product is expanded into
// the convolution matrix.
type OperandPolicy int

const (
	// Longest expands the longer operand, so that the shorter one always fits
	// the matrix width and no term is dropped. Ties expand the left operand.
	Longest = OperandPolicy(iota)
	// Strict always expands the left operand and rejects products whose right
	// operand is longer than the left one.
	Strict
)

func (p OperandPolicy) String() string {
	switch p {
	case Longest:
		return "longest"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("OperandPolicy(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p OperandPolicy) MarshalText() ([]byte, error) {
	switch p {
	case Longest, Strict:
		return []byte(p.String()), nil
	default:
		return nil, fmt.Errorf("invalid operand policy %d", int(p))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *OperandPolicy) UnmarshalText(text []byte) error {
	switch string(text) {
	case "longest", "":
		*p = Longest
	case "strict":
		*p = Strict
	default:
		return fmt.Errorf("invalid operand policy %q", text)
	}
	return nil
}

// ParametersLiteral is a literal representation of the engine parameters.
// It has public fields and is used to express unchecked user-defined
// parameters literally into Go programs. The [NewParametersFromLiteral]
// function is used to generate the actual checked parameters from the
// literal representation.
//
// Users must set ExactBound to zero to use the exact bound of the backend,
// and Workers to zero to use one worker per logical core.
type ParametersLiteral struct {
	ExactBound    uint64        `json:",omitempty"`
	OperandPolicy OperandPolicy
	Workers       int `json:",omitempty"`
}

// Parameters is the checked, immutable configuration of an [Engine].
type Parameters struct {
	exactBound    uint64
	operandPolicy OperandPolicy
	workers       int
}

// NewParametersFromLiteral instantiates a set of [Parameters] from a
// [ParametersLiteral].
func NewParametersFromLiteral(pl ParametersLiteral) (params Parameters, err error) {

	if pl.ExactBound == 1 {
		return Parameters{}, fmt.Errorf("polymul.NewParametersFromLiteral: ExactBound must be 0 or greater than 1")
	}

	if pl.OperandPolicy != Longest && pl.OperandPolicy != Strict {
		return Parameters{}, fmt.Errorf("polymul.NewParametersFromLiteral: invalid OperandPolicy %d", int(pl.OperandPolicy))
	}

	if pl.Workers < 0 {
		return Parameters{}, fmt.Errorf("polymul.NewParametersFromLiteral: Workers must be positive or zero but is %d", pl.Workers)
	}

	if pl.Workers == 0 {
		pl.Workers = utils.Max(cpuid.CPU.LogicalCores, 1)
	}

	return Parameters{
		exactBound:    pl.ExactBound,
		operandPolicy: pl.OperandPolicy,
		workers:       pl.Workers,
	}, nil
}

// DefaultParameters returns the parameters obtained from the zero
// [ParametersLiteral].
func DefaultParameters() Parameters {
	params, err := NewParametersFromLiteral(ParametersLiteral{})
	if err != nil {
		panic(err)
	}
	return params
}

// ParametersLiteral returns the [ParametersLiteral] of the target [Parameters].
func (p Parameters) ParametersLiteral() ParametersLiteral {
	return ParametersLiteral{
		ExactBound:    p.exactBound,
		OperandPolicy: p.operandPolicy,
		Workers:       p.workers,
	}
}

// ExactBound returns the user-defined exact bound, or 0 if the bound of the
// backend applies.
func (p Parameters) ExactBound() uint64 {
	return p.exactBound
}

// OperandPolicy returns the operand policy of linear products.
func (p Parameters) OperandPolicy() OperandPolicy {
	return p.operandPolicy
}

// Workers returns the maximum number of concurrent backend dispatches of
// batched operations. It is at least 1, also for the zero value [Parameters].
func (p Parameters) Workers() int {
	return utils.Max(p.workers, 1)
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
