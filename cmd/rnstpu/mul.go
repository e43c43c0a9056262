package main

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rnstpu/rnstpu/polynomial"
	"github.com/rnstpu/rnstpu/rns"
	"github.com/rnstpu/rnstpu/utils"
)

type mulFlags struct {
	ring    string
	modulus uint64
	check   bool
	logQ    int
}

func newMulCommand(g *globalFlags) *cobra.Command {

	var flags mulFlags

	cmd := &cobra.Command{
		Use:   "mul A B",
		Short: "Multiply two polynomials given as comma-separated coefficients, lowest degree first",
		Example: `  rnstpu mul 1,2,3,4 5,6,7
  rnstpu mul --ring negacyclic --modulus 17 1,2,3,4 5,6,7,8
  rnstpu mul --logq 120 123456789012345678,-1 987654321098765432,2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.logQ > 0 || g.hasRNS() {
				return runMulRNS(cmd, g, &flags, args)
			}
			return runMul(cmd, g, &flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.ring, "ring", "linear", "product: linear, cyclic (mod X^N-1) or negacyclic (mod X^N+1)")
	cmd.Flags().Uint64VarP(&flags.modulus, "modulus", "q", 0, "coefficient modulus of cyclic and negacyclic products")
	cmd.Flags().BoolVar(&flags.check, "check", false, "compare the result with the schoolbook product")
	cmd.Flags().IntVar(&flags.logQ, "logq", 0, "multiply arbitrary integers over RNS channels with a modulus of at least this many bits")

	return cmd
}

func runMul(cmd *cobra.Command, g *globalFlags, flags *mulFlags, args []string) error {

	logger := g.logger()

	a, err := parsePolynomial(args[0])
	if err != nil {
		return err
	}

	b, err := parsePolynomial(args[1])
	if err != nil {
		return err
	}

	engine, release, err := g.engine(logger)
	if err != nil {
		return err
	}
	defer release()

	var res, want polynomial.Polynomial

	switch flags.ring {
	case "linear":
		res, err = engine.Mul(a, b)
		want = polynomial.MulNaive(a, b)
	case "cyclic", "negacyclic":
		if flags.modulus < 2 {
			return fmt.Errorf("--ring %s requires --modulus", flags.ring)
		}
		naive := polynomial.MulNaiveMod(a, b, flags.modulus)
		if flags.ring == "cyclic" {
			res, err = engine.MulCyclic(a, b, flags.modulus)
			want = polynomial.FoldCyclic(naive, a.Len(), flags.modulus)
		} else {
			res, err = engine.MulNegacyclic(a, b, flags.modulus)
			want = polynomial.FoldNegacyclic(naive, a.Len(), flags.modulus)
		}
	default:
		return fmt.Errorf("invalid --ring %q", flags.ring)
	}

	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), res)

	if flags.check {
		if !res.Equal(want) {
			return fmt.Errorf("result differs from the schoolbook product %v", want)
		}
		logger.Info().Str("digest", fmt.Sprintf("%x", res.Digest())).Msg("result matches the schoolbook product")
	}

	return nil
}

func runMulRNS(cmd *cobra.Command, g *globalFlags, flags *mulFlags, args []string) error {

	logger := g.logger()

	a, err := parseIntegers(args[0])
	if err != nil {
		return err
	}

	b, err := parseIntegers(args[1])
	if err != nil {
		return err
	}

	cfg, err := g.config()
	if err != nil {
		return err
	}

	engine, release, err := g.engine(logger)
	if err != nil {
		return err
	}
	defer release()

	pl := rns.ParametersLiteral{LogQ: flags.logQ}
	if cfg.RNS != nil {
		pl = *cfg.RNS
	}

	if pl.MaxLength == 0 {
		pl.MaxLength = utils.Min(len(a), len(b))
	}

	if pl.ExactBound == 0 {
		pl.ExactBound = engine.ExactBound()
	}

	params, err := rns.NewParametersFromLiteral(pl)
	if err != nil {
		return err
	}

	logger.Debug().Uints64("moduli", params.Moduli()).Float64("log_q", params.LogQ()).Msg("rns parameters")

	eval, err := rns.NewEvaluator(params, engine)
	if err != nil {
		return err
	}

	var res []*big.Int

	switch flags.ring {
	case "linear":
		res, err = eval.Mul(a, b)
	case "cyclic", "negacyclic":
		var p *rns.Poly
		if flags.ring == "cyclic" {
			p, err = eval.MulCyclic(eval.Decompose(a), eval.Decompose(b))
		} else {
			p, err = eval.MulNegacyclic(eval.Decompose(a), eval.Decompose(b))
		}
		if err == nil {
			res = eval.Reconstruct(p)
		}
	default:
		return fmt.Errorf("invalid --ring %q", flags.ring)
	}

	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), res)

	if flags.check && flags.ring == "linear" {
		want := polynomial.MulNaiveBig(a, b)
		for i := range want {
			if want[i].Cmp(res[i]) != 0 {
				return fmt.Errorf("result differs from the schoolbook product %v", want)
			}
		}
		logger.Info().Msg("result matches the schoolbook product")
	}

	return nil
}

func (f *globalFlags) hasRNS() bool {
	cfg, err := f.config()
	return err == nil && cfg.RNS != nil
}

func parsePolynomial(s string) (polynomial.Polynomial, error) {
	fields := strings.Split(s, ",")
	coeffs := make([]uint64, len(fields))
	for i, f := range fields {
		c, err := strconv.ParseUint(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return polynomial.Polynomial{}, fmt.Errorf("invalid coefficient %d of %q: %w", i, s, err)
		}
		coeffs[i] = c
	}
	return polynomial.NewPolynomial(coeffs)
}

func parseIntegers(s string) ([]*big.Int, error) {
	fields := strings.Split(s, ",")
	coeffs := make([]*big.Int, len(fields))
	for i, f := range fields {
		c, ok := new(big.Int).SetString(strings.TrimSpace(f), 10)
		if !ok {
			return nil, fmt.Errorf("invalid coefficient %d of %q", i, s)
		}
		coeffs[i] = c
	}
	return coeffs, nil
}
