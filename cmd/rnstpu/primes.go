package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rnstpu/rnstpu/backend"
	"github.com/rnstpu/rnstpu/ring"
)

func newPrimesCommand(g *globalFlags) *cobra.Command {

	var (
		length     int
		count      int
		exactBound uint64
	)

	cmd := &cobra.Command{
		Use:   "primes",
		Short: "List the largest RNS channel moduli exact for a given polynomial length",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {

			bound := ring.ChannelBound(exactBound, length)
			if bound < 2 {
				return fmt.Errorf("no modulus is exact for length %d and exact bound %d", length, exactBound)
			}

			moduli, err := ring.GenerateModuli(bound+1, count)
			if err != nil {
				return err
			}

			basis, err := ring.NewBasis(moduli)
			if err != nil {
				return err
			}

			logger := g.logger()
			logger.Debug().Uint64("channel_bound", bound).Msg("primes")

			for _, qi := range moduli {
				fmt.Fprintln(cmd.OutOrStdout(), qi)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "log2(Q) = %.2f\n", basis.LogModulus())

			return nil
		},
	}

	cmd.Flags().IntVarP(&length, "length", "n", 1024, "maximum number of coefficient products summed per output")
	cmd.Flags().IntVarP(&count, "count", "k", 4, "number of moduli")
	cmd.Flags().Uint64Var(&exactBound, "exact-bound", backend.Float32ExactBound, "exact-integer bound of the backend")

	return cmd
}
