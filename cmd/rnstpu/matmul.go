package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rnstpu/rnstpu/matrix"
)

func newMatMulCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "matmul",
		Short: "Check the backend on the product [[1,2],[3,4]] x [[5,6],[7,8]]",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {

			engine, release, err := g.engine(g.logger())
			if err != nil {
				return err
			}
			defer release()

			a, err := matrix.NewMatrixFromRows([][]uint64{{1, 2}, {3, 4}})
			if err != nil {
				return err
			}

			b, err := matrix.NewMatrixFromRows([][]uint64{{5, 6}, {7, 8}})
			if err != nil {
				return err
			}

			want, err := a.Mul(b)
			if err != nil {
				return err
			}

			have, err := engine.MatMul(a, b)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), have.Rows2D())

			if !have.Equal(want) {
				return fmt.Errorf("backend %s returned %v, expected %v", engine.Backend().Name(), have.Rows2D(), want.Rows2D())
			}

			return nil
		},
	}
}
