package polymul

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rnstpu/rnstpu/polynomial"
)

// MulBatch returns the products as[i] * bs[i]. The pairs are independent and
// are dispatched concurrently, at most Parameters.Workers at a time. Results
// are in input order. The first error is returned, pairs not yet dispatched
// at that point are skipped and no partial result is returned.
func (e *Engine) MulBatch(as, bs []polynomial.Polynomial) ([]polynomial.Polynomial, error) {

	if len(as) != len(bs) {
		return nil, fmt.Errorf("polymul.Engine.MulBatch: %d left operands and %d right operands: %w", len(as), len(bs), ErrInvalidDimension)
	}

	res := make([]polynomial.Polynomial, len(as))

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(e.params.Workers())

	for i := range as {
		i := i
		g.Go(func() (err error) {
			if ctx.Err() != nil {
				return nil
			}
			if res[i], err = e.Mul(as[i], bs[i]); err != nil {
				return fmt.Errorf("polymul.Engine.MulBatch: pair %d: %w", i, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return res, nil
}
