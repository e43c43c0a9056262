package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/briandowns/spinner"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/montanaflynn/stats"
	"github.com/spf13/cobra"

	"github.com/rnstpu/rnstpu/polynomial"
	"github.com/rnstpu/rnstpu/ring"
	"github.com/rnstpu/rnstpu/utils/sampling"
)

type benchFlags struct {
	sizes string
	runs  int
	seed  string
	chart string
	naive bool
}

// sample holds the timings of one polynomial size, in milliseconds.
type sample struct {
	n      int
	bound  uint64
	engine []float64
	naive  []float64
}

func newBenchCommand(g *globalFlags) *cobra.Command {

	var flags benchFlags

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time the product of random polynomials of increasing sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd, g, &flags)
		},
	}

	cmd.Flags().StringVar(&flags.sizes, "sizes", "16,64,256,1024", "comma-separated polynomial lengths")
	cmd.Flags().IntVar(&flags.runs, "runs", 10, "number of products per size")
	cmd.Flags().StringVar(&flags.seed, "seed", "rnstpu", "seed of the coefficient generator")
	cmd.Flags().StringVar(&flags.chart, "chart", "", "write an HTML line chart of the timings to this file")
	cmd.Flags().BoolVar(&flags.naive, "naive", true, "also time the schoolbook product")

	return cmd
}

func runBench(cmd *cobra.Command, g *globalFlags, flags *benchFlags) error {

	logger := g.logger()

	sizes, err := parseSizes(flags.sizes)
	if err != nil {
		return err
	}

	if flags.runs < 1 {
		return fmt.Errorf("--runs must be positive")
	}

	engine, release, err := g.engine(logger)
	if err != nil {
		return err
	}
	defer release()

	prng, err := sampling.NewKeyedPRNG([]byte(flags.seed))
	if err != nil {
		return err
	}

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Start()
	defer s.Stop()

	samples := make([]sample, len(sizes))

	for k, n := range sizes {

		// n * (bound-1)^2 must stay below the exact bound
		bound := ring.ChannelBound(engine.ExactBound(), n)
		if bound < 2 {
			return fmt.Errorf("no coefficient range is exact for N=%d on backend %s", n, engine.Backend().Name())
		}

		samples[k] = sample{n: n, bound: bound}

		a, b := polynomial.Zero(n), polynomial.Zero(n)

		for run := 0; run < flags.runs; run++ {

			s.Lock()
			s.Suffix = fmt.Sprintf(" N=%d run %d/%d", n, run+1, flags.runs)
			s.Unlock()

			if err = sampling.UniformVector(prng, bound, a.Coeffs); err != nil {
				return err
			}
			if err = sampling.UniformVector(prng, bound, b.Coeffs); err != nil {
				return err
			}

			start := time.Now()
			res, err := engine.Mul(a, b)
			if err != nil {
				return err
			}
			samples[k].engine = append(samples[k].engine, milliseconds(time.Since(start)))

			if flags.naive {
				start = time.Now()
				want := polynomial.MulNaive(a, b)
				samples[k].naive = append(samples[k].naive, milliseconds(time.Since(start)))

				if !res.Equal(want) {
					return fmt.Errorf("N=%d run %d: result differs from the schoolbook product", n, run)
				}
			}
		}

		logger.Debug().Int("n", n).Uint64("coeff_bound", bound).Msg("size done")
	}

	s.Stop()

	if err = printSamples(cmd, engine.Backend().Name(), samples); err != nil {
		return err
	}

	if flags.chart != "" {
		if err = writeChart(flags.chart, engine.Backend().Name(), samples); err != nil {
			return err
		}
		logger.Info().Str("file", flags.chart).Msg("chart written")
	}

	return nil
}

func printSamples(cmd *cobra.Command, name string, samples []sample) error {

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(w, "N\tcoeff bound\t%s mean (ms)\tmedian (ms)\tstddev (ms)\tnaive mean (ms)\t\n", name)

	for _, smp := range samples {

		mean, err := stats.Mean(smp.engine)
		if err != nil {
			return fmt.Errorf("N=%d: mean: %w", smp.n, err)
		}
		median, err := stats.Median(smp.engine)
		if err != nil {
			return fmt.Errorf("N=%d: median: %w", smp.n, err)
		}
		stddev, err := stats.StandardDeviation(smp.engine)
		if err != nil {
			return fmt.Errorf("N=%d: standard deviation: %w", smp.n, err)
		}

		naive := "-"
		if len(smp.naive) > 0 {
			m, err := stats.Mean(smp.naive)
			if err != nil {
				return fmt.Errorf("N=%d: naive mean: %w", smp.n, err)
			}
			naive = fmt.Sprintf("%.3f", m)
		}

		fmt.Fprintf(w, "%d\t%d\t%.3f\t%.3f\t%.3f\t%s\t\n", smp.n, smp.bound, mean, median, stddev, naive)
	}

	return w.Flush()
}

func writeChart(path, name string, samples []sample) (err error) {

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Polynomial multiplication",
			Subtitle: fmt.Sprintf("mean time per product, backend %s", name),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "N"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ms"}),
	)

	xs := make([]string, len(samples))
	engine := make([]opts.LineData, len(samples))
	naive := make([]opts.LineData, 0, len(samples))

	for i, smp := range samples {
		xs[i] = strconv.Itoa(smp.n)
		m, _ := stats.Mean(smp.engine)
		engine[i] = opts.LineData{Value: m}
		if len(smp.naive) > 0 {
			m, _ = stats.Mean(smp.naive)
			naive = append(naive, opts.LineData{Value: m})
		}
	}

	line.SetXAxis(xs).AddSeries(name, engine)
	if len(naive) > 0 {
		line.AddSeries("naive", naive)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return line.Render(f)
}

func parseSizes(s string) (sizes []int, err error) {
	for _, f := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid size %q", f)
		}
		sizes = append(sizes, n)
	}
	return
}

func milliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
