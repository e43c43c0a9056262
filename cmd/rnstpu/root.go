package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rnstpu/rnstpu/backend"
	"github.com/rnstpu/rnstpu/backend/cpu"
	"github.com/rnstpu/rnstpu/backend/gonum"
	"github.com/rnstpu/rnstpu/backend/parallel"
	"github.com/rnstpu/rnstpu/polymul"
	"github.com/rnstpu/rnstpu/rns"
)

// backends maps backend names to constructors. Optional backends register
// themselves from build-tagged files.
var backends = map[string]func(workers int) backend.Backend{
	"cpu":      func(int) backend.Backend { return cpu.New() },
	"parallel": func(workers int) backend.Backend { return parallel.New(workers) },
	"gonum":    func(int) backend.Backend { return gonum.New() },
}

func backendNames() (names []string) {
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// config is the content of the file given with --params.
type config struct {
	Engine polymul.ParametersLiteral
	RNS    *rns.ParametersLiteral `json:",omitempty"`
}

type globalFlags struct {
	verbose     bool
	backendName string
	paramsFile  string
	workers     int
}

func newRootCommand() *cobra.Command {

	var flags globalFlags

	root := &cobra.Command{
		Use:          "rnstpu",
		Short:        "Polynomial multiplication as dense matrix multiplication",
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log debug messages")
	root.PersistentFlags().StringVarP(&flags.backendName, "backend", "b", "cpu", fmt.Sprintf("matrix-multiplication backend %v", backendNames()))
	root.PersistentFlags().StringVar(&flags.paramsFile, "params", "", "JSON file with the engine and RNS parameters literals")
	root.PersistentFlags().IntVarP(&flags.workers, "workers", "w", 0, "number of workers (0 for one per logical core)")

	root.AddCommand(
		newMulCommand(&flags),
		newBenchCommand(&flags),
		newMatMulCommand(&flags),
		newPrimesCommand(&flags),
		newVersionCommand(),
	)

	return root
}

func (f *globalFlags) logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if f.verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func (f *globalFlags) config() (cfg config, err error) {

	if f.paramsFile != "" {
		data, err := os.ReadFile(f.paramsFile)
		if err != nil {
			return cfg, fmt.Errorf("cannot read parameters: %w", err)
		}
		if err = json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("cannot parse parameters %s: %w", f.paramsFile, err)
		}
	}

	if f.workers != 0 {
		cfg.Engine.Workers = f.workers
	}

	return
}

// engine sets up the selected backend and returns an engine on top of it,
// with a function releasing the backend.
func (f *globalFlags) engine(logger zerolog.Logger) (*polymul.Engine, func(), error) {

	newBackend, ok := backends[f.backendName]
	if !ok {
		return nil, nil, fmt.Errorf("unknown backend %q, available backends are %v", f.backendName, backendNames())
	}

	cfg, err := f.config()
	if err != nil {
		return nil, nil, err
	}

	params, err := polymul.NewParametersFromLiteral(cfg.Engine)
	if err != nil {
		return nil, nil, err
	}

	bk := newBackend(params.Workers())

	if err = bk.SetupContext(); err != nil {
		return nil, nil, fmt.Errorf("cannot set up backend %s: %w", bk.Name(), err)
	}

	release := func() {
		if err := bk.Release(); err != nil {
			logger.Error().Err(err).Str("backend", bk.Name()).Msg("release")
		}
	}

	engine, err := polymul.NewEngine(params, bk)
	if err != nil {
		release()
		return nil, nil, err
	}

	logger.Debug().
		Str("backend", bk.Name()).
		Uint64("exact_bound", engine.ExactBound()).
		Str("policy", params.OperandPolicy().String()).
		Int("workers", params.Workers()).
		Msg("engine ready")

	return engine.WithLogger(logger), release, nil
}
