// Package cli implements the chesscorner commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/EvalVis/chesscorner/internal/blob"
	"github.com/EvalVis/chesscorner/internal/config"
	"github.com/EvalVis/chesscorner/internal/observability"
	"github.com/EvalVis/chesscorner/internal/puzzle"
	"github.com/EvalVis/chesscorner/internal/rules"
)

var (
	driverFlag  string
	datasetFlag string
	envFile     string
	logLevel    string
	logJSON     bool
	metricsFlag bool
	formatFlag  string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "chesscorner",
	Short: "Chess puzzles and custom rule cards from the terminal",
	Long: "Serve random puzzles from a Lichess-format dataset filtered by difficulty or theme, " +
		"draw localized custom rule cards, and manage the resources behind them.",
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&driverFlag, "driver", "", "Resource store driver: fs, s3, memory, sqlite, postgres, http (default: $CHESSCORNER_BLOB_DRIVER or fs)")
	RootCmd.PersistentFlags().StringVar(&datasetFlag, "dataset", "", "Dataset key (default: $CHESSCORNER_DATASET_KEY or "+puzzle.DefaultDatasetKey+")")
	RootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file; never overrides the environment")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	RootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log as JSON lines")
	RootCmd.PersistentFlags().BoolVar(&metricsFlag, "metrics", false, "Dump Prometheus metrics to stderr on exit")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
}

// Execute runs RootCmd and reports failures on stderr.
func Execute(ctx context.Context) int {
	err := RootCmd.ExecuteContext(ctx)
	release()
	if err != nil {
		fmt.Fprintf(RootCmd.ErrOrStderr(), "error: %v\n", err)
		return 1
	}
	return 0
}

// app holds the collaborators of one command invocation.
type app struct {
	cfg      config.Config
	log      observability.Logger
	rec      observability.Recorder
	registry *prometheus.Registry

	store   blob.Store
	service *puzzle.Service
	rules   *rules.Loader
}

var current *app

func setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if driverFlag != "" {
		opts, err := config.BlobOptions(blob.Driver(driverFlag), os.Getenv)
		if err != nil {
			return err
		}
		cfg.Blob = opts
	}
	if datasetFlag != "" {
		cfg.DatasetKey = datasetFlag
	}
	if formatFlag != "json" && formatFlag != "text" {
		return fmt.Errorf("unknown format %q (want json or text)", formatFlag)
	}

	logger, err := observability.NewConsoleLogger(cmd.ErrOrStderr(), logLevel, logJSON)
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	rec, err := observability.NewPrometheusRecorder(reg)
	if err != nil {
		return err
	}
	current = &app{cfg: cfg, log: logger, rec: rec, registry: reg}
	logger.Debug("configured", "driver", cfg.Blob.Driver, "dataset", cfg.DatasetKey, "bands", fmt.Sprintf("%+v", cfg.Bands))
	return nil
}

func teardown(cmd *cobra.Command, _ []string) error {
	a := current
	release()
	if a != nil && metricsFlag {
		return observability.WriteText(cmd.ErrOrStderr(), a.registry)
	}
	return nil
}

// release closes the store of the current invocation, if any.
func release() {
	a := current
	current = nil
	if a == nil {
		return
	}
	if c, ok := a.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.log.Warn("close store", "error", err)
		}
	}
}

// openStore opens the resource store on first use.
func (a *app) openStore(ctx context.Context) (blob.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := blob.Open(ctx, a.cfg.Blob)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", a.cfg.Blob.Driver, err)
	}
	a.store = s
	return s, nil
}

// puzzles wires loader, engine, index and service over the store.
func (a *app) puzzles(ctx context.Context, rng puzzle.Rand) (*puzzle.Service, error) {
	if a.service != nil {
		return a.service, nil
	}
	s, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	loader := puzzle.NewLoader(s, a.cfg.DatasetKey, puzzle.LoaderOptions{Logger: a.log, Recorder: a.rec})
	engine := puzzle.NewEngine(loader, a.cfg.Bands, rng)
	a.service = puzzle.NewService(engine, puzzle.NewThemeIndex(loader, a.cfg.Bands), a.log, a.rec)
	return a.service, nil
}

func (a *app) ruleLoader(ctx context.Context) (*rules.Loader, error) {
	if a.rules != nil {
		return a.rules, nil
	}
	s, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.rules = rules.NewLoader(s, a.cfg.RulesPrefix, rules.LoaderOptions{Logger: a.log, Recorder: a.rec})
	return a.rules, nil
}

// randSource is satisfied by *rand.Rand and accepted by puzzle and rules.
type randSource interface {
	IntN(n int) int
}

// newRand returns a seeded generator, or nil for the process-wide one when
// seed is zero.
func newRand(seed uint64) randSource {
	if seed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func jsonOutput() bool { return formatFlag == "json" }

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func since(start time.Time) string { return time.Since(start).Round(time.Millisecond).String() }
