package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/warp/saju-engine/config"
	"github.com/warp/saju-engine/saju"
	"github.com/warp/saju-engine/store/sqlite"
)

// app carries state shared by every subcommand.
type app struct {
	configPath string
	dbPath     string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
	store  *sqlite.Store
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "saju",
		Short:         "Four Pillars (사주) calculator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config path (optional)")
	cmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite almanac path; enables almanac lookups")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging to stderr")

	cmd.AddCommand(
		pillarsCmd(a),
		daeunCmd(a),
		saeunCmd(a),
		termsCmd(a),
		seedCmd(a),
	)
	return cmd
}

func (a *app) setup(stderr io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.Almanac.DatabasePath = a.dbPath
		cfg.Almanac.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	if a.verbose {
		level = zapcore.DebugLevel
	}
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	a.logger = zap.New(zapcore.NewCore(encoder, zapcore.AddSync(stderr), level))
	return nil
}

// close releases the store and flushes the logger. Every RunE defers it.
func (a *app) close() error {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			return err
		}
		a.store = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return nil
}

// openStore opens the configured almanac once per invocation.
func (a *app) openStore() (*sqlite.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if !a.cfg.Almanac.Enabled {
		return nil, fmt.Errorf("%w: pass --db or enable almanac in config", saju.ErrUnconfigured)
	}
	s, err := sqlite.New(a.cfg.Almanac.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open almanac: %w", err)
	}
	a.store = s
	return s, nil
}

// chartEngine is the surface shared by the formula and almanac calculators.
type chartEngine interface {
	Compute(ctx context.Context, m saju.BirthMoment) (saju.Reading, error)
	Daeun(ctx context.Context, m saju.BirthMoment, g saju.Gender) (saju.DaeunList, error)
}

// engine builds the calculator from config plus per-command options, and
// wraps it in the almanac when one is enabled.
func (a *app) engine(opts ...saju.Option) (chartEngine, error) {
	base := []saju.Option{
		saju.WithLogger(a.logger),
		saju.WithSolarTimeOffset(a.cfg.SolarTimeOffset()),
		saju.WithNightZi(a.cfg.Calculation.NightZi),
	}
	calc := saju.NewCalculator(append(base, opts...)...)
	if !a.cfg.Almanac.Enabled {
		return calc, nil
	}
	s, err := a.openStore()
	if err != nil {
		return nil, err
	}
	return saju.NewAlmanacCalculator(s, calc)
}
