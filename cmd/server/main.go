/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the saju engine HTTP server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and load config (YAML + env)
  2. Build the zap logger
  3. Open the SQLite almanac when enabled, seeding it if empty
  4. Create calculators, seed runner and API handler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config path (default: saju.yaml, missing file = defaults)
  -port    HTTP server port, overrides server.port
  -db      SQLite almanac path, overrides almanac.database_path and
           enables the almanac. Use ":memory:" for a throwaway store

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (server.shutdown_timeout)
  3. Stop the seed runner
  4. Close database connection

EXAMPLES:
  # Formula only
  ./server

  # Almanac in a file, seeded on first start via config almanac.seed_from/seed_to
  ./server -db="./data/almanac.db"

ENVIRONMENT:
  SAJU_PORT, SAJU_DB, SAJU_LOG_LEVEL, SAJU_TIME_CORRECTION (see config/)

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Almanac store
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/warp/saju-engine/api"
	"github.com/warp/saju-engine/config"
	"github.com/warp/saju-engine/saju"
	"github.com/warp/saju-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Flags
	configPath := flag.String("config", "saju.yaml", "YAML config path")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite almanac path (overrides config, enables the almanac)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Almanac.DatabasePath = *dbPath
		cfg.Almanac.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	calc := saju.NewCalculator(
		saju.WithLogger(logger.Named("saju")),
		saju.WithSolarTimeOffset(cfg.SolarTimeOffset()),
		saju.WithNightZi(cfg.Calculation.NightZi),
	)
	opts := []api.HandlerOption{api.WithLogger(logger.Named("api"))}

	// Initialize almanac store
	if cfg.Almanac.Enabled {
		store, err := sqlite.New(cfg.Almanac.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open almanac: %w", err)
		}
		defer store.Close()

		if cfg.Almanac.SeedFrom != 0 {
			if _, err := api.SeedIfEmpty(context.Background(), store, cfg.Almanac.SeedFrom, cfg.Almanac.SeedTo, logger); err != nil {
				return fmt.Errorf("failed to seed almanac: %w", err)
			}
		}

		almanac, err := saju.NewAlmanacCalculator(store, calc)
		if err != nil {
			return err
		}

		runner := api.NewSeedRunner(store, logger.Named("seed"))
		runner.Start()
		defer runner.Stop()

		opts = append(opts, api.WithAlmanac(almanac), api.WithSeeder(runner))
		logger.Info("almanac enabled", zap.String("path", cfg.Almanac.DatabasePath))
	}

	handler := api.NewHandler(calc, opts...)
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins...)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  cfg.IdleTimeout(),
	}

	// Start server in goroutine
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.Int("solar_time_offset", cfg.SolarTimeOffset()),
			zap.Bool("night_zi", cfg.Calculation.NightZi))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if cfg.Logging.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
