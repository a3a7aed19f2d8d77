// Package cli holds the start-up steps shared by the bikedash binaries.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bikedash/internal/backend"
	"bikedash/internal/config"
	"bikedash/internal/dataset"
	applog "bikedash/internal/log"
)

// SetupLogger installs a text logger at the LOG_LEVEL from the environment
// and returns it.
func SetupLogger(component string) *applog.Logger {
	level, err := config.ParseLevel(os.Getenv("LOG_LEVEL"))
	logger := applog.New(applog.Config{Level: level, Component: component, Output: os.Stdout})
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info log level", "error", err)
	}
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is not an
// error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and exits on validation
// failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// LoadRecordSet opens the configured backend and loads the record set once.
// Load errors are fatal.
func LoadRecordSet(ctx context.Context, logger *applog.Logger, cfg *config.Config) dataset.RecordSet {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	src, cleanup, err := backend.Open(bcfg, logger.Logger)
	if err != nil {
		logger.Error("Failed to open record source", "error", err)
		os.Exit(1)
	}

	start := time.Now()
	rs, err := loadAndRelease(ctx, logger, src, cleanup)
	if err != nil {
		logger.Error("Failed to load records", applog.FieldSource, src.Describe(), "error", err)
		os.Exit(1)
	}
	logger.Info("Records loaded",
		applog.FieldSource, src.Describe(),
		applog.FieldRecords, rs.Len(),
		applog.FieldDuration, time.Since(start).Milliseconds())
	return rs
}

// loadAndRelease loads src and runs cleanup whether or not the load
// succeeded.
func loadAndRelease(ctx context.Context, logger *applog.Logger, src backend.Source, cleanup backend.CleanupFunc) (dataset.RecordSet, error) {
	rs, err := src.Load(ctx)
	if cerr := cleanup(); cerr != nil {
		logger.Warn("Failed to close record source", applog.FieldSource, src.Describe(), "error", cerr)
	}
	return rs, err
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM, after
// cleanup has run, and a channel closed once shutdown is complete.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		cancel()

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is
// done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
