// Package cli provides common CLI initialization utilities shared by the
// budget-report subcommands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"budgetreport/internal/log"
	"budgetreport/internal/storage"
)

// SetupLogger builds a text logger at the given level writing to w and
// makes it the slog default. debug forces the debug level.
func SetupLogger(w io.Writer, level string, debug bool) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if debug {
		lvl, _ = log.ParseLevel("debug")
	}
	logger := log.New(log.Config{Level: lvl, Output: w, Component: log.ComponentApp})
	log.SetDefault(logger)
	return logger, nil
}

// LoadEnvFile loads a .env file for local development. Without an explicit
// path a missing .env is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// OpenArchive opens the run archive at dbPath.
func OpenArchive(logger *log.Logger, dbPath string) (*storage.SQLiteRepository, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("no run archive configured (set ARCHIVE_DB_PATH)")
	}
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open run archive %s: %w", dbPath, err)
	}
	logger.Debug("Opened run archive", log.FieldPath, dbPath)
	return repo, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
