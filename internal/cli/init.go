// Package cli provides common CLI initialization utilities shared by the
// commands under cmd/.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"cobranca/internal/config"
	"cobranca/internal/core"
	"cobranca/internal/log"
	"cobranca/internal/store"
	"cobranca/internal/store/memory"
	"cobranca/internal/store/sqlite"
)

// LoadEnvFile loads the .env file for local development. A missing file is
// not an error.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the logger described by cfg and makes it the default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	logger := log.New(cfg.LoggerConfig(component))
	log.SetDefault(logger)
	return logger
}

// OpenSnapshot loads the memory store from path. A missing file yields an
// empty store.
func OpenSnapshot(logger *log.Logger, path string) (*memory.Store, error) {
	st, err := memory.NewFromFile(path)
	switch {
	case err == nil:
		logger.Info("Snapshot loaded", log.FieldPath, path)
		return st, nil
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn("Snapshot not found, starting empty", log.FieldPath, path)
		return memory.New(), nil
	default:
		return nil, err
	}
}

// OpenStore opens the store adapter selected by cfg. The returned func
// releases it.
func OpenStore(logger *log.Logger, cfg *config.Config) (store.Store, func() error, error) {
	switch strings.ToLower(cfg.StoreDriver) {
	case config.StoreSQLite:
		repo, err := sqlite.NewSQLiteRepository(cfg.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("SQLite store opened", log.FieldPath, cfg.DatabasePath)
		return repo, repo.Close, nil
	case config.StoreMemory, "":
		st, err := OpenSnapshot(logger, cfg.SnapshotPath)
		if err != nil {
			return nil, nil, err
		}
		return st, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// ExitCode maps an error to a process exit status. Expected domain errors
// exit with 2 so scripts can tell them from crashes.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, core.ErrNotFound),
		errors.Is(err, core.ErrInvalidDateFormat),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrIncompleteSchedule),
		errors.Is(err, core.ErrAmountMismatch):
		return 2
	default:
		return 1
	}
}
