// Package cli holds process bootstrap shared by the fintrack subcommands and
// the implementation of the data subcommands themselves.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// SetupLogger builds the process logger from cfg and installs it as the
// slog default. Interactive subcommands log to stderr so stdout stays clean,
// and default to the pretty format.
func SetupLogger(cfg *config.Config, w io.Writer, interactive bool) *applog.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := applog.New(applog.Config{
		Level:     cfg.SlogLevel(),
		Format:    cfg.LogFormatFor(interactive),
		Component: applog.ComponentCLI,
		Output:    w,
	})
	applog.SetDefault(logger)
	return logger
}

// IsInteractive reports whether command is run by a person at a terminal
// rather than as a long-running service.
func IsInteractive(command string) bool {
	return command != "serve" && command != "watch"
}

// LoadEnvFile loads a .env file for local development. A missing file is
// not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig reads the environment and validates the result.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}
	return cfg, nil
}

// InitStorage opens the database at the resolved path. On failure it logs
// and returns a nil store, so every operation reports storage unavailable
// instead of the process exiting.
func InitStorage(ctx context.Context, logger *applog.Logger, dbPath string) (services.Store, func()) {
	path := storage.ResolvePath(dbPath)
	repo, err := storage.NewSQLiteRepository(ctx, path)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize SQLite repository",
			applog.FieldError, err,
			"path", path)
		return nil, func() {}
	}

	logger.DebugContext(ctx, "SQLite repository ready", "path", repo.Path())
	return repo, func() {
		if err := repo.Close(); err != nil {
			logger.WarnContext(ctx, "Failed to close SQLite repository", applog.FieldError, err)
		}
	}
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// IsCancelled reports whether err only signals a requested shutdown.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
