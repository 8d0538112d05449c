package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/keenhq/keen/internal/config"
	"github.com/keenhq/keen/internal/database"
	"github.com/keenhq/keen/internal/lifecycle"
)

// envKeyReplacer maps nested config keys to env var shape, so
// database.dsn resolves from KEEN_DATABASE_DSN.
var envKeyReplacer = strings.NewReplacer(".", "_")

// openService builds the database service from config. Overridable in tests
// to substitute a scripted collaborator.
var openService = func(cfg *config.Config, logger *slog.Logger) (database.Service, error) {
	return database.Open(database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		AdminEmail:      cfg.Admin.Email,
		SeedFile:        cfg.Seed.File,
		MaxOpenConns:    cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:    cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.Pool.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.Pool.ConnMaxIdleTime,
	}, logger)
}

// newLogger builds the process logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// buildOrchestrator resolves configuration, opens the database service, and
// returns an orchestrator ready to run the startup sequence.
func buildOrchestrator() (*lifecycle.Orchestrator, *config.Config, *slog.Logger, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, nil, err
	}

	logger := newLogger(cfg)
	svc, err := openService(cfg, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database service: %w", err)
	}

	return lifecycle.New(svc, cfg.Admin.Email, logger), cfg, logger, nil
}
