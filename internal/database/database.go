package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/keenhq/keen/internal/model"
)

// driverNames maps the configured driver to the database/sql driver to open.
var driverNames = map[string]string{
	"postgres": "pgx",
	"sqlite":   "sqlite",
}

// DB implements Service on top of a sqlx connection pool. The pool is opened
// lazily: Open does not dial the database, so connectivity problems surface
// at TestConnection rather than at construction.
type DB struct {
	db     *sqlx.DB
	cfg    Config
	logger *slog.Logger
}

// Open creates a DB for the configured driver. It validates the driver name
// and configures the pool but performs no network I/O.
func Open(cfg Config, logger *slog.Logger) (*DB, error) {
	driverName, ok := driverNames[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q; supported: postgres, sqlite", cfg.Driver)
	}

	db, err := sqlx.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == "sqlite" {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
		if cfg.ConnMaxIdleTime > 0 {
			db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
		}
	}

	return &DB{db: db, cfg: cfg, logger: logger}, nil
}

// TestConnection pings the database and reports whether it is reachable.
func (d *DB) TestConnection(ctx context.Context) (bool, error) {
	if err := d.db.PingContext(ctx); err != nil {
		return false, fmt.Errorf("%s ping: %w", d.cfg.Driver, err)
	}
	return true, nil
}

// Initialize applies the schema statements for the configured driver, then
// the seed fixture, then guarantees the administrator account exists.
func (d *DB) Initialize(ctx context.Context) error {
	if err := d.applySchema(ctx); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if err := d.applySeed(ctx); err != nil {
		return fmt.Errorf("apply seed: %w", err)
	}
	return nil
}

// GetHealthStatus produces a fresh snapshot: ping round-trip latency and
// pool occupancy from database/sql stats.
func (d *DB) GetHealthStatus(ctx context.Context) (*model.HealthStatus, error) {
	start := time.Now()
	err := d.db.PingContext(ctx)
	latency := float64(time.Since(start).Microseconds()) / 1000.0

	stats := d.db.Stats()
	status := &model.HealthStatus{
		Connected: err == nil,
		Latency:   latency,
		PoolStats: model.PoolStats{
			TotalCount: stats.OpenConnections,
			IdleCount:  stats.Idle,
		},
	}
	if err != nil {
		return status, fmt.Errorf("health ping: %w", err)
	}
	return status, nil
}

// Close releases the connection pool.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Unwrap returns the underlying sqlx pool, for tests and tooling.
func (d *DB) Unwrap() *sqlx.DB {
	return d.db
}
