package database

import (
	"context"
	"errors"
	"time"

	"github.com/keenhq/keen/internal/model"
)

// ErrUserNotFound is returned by user lookups when no account matches.
var ErrUserNotFound = errors.New("user not found")

// Service is the database collaborator consumed by the lifecycle
// orchestrator. All methods are safe to call sequentially from a single
// goroutine; the orchestrator never calls them concurrently.
type Service interface {
	// TestConnection probes connectivity. It has no side effects beyond the
	// ping itself. A false return or an error both mean the database is
	// unreachable.
	TestConnection(ctx context.Context) (bool, error)

	// Initialize applies the schema statements and seed fixtures. Partial
	// failures are surfaced as-is; cleanup of partially applied state is the
	// database's concern (statements are idempotent), not the caller's.
	Initialize(ctx context.Context) error

	// GetUserByEmail looks up an account by email. Returns ErrUserNotFound
	// when absent.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// GetHealthStatus produces a fresh health snapshot on every call. When
	// the ping fails it returns a snapshot with Connected=false alongside
	// the error.
	GetHealthStatus(ctx context.Context) (*model.HealthStatus, error)

	// Close releases the connection pool. Safe to call if the pool was never
	// opened, and safe to call more than once.
	Close() error
}

// Config selects the driver and connection behavior for the SQL-backed
// Service implementation.
type Config struct {
	// Driver is "postgres" or "sqlite".
	Driver string
	// DSN is the connection string (":memory:" works for sqlite).
	DSN string
	// AdminEmail is the account the seed step guarantees to exist with
	// administrator rights.
	AdminEmail string
	// SeedFile optionally overrides the embedded seed fixture.
	SeedFile string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}
