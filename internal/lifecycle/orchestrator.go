// Package lifecycle sequences application startup and shutdown against the
// database service: connectivity probe, schema/seed initialization,
// administrator verification, and a health snapshot, with fail-fast
// short-circuiting. Any failure in the sequence is fatal to that Initialize
// call; there are no retries and no degraded-but-running state.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/keenhq/keen/internal/database"
	"github.com/keenhq/keen/internal/model"
)

// State is the orchestrator's position in the startup/shutdown protocol.
type State string

const (
	StateUninitialized  State = "uninitialized"
	StateConnecting     State = "connecting"
	StateMigrating      State = "migrating"
	StateVerifyingAdmin State = "verifying-admin"
	StateReady          State = "ready"
	StateFailed         State = "failed"
	StateShuttingDown   State = "shutting-down"
	StateClosed         State = "closed"
)

// Orchestrator drives the startup sequence exactly once per process
// invocation. It is constructed with its collaborators rather than reaching
// for package-level state, so tests can run isolated instances.
type Orchestrator struct {
	svc        database.Service
	adminEmail string
	logger     *slog.Logger

	mu    sync.RWMutex
	state State
}

// New creates an orchestrator in the Uninitialized state.
func New(svc database.Service, adminEmail string, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		svc:        svc,
		adminEmail: adminEmail,
		logger:     logger,
		state:      StateUninitialized,
	}
}

// State returns the current lifecycle state. Safe for concurrent readers
// (the health server polls it while Initialize runs).
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Ready reports whether the startup sequence completed successfully.
func (o *Orchestrator) Ready() bool {
	return o.State() == StateReady
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// fail records the terminal Failed state, reports which phase failed and
// why, and returns the typed error.
func (o *Orchestrator) fail(phase Phase, kind, cause error) error {
	o.setState(StateFailed)
	perr := &PhaseError{Phase: phase, Kind: kind, Err: cause}
	o.logger.Error("startup failed", "phase", string(phase), "error", perr)
	return perr
}

// Initialize runs the four-step startup sequence. Each step waits for its
// result before the next is issued; the first failure aborts all later
// steps and is returned as a *PhaseError.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	o.setState(StateConnecting)
	o.logger.Info("testing database connectivity")
	ok, err := o.svc.TestConnection(ctx)
	if err != nil {
		return o.fail(PhaseConnect, ErrConnectivity, err)
	}
	if !ok {
		return o.fail(PhaseConnect, ErrConnectivity, nil)
	}
	o.logger.Info("database reachable")

	o.setState(StateMigrating)
	o.logger.Info("initializing database", "steps", "schema, seed")
	if err := o.svc.Initialize(ctx); err != nil {
		return o.fail(PhaseMigrate, ErrInitialization, err)
	}

	o.setState(StateVerifyingAdmin)
	user, err := o.svc.GetUserByEmail(ctx, o.adminEmail)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return o.fail(PhaseVerifyAdmin, ErrAdminMisconfigured,
				fmt.Errorf("no account matches admin email %q", o.adminEmail))
		}
		return o.fail(PhaseVerifyAdmin, ErrAdminMisconfigured, err)
	}
	if !user.IsAdmin {
		return o.fail(PhaseVerifyAdmin, ErrAdminMisconfigured,
			fmt.Errorf("account %q exists but is_admin is false", o.adminEmail))
	}
	o.logger.Info("administrator verified", "email", user.Email, "username", user.Username)

	status, err := o.svc.GetHealthStatus(ctx)
	if err != nil {
		return o.fail(PhaseHealth, ErrInitialization, err)
	}
	o.logger.Info("database health",
		"connected", status.Connected,
		"latency_ms", status.Latency,
		"pool_total", status.PoolStats.TotalCount,
		"pool_idle", status.PoolStats.IdleCount,
	)

	o.setState(StateReady)
	o.logger.Info("startup complete")
	return nil
}

// Shutdown closes the database service and transitions to Closed. It is safe
// to call whether or not Initialize ever ran or completed, and safe to call
// more than once.
func (o *Orchestrator) Shutdown() error {
	o.mu.Lock()
	if o.state == StateClosed {
		o.mu.Unlock()
		return nil
	}
	o.state = StateShuttingDown
	o.mu.Unlock()

	err := o.svc.Close()
	o.setState(StateClosed)
	if err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	o.logger.Info("shutdown complete")
	return nil
}

// HealthStatus re-queries the database on every call; snapshots are never
// cached.
func (o *Orchestrator) HealthStatus(ctx context.Context) (*model.HealthStatus, error) {
	return o.svc.GetHealthStatus(ctx)
}
