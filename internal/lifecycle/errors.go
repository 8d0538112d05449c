package lifecycle

import (
	"errors"
	"fmt"
)

// Phase identifies one step of the startup sequence. Every fatal startup
// error carries the phase it surfaced in.
type Phase string

const (
	PhaseConnect     Phase = "connect"
	PhaseMigrate     Phase = "migrate"
	PhaseVerifyAdmin Phase = "verify-admin"
	PhaseHealth      Phase = "health"
)

// Sentinel error kinds for the three fatal startup conditions. Match with
// errors.Is.
var (
	// ErrConnectivity means the connectivity probe returned false or failed.
	ErrConnectivity = errors.New("database connectivity failure")
	// ErrInitialization wraps whatever the migrate/seed (or health) step raised.
	ErrInitialization = errors.New("database initialization failure")
	// ErrAdminMisconfigured means the configured administrator account is
	// absent or lacks admin rights.
	ErrAdminMisconfigured = errors.New("administrator account misconfigured")
)

// PhaseError is the typed failure returned by Initialize: a phase tag, one of
// the sentinel kinds, and the underlying cause (nil when the phase failed by
// contract rather than by error, e.g. a false connectivity probe).
type PhaseError struct {
	Phase Phase
	Kind  error
	Err   error
}

func (e *PhaseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("startup phase %s: %v", e.Phase, e.Kind)
	}
	return fmt.Sprintf("startup phase %s: %v: %v", e.Phase, e.Kind, e.Err)
}

// Unwrap exposes both the sentinel kind and the cause, so errors.Is reaches
// either.
func (e *PhaseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
