package execution

import (
	"github.com/roach88/aerbatch/internal/engine"
)

// Status is the canonical job state reported to callers.
type Status string

const (
	StatusQueued    Status = "QUEUED"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusError     Status = "ERROR"
)

// CircuitStatus is a status plus the engine's native wording.
type CircuitStatus struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// statusTable maps the engine vocabulary onto Status. INITIALIZING and
// VALIDATING are pre-queue phases and report as queued.
var statusTable = map[engine.NativeStatus]Status{
	engine.StatusInitializing: StatusQueued,
	engine.StatusValidating:   StatusQueued,
	engine.StatusQueued:       StatusQueued,
	engine.StatusRunning:      StatusRunning,
	engine.StatusDone:         StatusCompleted,
	engine.StatusCancelled:    StatusCancelled,
	engine.StatusError:        StatusError,
}

// MapStatus translates a native status. A status outside the table means
// the engine and this package disagree on vocabulary, which is a
// configuration problem rather than a job failure.
func MapStatus(native engine.NativeStatus) (Status, error) {
	s, ok := statusTable[native]
	if !ok {
		return "", &ConfigurationError{Native: native}
	}
	return s, nil
}
