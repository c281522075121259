package engine

import (
	"errors"
	"fmt"
)

// EngineErrorCode categorizes engine failures.
type EngineErrorCode string

const (
	// ErrCodeJobNotFound indicates the job id was never issued.
	ErrCodeJobNotFound EngineErrorCode = "JOB_NOT_FOUND"

	// ErrCodeClosed indicates the engine no longer accepts jobs.
	ErrCodeClosed EngineErrorCode = "ENGINE_CLOSED"

	// ErrCodeInvalidRequest indicates a malformed RunRequest.
	ErrCodeInvalidRequest EngineErrorCode = "INVALID_REQUEST"

	// ErrCodeUnsupported indicates an instruction or snapshot kind the
	// executor cannot handle.
	ErrCodeUnsupported EngineErrorCode = "UNSUPPORTED"

	// ErrCodeJobFailed indicates the job finished in ERROR or CANCELLED.
	ErrCodeJobFailed EngineErrorCode = "JOB_FAILED"
)

// EngineError is returned by LocalEngine and its executors.
type EngineError struct {
	Code    EngineErrorCode
	JobID   string
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.JobID != "" {
		msg += fmt.Sprintf(" (job=%s)", e.JobID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// IsJobNotFound reports whether err is an unknown-job error.
func IsJobNotFound(err error) bool {
	return hasCode(err, ErrCodeJobNotFound)
}

// IsUnsupported reports whether err comes from an executor limitation.
func IsUnsupported(err error) bool {
	return hasCode(err, ErrCodeUnsupported)
}

func hasCode(err error, code EngineErrorCode) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

func unsupported(format string, args ...any) *EngineError {
	return &EngineError{Code: ErrCodeUnsupported, Message: fmt.Sprintf(format, args...)}
}
