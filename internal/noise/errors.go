package noise

import (
	"errors"
	"fmt"
)

// MalformedCode categorises why a noise model was rejected.
type MalformedCode string

const (
	// ErrCodeMultiOperation indicates an event names more than one operation.
	ErrCodeMultiOperation MalformedCode = "MULTI_OPERATION"

	// ErrCodeImplicitTargets indicates an event applies to all qubits.
	// Topology cannot be derived from such events.
	ErrCodeImplicitTargets MalformedCode = "IMPLICIT_TARGETS"

	// ErrCodeUnsupportedArity indicates an event targets neither one nor two qubits.
	ErrCodeUnsupportedArity MalformedCode = "UNSUPPORTED_ARITY"

	// ErrCodeUnknownOperation indicates an operation name outside the OpKind set.
	ErrCodeUnknownOperation MalformedCode = "UNKNOWN_OPERATION"

	// ErrCodeUnknownErrorType indicates a type other than qerror/roerror.
	ErrCodeUnknownErrorType MalformedCode = "UNKNOWN_ERROR_TYPE"

	// ErrCodeBadProbabilities indicates missing or out-of-shape probabilities.
	ErrCodeBadProbabilities MalformedCode = "BAD_PROBABILITIES"

	// ErrCodeGateSet indicates the backend gate set cannot host a characterisation.
	ErrCodeGateSet MalformedCode = "GATE_SET"

	// ErrCodeSchema indicates the document failed schema validation.
	ErrCodeSchema MalformedCode = "SCHEMA"
)

// MalformedNoiseModelError rejects a noise model outright. No partial
// characterisation accompanies it.
type MalformedNoiseModelError struct {
	Code MalformedCode

	// Index is the position of the offending event, or -1 for model-level errors.
	Index int

	Message string
}

// Error implements the error interface.
func (e *MalformedNoiseModelError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("malformed noise model: %s: %s (event %d)", e.Code, e.Message, e.Index)
	}
	return fmt.Sprintf("malformed noise model: %s: %s", e.Code, e.Message)
}

// IsMalformed returns true if err is (or wraps) a MalformedNoiseModelError.
func IsMalformed(err error) bool {
	var me *MalformedNoiseModelError
	return errors.As(err, &me)
}

func malformed(code MalformedCode, index int, format string, args ...any) *MalformedNoiseModelError {
	return &MalformedNoiseModelError{
		Code:    code,
		Index:   index,
		Message: fmt.Sprintf(format, args...),
	}
}
