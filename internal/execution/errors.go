package execution

import (
	"errors"
	"fmt"

	"github.com/roach88/aerbatch/internal/engine"
)

// NotRunError is returned for a handle this manager never minted.
type NotRunError struct {
	Handle ResultHandle
}

func (e *NotRunError) Error() string {
	return fmt.Sprintf("circuit %s has not been run", e.Handle)
}

// IsNotRun reports whether err is a NotRunError.
func IsNotRun(err error) bool {
	var nr *NotRunError
	return errors.As(err, &nr)
}

// ConfigurationError reports an engine status outside the known vocabulary.
type ConfigurationError struct {
	Native engine.NativeStatus
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unrecognised engine job status %q", e.Native)
}

// IsConfiguration reports whether err is a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
