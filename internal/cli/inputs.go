package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/roach88/aerbatch/internal/backend"
	"github.com/roach88/aerbatch/internal/circuit"
	"github.com/roach88/aerbatch/internal/noise"
)

// failInput reports a load failure: unreadable files are command errors,
// malformed content is a rejection.
func (f *OutputFormatter) failInput(message string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		_ = f.Error(ErrCodeNotFound, fmt.Sprintf("%s: %v", message, err), nil)
		return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", ErrCodeNotFound, message), err)
	case noise.IsMalformed(err):
		return f.Fail(message, err)
	default:
		_ = f.Error(ErrCodeParseFailed, fmt.Sprintf("%s: %v", message, err), nil)
		return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", ErrCodeParseFailed, message), err)
	}
}

// failArg reports a bad flag value.
func (f *OutputFormatter) failArg(err error) error {
	_ = f.Error(ErrCodeInvalidArg, err.Error(), nil)
	return WrapExitError(ExitCommandError, ErrCodeInvalidArg+": invalid argument", err)
}

// loadNoise loads the optional noise model at path. An empty path means
// no noise model.
func loadNoise(f *OutputFormatter, path string) (*noise.NoiseModel, error) {
	if path == "" {
		return nil, nil
	}
	model, err := noise.LoadNoiseModel(path)
	if err != nil {
		return nil, f.failInput("failed to load noise model", err)
	}
	return model, nil
}

func loadBatch(f *OutputFormatter, path string) (*circuit.BatchFile, error) {
	bf, err := circuit.LoadBatchFile(path)
	if err != nil {
		return nil, f.failInput("failed to load batch file", err)
	}
	return bf, nil
}

func parseKind(f *OutputFormatter, s string) (backend.Kind, error) {
	kind, err := backend.ParseKind(s)
	if err != nil {
		return 0, f.failArg(err)
	}
	return kind, nil
}
