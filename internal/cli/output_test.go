package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aerbatch/internal/backend"
	"github.com/roach88/aerbatch/internal/circuit"
	"github.com/roach88/aerbatch/internal/engine"
	"github.com/roach88/aerbatch/internal/noise"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Success(map[string]string{"result": "success"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Error(ErrCodeGeneric, "it broke", map[string]int{"event": 3}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E001", resp.Error.Code)
	assert.Equal(t, "it broke", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextUsesRenderer(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Success(ValidationResult{Valid: true, Events: 2}))
	assert.Equal(t, "✓ Noise model valid (2 events)\n", buf.String())

	buf.Reset()
	require.NoError(t, f.Success("plain"))
	assert.Equal(t, "plain\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Error(ErrCodeNotFound, "missing", nil))
	assert.Equal(t, "Error [E002]: missing\n", buf.String())
}

func TestFail_Classification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		exit int
	}{
		{"malformed noise", fmt.Errorf("wrap: %w", &noise.MalformedNoiseModelError{Code: noise.ErrCodeSchema, Index: -1}), ErrCodeMalformedNoise, ExitFailure},
		{"validation", &circuit.ValidationError{Predicate: "GateSetPredicate", Err: errors.New("x")}, ErrCodeValidation, ExitFailure},
		{"unsupported", &backend.UnsupportedFeatureError{Backend: "AerUnitaryBackend", Feature: "shots"}, ErrCodeUnsupported, ExitFailure},
		{"job failed", &engine.EngineError{Code: engine.ErrCodeJobFailed}, ErrCodeJobFailed, ExitFailure},
		{"other", errors.New("boom"), ErrCodeGeneric, ExitCommandError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			f := &OutputFormatter{Format: "json", Writer: buf}

			err := f.Fail("failed", tt.err)
			assert.Equal(t, tt.exit, GetExitCode(err))
			assert.ErrorIs(t, err, tt.err)

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("x")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitCommandError, "bad"))))
}
