package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/aerbatch/internal/backend"
	"github.com/roach88/aerbatch/internal/circuit"
	"github.com/roach88/aerbatch/internal/engine"
	"github.com/roach88/aerbatch/internal/noise"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected input: malformed noise model, failed predicate, failed job
	ExitCommandError = 2 // Command error (missing file, bad flag, ledger unavailable)
)

// Error codes reported in CLI responses.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E002" // Input file not found or unreadable
	ErrCodeParseFailed = "E003" // Input file failed to decode
	ErrCodeInvalidArg  = "E004" // Flag or argument out of range
	ErrCodeLedger      = "E005" // Ledger could not be opened or read

	ErrCodeMalformedNoise = "E101" // Noise model rejected by the classifier
	ErrCodeValidation     = "E102" // Circuit failed a backend predicate
	ErrCodeUnsupported    = "E103" // Backend variant cannot serve the request
	ErrCodeJobFailed      = "E104" // Engine reported a failed or cancelled job
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// textRenderer is implemented by payloads with a human-readable form.
type textRenderer interface {
	RenderText(w io.Writer) error
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

func newFormatter(opts *RootOptions, w io.Writer) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: w}
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{Status: "ok", Data: data})
	}
	if r, ok := data.(textRenderer); ok {
		return r.RenderText(f.Writer)
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	_, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	return err
}

// Fail reports err through the formatter and returns the matching
// ExitError. The error code and exit code follow the error's type.
func (f *OutputFormatter) Fail(message string, err error) error {
	code, exit := classify(err)
	var details any
	var me *noise.MalformedNoiseModelError
	var ve *circuit.ValidationError
	switch {
	case errors.As(err, &me):
		details = map[string]any{"code": me.Code, "event": me.Index}
	case errors.As(err, &ve):
		details = map[string]any{"circuit": ve.Index, "predicate": ve.Predicate}
	}
	_ = f.Error(code, fmt.Sprintf("%s: %v", message, err), details)
	return WrapExitError(exit, fmt.Sprintf("%s: %s", code, message), err)
}

// classify maps an error onto a response code and exit code.
func classify(err error) (string, int) {
	var (
		exitErr *ExitError
		engErr  *engine.EngineError
	)
	switch {
	case noise.IsMalformed(err):
		return ErrCodeMalformedNoise, ExitFailure
	case circuit.IsValidation(err):
		return ErrCodeValidation, ExitFailure
	case backend.IsUnsupportedFeature(err):
		return ErrCodeUnsupported, ExitFailure
	case errors.As(err, &engErr) && engErr.Code == engine.ErrCodeJobFailed:
		return ErrCodeJobFailed, ExitFailure
	case errors.As(err, &exitErr):
		return ErrCodeGeneric, exitErr.Code
	default:
		return ErrCodeGeneric, ExitCommandError
	}
}
