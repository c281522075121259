package policy

import (
	"context"
	"fmt"
	"strings"
)

// Compiler applies a single named stage to a circuit in place. The stage
// implementations live outside this module; Compiler is the seam.
type Compiler[C any] interface {
	Apply(ctx context.Context, stage Stage, c C) error
}

// CompilerFunc adapts a function to Compiler.
type CompilerFunc[C any] func(ctx context.Context, stage Stage, c C) error

// Apply calls f.
func (f CompilerFunc[C]) Apply(ctx context.Context, stage Stage, c C) error {
	return f(ctx, stage, c)
}

// StageError reports which stage of a plan failed.
type StageError struct {
	Position int
	Stage    Stage
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s): %v", e.Position, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Run applies stages to c in order and stops at the first failure.
// Cancellation is checked between stages.
func Run[C any](ctx context.Context, compiler Compiler[C], stages []Stage, c C) error {
	for i, st := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := compiler.Apply(ctx, st, c); err != nil {
			return &StageError{Position: i, Stage: st, Err: err}
		}
	}
	return nil
}

// Format renders a plan one stage per line.
func Format(stages []Stage) string {
	var b strings.Builder
	for _, st := range stages {
		b.WriteString(st.String())
		b.WriteByte('\n')
	}
	return b.String()
}
