package execution

import (
	"fmt"

	"github.com/roach88/aerbatch/internal/engine"
)

// ResultHandle identifies one submitted circuit. Position indexes the
// circuit within its job, not within the caller's submission.
//
// Handles are comparable values and are used directly as cache keys.
type ResultHandle struct {
	JobID          string `json:"job_id"`
	Position       int    `json:"position"`
	QubitCount     int    `json:"qubit_count"`
	PostProcessing string `json:"post_processing"`
}

// String renders the handle in a stable, human-readable form.
func (h ResultHandle) String() string {
	return fmt.Sprintf("(%q, %d, %d, %q)", h.JobID, h.Position, h.QubitCount, h.PostProcessing)
}

// Submission is one circuit ready for the engine.
type Submission struct {
	Program        engine.Program
	QubitCount     int
	PostProcessing string
}

// Result is the cached outcome of one circuit.
type Result struct {
	Handle ResultHandle `json:"handle"`
	engine.CircuitResult
}
