package harness

import (
	"github.com/roach88/aerbatch/internal/execution"
	"github.com/roach88/aerbatch/internal/noise"
)

// TraceEvent is one observation made while running a step.
//
// Circuit is -1 for events that concern the whole step, such as a
// rejected batch.
type TraceEvent struct {
	Type     string         `json:"type"`
	Circuit  int            `json:"circuit"`
	JobID    string         `json:"job_id,omitempty"`
	Position int            `json:"position"`
	Status   string         `json:"status,omitempty"`
	Counts   map[string]int `json:"counts,omitempty"`
	Error    string         `json:"error,omitempty"`
	Seq      int64          `json:"seq"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	// Handles holds one handle per processed circuit in submission order.
	Handles []execution.ResultHandle `json:"handles"`

	// Characterization is the backend's noise characterisation. It is
	// noiseless without a noise model and nil for kinds that take none.
	Characterization *noise.Characterization `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Errors:  []string{},
		Handles: []execution.ResultHandle{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addEvent(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
