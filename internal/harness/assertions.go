package harness

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/aerbatch/internal/execution"
	"github.com/roach88/aerbatch/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", ev.Seq, ev.Type, describe(ev))
		}
	}
	return buf.String()
}

func describe(ev TraceEvent) string {
	if ev.Circuit < 0 {
		return "batch " + ev.Error
	}
	s := fmt.Sprintf("circuit %d (%s/%d)", ev.Circuit, ev.JobID, ev.Position)
	switch {
	case ev.Error != "":
		s += " error=" + ev.Error
	case ev.Status != "":
		s += " status=" + ev.Status
	case ev.Counts != nil:
		s += fmt.Sprintf(" counts=%v", ev.Counts)
	}
	return s
}

// AssertionContext carries what non-trace assertions inspect.
type AssertionContext struct {
	Store   *store.Store
	Ctx     context.Context
	Handles []execution.ResultHandle
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertJobCount:
			err = assertJobCount(actx.Handles, a)
		case AssertSameJob:
			err = assertSameJob(actx.Handles, a)
		case AssertCounts:
			err = assertCounts(result.Trace, a)
		case AssertLedgerStatus:
			err = assertLedgerStatus(actx.Ctx, actx.Store, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return failures
}

// assertTraceContains looks for one event of the action per listed
// circuit, or any event when no circuits are listed. A non-empty Error
// must match too.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	matches := func(ev TraceEvent, circuit int) bool {
		if ev.Type != a.Action || (a.Error != "" && ev.Error != a.Error) {
			return false
		}
		return circuit < 0 || ev.Circuit == circuit
	}
	want := a.Circuits
	if len(want) == 0 {
		want = []int{-1}
	}

	for _, c := range want {
		if !slices.ContainsFunc(trace, func(ev TraceEvent) bool { return matches(ev, c) }) {
			expected := a.Action
			if c >= 0 {
				expected += fmt.Sprintf(" for circuit %d", c)
			}
			if a.Error != "" {
				expected += " with error " + a.Error
			}
			return &AssertionError{
				Type:     AssertTraceContains,
				Expected: expected,
				Actual:   "not found in trace",
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceOrder checks the first occurrence of each action. Actions
// need not be adjacent.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, ev := range trace {
		if _, seen := positions[ev.Type]; !seen {
			positions[ev.Type] = i + 1
		}
	}

	for _, action := range a.Actions {
		if positions[action] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all actions present: %v", a.Actions),
				Actual:   fmt.Sprintf("missing action: %s", action),
				Trace:    trace,
			}
		}
	}
	for i := 1; i < len(a.Actions); i++ {
		prev, curr := a.Actions[i-1], a.Actions[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("actions in order: %v", a.Actions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Type == a.Action {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Action),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

func assertJobCount(handles []execution.ResultHandle, a Assertion) error {
	jobs := make(map[string]struct{})
	for _, h := range handles {
		jobs[h.JobID] = struct{}{}
	}
	if len(jobs) != a.Count {
		return &AssertionError{
			Type:     AssertJobCount,
			Expected: fmt.Sprintf("%d jobs", a.Count),
			Actual:   fmt.Sprintf("%d jobs %v", len(jobs), slices.Sorted(maps.Keys(jobs))),
		}
	}
	return nil
}

func assertSameJob(handles []execution.ResultHandle, a Assertion) error {
	var first string
	for i, c := range a.Circuits {
		if c < 0 || c >= len(handles) {
			return &AssertionError{
				Type:     AssertSameJob,
				Expected: fmt.Sprintf("circuit %d processed", c),
				Actual:   fmt.Sprintf("%d circuits processed", len(handles)),
			}
		}
		id := handles[c].JobID
		if i == 0 {
			first = id
			continue
		}
		if id != first {
			return &AssertionError{
				Type:     AssertSameJob,
				Expected: fmt.Sprintf("circuits %v in one job", a.Circuits),
				Actual:   fmt.Sprintf("circuit %d in %s, circuit %d in %s", a.Circuits[0], first, c, id),
			}
		}
	}
	return nil
}

// assertCounts checks the last successful result event for the circuit.
func assertCounts(trace []TraceEvent, a Assertion) error {
	var got map[string]int
	found := false
	for _, ev := range trace {
		if ev.Type == ActionResult && ev.Circuit == a.Circuit && ev.Error == "" {
			got, found = ev.Counts, true
		}
	}
	if !found {
		return &AssertionError{
			Type:     AssertCounts,
			Expected: fmt.Sprintf("result for circuit %d", a.Circuit),
			Actual:   "no successful result in trace",
			Trace:    trace,
		}
	}
	if !maps.Equal(got, a.Expect) {
		return &AssertionError{
			Type:     AssertCounts,
			Expected: fmt.Sprintf("circuit %d counts %v", a.Circuit, a.Expect),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

func assertLedgerStatus(ctx context.Context, st *store.Store, a Assertion) error {
	jobs, err := st.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	for _, j := range jobs {
		if j.JobID != a.Job {
			continue
		}
		if j.LastStatus != a.Status {
			return &AssertionError{
				Type:     AssertLedgerStatus,
				Expected: fmt.Sprintf("%s last status %s", a.Job, a.Status),
				Actual:   fmt.Sprintf("%q", j.LastStatus),
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertLedgerStatus,
		Expected: fmt.Sprintf("job %s recorded", a.Job),
		Actual:   fmt.Sprintf("%d jobs in ledger", len(jobs)),
	}
}
