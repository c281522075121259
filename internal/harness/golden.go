package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/aerbatch/internal/canon"
)

// TraceSnapshot is the golden-file form of a run.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Backend      string       `json:"backend"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap flattens the snapshot for canon.Marshal. Empty fields are
// dropped so the golden files only show what a step observed.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		m := map[string]any{
			"type": ev.Type,
			"seq":  ev.Seq,
		}
		if ev.Circuit >= 0 {
			m["circuit"] = ev.Circuit
		}
		if ev.JobID != "" {
			m["job_id"] = ev.JobID
			m["position"] = ev.Position
		}
		if ev.Status != "" {
			m["status"] = ev.Status
		}
		if ev.Counts != nil {
			counts := make(map[string]any, len(ev.Counts))
			for k, v := range ev.Counts {
				counts[k] = v
			}
			m["counts"] = counts
		}
		if ev.Error != "" {
			m["error"] = ev.Error
		}
		traceList[i] = m
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"backend":       s.Backend,
		"trace":         traceList,
	}
}

// RunWithGolden runs scenario and compares its canonical trace with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace with the golden file.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	backendKey := scenario.Backend
	if backendKey == "" {
		backendKey = "shots"
	}
	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		Backend:      backendKey,
		Trace:        result.Trace,
	}
	data, err := canon.Marshal(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
