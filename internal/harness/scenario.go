package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/aerbatch/internal/backend"
)

// Scenario is one scripted backend session.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Backend is a kind key; empty means shots.
	Backend string `yaml:"backend,omitempty"`

	// Noise is an optional noise model file.
	Noise string `yaml:"noise,omitempty"`

	// Seed is the first job's simulator seed.
	Seed *int `yaml:"seed,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one call into the backend.
type Step struct {
	Action string `yaml:"action"`

	// Batch and Shots are used by process.
	Batch string `yaml:"batch,omitempty"`
	Shots *int   `yaml:"shots,omitempty"`

	// Circuits selects handles for result, status and cancel.
	Circuits []int `yaml:"circuits,omitempty"`
}

// Step actions.
const (
	ActionProcess = "process"
	ActionResult  = "result"
	ActionStatus  = "status"
	ActionCancel  = "cancel"
)

// Assertion checks the trace, the handles or the ledger after all steps ran.
type Assertion struct {
	Type string `yaml:"type"`

	Action   string         `yaml:"action,omitempty"`
	Actions  []string       `yaml:"actions,omitempty"`
	Circuit  int            `yaml:"circuit,omitempty"`
	Circuits []int          `yaml:"circuits,omitempty"`
	Count    int            `yaml:"count,omitempty"`
	Error    string         `yaml:"error,omitempty"`
	Expect   map[string]int `yaml:"expect,omitempty"`
	Job      string         `yaml:"job,omitempty"`
	Status   string         `yaml:"status,omitempty"`
}

// Assertion types.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertJobCount      = "job_count"
	AssertSameJob       = "same_job"
	AssertCounts        = "counts"
	AssertLedgerStatus  = "ledger_status"
)

// LoadScenario reads a scenario file, rejecting unknown fields, and
// resolves its noise and batch paths against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	s.resolve(filepath.Dir(path))
	return s, nil
}

// ParseScenario decodes and validates a scenario. Paths are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func (s *Scenario) resolve(base string) {
	join := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	s.Noise = join(s.Noise)
	for i := range s.Steps {
		s.Steps[i].Batch = join(s.Steps[i].Batch)
	}
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Backend != "" {
		if _, err := backend.ParseKind(s.Backend); err != nil {
			return err
		}
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	switch step.Action {
	case ActionProcess:
		if step.Batch == "" {
			return fmt.Errorf("process requires batch")
		}
		if len(step.Circuits) > 0 {
			return fmt.Errorf("process does not take circuits")
		}
	case ActionResult, ActionStatus, ActionCancel:
		if step.Batch != "" || step.Shots != nil {
			return fmt.Errorf("%s does not take batch or shots", step.Action)
		}
		for _, c := range step.Circuits {
			if c < 0 {
				return fmt.Errorf("negative circuit index %d", c)
			}
		}
	case "":
		return fmt.Errorf("action is required")
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("trace_contains requires action")
		}
	case AssertTraceOrder:
		if len(a.Actions) < 2 {
			return fmt.Errorf("trace_order requires at least 2 actions")
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("trace_count requires action")
		}
		if a.Count < 0 {
			return fmt.Errorf("trace_count requires non-negative count")
		}
	case AssertJobCount:
		if a.Count < 0 {
			return fmt.Errorf("job_count requires non-negative count")
		}
	case AssertSameJob:
		if len(a.Circuits) < 2 {
			return fmt.Errorf("same_job requires at least 2 circuits")
		}
	case AssertCounts:
		if a.Expect == nil {
			return fmt.Errorf("counts requires expect")
		}
	case AssertLedgerStatus:
		if a.Job == "" || a.Status == "" {
			return fmt.Errorf("ledger_status requires job and status")
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
