package noise

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Edge is a directed qubit pair (control, target).
type Edge struct {
	Control int
	Target  int
}

// Reverse returns the edge pointing the other way.
func (e Edge) Reverse() Edge {
	return Edge{Control: e.Target, Target: e.Control}
}

// String renders the edge as "control,target".
func (e Edge) String() string {
	return fmt.Sprintf("%d,%d", e.Control, e.Target)
}

// MarshalText renders the edge for use as a JSON object key.
func (e Edge) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText parses "control,target".
func (e *Edge) UnmarshalText(text []byte) error {
	a, b, ok := strings.Cut(string(text), ",")
	if !ok {
		return fmt.Errorf("edge %q: want control,target", text)
	}
	c, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return fmt.Errorf("edge %q: %w", text, err)
	}
	t, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return fmt.Errorf("edge %q: %w", text, err)
	}
	*e = Edge{Control: c, Target: t}
	return nil
}

// Architecture is a directed coupling graph over qubit indices.
// The zero value is the empty architecture.
type Architecture struct {
	Coupling []Edge `json:"coupling"`
}

// NewArchitecture builds an architecture from a coupling list. Duplicate
// edges are dropped; first-occurrence order is kept.
func NewArchitecture(coupling []Edge) Architecture {
	seen := make(map[Edge]struct{}, len(coupling))
	out := make([]Edge, 0, len(coupling))
	for _, e := range coupling {
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return Architecture{Coupling: out}
}

// FullyConnected returns every ordered pair of distinct qubits in [0, n).
func FullyConnected(n int) Architecture {
	coupling := make([]Edge, 0, max(n*(n-1), 0))
	for i := range n {
		for j := range n {
			if i != j {
				coupling = append(coupling, Edge{Control: i, Target: j})
			}
		}
	}
	return Architecture{Coupling: coupling}
}

// Empty reports whether the architecture has no edges.
func (a Architecture) Empty() bool {
	return len(a.Coupling) == 0
}

// Nodes returns the qubits touched by any edge, ascending.
func (a Architecture) Nodes() []int {
	set := make(map[int]struct{})
	for _, e := range a.Coupling {
		set[e.Control] = struct{}{}
		set[e.Target] = struct{}{}
	}
	return sortedKeys(set)
}

// HasEdge reports whether the directed edge (control, target) exists.
func (a Architecture) HasEdge(control, target int) bool {
	return slices.Contains(a.Coupling, Edge{Control: control, Target: target})
}

// Connected reports whether a and b are adjacent in either direction.
func (a Architecture) Connected(q0, q1 int) bool {
	return a.HasEdge(q0, q1) || a.HasEdge(q1, q0)
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
