// Package policy selects the ordered list of compiler stages a backend
// applies before submission.
//
// Selection is a pure function of the optimisation level, whether the
// backend's connectivity is constrained, and the timeout for the Pauli
// simplification stage. Stage identifiers are opaque here; the external
// compiler collaborator interprets them.
package policy

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// StageID names an external compiler transformation.
type StageID string

const (
	DecomposeBoxes       StageID = "DecomposeBoxes"
	AutoRebase           StageID = "AutoRebase"
	AutoRebaseCXTK1      StageID = "AutoRebase[CX,TK1]"
	AutoRebaseCXHRz      StageID = "AutoRebase[CX,H,Rz]"
	SynthesiseTket       StageID = "SynthesiseTket"
	FullPeepholeOptimise StageID = "FullPeepholeOptimise"
	CliffordSimp         StageID = "CliffordSimp"
	RemoveBarriers       StageID = "RemoveBarriers"
	GreedyPauliSimp      StageID = "GreedyPauliSimp"

	// Routing places and routes onto the characterised architecture.
	Routing StageID = "Routing"
)

// Optimisation level bounds.
const (
	MinLevel = 0
	MaxLevel = 3

	// DefaultLevel and DefaultTimeout match the backend defaults.
	DefaultLevel   = 2
	DefaultTimeout = 300
)

// Stage is one step of a compilation plan.
type Stage struct {
	ID     StageID           `json:"id"`
	Params map[string]string `json:"params,omitempty"`
}

// String renders the stage as ID or ID(k=v,...) with sorted keys.
func (s Stage) String() string {
	if len(s.Params) == 0 {
		return string(s.ID)
	}
	keys := slices.Sorted(maps.Keys(s.Params))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + s.Params[k]
	}
	return fmt.Sprintf("%s(%s)", s.ID, strings.Join(parts, ","))
}

// Select returns the stage sequence for level. When constrained is true a
// routing block is inserted before the final rebase/synthesis stage.
//
// Levels trade cheap rebasing for deeper structural optimisation:
//
//	0: decompose, rebase
//	1: decompose, SynthesiseTket
//	2: decompose, FullPeepholeOptimise (+ CliffordSimp when routed)
//	3: decompose, remove barriers, rebase to CX/H/Rz, GreedyPauliSimp(timeout)
func Select(level int, constrained bool, timeout int) ([]Stage, error) {
	if level < MinLevel || level > MaxLevel {
		return nil, fmt.Errorf("optimisation level %d outside [%d, %d]", level, MinLevel, MaxLevel)
	}

	routing := []Stage{stage(AutoRebaseCXTK1), stage(Routing)}

	switch level {
	case 0:
		if !constrained {
			return stages(DecomposeBoxes, AutoRebase), nil
		}
		return concat(stages(DecomposeBoxes, AutoRebase), routing, stages(AutoRebase)), nil
	case 1:
		if !constrained {
			return stages(DecomposeBoxes, SynthesiseTket), nil
		}
		return concat(stages(DecomposeBoxes, SynthesiseTket), routing, stages(SynthesiseTket)), nil
	case 2:
		if !constrained {
			return stages(DecomposeBoxes, FullPeepholeOptimise), nil
		}
		return concat(stages(DecomposeBoxes, FullPeepholeOptimise), routing,
			[]Stage{{ID: CliffordSimp, Params: map[string]string{"allow_swaps": "false"}}},
			stages(SynthesiseTket)), nil
	default:
		if timeout <= 0 {
			return nil, fmt.Errorf("timeout must be positive, got %d", timeout)
		}
		head := concat(stages(DecomposeBoxes, RemoveBarriers, AutoRebaseCXHRz), []Stage{greedyPauliSimp(timeout)})
		if !constrained {
			return head, nil
		}
		return concat(head, routing, stages(SynthesiseTket)), nil
	}
}

func greedyPauliSimp(timeout int) Stage {
	return Stage{
		ID: GreedyPauliSimp,
		Params: map[string]string{
			"thread_timeout": strconv.Itoa(timeout),
			"only_reduce":    "true",
			"trials":         "10",
		},
	}
}

func stage(id StageID) Stage {
	return Stage{ID: id}
}

func stages(ids ...StageID) []Stage {
	out := make([]Stage, len(ids))
	for i, id := range ids {
		out[i] = stage(id)
	}
	return out
}

func concat(parts ...[]Stage) []Stage {
	var out []Stage
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
