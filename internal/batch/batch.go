// Package batch groups circuit submissions by shot count so each group can
// be sent to the engine as a single job.
package batch

import "fmt"

// Group is one execution batch: every circuit in it runs with Shots.
// OriginalIndices[i] is the position of Circuits[i] in the caller's input.
type Group[C any] struct {
	Shots           *int
	Circuits        []C
	OriginalIndices []int
}

// Len returns the number of circuits in the group.
func (g Group[C]) Len() int {
	return len(g.Circuits)
}

// Batch partitions circuits by resolved shot count. A nil entry in shots
// resolves to defaultShots; two nil values compare equal. Circuits keep their
// relative order inside a group and groups are emitted in order of first
// appearance.
func Batch[C any](circuits []C, shots []*int, defaultShots *int) ([]Group[C], error) {
	if len(shots) != len(circuits) {
		return nil, fmt.Errorf("shots length %d does not match circuit count %d", len(shots), len(circuits))
	}

	var groups []Group[C]
	index := make(map[shotKey]int)
	for i, c := range circuits {
		resolved := shots[i]
		if resolved == nil {
			resolved = defaultShots
		}
		if resolved != nil && *resolved < 0 {
			return nil, fmt.Errorf("circuit %d: negative shot count %d", i, *resolved)
		}

		key := keyOf(resolved)
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, Group[C]{Shots: copyInt(resolved)})
		}
		groups[gi].Circuits = append(groups[gi].Circuits, c)
		groups[gi].OriginalIndices = append(groups[gi].OriginalIndices, i)
	}
	return groups, nil
}

// ExpandShots broadcasts a single optional shot count to n circuits.
func ExpandShots(n int, single *int) []*int {
	out := make([]*int, n)
	for i := range out {
		out[i] = single
	}
	return out
}

// Total returns the number of circuits across groups.
func Total[C any](groups []Group[C]) int {
	n := 0
	for _, g := range groups {
		n += len(g.Circuits)
	}
	return n
}

// Slot locates a circuit inside a batch: group number and position within
// that group.
type Slot struct {
	Group    int
	Position int
}

// Order maps every original index to its slot. The result has Total(groups)
// entries; it fails if the groups' indices do not form a permutation.
func Order[C any](groups []Group[C]) ([]Slot, error) {
	n := Total(groups)
	slots := make([]Slot, n)
	seen := make([]bool, n)
	for gi, g := range groups {
		if len(g.OriginalIndices) != len(g.Circuits) {
			return nil, fmt.Errorf("group %d: %d indices for %d circuits", gi, len(g.OriginalIndices), len(g.Circuits))
		}
		for pos, orig := range g.OriginalIndices {
			if orig < 0 || orig >= n || seen[orig] {
				return nil, fmt.Errorf("group %d: original index %d is out of range or repeated", gi, orig)
			}
			seen[orig] = true
			slots[orig] = Slot{Group: gi, Position: pos}
		}
	}
	return slots, nil
}

type shotKey struct {
	set   bool
	value int
}

func keyOf(p *int) shotKey {
	if p == nil {
		return shotKey{}
	}
	return shotKey{set: true, value: *p}
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
