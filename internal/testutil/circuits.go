package testutil

import (
	"fmt"

	"github.com/roach88/aerbatch/internal/circuit"
	"github.com/roach88/aerbatch/internal/noise"
)

// TaggedCircuit returns a one-qubit circuit that flips and measures its
// qubit, tagged with tag.
func TaggedCircuit(tag string) *circuit.Circuit {
	return &circuit.Circuit{
		Name:   "circuit-" + tag,
		Qubits: 1,
		Clbits: 1,
		Tag:    tag,
		Ops: []circuit.Op{
			{Kind: noise.OpX, Qubits: []int{0}},
			{Kind: noise.OpMeasure, Qubits: []int{0}, Clbits: []int{0}},
		},
	}
}

// TaggedCircuits returns n circuits tagged "c0".."c<n-1>".
func TaggedCircuits(n int) []*circuit.Circuit {
	out := make([]*circuit.Circuit, n)
	for i := range out {
		out[i] = TaggedCircuit(fmt.Sprintf("c%d", i))
	}
	return out
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
