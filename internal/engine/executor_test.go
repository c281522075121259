package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func bellLikeProgram() Program {
	return Program{
		Name:      "flip",
		NumQubits: 3,
		NumClbits: 3,
		Instructions: []Instruction{
			{Name: "x", Qubits: []int{0}},
			{Name: "cx", Qubits: []int{0, 1}},
			{Name: "barrier", Qubits: []int{0, 1, 2}},
			{Name: "measure", Qubits: []int{0, 1, 2}, Clbits: []int{0, 1, 2}},
		},
		Header: map[string]any{"tag": "t0"},
	}
}

func TestBasisExecutor_Counts(t *testing.T) {
	res, err := BasisExecutor{}.Execute(context.Background(), bellLikeProgram(), RunRequest{Shots: intp(10), Memory: true})
	require.NoError(t, err)

	assert.Equal(t, "flip", res.Name)
	assert.Equal(t, 10, res.Shots)
	assert.Equal(t, map[string]int{"011": 10}, res.Counts)
	require.Len(t, res.Memory, 10)
	assert.Equal(t, "011", res.Memory[9])
	assert.Equal(t, "t0", res.Header["tag"])
	assert.Nil(t, res.Snapshot)
}

func TestBasisExecutor_ConditionalAndReset(t *testing.T) {
	prog := Program{
		Name:      "cond",
		NumQubits: 2,
		NumClbits: 2,
		Instructions: []Instruction{
			{Name: "x", Qubits: []int{0}},
			{Name: "measure", Qubits: []int{0}, Clbits: []int{0}},
			{Name: "reset", Qubits: []int{0}},
			{Name: "x", Qubits: []int{1}, Condition: &Condition{Bits: []int{0}, Value: 1}},
			{Name: "swap", Qubits: []int{0, 1}},
			{Name: "measure", Qubits: []int{0, 1}, Clbits: []int{0, 1}},
		},
	}
	res, err := BasisExecutor{}.Execute(context.Background(), prog, RunRequest{Shots: intp(1)})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"01": 1}, res.Counts)
	assert.Nil(t, res.Memory)
}

func TestBasisExecutor_StatevectorSnapshot(t *testing.T) {
	prog := Program{
		Name:      "sv",
		NumQubits: 3,
		Instructions: []Instruction{
			{Name: "x", Qubits: []int{2}},
			{Name: "ccx", Qubits: []int{0, 2, 1}},
		},
		Save: SaveStatevector,
	}
	res, err := BasisExecutor{}.Execute(context.Background(), prog, RunRequest{})
	require.NoError(t, err)

	state, ok := res.Snapshot.(BasisState)
	require.True(t, ok)
	assert.Equal(t, uint64(4), state.Index)
	assert.Equal(t, "100", state.String())
	assert.Nil(t, res.Counts)
}

func TestBasisExecutor_Rejects(t *testing.T) {
	tests := []struct {
		name string
		prog Program
	}{
		{"non-classical gate", Program{NumQubits: 1, Instructions: []Instruction{{Name: "h", Qubits: []int{0}}}}},
		{"unitary snapshot", Program{NumQubits: 1, Save: SaveUnitary}},
		{"qubit out of range", Program{NumQubits: 1, Instructions: []Instruction{{Name: "x", Qubits: []int{1}}}}},
		{"wrong arity", Program{NumQubits: 2, Instructions: []Instruction{{Name: "cx", Qubits: []int{0}}}}},
		{"too wide", Program{NumQubits: 65}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BasisExecutor{}.Execute(context.Background(), tt.prog, RunRequest{Shots: intp(1)})
			assert.Error(t, err)
		})
	}

	_, err := BasisExecutor{}.Execute(context.Background(), Program{NumQubits: 1, Instructions: []Instruction{{Name: "h", Qubits: []int{0}}}}, RunRequest{})
	assert.True(t, IsUnsupported(err))
}

func TestBasisExecutor_Expectation(t *testing.T) {
	prog := Program{
		Name:         "z",
		NumQubits:    2,
		Instructions: []Instruction{{Name: "x", Qubits: []int{1}}},
	}
	op := PauliOperator{
		{Coeff: 1, Qubits: []int{0}, Paulis: "Z"},
		{Coeff: 2, Qubits: []int{1}, Paulis: "Z"},
		{Coeff: 3, Qubits: []int{0, 1}, Paulis: "XZ"},
		{Coeff: 0.5, Qubits: []int{0, 1}, Paulis: "II"},
	}
	v, err := BasisExecutor{}.Expectation(context.Background(), prog, op)
	require.NoError(t, err)
	assert.Equal(t, complex(1-2+0.5, 0), v)

	_, err = BasisExecutor{}.Expectation(context.Background(), prog, PauliOperator{{Coeff: 1, Qubits: []int{0}, Paulis: "ZZ"}})
	assert.Error(t, err)
}
