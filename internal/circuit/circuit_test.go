package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aerbatch/internal/engine"
	"github.com/roach88/aerbatch/internal/noise"
)

func bell() *Circuit {
	return &Circuit{
		Name:   "bell",
		Qubits: 2,
		Clbits: 2,
		Tag:    "b",
		Ops: []Op{
			{Kind: noise.OpH, Qubits: []int{0}},
			{Kind: noise.OpCX, Qubits: []int{0, 1}},
			{Kind: noise.OpMeasure, Qubits: []int{0, 1}, Clbits: []int{0, 1}},
		},
	}
}

func TestLower(t *testing.T) {
	c := bell()
	c.Ops = append(c.Ops, Op{Kind: noise.OpU1, Qubits: []int{1}, Params: []float64{0.5},
		Condition: &Condition{Bits: []int{0}, Value: 1}})

	prog, err := Lower(c, engine.SaveNone)
	require.NoError(t, err)

	assert.Equal(t, "bell", prog.Name)
	assert.Equal(t, 2, prog.NumQubits)
	assert.Equal(t, 2, prog.NumClbits)
	assert.Equal(t, map[string]any{"name": "bell", "tag": "b"}, prog.Header)
	require.Len(t, prog.Instructions, 4)
	assert.Equal(t, "h", prog.Instructions[0].Name)
	assert.Equal(t, "cx", prog.Instructions[1].Name)
	assert.Equal(t, "measure", prog.Instructions[2].Name)
	assert.Equal(t, "p", prog.Instructions[3].Name)
	assert.Equal(t, &engine.Condition{Bits: []int{0}, Value: 1}, prog.Instructions[3].Condition)

	// Lowered instructions do not alias the circuit.
	prog.Instructions[1].Qubits[0] = 9
	assert.Equal(t, 0, c.Ops[1].Qubits[0])
}

func TestLower_RejectsNonNativeOps(t *testing.T) {
	c := &Circuit{Name: "boxed", Qubits: 1, Ops: []Op{{Kind: noise.OpUnitary1qBox, Qubits: []int{0}}}}
	_, err := Lower(c, engine.SaveNone)
	assert.ErrorContains(t, err, "no engine instruction")

	c = &Circuit{Name: "sym", Qubits: 1, Ops: []Op{{Kind: noise.OpRz, Qubits: []int{0}, Symbols: []string{"a"}}}}
	_, err = Lower(c, engine.SaveNone)
	assert.ErrorContains(t, err, "unresolved symbols")
}

func TestClone_IsDeep(t *testing.T) {
	c := bell()
	c.PostProcessing = map[string]any{"k": "v"}
	c.Ops[0].Condition = &Condition{Bits: []int{1}, Value: 0}

	d := c.Clone()
	d.Ops[1].Qubits[1] = 7
	d.Ops[0].Condition.Bits[0] = 5
	d.PostProcessing["k"] = "w"

	assert.Equal(t, 1, c.Ops[1].Qubits[1])
	assert.Equal(t, 1, c.Ops[0].Condition.Bits[0])
	assert.Equal(t, "v", c.PostProcessing["k"])
}

func TestPostProcessingDescriptor(t *testing.T) {
	c := bell()
	desc, err := c.PostProcessingDescriptor()
	require.NoError(t, err)
	assert.Equal(t, "null", desc)

	c.PostProcessing = map[string]any{"permute": []any{1, 0}, "drop": []any{}}
	desc, err = c.PostProcessingDescriptor()
	require.NoError(t, err)
	assert.Equal(t, `{"drop":[],"permute":[1,0]}`, desc)
}

func TestParseBatchFile(t *testing.T) {
	bf, err := LoadBatchFile("testdata/batch.yaml")
	require.NoError(t, err)

	require.NotNil(t, bf.Shots)
	assert.Equal(t, 100, *bf.Shots)

	circuits, shots := bf.Split()
	require.Len(t, circuits, 3)
	assert.Equal(t, "bell", circuits[0].Name)
	assert.Equal(t, []Op{
		{Kind: noise.OpX, Qubits: []int{0}},
		{Kind: noise.OpCX, Qubits: []int{0, 1}},
		{Kind: noise.OpMeasure, Qubits: []int{0, 1}, Clbits: []int{0, 1}},
	}, circuits[0].Ops)
	assert.Equal(t, []any{1, 0}, circuits[1].PostProcessing["permute"])

	assert.Nil(t, shots[0])
	assert.Nil(t, shots[1])
	require.NotNil(t, shots[2])
	assert.Equal(t, 10, *shots[2])
	assert.Equal(t, "third", circuits[2].Tag)
}

func TestParseBatchFile_Strict(t *testing.T) {
	_, err := LoadBatchFile("testdata/unknown_field.yaml")
	assert.ErrorContains(t, err, "opps")

	_, err = ParseBatchFile([]byte("circuits: []\n"))
	assert.ErrorContains(t, err, "no circuits")

	_, err = ParseBatchFile([]byte("circuits:\n  - qubits: 1\n    ops: [{op: frobnicate, qubits: [0]}]\n"))
	assert.ErrorContains(t, err, "frobnicate")
}

func TestParseBatchFile_NamesAnonymousCircuits(t *testing.T) {
	bf, err := ParseBatchFile([]byte("circuits:\n  - qubits: 1\n    ops: [{op: x, qubits: [0]}]\n"))
	require.NoError(t, err)
	assert.Equal(t, "circuit-0", bf.Circuits[0].Name)
}
