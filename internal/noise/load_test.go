package noise

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadNoiseModel_YAML(t *testing.T) {
	model, err := LoadNoiseModel("testdata/two_qubit.yaml")
	require.NoError(t, err)
	require.Len(t, model.Errors, 3)

	assert.Equal(t, QErr, model.Errors[0].Kind)
	assert.Equal(t, [][]int{{0, 1}}, model.Errors[0].GateQubits)
	assert.Equal(t, []float64{0.99, 0.01}, model.Errors[0].Probabilities.Values)
	assert.NotNil(t, model.Errors[0].Instructions)
	assert.Equal(t, [][]float64{{0.9, 0.1}, {0.2, 0.8}}, model.Errors[2].Probabilities.Matrix)

	ch, err := model.Characterize(testGateSet)
	require.NoError(t, err)
	assert.InDelta(t, 0.15, ch.AveragedReadoutErrors[2], 1e-12)
	assert.True(t, ch.Architecture.HasEdge(0, 1))
	assert.True(t, ch.Architecture.HasEdge(2, 0))
}

func TestLoadNoiseModel_JSONMatchesYAML(t *testing.T) {
	fromYAML, err := LoadNoiseModel("testdata/two_qubit.yaml")
	require.NoError(t, err)
	fromJSON, err := LoadNoiseModel("testdata/two_qubit.json")
	require.NoError(t, err)

	fy, err := fromYAML.Fingerprint()
	require.NoError(t, err)
	fj, err := fromJSON.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fy, fj)
}

func TestLoadNoiseModel_CUE(t *testing.T) {
	model, err := LoadNoiseModel("testdata/two_qubit.cue")
	require.NoError(t, err)
	require.Len(t, model.Errors, 2)

	require.Len(t, model.Errors[0].Probabilities.Values, 2)
	assert.InDelta(t, 0.99, model.Errors[0].Probabilities.Values[0], 1e-12)
	assert.InDelta(t, 0.01, model.Errors[0].Probabilities.Values[1], 1e-12)
	assert.Equal(t, ReadoutErr, model.Errors[1].Kind)
}

func TestLoadNoiseModel_RejectsUnknownField(t *testing.T) {
	_, err := LoadNoiseModel("testdata/unknown_field.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gate_qubit")
}

func TestLoadNoiseModel_SchemaViolation(t *testing.T) {
	_, err := LoadNoiseModel("testdata/out_of_range.yaml")
	require.Error(t, err)

	var me *MalformedNoiseModelError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, ErrCodeSchema, me.Code)
}

func TestLoadNoiseModel_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.toml")
	require.NoError(t, os.WriteFile(path, []byte("errors = []"), 0o644))

	_, err := LoadNoiseModel(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported noise model format")
}

func TestLoadNoiseModel_MissingFile(t *testing.T) {
	_, err := LoadNoiseModel(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read noise model")
}

func TestParseYAML_GlobalErrorPassesSchemaButNotCharacterisation(t *testing.T) {
	model, err := ParseYAML([]byte(`
errors:
  - type: qerror
    operations: [x]
    probabilities: [0.99, 0.01]
`))
	require.NoError(t, err)

	ch, err := model.Characterize(testGateSet)
	require.Error(t, err)
	assert.Nil(t, ch)

	var me *MalformedNoiseModelError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, ErrCodeImplicitTargets, me.Code)
}

func TestCache_SharesCharacterisation(t *testing.T) {
	cache, err := NewCache(4)
	require.NoError(t, err)

	model, err := LoadNoiseModel("testdata/two_qubit.yaml")
	require.NoError(t, err)

	first, err := cache.Characterize(model, testGateSet)
	require.NoError(t, err)
	second, err := cache.Characterize(model, testGateSet)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Len())

	// A different gate set is a different key.
	_, err = cache.Characterize(model, testGateSet.Union(NewGateSet(OpH)))
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())
}

func TestCache_DoesNotStoreFailures(t *testing.T) {
	cache, err := NewCache(0)
	require.NoError(t, err)

	bad := &NoiseModel{Errors: []ErrorEvent{qerr("cx", 0.9, 0, 1, 2)}}
	_, err = cache.Characterize(bad, testGateSet)
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestParseOpKind(t *testing.T) {
	tests := []struct {
		in   string
		want OpKind
	}{
		{"cx", OpCX},
		{"CX", OpCX},
		{"u", OpU3},
		{"p", OpU1},
		{"TK1", OpTK1},
		{"Unitary2qBox", OpUnitary2qBox},
		{"id", OpNoop},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOpKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseOpKind("Unknown")
	assert.Error(t, err)

	assert.Equal(t, "p", OpU1.EngineName())
	assert.Equal(t, "u", OpU3.EngineName())
	assert.Equal(t, "", OpTK1.EngineName())
}

func TestGateSetNamesSorted(t *testing.T) {
	gs := NewGateSet(OpMeasure, OpCX, OpX)
	assert.Equal(t, []string{"X", "CX", "Measure"}, gs.Names())
}
