package canon

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"null", nil, "null"},
		{"string", "hello", `"hello"`},
		{"int", 42, "42"},
		{"negative int64", int64(-100), "-100"},
		{"bool", true, "true"},
		{"integral float", 1.0, "1"},
		{"fraction", 0.99, "0.99"},
		{"small float", 1e-7, "1e-07"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"typed slice", []int{1, 2, 3}, "[1,2,3]"},
		{"matrix", [][]float64{{0.9, 0.1}, {0.2, 0.8}}, "[[0.9,0.1],[0.2,0.8]]"},
		{"typed map", map[string]int{"b": 2, "a": 1}, `{"a":1,"b":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestMarshalSortsKeysByUTF16(t *testing.T) {
	// U+1F600 encodes as a surrogate pair (0xD83D...) and sorts before U+FF61
	// in UTF-16 even though its UTF-8 encoding is larger.
	obj := map[string]any{"｡": 1, "\U0001F600": 2, "a": 3}
	got, err := Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":3,\"\U0001F600\":2,\"｡\":1}", string(got))
}

func TestMarshalStringEscaping(t *testing.T) {
	got, err := Marshal("a\"b\\c\n<&> \x01")
	require.NoError(t, err)
	assert.Equal(t, "\"a\\\"b\\\\c\\n<&> \\u0001\"", string(got))
}

func TestMarshalRejectsNonFinite(t *testing.T) {
	_, err := Marshal(math.NaN())
	assert.Error(t, err)

	_, err = Marshal([]any{math.Inf(1)})
	assert.Error(t, err)
}

func TestHashIsDomainSeparated(t *testing.T) {
	a, err := Hash(DomainNoiseModel, map[string]any{"x": 1})
	require.NoError(t, err)
	b, err := Hash(DomainGateSet, map[string]any{"x": 1})
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)

	again, err := Hash(DomainNoiseModel, map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, a, again)
}
