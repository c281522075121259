package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aerbatch/internal/testutil"
)

func TestRegistry_Lookup(t *testing.T) {
	reg := NewRegistry()
	a := testutil.NewStubEngine()
	b := testutil.NewStubEngine()

	require.NoError(t, reg.Register("aer_simulator", "zeta", a))
	require.NoError(t, reg.Register("aer_simulator", "alpha", b))
	require.NoError(t, reg.Register("aer_simulator_unitary", "alpha", a))

	got, err := reg.Lookup("aer_simulator")
	require.NoError(t, err)
	assert.Same(t, b, got, "lexicographically first provider wins")

	assert.Equal(t, []string{"aer_simulator", "aer_simulator_unitary"}, reg.Devices())
}

func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Lookup("missing")
	assert.Error(t, err)

	eng := testutil.NewStubEngine()
	require.NoError(t, reg.Register("d", "p", eng))
	assert.Error(t, reg.Register("d", "p", eng))
	assert.Error(t, reg.Register("d", "q", nil))
}
