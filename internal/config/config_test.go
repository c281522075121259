package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(mapLookup(nil))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, 40, cfg.Qubits)
	assert.Equal(t, 2, cfg.OptLevel)
	assert.Equal(t, 300, cfg.Timeout)
	assert.Nil(t, cfg.Shots)
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := FromLookup(mapLookup(map[string]string{
		EnvQubits:   "8",
		EnvLedger:   "/tmp/ledger.db",
		EnvOptLevel: "3",
		EnvTimeout:  "60",
		EnvShots:    "1024",
	}))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Qubits)
	assert.Equal(t, "/tmp/ledger.db", cfg.Ledger)
	assert.Equal(t, 3, cfg.OptLevel)
	assert.Equal(t, 60, cfg.Timeout)
	require.NotNil(t, cfg.Shots)
	assert.Equal(t, 1024, *cfg.Shots)
}

func TestFromLookup_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"non-numeric qubits": {EnvQubits: "many"},
		"negative qubits":    {EnvQubits: "-1"},
		"level too high":     {EnvOptLevel: "4"},
		"zero timeout":       {EnvTimeout: "0"},
		"negative shots":     {EnvShots: "-5"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := FromLookup(mapLookup(env))
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvFileAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("AERBATCH_QUBITS=12\nAERBATCH_TIMEOUT=30\n"), 0o644))

	t.Setenv(EnvTimeout, "45")

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Qubits)
	assert.Equal(t, 45, cfg.Timeout, "process environment wins over the file")
}
