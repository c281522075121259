package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ResolvesPaths(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/rejected_batch.yaml")
	require.NoError(t, err)

	assert.Equal(t, "rejected_batch", s.Name)
	assert.Equal(t, filepath.Join("testdata", "scenarios", "noise.yaml"), s.Noise)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, filepath.Join("testdata", "scenarios", "far.yaml"), s.Steps[0].Batch)
}

func TestLoadScenario_KeepsAbsolutePaths(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "elsewhere", "batch.yaml")
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: abs
description: absolute batch path
steps:
  - action: process
    batch: `+abs+`
`), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, abs, s.Steps[0].Batch)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_RejectsUnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: misspelt key
steps:
  - action: process
    batch: b.yaml
assertion:
  - type: job_count
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertion")
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\nsteps:\n  - action: result\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\nsteps:\n  - action: result\n",
			want: "description is required",
		},
		{
			name: "no steps",
			yaml: "name: n\ndescription: d\n",
			want: "steps list is required",
		},
		{
			name: "unknown backend",
			yaml: "name: n\ndescription: d\nbackend: qasm\nsteps:\n  - action: result\n",
			want: "qasm",
		},
		{
			name: "process without batch",
			yaml: "name: n\ndescription: d\nsteps:\n  - action: process\n",
			want: "process requires batch",
		},
		{
			name: "result with batch",
			yaml: "name: n\ndescription: d\nsteps:\n  - action: result\n    batch: b.yaml\n",
			want: "result does not take batch",
		},
		{
			name: "unknown action",
			yaml: "name: n\ndescription: d\nsteps:\n  - action: wait\n",
			want: `unknown action "wait"`,
		},
		{
			name: "negative circuit",
			yaml: "name: n\ndescription: d\nsteps:\n  - action: status\n    circuits: [-1]\n",
			want: "negative circuit index",
		},
		{
			name: "short trace_order",
			yaml: "name: n\ndescription: d\nsteps:\n  - action: result\nassertions:\n  - type: trace_order\n    actions: [result]\n",
			want: "at least 2 actions",
		},
		{
			name: "counts without expect",
			yaml: "name: n\ndescription: d\nsteps:\n  - action: result\nassertions:\n  - type: counts\n    circuit: 0\n",
			want: "counts requires expect",
		},
		{
			name: "ledger_status without status",
			yaml: "name: n\ndescription: d\nsteps:\n  - action: result\nassertions:\n  - type: ledger_status\n    job: job-1\n",
			want: "requires job and status",
		},
		{
			name: "unknown assertion",
			yaml: "name: n\ndescription: d\nsteps:\n  - action: result\nassertions:\n  - type: final_state\n",
			want: `unknown assertion type "final_state"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
