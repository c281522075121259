package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aerbatch/internal/testutil"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCharacterize_Text(t *testing.T) {
	out, err := execute(t, NewCharacterizeCommand(testOptions("text")), "testdata/noise.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "AerBackend (aer_simulator)\n")
	assert.Contains(t, out, "architecture: 3 nodes, 5 edges\n")
	assert.Contains(t, out, "node 2: 0.005\n")
	assert.Contains(t, out, "edge 0,1: ")
	assert.Contains(t, out, "readout 2: 0.15\n")
}

func TestCharacterize_JSON(t *testing.T) {
	out, err := execute(t, NewCharacterizeCommand(testOptions("json")), "--kind", "density_matrix", "testdata/noise.yaml")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Constrained bool `json:"constrained"`
			Info        struct {
				Name         string `json:"name"`
				Architecture struct {
					Coupling []string `json:"coupling"`
				} `json:"architecture"`
				AveragedReadoutErrors map[string]float64 `json:"averaged_readout_errors"`
				Misc                  map[string]any     `json:"misc"`
			} `json:"info"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Constrained)
	assert.Equal(t, "AerDensityMatrixBackend", resp.Data.Info.Name)
	assert.Len(t, resp.Data.Info.Architecture.Coupling, 5)
	assert.InDelta(t, 0.15, resp.Data.Info.AveragedReadoutErrors["2"], 1e-12)
	assert.NotNil(t, resp.Data.Info.Misc["characterisation"])
}

func TestCharacterize_Errors(t *testing.T) {
	_, err := execute(t, NewCharacterizeCommand(testOptions("text")), "testdata/absent.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)

	out, err := execute(t, NewCharacterizeCommand(testOptions("text")), "--kind", "state", "testdata/noise.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeUnsupported)

	_, err = execute(t, NewCharacterizeCommand(testOptions("text")), "--kind", "stabilizer", "testdata/noise.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeInvalidArg)
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		out, err := execute(t, NewValidateCommand(testOptions("text")), "testdata/noise.yaml")
		require.NoError(t, err)
		assert.Equal(t, "✓ Noise model valid (3 events)\n", out)
	})

	t.Run("with batch", func(t *testing.T) {
		out, err := execute(t, NewValidateCommand(testOptions("text")), "--batch", "testdata/batch.yaml", "testdata/noise.yaml")
		require.NoError(t, err)
		assert.Equal(t, "✓ Noise model valid (3 events, 3 circuits accepted)\n", out)
	})

	t.Run("schema violation", func(t *testing.T) {
		out, err := execute(t, NewValidateCommand(testOptions("json")), "testdata/bad_noise.yaml")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))

		var resp CLIResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, "error", resp.Status)
		assert.Equal(t, ErrCodeMalformedNoise, resp.Error.Code)
	})

	t.Run("circuit off the architecture", func(t *testing.T) {
		out, err := execute(t, NewValidateCommand(testOptions("text")), "--batch", "testdata/far.yaml", "testdata/noise.yaml")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, ErrCodeValidation)
		assert.Contains(t, out, "ConnectivityPredicate")
	})
}

func TestPlan_Golden(t *testing.T) {
	out, err := execute(t, NewPlanCommand(testOptions("text")), "--noise", "testdata/noise.yaml", "--level", "2")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "plan_level2_noisy", []byte(out))
}

func TestPlan_UsesConfigDefaults(t *testing.T) {
	opts := testOptions("json")
	opts.Config.OptLevel = 3
	opts.Config.Timeout = 60

	out, err := execute(t, NewPlanCommand(opts))
	require.NoError(t, err)

	var resp struct {
		Data Plan `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 3, resp.Data.Level)
	assert.False(t, resp.Data.Constrained)
	require.Len(t, resp.Data.Stages, 4)
	assert.Equal(t, "60", resp.Data.Stages[3].Params["thread_timeout"])
}

func TestPlan_InvalidLevel(t *testing.T) {
	_, err := execute(t, NewPlanCommand(testOptions("text")), "--level", "7")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeInvalidArg)
}

// testRunCommand issues job ids "job-1", "job-2", ...
func testRunCommand(format string) *cobra.Command {
	return newRunCommand(&RunOptions{
		RootOptions: testOptions(format),
		IDGenerator: testutil.NewSequentialIDs("job"),
	})
}

func TestRun_Golden(t *testing.T) {
	out, err := execute(t, testRunCommand("text"), "testdata/batch.yaml")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "run_batch", []byte(out))
}

func TestRun_LedgerAndJobs(t *testing.T) {
	ledger := filepath.Join(t.TempDir(), "jobs.db")

	_, err := execute(t, testRunCommand("text"), "--ledger", ledger, "--seed", "11", "testdata/batch.yaml")
	require.NoError(t, err)

	out, err := execute(t, NewJobsCommand(testOptions("json")), "--ledger", ledger)
	require.NoError(t, err)

	var resp struct {
		Data JobsReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Jobs, 2)
	assert.Equal(t, "job-1", resp.Data.Jobs[0].JobID)
	assert.Equal(t, "AerBackend", resp.Data.Jobs[0].Backend)
	assert.Equal(t, 2, resp.Data.Jobs[0].Circuits)
	assert.Equal(t, 11, *resp.Data.Jobs[0].Seed)
	assert.Equal(t, 12, *resp.Data.Jobs[1].Seed)
	assert.Equal(t, 10, *resp.Data.Jobs[1].Shots)
	assert.Equal(t, "COMPLETED", resp.Data.Jobs[1].LastStatus)

	out, err = execute(t, NewJobsCommand(testOptions("text")), "--ledger", ledger, "--job", "job-2")
	require.NoError(t, err)
	assert.Contains(t, out, "job-2\tCOMPLETED")
}

func TestRun_StateBackend(t *testing.T) {
	out, err := execute(t, testRunCommand("text"), "--kind", "state", "testdata/state.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "flip [s] (\"job-1\", 0, 3, \"null\")\n  state: 100\n")
	assert.Contains(t, out, "on AerStateBackend")
}

func TestRun_Rejections(t *testing.T) {
	out, err := execute(t, testRunCommand("text"), "--noise", "testdata/noise.yaml", "testdata/far.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeValidation)

	_, err = execute(t, testRunCommand("text"), "--kind", "unitary", "--shots", "5", "testdata/state.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeUnsupported)

	_, err = execute(t, testRunCommand("text"), "testdata/missing.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestJobs_RequiresLedgerFile(t *testing.T) {
	_, err := execute(t, NewJobsCommand(testOptions("text")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeInvalidArg)

	_, err = execute(t, NewJobsCommand(testOptions("text")), "--ledger", filepath.Join(t.TempDir(), "none.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}
