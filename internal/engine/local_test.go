package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startEngine runs e's worker until the test ends.
func startEngine(t *testing.T, e *LocalEngine) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = e.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestLocalEngine_RunAndResult(t *testing.T) {
	e := NewLocal(WithIDGenerator(NewFixedGenerator("job-1")))
	startEngine(t, e)

	ctx := context.Background()
	id, err := e.Run(ctx, RunRequest{Programs: []Program{bellLikeProgram(), bellLikeProgram()}, Shots: intp(4)})
	require.NoError(t, err)
	assert.Equal(t, "job-1", id)

	res, err := e.Result(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "job-1", res.JobID)
	require.Len(t, res.Results, 2)
	assert.Equal(t, map[string]int{"011": 4}, res.Results[1].Counts)

	status, err := e.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, status)
	assert.True(t, status.Final())
}

func TestLocalEngine_CancelWhileQueued(t *testing.T) {
	e := NewLocal(WithIDGenerator(NewFixedGenerator("job-1")))
	ctx := context.Background()

	id, err := e.Run(ctx, RunRequest{Programs: []Program{bellLikeProgram()}})
	require.NoError(t, err)
	assert.Equal(t, 1, e.Pending())

	ok, err := e.Cancel(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	status, err := e.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, status)

	// A second cancel reports false: the job is already final.
	ok, err = e.Cancel(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = e.Result(ctx, id)
	require.Error(t, err)
	var ee *EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ErrCodeJobFailed, ee.Code)
}

func TestLocalEngine_CancelAfterDoneReturnsFalse(t *testing.T) {
	e := NewLocal(WithIDGenerator(NewFixedGenerator("job-1")))
	startEngine(t, e)
	ctx := context.Background()

	id, err := e.Run(ctx, RunRequest{Programs: []Program{bellLikeProgram()}, Shots: intp(1)})
	require.NoError(t, err)
	_, err = e.Result(ctx, id)
	require.NoError(t, err)

	ok, err := e.Cancel(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalEngine_ExecutorFailureMarksError(t *testing.T) {
	e := NewLocal(WithIDGenerator(NewFixedGenerator("job-1")))
	startEngine(t, e)
	ctx := context.Background()

	bad := Program{Name: "bad", NumQubits: 1, Instructions: []Instruction{{Name: "h", Qubits: []int{0}}}}
	id, err := e.Run(ctx, RunRequest{Programs: []Program{bad}, Shots: intp(1)})
	require.NoError(t, err)

	_, err = e.Result(ctx, id)
	require.Error(t, err)
	assert.True(t, IsUnsupported(err), "executor error is wrapped: %v", err)

	status, err := e.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusError, status)
}

func TestLocalEngine_UnknownJob(t *testing.T) {
	e := NewLocal()
	ctx := context.Background()

	_, err := e.Status(ctx, "nope")
	assert.True(t, IsJobNotFound(err))
	_, err = e.Result(ctx, "nope")
	assert.True(t, IsJobNotFound(err))
	_, err = e.Cancel(ctx, "nope")
	assert.True(t, IsJobNotFound(err))
}

func TestLocalEngine_RejectsInvalidRequests(t *testing.T) {
	e := NewLocal()
	ctx := context.Background()

	_, err := e.Run(ctx, RunRequest{})
	assert.Error(t, err)
	_, err = e.Run(ctx, RunRequest{Programs: []Program{bellLikeProgram()}, Shots: intp(-1)})
	assert.Error(t, err)

	e.Stop()
	_, err = e.Run(ctx, RunRequest{Programs: []Program{bellLikeProgram()}})
	var ee *EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ErrCodeClosed, ee.Code)
}

func TestLocalEngine_ResultHonoursContext(t *testing.T) {
	e := NewLocal(WithIDGenerator(NewFixedGenerator("job-1")))
	id, err := e.Run(context.Background(), RunRequest{Programs: []Program{bellLikeProgram()}})
	require.NoError(t, err)

	// No worker: the job never leaves QUEUED.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = e.Result(ctx, id)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestLocalEngine_ShutdownCancelsQueuedJobs(t *testing.T) {
	e := NewLocal(WithIDGenerator(NewFixedGenerator("job-1")))
	ctx := context.Background()
	id, err := e.Run(ctx, RunRequest{Programs: []Program{bellLikeProgram()}})
	require.NoError(t, err)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	// Start with an already cancelled context still drains the first job
	// it dequeues before noticing; either outcome is final.
	err = e.Start(cctx)
	assert.ErrorIs(t, err, context.Canceled)

	status, err := e.Status(ctx, id)
	require.NoError(t, err)
	assert.True(t, status.Final())
}

type countingExecutor struct {
	calls atomic.Int32
	BasisExecutor
}

func (c *countingExecutor) Execute(ctx context.Context, prog Program, req RunRequest) (CircuitResult, error) {
	c.calls.Add(1)
	return c.BasisExecutor.Execute(ctx, prog, req)
}

func TestLocalEngine_ExpectationDelegates(t *testing.T) {
	exec := &countingExecutor{}
	e := NewLocal(WithExecutor(exec))

	v, err := e.Expectation(context.Background(), Program{NumQubits: 1}, PauliOperator{{Coeff: 1, Qubits: []int{0}, Paulis: "Z"}})
	require.NoError(t, err)
	assert.Equal(t, complex(1, 0), v)
	assert.Equal(t, int32(0), exec.calls.Load())

	var _ ExpectationEngine = e
}
