package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// LocalEngine runs jobs in-process on a single worker goroutine.
//
// Thread-safety model:
//   - Run, Status, Result, Cancel: safe from any goroutine
//   - Start: must be called from exactly one goroutine
type LocalEngine struct {
	mu    sync.Mutex
	jobs  map[string]*localJob
	queue *jobQueue
	ids   IDGenerator
	clock *Clock
	exec  Executor
}

type localJob struct {
	id     string
	seq    int64
	req    RunRequest
	status NativeStatus
	result *JobResult
	err    error
	done   chan struct{} // closed on entering a final status
}

// LocalOption configures a LocalEngine.
type LocalOption func(*LocalEngine)

// WithIDGenerator replaces the default UUIDv7 job ids.
func WithIDGenerator(g IDGenerator) LocalOption {
	return func(e *LocalEngine) {
		e.ids = g
	}
}

// WithExecutor replaces the default BasisExecutor.
func WithExecutor(x Executor) LocalOption {
	return func(e *LocalEngine) {
		e.exec = x
	}
}

// WithClock sets the clock used to sequence submissions.
func WithClock(c *Clock) LocalOption {
	return func(e *LocalEngine) {
		e.clock = c
	}
}

// NewLocal creates a LocalEngine. Jobs submitted before Start stay QUEUED.
func NewLocal(opts ...LocalOption) *LocalEngine {
	e := &LocalEngine{
		jobs:  make(map[string]*localJob),
		queue: newJobQueue(),
		ids:   UUIDv7Generator{},
		clock: NewClock(),
		exec:  BasisExecutor{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run validates req and queues it as one job.
func (e *LocalEngine) Run(ctx context.Context, req RunRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(req.Programs) == 0 {
		return "", &EngineError{Code: ErrCodeInvalidRequest, Message: "job has no programs"}
	}
	if req.Shots != nil && *req.Shots < 0 {
		return "", &EngineError{Code: ErrCodeInvalidRequest, Message: fmt.Sprintf("negative shot count %d", *req.Shots)}
	}
	if e.queue.Closed() {
		return "", &EngineError{Code: ErrCodeClosed, Message: "engine stopped"}
	}

	job := &localJob{
		id:     e.ids.Generate(),
		seq:    e.clock.Next(),
		req:    req,
		status: StatusQueued,
		done:   make(chan struct{}),
	}

	e.mu.Lock()
	if _, dup := e.jobs[job.id]; dup {
		e.mu.Unlock()
		return "", &EngineError{Code: ErrCodeInvalidRequest, JobID: job.id, Message: "duplicate job id"}
	}
	e.jobs[job.id] = job
	e.mu.Unlock()

	if !e.queue.Enqueue(job.id) {
		e.mu.Lock()
		delete(e.jobs, job.id)
		e.mu.Unlock()
		return "", &EngineError{Code: ErrCodeClosed, JobID: job.id, Message: "engine stopped"}
	}

	slog.Debug("job queued",
		"job_id", job.id,
		"seq", job.seq,
		"programs", len(req.Programs),
	)
	return job.id, nil
}

// Start runs the worker loop until ctx is cancelled or Stop is called.
// Jobs still queued at shutdown are cancelled so no Result call hangs.
func (e *LocalEngine) Start(ctx context.Context) error {
	slog.Debug("local engine starting")
	defer e.cancelQueued()

	for {
		if id, ok := e.queue.TryDequeue(); ok {
			e.process(ctx, id)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Debug("local engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()
		case <-e.queue.Wait():
			if e.queue.Closed() && e.queue.Len() == 0 {
				slog.Debug("local engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Start returns once it notices.
func (e *LocalEngine) Stop() {
	e.queue.Close()
}

// Pending returns the number of jobs waiting for the worker.
func (e *LocalEngine) Pending() int {
	return e.queue.Len()
}

// Status returns the job's native status.
func (e *LocalEngine) Status(ctx context.Context, jobID string) (NativeStatus, error) {
	job, err := e.lookup(jobID)
	if err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return job.status, nil
}

// Result waits for the job to finish. A job that ended in ERROR or
// CANCELLED yields an EngineError with ErrCodeJobFailed.
func (e *LocalEngine) Result(ctx context.Context, jobID string) (*JobResult, error) {
	job, err := e.lookup(jobID)
	if err != nil {
		return nil, err
	}

	select {
	case <-job.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if job.status != StatusDone {
		return nil, &EngineError{
			Code:    ErrCodeJobFailed,
			JobID:   jobID,
			Message: fmt.Sprintf("job finished with status %s", job.status),
			Err:     job.err,
		}
	}
	return job.result, nil
}

// Cancel cancels a job that has not started. Running or finished jobs
// report false.
func (e *LocalEngine) Cancel(ctx context.Context, jobID string) (bool, error) {
	job, err := e.lookup(jobID)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if job.status != StatusQueued {
		return false, nil
	}
	job.status = StatusCancelled
	close(job.done)
	slog.Debug("job cancelled", "job_id", jobID)
	return true, nil
}

// Expectation evaluates op against prog's final state when the executor
// supports it.
func (e *LocalEngine) Expectation(ctx context.Context, prog Program, op PauliOperator) (complex128, error) {
	x, ok := e.exec.(ExpectationExecutor)
	if !ok {
		return 0, unsupported("executor %T cannot evaluate expectation values", e.exec)
	}
	return x.Expectation(ctx, prog, op)
}

func (e *LocalEngine) lookup(jobID string) (*localJob, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	job, ok := e.jobs[jobID]
	if !ok {
		return nil, &EngineError{Code: ErrCodeJobNotFound, JobID: jobID, Message: "unknown job"}
	}
	return job, nil
}

// process executes one job. Called only from the Start goroutine.
func (e *LocalEngine) process(ctx context.Context, id string) {
	e.mu.Lock()
	job, ok := e.jobs[id]
	if !ok || job.status != StatusQueued {
		e.mu.Unlock()
		return
	}
	job.status = StatusRunning
	e.mu.Unlock()

	if job.req.NoiseModel != nil && !supportsNoise(e.exec) {
		slog.Warn("executor ignores noise model", "job_id", id, "executor", fmt.Sprintf("%T", e.exec))
	}

	results := make([]CircuitResult, 0, len(job.req.Programs))
	for i, prog := range job.req.Programs {
		r, err := e.exec.Execute(ctx, prog, job.req)
		if err != nil {
			slog.Error("job failed",
				"job_id", id,
				"program", i,
				"error", err,
			)
			e.finish(job, StatusError, nil, fmt.Errorf("program %d (%s): %w", i, prog.Name, err))
			return
		}
		results = append(results, r)
	}

	e.finish(job, StatusDone, &JobResult{JobID: id, Results: results}, nil)
	slog.Debug("job done", "job_id", id, "results", len(results))
}

func (e *LocalEngine) finish(job *localJob, status NativeStatus, result *JobResult, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	job.status = status
	job.result = result
	job.err = err
	close(job.done)
}

func (e *LocalEngine) cancelQueued() {
	for {
		id, ok := e.queue.TryDequeue()
		if !ok {
			return
		}
		if _, err := e.Cancel(context.Background(), id); err != nil {
			slog.Warn("cancel on shutdown failed", "job_id", id, "error", err)
		}
	}
}

func supportsNoise(x Executor) bool {
	n, ok := x.(interface{ SupportsNoise() bool })
	return ok && n.SupportsNoise()
}
