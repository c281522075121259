package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/roach88/aerbatch/internal/engine"
)

// StubEngine is a synchronous engine.Engine that counts calls.
//
// Every job completes at submission. Each program's result echoes its
// header and reports the program's "tag" header as the single counts key,
// so a test can check which circuit a result belongs to.
//
// Thread-safety: safe for concurrent use.
type StubEngine struct {
	ids engine.IDGenerator

	// Native overrides the status reported for every job when set.
	Native engine.NativeStatus

	// CancelOK is what Cancel reports.
	CancelOK bool

	// Gate, when non-nil, makes Result block until it is closed.
	Gate chan struct{}

	runCalls    atomic.Int32
	resultCalls atomic.Int32
	statusCalls atomic.Int32
	cancelCalls atomic.Int32

	mu       sync.Mutex
	requests map[string]engine.RunRequest
	order    []string
}

// NewStubEngine creates a stub with ids "job-1", "job-2", ...
func NewStubEngine() *StubEngine {
	return &StubEngine{
		ids:      NewSequentialIDs("job"),
		requests: make(map[string]engine.RunRequest),
	}
}

// Run records req and returns a fresh job id.
func (s *StubEngine) Run(ctx context.Context, req engine.RunRequest) (string, error) {
	s.runCalls.Add(1)
	id := s.ids.Generate()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[id] = req
	s.order = append(s.order, id)
	return id, nil
}

// Status reports DONE unless Native is set.
func (s *StubEngine) Status(ctx context.Context, jobID string) (engine.NativeStatus, error) {
	s.statusCalls.Add(1)
	if _, err := s.request(jobID); err != nil {
		return "", err
	}
	if s.Native != "" {
		return s.Native, nil
	}
	return engine.StatusDone, nil
}

// Result synthesises one CircuitResult per submitted program.
func (s *StubEngine) Result(ctx context.Context, jobID string) (*engine.JobResult, error) {
	s.resultCalls.Add(1)
	req, err := s.request(jobID)
	if err != nil {
		return nil, err
	}
	if s.Gate != nil {
		select {
		case <-s.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	shots := 0
	if req.Shots != nil {
		shots = *req.Shots
	}
	out := &engine.JobResult{JobID: jobID, Results: make([]engine.CircuitResult, len(req.Programs))}
	for i, prog := range req.Programs {
		tag, _ := prog.Header["tag"].(string)
		out.Results[i] = engine.CircuitResult{
			Name:   prog.Name,
			Shots:  shots,
			Counts: map[string]int{tag: shots},
			Header: prog.Header,
		}
	}
	return out, nil
}

// Cancel reports CancelOK.
func (s *StubEngine) Cancel(ctx context.Context, jobID string) (bool, error) {
	s.cancelCalls.Add(1)
	if _, err := s.request(jobID); err != nil {
		return false, err
	}
	return s.CancelOK, nil
}

// RunCalls returns the number of Run calls.
func (s *StubEngine) RunCalls() int { return int(s.runCalls.Load()) }

// ResultCalls returns the number of Result calls.
func (s *StubEngine) ResultCalls() int { return int(s.resultCalls.Load()) }

// StatusCalls returns the number of Status calls.
func (s *StubEngine) StatusCalls() int { return int(s.statusCalls.Load()) }

// CancelCalls returns the number of Cancel calls.
func (s *StubEngine) CancelCalls() int { return int(s.cancelCalls.Load()) }

// Requests returns the submitted requests in submission order.
func (s *StubEngine) Requests() []engine.RunRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]engine.RunRequest, len(s.order))
	for i, id := range s.order {
		out[i] = s.requests[id]
	}
	return out
}

func (s *StubEngine) request(jobID string) (engine.RunRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[jobID]
	if !ok {
		return engine.RunRequest{}, &engine.EngineError{Code: engine.ErrCodeJobNotFound, JobID: jobID, Message: "unknown job"}
	}
	return req, nil
}

// StubExpectationEngine adds a fixed expectation value to StubEngine.
type StubExpectationEngine struct {
	*StubEngine
	Value complex128

	expectationCalls atomic.Int32
}

// Expectation returns Value.
func (s *StubExpectationEngine) Expectation(ctx context.Context, prog engine.Program, op engine.PauliOperator) (complex128, error) {
	s.expectationCalls.Add(1)
	if len(op) == 0 {
		return 0, fmt.Errorf("empty operator")
	}
	return s.Value, nil
}

// ExpectationCalls returns the number of Expectation calls.
func (s *StubExpectationEngine) ExpectationCalls() int { return int(s.expectationCalls.Load()) }
