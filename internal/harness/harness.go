package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/aerbatch/internal/backend"
	"github.com/roach88/aerbatch/internal/circuit"
	"github.com/roach88/aerbatch/internal/engine"
	"github.com/roach88/aerbatch/internal/execution"
	"github.com/roach88/aerbatch/internal/noise"
	"github.com/roach88/aerbatch/internal/store"
	"github.com/roach88/aerbatch/internal/testutil"
)

// characterizations is shared by every Run in the process, so scenarios
// reading the same noise model reuse one characterisation.
var characterizations = sync.OnceValues(func() (*noise.Cache, error) {
	return noise.NewCache(noise.DefaultCacheSize)
})

// Harness holds the per-run wiring. Each Run builds a fresh one.
type Harness struct {
	backend *backend.Backend
	local   *engine.LocalEngine
	store   *store.Store
	clock   *engine.Clock

	handles []execution.ResultHandle

	started    bool
	stopEngine context.CancelFunc
	engineDone chan struct{}
}

// Run executes a scenario against a fresh in-memory ledger and a local
// engine minting job-1, job-2, ... ids. Step failures are recorded in the
// trace; only wiring failures are returned as errors.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	kind := backend.KindShots
	if scenario.Backend != "" {
		k, err := backend.ParseKind(scenario.Backend)
		if err != nil {
			return nil, err
		}
		kind = k
	}

	var model *noise.NoiseModel
	if scenario.Noise != "" {
		m, err := noise.LoadNoiseModel(scenario.Noise)
		if err != nil {
			return nil, fmt.Errorf("failed to load noise model: %w", err)
		}
		model = m
	}

	cache, err := characterizations()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(store.MemoryDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory ledger: %w", err)
	}
	defer st.Close()

	local := engine.NewLocal(engine.WithIDGenerator(testutil.NewSequentialIDs("job")))

	opts := []backend.Option{backend.WithNoiseModel(model), backend.WithCache(cache), backend.WithLedger(st)}
	if scenario.Seed != nil {
		opts = append(opts, backend.WithSeed(*scenario.Seed))
	}
	b, err := backend.New(kind, local, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build backend: %w", err)
	}

	h := &Harness{
		backend: b,
		local:   local,
		store:   st,
		clock:   engine.NewClock(),
	}
	defer h.shutdown()

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.execute(ctx, step, result); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Action, err)
		}
	}
	result.Handles = h.handles
	result.Characterization = b.Characterization()

	actx := &AssertionContext{Store: st, Ctx: ctx, Handles: h.handles}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) execute(ctx context.Context, step Step, result *Result) error {
	if step.Action == ActionProcess {
		return h.process(ctx, step, result)
	}

	indices, err := h.selectCircuits(step.Circuits)
	if err != nil {
		return err
	}
	if step.Action == ActionResult {
		h.startEngine(ctx)
	}

	for _, idx := range indices {
		handle := h.handles[idx]
		ev := TraceEvent{Type: step.Action, Circuit: idx, JobID: handle.JobID, Position: handle.Position}
		switch step.Action {
		case ActionResult:
			res, err := h.backend.Result(ctx, handle)
			if err != nil {
				ev.Error = errorCode(err)
			} else {
				ev.Counts = res.Counts
			}
		case ActionStatus:
			status, err := h.backend.Status(ctx, handle)
			if err != nil {
				ev.Error = errorCode(err)
			} else {
				ev.Status = string(status.Status)
			}
		case ActionCancel:
			if err := h.backend.Cancel(ctx, handle); err != nil {
				ev.Error = errorCode(err)
			}
		}
		ev.Seq = h.clock.Next()
		result.addEvent(ev)
	}
	return nil
}

func (h *Harness) process(ctx context.Context, step Step, result *Result) error {
	bf, err := circuit.LoadBatchFile(step.Batch)
	if err != nil {
		return err
	}
	circuits, shots := bf.Split()

	opts := backend.ProcessOptions{ValidCheck: true, Postprocess: true}
	switch {
	case step.Shots != nil:
		opts.DefaultShots = step.Shots
	case bf.Shots != nil:
		opts.DefaultShots = bf.Shots
	}

	handles, err := h.backend.Process(ctx, circuits, shots, opts)
	if err != nil {
		slog.Debug("batch rejected", "batch", step.Batch, "error", err)
		result.addEvent(TraceEvent{Type: ActionProcess, Circuit: -1, Error: errorCode(err), Seq: h.clock.Next()})
		return nil
	}

	for _, handle := range handles {
		result.addEvent(TraceEvent{
			Type:     ActionProcess,
			Circuit:  len(h.handles),
			JobID:    handle.JobID,
			Position: handle.Position,
			Seq:      h.clock.Next(),
		})
		h.handles = append(h.handles, handle)
	}
	return nil
}

func (h *Harness) selectCircuits(indices []int) ([]int, error) {
	if len(indices) == 0 {
		all := make([]int, len(h.handles))
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	for _, idx := range indices {
		if idx >= len(h.handles) {
			return nil, fmt.Errorf("circuit %d not processed (have %d)", idx, len(h.handles))
		}
	}
	return indices, nil
}

func (h *Harness) startEngine(ctx context.Context) {
	if h.started {
		return
	}
	h.started = true

	runCtx, cancel := context.WithCancel(ctx)
	h.stopEngine = cancel
	h.engineDone = make(chan struct{})
	go func() {
		defer close(h.engineDone)
		if err := h.local.Start(runCtx); err != nil && runCtx.Err() == nil {
			slog.Error("engine stopped", "error", err)
		}
	}()
}

func (h *Harness) shutdown() {
	if !h.started {
		return
	}
	h.local.Stop()
	<-h.engineDone
	h.stopEngine()
}

// errorCode reduces a step failure to a stable trace token.
func errorCode(err error) string {
	var ee *engine.EngineError
	switch {
	case circuit.IsValidation(err):
		return "VALIDATION"
	case backend.IsUnsupportedFeature(err):
		return "UNSUPPORTED"
	case noise.IsMalformed(err):
		return "MALFORMED"
	case execution.IsNotRun(err):
		return "NOT_RUN"
	case errors.As(err, &ee):
		return string(ee.Code)
	default:
		return "ERROR"
	}
}
