package execution

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/aerbatch/internal/batch"
	"github.com/roach88/aerbatch/internal/engine"
)

// JobRecord is the submission metadata handed to a Ledger.
type JobRecord struct {
	JobID    string
	Backend  string
	Shots    *int
	Seed     *int
	Circuits int
}

// Ledger receives an audit trail of submissions and status changes. It
// never sees results.
type Ledger interface {
	RecordJob(ctx context.Context, rec JobRecord) error
	RecordStatus(ctx context.Context, jobID string, status Status) error
}

// Manager owns the handle cache for one backend.
//
// Thread-safety: all methods are safe for concurrent use.
type Manager struct {
	engine     engine.Engine
	ledger     Ledger
	backend    string
	memory     bool
	noiseModel any
	seed       *int

	mu      sync.Mutex
	entries map[ResultHandle]*entry
}

type entry struct {
	job    *jobState
	result *Result
}

type jobState struct {
	id      string
	handles []ResultHandle // indexed by position

	// fetch serialises the first Result call per job.
	fetch sync.Mutex

	// last is the last status recorded in the ledger; guarded by Manager.mu.
	last Status
}

// Option configures a Manager.
type Option func(*Manager)

// WithLedger records submissions and status transitions in l.
func WithLedger(l Ledger) Option {
	return func(m *Manager) {
		m.ledger = l
	}
}

// WithBackendName labels ledger records.
func WithBackendName(name string) Option {
	return func(m *Manager) {
		m.backend = name
	}
}

// WithMemory asks the engine for per-shot memory.
func WithMemory(memory bool) Option {
	return func(m *Manager) {
		m.memory = memory
	}
}

// WithNoiseModel attaches an engine noise model to every job.
func WithNoiseModel(model any) Option {
	return func(m *Manager) {
		m.noiseModel = model
	}
}

// WithSeed sets the seed used when Submit is not given one.
func WithSeed(seed int) Option {
	return func(m *Manager) {
		m.seed = &seed
	}
}

// New creates a Manager submitting to eng.
func New(eng engine.Engine, opts ...Option) *Manager {
	m := &Manager{
		engine:  eng,
		entries: make(map[ResultHandle]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Submit sends each group as one engine job and returns one handle per
// circuit, in the caller's original order.
//
// When a seed is in effect (seed, else the WithSeed default) the first job
// uses it and every following job of this call uses the previous value
// plus one. Cache entries for a job are created only after the engine has
// accepted it. If a later group fails, the error is returned and no
// handles are; jobs already accepted keep running.
func (m *Manager) Submit(ctx context.Context, groups []batch.Group[Submission], seed *int) ([]ResultHandle, error) {
	if _, err := batch.Order(groups); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	var next *int
	switch {
	case seed != nil:
		v := *seed
		next = &v
	case m.seed != nil:
		v := *m.seed
		next = &v
	}

	handles := make([]ResultHandle, batch.Total(groups))
	for gi, g := range groups {
		if len(g.Circuits) == 0 {
			continue
		}
		programs := make([]engine.Program, len(g.Circuits))
		for i, sub := range g.Circuits {
			programs[i] = sub.Program
		}

		req := engine.RunRequest{
			Programs:   programs,
			Shots:      g.Shots,
			Memory:     m.memory,
			Seed:       copyInt(next),
			NoiseModel: m.noiseModel,
		}
		jobID, err := m.engine.Run(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("submit group %d: %w", gi, err)
		}

		job := &jobState{id: jobID, handles: make([]ResultHandle, len(g.Circuits))}
		m.mu.Lock()
		for pos, sub := range g.Circuits {
			h := ResultHandle{
				JobID:          jobID,
				Position:       pos,
				QubitCount:     sub.QubitCount,
				PostProcessing: sub.PostProcessing,
			}
			job.handles[pos] = h
			m.entries[h] = &entry{job: job}
			handles[g.OriginalIndices[pos]] = h
		}
		m.mu.Unlock()

		slog.Debug("job submitted",
			"job_id", jobID,
			"circuits", len(g.Circuits),
			"shots", shotsAttr(g.Shots),
		)
		m.record(func(l Ledger) error {
			return l.RecordJob(ctx, JobRecord{
				JobID:    jobID,
				Backend:  m.backend,
				Shots:    g.Shots,
				Seed:     copyInt(next),
				Circuits: len(g.Circuits),
			})
		})

		if next != nil {
			*next++
		}
	}
	return handles, nil
}

// Result returns the cached result for h, fetching and distributing the
// whole job on first access. Repeated calls return the same *Result.
func (m *Manager) Result(ctx context.Context, h ResultHandle) (*Result, error) {
	m.mu.Lock()
	e, ok := m.entries[h]
	if !ok {
		m.mu.Unlock()
		return nil, &NotRunError{Handle: h}
	}
	if e.result != nil {
		r := e.result
		m.mu.Unlock()
		return r, nil
	}
	job := e.job
	m.mu.Unlock()

	job.fetch.Lock()
	defer job.fetch.Unlock()

	// Another caller may have filled the job while we waited.
	m.mu.Lock()
	if e.result != nil {
		r := e.result
		m.mu.Unlock()
		return r, nil
	}
	m.mu.Unlock()

	res, err := m.engine.Result(ctx, job.id)
	if err != nil {
		return nil, fmt.Errorf("fetch job %s: %w", job.id, err)
	}
	if len(res.Results) != len(job.handles) {
		return nil, fmt.Errorf("job %s returned %d results for %d circuits", job.id, len(res.Results), len(job.handles))
	}

	m.mu.Lock()
	for pos, hh := range job.handles {
		m.entries[hh].result = &Result{Handle: hh, CircuitResult: res.Results[pos]}
	}
	r := e.result
	changed := m.markLocked(job, StatusCompleted)
	m.mu.Unlock()

	slog.Debug("job results cached", "job_id", job.id, "circuits", len(job.handles))
	if changed {
		m.record(func(l Ledger) error { return l.RecordStatus(ctx, job.id, StatusCompleted) })
	}
	return r, nil
}

// Cancel asks the engine to cancel h's job. An engine refusal is logged
// and otherwise ignored.
func (m *Manager) Cancel(ctx context.Context, h ResultHandle) error {
	job, err := m.job(h)
	if err != nil {
		return err
	}

	ok, err := m.engine.Cancel(ctx, job.id)
	if err != nil {
		return fmt.Errorf("cancel job %s: %w", job.id, err)
	}
	if !ok {
		slog.Warn("job could not be cancelled", "job_id", job.id, "handle", h.String())
		return nil
	}

	m.mu.Lock()
	changed := m.markLocked(job, StatusCancelled)
	m.mu.Unlock()
	if changed {
		m.record(func(l Ledger) error { return l.RecordStatus(ctx, job.id, StatusCancelled) })
	}
	return nil
}

// Status reports h's job state. A cached result short-circuits to
// Completed without asking the engine.
func (m *Manager) Status(ctx context.Context, h ResultHandle) (CircuitStatus, error) {
	m.mu.Lock()
	e, ok := m.entries[h]
	if ok && e.result != nil {
		m.mu.Unlock()
		return CircuitStatus{Status: StatusCompleted, Message: string(engine.StatusDone)}, nil
	}
	m.mu.Unlock()
	if !ok {
		return CircuitStatus{}, &NotRunError{Handle: h}
	}

	native, err := m.engine.Status(ctx, e.job.id)
	if err != nil {
		return CircuitStatus{}, fmt.Errorf("status of job %s: %w", e.job.id, err)
	}
	status, err := MapStatus(native)
	if err != nil {
		return CircuitStatus{}, err
	}

	m.mu.Lock()
	changed := m.markLocked(e.job, status)
	m.mu.Unlock()
	if changed {
		m.record(func(l Ledger) error { return l.RecordStatus(ctx, e.job.id, status) })
	}
	return CircuitStatus{Status: status, Message: string(native)}, nil
}

// Len returns the number of handles minted.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Pending returns the number of handles whose result is not cached yet.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.result == nil {
			n++
		}
	}
	return n
}

func (m *Manager) job(h ResultHandle) (*jobState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[h]
	if !ok {
		return nil, &NotRunError{Handle: h}
	}
	return e.job, nil
}

// markLocked updates the last recorded status and reports whether it
// changed. Caller holds m.mu.
func (m *Manager) markLocked(job *jobState, s Status) bool {
	if job.last == s {
		return false
	}
	job.last = s
	return true
}

// record writes to the ledger, if any. Ledger failures never fail the
// caller's operation.
func (m *Manager) record(write func(Ledger) error) {
	if m.ledger == nil {
		return
	}
	if err := write(m.ledger); err != nil {
		slog.Warn("ledger write failed", "error", err)
	}
}

func shotsAttr(shots *int) any {
	if shots == nil {
		return "none"
	}
	return *shots
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
