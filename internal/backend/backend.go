// Package backend assembles the simulator backend variants: it
// characterises an optional noise model, derives the backend info and
// required predicates, and routes circuit batches through the execution
// manager.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/aerbatch/internal/batch"
	"github.com/roach88/aerbatch/internal/circuit"
	"github.com/roach88/aerbatch/internal/engine"
	"github.com/roach88/aerbatch/internal/execution"
	"github.com/roach88/aerbatch/internal/noise"
	"github.com/roach88/aerbatch/internal/policy"
)

// DefaultQubits is the width of the fully connected fallback topology.
const DefaultQubits = 40

// Info describes a backend.
type Info struct {
	Name         string             `json:"name"`
	DeviceName   string             `json:"device_name"`
	Architecture noise.Architecture `json:"architecture"`
	GateSet      []string           `json:"gate_set"`

	SupportsMidcircuitMeasurement bool `json:"supports_midcircuit_measurement"`
	SupportsFastFeedforward       bool `json:"supports_fast_feedforward"`
	SupportsReset                 bool `json:"supports_reset"`

	NodeErrors            map[int]noise.OpErrors        `json:"all_node_gate_errors,omitempty"`
	EdgeErrors            map[noise.Edge]noise.OpErrors `json:"all_edge_gate_errors,omitempty"`
	ReadoutErrors         map[int][2][2]float64         `json:"all_readout_errors,omitempty"`
	AveragedNodeErrors    map[int]float64               `json:"averaged_node_gate_errors,omitempty"`
	AveragedEdgeErrors    map[noise.Edge]float64        `json:"averaged_edge_gate_errors,omitempty"`
	AveragedReadoutErrors map[int]float64               `json:"averaged_readout_errors,omitempty"`

	// Misc["characterisation"] holds the generic error log, or nil for
	// variants that take no noise model.
	Misc map[string]any `json:"misc"`
}

// Backend is one configured simulator variant.
//
// Thread-safety: all methods are safe for concurrent use.
type Backend struct {
	kind    Kind
	engine  engine.Engine
	manager *execution.Manager

	noiseModel *noise.NoiseModel
	ch         *noise.Characterization
	hasArch    bool
	gateSet    noise.GateSet
	info       Info
	preds      []circuit.Predicate
}

type options struct {
	noiseModel *noise.NoiseModel
	qubits     int
	cache      *noise.Cache
	ledger     execution.Ledger
	memory     bool
	seed       *int
}

// Option configures a Backend.
type Option func(*options)

// WithNoiseModel attaches a noise model. Only noise-capable kinds accept
// a non-trivial one.
func WithNoiseModel(m *noise.NoiseModel) Option {
	return func(o *options) {
		o.noiseModel = m
	}
}

// WithQubits sets the width of the fully connected fallback topology.
func WithQubits(n int) Option {
	return func(o *options) {
		o.qubits = n
	}
}

// WithCache shares characterisations between backends.
func WithCache(c *noise.Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithLedger records submissions and status changes.
func WithLedger(l execution.Ledger) Option {
	return func(o *options) {
		o.ledger = l
	}
}

// WithMemory requests per-shot memory from shot-based kinds.
func WithMemory(memory bool) Option {
	return func(o *options) {
		o.memory = memory
	}
}

// WithSeed sets the default simulator seed.
func WithSeed(seed int) Option {
	return func(o *options) {
		o.seed = &seed
	}
}

// New builds a backend of the given kind on eng.
func New(kind Kind, eng engine.Engine, opts ...Option) (*Backend, error) {
	if _, ok := kinds[kind]; !ok {
		return nil, fmt.Errorf("unknown backend kind %d", int(kind))
	}
	if eng == nil {
		return nil, fmt.Errorf("%s: nil engine", kind)
	}
	o := options{qubits: DefaultQubits}
	for _, opt := range opts {
		opt(&o)
	}
	if o.qubits < 0 {
		return nil, fmt.Errorf("%s: negative qubit count %d", kind, o.qubits)
	}

	caps := kind.Capabilities()
	if !o.noiseModel.IsTrivial() && !caps.Noise {
		return nil, &UnsupportedFeatureError{Backend: kind.String(), Feature: "noise model", Reason: "variant simulates noiselessly"}
	}
	if o.memory && !caps.Memory {
		return nil, &UnsupportedFeatureError{Backend: kind.String(), Feature: "memory", Reason: "variant returns no shots"}
	}

	b := &Backend{kind: kind, engine: eng}
	base := engineGateSet()
	b.gateSet = base
	if caps.Noise {
		b.gateSet = base.Union(specialGates())
	}

	if caps.Noise {
		ch, err := characterize(o.noiseModel, b.gateSet, o.cache)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		b.ch = ch
		b.hasArch = !ch.IsNoiseless()
		if !o.noiseModel.IsTrivial() {
			b.noiseModel = o.noiseModel
		}
	}

	b.info = b.buildInfo(base, o.qubits)
	b.preds = b.requiredPredicates()

	mopts := []execution.Option{
		execution.WithBackendName(kind.String()),
		execution.WithMemory(o.memory),
	}
	if b.noiseModel != nil {
		mopts = append(mopts, execution.WithNoiseModel(b.noiseModel))
	}
	if o.ledger != nil {
		mopts = append(mopts, execution.WithLedger(o.ledger))
	}
	if o.seed != nil {
		mopts = append(mopts, execution.WithSeed(*o.seed))
	}
	b.manager = execution.New(eng, mopts...)

	slog.Debug("backend ready",
		"backend", kind.String(),
		"device", kind.DeviceName(),
		"noisy", b.noiseModel != nil,
		"constrained", b.hasArch,
	)
	return b, nil
}

func characterize(model *noise.NoiseModel, gs noise.GateSet, cache *noise.Cache) (*noise.Characterization, error) {
	if cache != nil {
		return cache.Characterize(model, gs)
	}
	return model.Characterize(gs)
}

func (b *Backend) buildInfo(base noise.GateSet, qubits int) Info {
	info := Info{
		Name:                          b.kind.String(),
		DeviceName:                    b.kind.DeviceName(),
		Architecture:                  noise.FullyConnected(qubits),
		GateSet:                       b.gateSet.Names(),
		SupportsMidcircuitMeasurement: true,
		Misc:                          map[string]any{"characterisation": nil},
	}

	switch b.kind {
	case KindShots:
		info.SupportsFastFeedforward = true
	case KindState:
		info.SupportsFastFeedforward = true
		info.SupportsReset = true
	case KindDensityMatrix:
		info.SupportsFastFeedforward = true
		info.SupportsReset = true
		// The density-matrix device reports its own gate set, without the
		// special operations used for characterisation.
		info.GateSet = base.Names()
	}

	if b.ch != nil {
		if b.hasArch {
			info.Architecture = b.ch.Architecture
		}
		info.NodeErrors = b.ch.NodeErrors
		info.EdgeErrors = b.ch.EdgeErrors
		info.ReadoutErrors = b.ch.ReadoutErrors
		info.AveragedNodeErrors = b.ch.AveragedNodeErrors
		info.AveragedEdgeErrors = b.ch.AveragedEdgeErrors
		info.AveragedReadoutErrors = b.ch.AveragedReadoutErrors
		info.Misc["characterisation"] = b.ch.GenericErrors
	}
	return info
}

func (b *Backend) requiredPredicates() []circuit.Predicate {
	gates := circuit.GateSetPredicate{Gates: b.gateSet}
	switch b.kind {
	case KindShots:
		preds := []circuit.Predicate{circuit.NoSymbolsPredicate{}, gates}
		if b.hasArch {
			preds = append(preds, circuit.ConnectivityPredicate{Arch: b.info.Architecture})
		}
		return preds
	case KindUnitary:
		return []circuit.Predicate{
			circuit.NoClassicalControlPredicate{},
			circuit.NoFastFeedforwardPredicate{},
			gates,
		}
	case KindDensityMatrix:
		preds := []circuit.Predicate{gates}
		if b.hasArch {
			preds = append(preds, circuit.ConnectivityPredicate{Arch: b.info.Architecture})
		}
		return preds
	default:
		return []circuit.Predicate{gates}
	}
}

// Kind returns the backend variant.
func (b *Backend) Kind() Kind { return b.kind }

// Info returns the backend description.
func (b *Backend) Info() Info { return b.info }

// Characterization returns the noise characterisation, or nil for
// variants that take no noise model.
func (b *Backend) Characterization() *noise.Characterization { return b.ch }

// Constrained reports whether the characterised architecture restricts
// connectivity.
func (b *Backend) Constrained() bool { return b.hasArch }

// RequiredPredicates returns the predicates every submitted circuit must
// satisfy.
func (b *Backend) RequiredPredicates() []circuit.Predicate {
	out := make([]circuit.Predicate, len(b.preds))
	copy(out, b.preds)
	return out
}

// Valid reports whether c satisfies every required predicate.
func (b *Backend) Valid(c *circuit.Circuit) error {
	return circuit.CheckAll([]*circuit.Circuit{c}, b.preds)
}

// DefaultCompilationPlan returns the compiler stages for level.
func (b *Backend) DefaultCompilationPlan(level, timeout int) ([]policy.Stage, error) {
	return policy.Select(level, b.hasArch, timeout)
}

// Compile runs the default plan for level on clones of circuits. The
// inputs are left untouched whether or not compilation succeeds.
func (b *Backend) Compile(ctx context.Context, compiler policy.Compiler[*circuit.Circuit], circuits []*circuit.Circuit, level, timeout int) ([]*circuit.Circuit, error) {
	plan, err := b.DefaultCompilationPlan(level, timeout)
	if err != nil {
		return nil, err
	}
	out := make([]*circuit.Circuit, len(circuits))
	for i, c := range circuits {
		cc := c.Clone()
		if err := policy.Run(ctx, compiler, plan, cc); err != nil {
			return nil, fmt.Errorf("compile circuit %d (%s): %w", i, c.Name, err)
		}
		out[i] = cc
	}
	return out, nil
}

// ProcessOptions tunes one Process call.
type ProcessOptions struct {
	// DefaultShots applies to circuits whose shots entry is nil.
	DefaultShots *int

	// ValidCheck checks every circuit against the required predicates
	// before anything is submitted.
	ValidCheck bool

	// Seed overrides the backend's default seed for this call.
	Seed *int

	// Postprocess attaches each circuit's post-processing descriptor to
	// its handle. Without it every handle carries "null".
	Postprocess bool
}

// Process validates, batches and submits circuits, returning one handle
// per circuit in input order. shots may be nil, or hold one entry per
// circuit.
func (b *Backend) Process(ctx context.Context, circuits []*circuit.Circuit, shots []*int, opts ProcessOptions) ([]execution.ResultHandle, error) {
	if shots == nil {
		shots = make([]*int, len(circuits))
	}
	if len(shots) != len(circuits) {
		return nil, fmt.Errorf("%s: %d shot entries for %d circuits", b.kind, len(shots), len(circuits))
	}

	if opts.ValidCheck {
		if err := circuit.CheckAll(circuits, b.preds); err != nil {
			return nil, err
		}
	}

	caps := b.kind.Capabilities()
	subs := make([]execution.Submission, len(circuits))
	for i, c := range circuits {
		if !caps.Shots && (shots[i] != nil || opts.DefaultShots != nil) {
			return nil, &UnsupportedFeatureError{Backend: b.kind.String(), Feature: "shots", Reason: "variant returns a snapshot per circuit"}
		}
		prog, err := circuit.Lower(c, b.kind.Save())
		if err != nil {
			return nil, err
		}
		pp := "null"
		if opts.Postprocess {
			if pp, err = c.PostProcessingDescriptor(); err != nil {
				return nil, err
			}
		}
		subs[i] = execution.Submission{Program: prog, QubitCount: c.Qubits, PostProcessing: pp}
	}

	groups, err := batch.Batch(subs, shots, opts.DefaultShots)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.kind, err)
	}
	return b.manager.Submit(ctx, groups, opts.Seed)
}

// Result returns the result behind h.
func (b *Backend) Result(ctx context.Context, h execution.ResultHandle) (*execution.Result, error) {
	return b.manager.Result(ctx, h)
}

// Results returns the results behind handles, in order.
func (b *Backend) Results(ctx context.Context, handles []execution.ResultHandle) ([]*execution.Result, error) {
	out := make([]*execution.Result, len(handles))
	for i, h := range handles {
		r, err := b.manager.Result(ctx, h)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// Cancel asks the engine to cancel the job behind h.
func (b *Backend) Cancel(ctx context.Context, h execution.ResultHandle) error {
	return b.manager.Cancel(ctx, h)
}

// Status reports the status of the circuit behind h.
func (b *Backend) Status(ctx context.Context, h execution.ResultHandle) (execution.CircuitStatus, error) {
	return b.manager.Status(ctx, h)
}

// PauliExpectation computes the expectation of a single Pauli term on the
// final state of c.
func (b *Backend) PauliExpectation(ctx context.Context, c *circuit.Circuit, term engine.PauliTerm, validCheck bool) (complex128, error) {
	return b.OperatorExpectation(ctx, c, engine.PauliOperator{term}, validCheck)
}

// OperatorExpectation computes the expectation of op on the final state of
// c. The circuit must use only the default register, with qubits numbered
// from 0.
func (b *Backend) OperatorExpectation(ctx context.Context, c *circuit.Circuit, op engine.PauliOperator, validCheck bool) (complex128, error) {
	if !b.kind.Capabilities().Expectation {
		return 0, &UnsupportedFeatureError{Backend: b.kind.String(), Feature: "expectation", Reason: "variant cannot compute expectation values"}
	}
	if b.noiseModel != nil {
		return 0, &UnsupportedFeatureError{Backend: b.kind.String(), Feature: "expectation", Reason: "not supported with a noise model"}
	}
	ee, ok := b.engine.(engine.ExpectationEngine)
	if !ok {
		return 0, &UnsupportedFeatureError{Backend: b.kind.String(), Feature: "expectation", Reason: "engine has no expectation API"}
	}
	if validCheck {
		if err := b.Valid(c); err != nil {
			return 0, err
		}
	}
	if err := (circuit.DefaultRegisterPredicate{}).Check(c); err != nil {
		return 0, fmt.Errorf("expectation of circuit %q: %w", c.Name, err)
	}
	for _, term := range op {
		for _, q := range term.Qubits {
			if q < 0 || q >= c.Qubits {
				return 0, fmt.Errorf("expectation of circuit %q: operator qubit %d outside [0, %d)", c.Name, q, c.Qubits)
			}
		}
	}

	prog, err := circuit.Lower(c, engine.SaveNone)
	if err != nil {
		return 0, err
	}
	v, err := ee.Expectation(ctx, prog, op)
	if engine.IsUnsupported(err) {
		return 0, &UnsupportedFeatureError{Backend: b.kind.String(), Feature: "expectation", Reason: "rejected by engine", Err: err}
	}
	return v, err
}
