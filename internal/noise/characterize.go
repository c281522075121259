package noise

import (
	"log/slog"
	"maps"
	"math"
	"slices"
)

// OpErrors maps an operation kind to its infidelity.
type OpErrors map[OpKind]float64

// Mean returns the arithmetic mean of the recorded infidelities, summed in
// ascending OpKind order so the result is bit-identical across runs.
func (o OpErrors) Mean() float64 {
	if len(o) == 0 {
		return 0
	}
	sum := 0.0
	for _, op := range slices.Sorted(maps.Keys(o)) {
		sum += o[op]
	}
	return sum / float64(len(o))
}

// GenericEntry is one raw (instructions, probabilities) pair from a gate error.
type GenericEntry struct {
	Instructions  any       `json:"instructions"`
	Probabilities []float64 `json:"probabilities"`
}

// GenericQubitErrors collects the raw single-qubit errors of one qubit.
type GenericQubitErrors struct {
	Qubit   int            `json:"qubit"`
	Entries []GenericEntry `json:"entries"`
}

// GenericPairErrors collects the raw two-qubit errors of one ordered pair.
type GenericPairErrors struct {
	Edge    Edge           `json:"edge"`
	Entries []GenericEntry `json:"entries"`
}

// GenericErrors is the diagnostic pass-through log. It plays no part in
// averaging.
type GenericErrors struct {
	OneQubit []GenericQubitErrors `json:"one_qubit"`
	TwoQubit []GenericPairErrors  `json:"two_qubit"`
}

// Characterization is the connectivity and error model inferred from a noise
// model. It is built once and must not be mutated afterwards.
//
// A characterisation with an empty Architecture and nil maps means "no
// noise"; callers fall back to a fully connected topology of their own size.
type Characterization struct {
	Architecture          Architecture          `json:"architecture"`
	NodeErrors            map[int]OpErrors      `json:"node_errors,omitempty"`
	EdgeErrors            map[Edge]OpErrors     `json:"edge_errors,omitempty"`
	ReadoutErrors         map[int][2][2]float64 `json:"readout_errors,omitempty"`
	AveragedNodeErrors    map[int]float64       `json:"averaged_node_errors,omitempty"`
	AveragedEdgeErrors    map[Edge]float64      `json:"averaged_edge_errors,omitempty"`
	AveragedReadoutErrors map[int]float64       `json:"averaged_readout_errors,omitempty"`
	GenericErrors         *GenericErrors        `json:"generic_errors,omitempty"`
}

// IsNoiseless reports whether the characterisation carries no topology.
func (c *Characterization) IsNoiseless() bool {
	return c == nil || c.Architecture.Empty()
}

// nodeErrorBuilder accumulates per-qubit infidelities.
type nodeErrorBuilder struct {
	errors  map[int]OpErrors
	generic map[int][]GenericEntry
	order   []int
}

func newNodeErrorBuilder() *nodeErrorBuilder {
	return &nodeErrorBuilder{
		errors:  make(map[int]OpErrors),
		generic: make(map[int][]GenericEntry),
	}
}

// insertOrUpdate records infidelity for (qubit, op), replacing any earlier
// value for the same op.
func (b *nodeErrorBuilder) insertOrUpdate(ev SingleQubitError) {
	ops, ok := b.errors[ev.Qubit]
	if !ok {
		ops = make(OpErrors)
		b.errors[ev.Qubit] = ops
	}
	ops[ev.Op] = ev.Infidelity

	if _, seen := b.generic[ev.Qubit]; !seen {
		b.order = append(b.order, ev.Qubit)
	}
	b.generic[ev.Qubit] = append(b.generic[ev.Qubit], GenericEntry{
		Instructions:  ev.Instructions,
		Probabilities: ev.Probabilities,
	})
}

// edgeErrorBuilder accumulates per-pair infidelities and the coupling list.
type edgeErrorBuilder struct {
	errors   map[Edge]OpErrors
	generic  map[Edge][]GenericEntry
	order    []Edge
	coupling []Edge
	linked   map[int]struct{}
}

func newEdgeErrorBuilder() *edgeErrorBuilder {
	return &edgeErrorBuilder{
		errors:  make(map[Edge]OpErrors),
		generic: make(map[Edge][]GenericEntry),
		linked:  make(map[int]struct{}),
	}
}

func (b *edgeErrorBuilder) set(e Edge, op OpKind, infidelity float64) {
	ops, ok := b.errors[e]
	if !ok {
		ops = make(OpErrors)
		b.errors[e] = ops
	}
	ops[op] = infidelity
}

// insertOrUpdate records the measured direction with infidelity 1-f and
// the reverse direction with 1-f². The reverse figure is a modelling
// policy standing in for an unmeasured direction, not a physical estimate.
func (b *edgeErrorBuilder) insertOrUpdate(ev TwoQubitError) {
	fwd := Edge{Control: ev.Control, Target: ev.Target}
	b.set(fwd, ev.Op, 1-ev.Fidelity)
	b.set(fwd.Reverse(), ev.Op, 1-math.Pow(ev.Fidelity, 2))

	b.linked[ev.Control] = struct{}{}
	b.linked[ev.Target] = struct{}{}

	if _, seen := b.generic[fwd]; !seen {
		b.order = append(b.order, fwd)
	}
	b.generic[fwd] = append(b.generic[fwd], GenericEntry{
		Instructions:  ev.Instructions,
		Probabilities: ev.Probabilities,
	})
	b.coupling = append(b.coupling, fwd)
}

// Characterize infers the architecture and error maps from events.
//
// gateSet is the backend's native gate set; it must contain CX since link
// errors are expressed relative to it. An empty or trivial event list yields
// the noiseless characterisation. Any malformed event aborts the whole call.
func Characterize(events []ErrorEvent, gateSet GateSet) (*Characterization, error) {
	if isTrivial(events) {
		return &Characterization{}, nil
	}
	if !gateSet.Contains(OpCX) {
		return nil, malformed(ErrCodeGateSet, -1, "gate set must contain CX to characterise link errors")
	}

	nodes := newNodeErrorBuilder()
	edges := newEdgeErrorBuilder()
	readout := make(map[int][2][2]float64)
	touched := make(map[int]struct{})

	for i, ev := range events {
		classified, err := Classify(i, ev)
		if err != nil {
			return nil, err
		}
		switch c := classified.(type) {
		case SingleQubitError:
			touched[c.Qubit] = struct{}{}
			nodes.insertOrUpdate(c)
		case ReadoutError:
			touched[c.Qubit] = struct{}{}
			readout[c.Qubit] = c.Matrix
		case TwoQubitError:
			edges.insertOrUpdate(c)
		}
	}

	coupling := completeFreeQubits(edges.coupling, touched, edges.linked)

	ch := &Characterization{
		Architecture:          NewArchitecture(coupling),
		NodeErrors:            nodes.errors,
		EdgeErrors:            edges.errors,
		ReadoutErrors:         readout,
		AveragedNodeErrors:    make(map[int]float64, len(nodes.errors)),
		AveragedEdgeErrors:    make(map[Edge]float64, len(edges.errors)),
		AveragedReadoutErrors: make(map[int]float64, len(readout)),
		GenericErrors:         &GenericErrors{},
	}
	for q, ops := range nodes.errors {
		ch.AveragedNodeErrors[q] = ops.Mean()
	}
	for e, ops := range edges.errors {
		ch.AveragedEdgeErrors[e] = ops.Mean()
	}
	for q, m := range readout {
		ch.AveragedReadoutErrors[q] = (m[0][1] + m[1][0]) / 2
	}
	for _, q := range nodes.order {
		ch.GenericErrors.OneQubit = append(ch.GenericErrors.OneQubit,
			GenericQubitErrors{Qubit: q, Entries: nodes.generic[q]})
	}
	for _, e := range edges.order {
		ch.GenericErrors.TwoQubit = append(ch.GenericErrors.TwoQubit,
			GenericPairErrors{Edge: e, Entries: edges.generic[e]})
	}

	slog.Debug("characterised noise model",
		"events", len(events),
		"nodes", len(ch.NodeErrors),
		"edges", len(ch.EdgeErrors),
		"readout", len(ch.ReadoutErrors),
		"coupling", len(ch.Architecture.Coupling),
	)

	return ch, nil
}

// completeFreeQubits grants full connectivity to qubits that carry errors
// but no link error. Every free qubit is joined in both directions to every
// link-constrained qubit, and every ordered pair of distinct free qubits is
// added. Qubits are visited in ascending order so the result is stable.
func completeFreeQubits(coupling []Edge, touched, linked map[int]struct{}) []Edge {
	var free []int
	for _, q := range sortedKeys(touched) {
		if _, ok := linked[q]; !ok {
			free = append(free, q)
		}
	}
	constrained := sortedKeys(linked)

	out := append([]Edge(nil), coupling...)
	for _, f := range free {
		for _, l := range constrained {
			out = append(out, Edge{Control: f, Target: l}, Edge{Control: l, Target: f})
		}
	}
	for _, a := range free {
		for _, b := range free {
			if a != b {
				out = append(out, Edge{Control: a, Target: b})
			}
		}
	}
	return out
}

// isTrivial reports whether events declare no error at all.
func isTrivial(events []ErrorEvent) bool {
	for _, ev := range events {
		if !ev.Probabilities.Empty() {
			return false
		}
	}
	return true
}
