package noise

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrorKind distinguishes gate (quantum) errors from readout errors.
type ErrorKind string

const (
	// QErr is a quantum error channel attached to a gate.
	QErr ErrorKind = "qerror"
	// ReadoutErr is a classical confusion matrix attached to a measurement.
	ReadoutErr ErrorKind = "roerror"
)

// Probabilities holds an event's probability table. Gate errors carry one
// probability per instruction branch; readout errors carry a confusion
// matrix. Documents use the same "probabilities" key for both shapes.
type Probabilities struct {
	Values []float64
	Matrix [][]float64
}

// Empty reports whether no probabilities were declared.
func (p Probabilities) Empty() bool {
	return len(p.Values) == 0 && len(p.Matrix) == 0
}

// MarshalJSON renders whichever shape is populated.
func (p Probabilities) MarshalJSON() ([]byte, error) {
	if p.Matrix != nil {
		return json.Marshal(p.Matrix)
	}
	if p.Values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p.Values)
}

// UnmarshalJSON accepts a flat list or a list of rows.
func (p *Probabilities) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("probabilities: %w", err)
	}
	*p = Probabilities{}
	if len(raw) == 0 {
		return nil
	}
	if len(raw[0]) > 0 && raw[0][0] == '[' {
		return json.Unmarshal(data, &p.Matrix)
	}
	return json.Unmarshal(data, &p.Values)
}

// UnmarshalYAML accepts a flat sequence or a sequence of sequences.
func (p *Probabilities) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: probabilities must be a sequence", node.Line)
	}
	*p = Probabilities{}
	if len(node.Content) == 0 {
		return nil
	}
	if node.Content[0].Kind == yaml.SequenceNode {
		return node.Decode(&p.Matrix)
	}
	return node.Decode(&p.Values)
}

// value returns a representation suitable for canonical hashing.
func (p Probabilities) value() any {
	if p.Matrix != nil {
		return p.Matrix
	}
	if p.Values == nil {
		return []any{}
	}
	return p.Values
}

// ErrorEvent is one raw entry of a noise-model document.
type ErrorEvent struct {
	Kind          ErrorKind     `yaml:"type" json:"type"`
	Operations    []string      `yaml:"operations" json:"operations"`
	GateQubits    [][]int       `yaml:"gate_qubits,omitempty" json:"gate_qubits,omitempty"`
	Probabilities Probabilities `yaml:"probabilities" json:"probabilities"`

	// Instructions is the engine-specific description of the error channel.
	// It is carried through to the generic error log untouched.
	Instructions any `yaml:"instructions,omitempty" json:"instructions,omitempty"`
}

// ClassifiedEvent is the typed form of an ErrorEvent. Exactly one of the
// concrete types SingleQubitError, TwoQubitError, or ReadoutError.
type ClassifiedEvent interface {
	classified()
}

// SingleQubitError is a gate error acting on one qubit.
type SingleQubitError struct {
	Qubit         int
	Op            OpKind
	Infidelity    float64
	Instructions  any
	Probabilities []float64
}

// TwoQubitError is a gate error acting on an ordered qubit pair.
type TwoQubitError struct {
	Control       int
	Target        int
	Op            OpKind
	Fidelity      float64
	Instructions  any
	Probabilities []float64
}

// ReadoutError is a confusion matrix for measuring one qubit.
type ReadoutError struct {
	Qubit  int
	Matrix [2][2]float64
}

func (SingleQubitError) classified() {}
func (TwoQubitError) classified()    {}
func (ReadoutError) classified()     {}

// Classify validates ev and returns its typed form. index is the event's
// position in the model and is reported in errors.
func Classify(index int, ev ErrorEvent) (ClassifiedEvent, error) {
	if len(ev.Operations) != 1 {
		if len(ev.Operations) == 0 {
			return nil, malformed(ErrCodeUnknownOperation, index, "event names no operation")
		}
		return nil, malformed(ErrCodeMultiOperation, index, "error applies to multiple gates %v", ev.Operations)
	}
	if len(ev.GateQubits) == 0 || len(ev.GateQubits[0]) == 0 {
		return nil, malformed(ErrCodeImplicitTargets, index,
			"error on %q has no explicit gate_qubits; all-qubit errors cannot describe a topology", ev.Operations[0])
	}

	op, err := ParseOpKind(ev.Operations[0])
	if err != nil {
		return nil, malformed(ErrCodeUnknownOperation, index, "%v", err)
	}

	qubits := ev.GateQubits[0]
	for _, q := range qubits {
		if q < 0 {
			return nil, malformed(ErrCodeUnsupportedArity, index, "negative qubit index %d", q)
		}
	}

	switch len(qubits) {
	case 1:
		switch ev.Kind {
		case QErr:
			fid, err := leadingProbability(index, ev.Probabilities)
			if err != nil {
				return nil, err
			}
			return SingleQubitError{
				Qubit:         qubits[0],
				Op:            op,
				Infidelity:    1 - fid,
				Instructions:  ev.Instructions,
				Probabilities: ev.Probabilities.Values,
			}, nil
		case ReadoutErr:
			m, err := confusionMatrix(index, ev.Probabilities)
			if err != nil {
				return nil, err
			}
			return ReadoutError{Qubit: qubits[0], Matrix: m}, nil
		default:
			return nil, malformed(ErrCodeUnknownErrorType, index, "error type %q is not qerror or roerror", ev.Kind)
		}

	case 2:
		if ev.Kind != QErr {
			return nil, malformed(ErrCodeUnknownErrorType, index, "two-qubit %q error must be qerror", ev.Kind)
		}
		fid, err := leadingProbability(index, ev.Probabilities)
		if err != nil {
			return nil, err
		}
		return TwoQubitError{
			Control:       qubits[0],
			Target:        qubits[1],
			Op:            op,
			Fidelity:      fid,
			Instructions:  ev.Instructions,
			Probabilities: ev.Probabilities.Values,
		}, nil

	default:
		return nil, malformed(ErrCodeUnsupportedArity, index, "error on %d qubits is not supported", len(qubits))
	}
}

// leadingProbability returns the identity-branch probability, which is the
// fidelity estimate for the gate.
func leadingProbability(index int, p Probabilities) (float64, error) {
	if len(p.Values) == 0 {
		return 0, malformed(ErrCodeBadProbabilities, index, "gate error has no probabilities")
	}
	fid := p.Values[0]
	if fid < 0 || fid > 1 {
		return 0, malformed(ErrCodeBadProbabilities, index, "probability %v outside [0,1]", fid)
	}
	return fid, nil
}

func confusionMatrix(index int, p Probabilities) ([2][2]float64, error) {
	var m [2][2]float64
	if len(p.Matrix) != 2 || len(p.Matrix[0]) != 2 || len(p.Matrix[1]) != 2 {
		return m, malformed(ErrCodeBadProbabilities, index, "readout error needs a 2x2 confusion matrix")
	}
	for i := range 2 {
		for j := range 2 {
			m[i][j] = p.Matrix[i][j]
		}
	}
	return m, nil
}
