package circuit

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/aerbatch/internal/noise"
)

// Predicate is a property a circuit must satisfy before a backend accepts
// it.
type Predicate interface {
	Name() string
	Check(c *Circuit) error
}

// ValidationError reports the first circuit and predicate that failed.
type ValidationError struct {
	Index     int
	Circuit   string
	Predicate string
	Err       error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("circuit %d (%s) fails %s: %v", e.Index, e.Circuit, e.Predicate, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CheckAll checks every circuit against every predicate, in order, and
// returns the first failure.
func CheckAll(circuits []*Circuit, preds []Predicate) error {
	for i, c := range circuits {
		for _, p := range preds {
			if err := p.Check(c); err != nil {
				return &ValidationError{Index: i, Circuit: c.Name, Predicate: p.Name(), Err: err}
			}
		}
	}
	return nil
}

// GateSetPredicate requires every op kind to be in Gates.
type GateSetPredicate struct {
	Gates noise.GateSet
}

func (GateSetPredicate) Name() string { return "GateSetPredicate" }

func (p GateSetPredicate) Check(c *Circuit) error {
	for i, op := range c.Ops {
		if !p.Gates.Contains(op.Kind) {
			return fmt.Errorf("op %d: %s not in gate set %v", i, op.Kind, p.Gates.Names())
		}
	}
	return nil
}

// ConnectivityPredicate requires every qubit to be an architecture node and
// every two-qubit op to act on coupled qubits, in either direction.
// Barriers are exempt from the coupling check.
type ConnectivityPredicate struct {
	Arch noise.Architecture
}

func (ConnectivityPredicate) Name() string { return "ConnectivityPredicate" }

func (p ConnectivityPredicate) Check(c *Circuit) error {
	nodes := p.Arch.Nodes()
	for i, op := range c.Ops {
		for _, q := range op.Qubits {
			if _, found := slices.BinarySearch(nodes, q); !found {
				return fmt.Errorf("op %d: qubit %d is not an architecture node", i, q)
			}
		}
		if op.Kind == noise.OpBarrier {
			continue
		}
		switch len(op.Qubits) {
		case 0, 1:
		case 2:
			if !p.Arch.Connected(op.Qubits[0], op.Qubits[1]) {
				return fmt.Errorf("op %d: %s on uncoupled qubits %d,%d", i, op.Kind, op.Qubits[0], op.Qubits[1])
			}
		default:
			return fmt.Errorf("op %d: %s acts on %d qubits", i, op.Kind, len(op.Qubits))
		}
	}
	return nil
}

// NoSymbolsPredicate rejects unresolved symbolic parameters.
type NoSymbolsPredicate struct{}

func (NoSymbolsPredicate) Name() string { return "NoSymbolsPredicate" }

func (NoSymbolsPredicate) Check(c *Circuit) error {
	for i, op := range c.Ops {
		if len(op.Symbols) > 0 {
			return fmt.Errorf("op %d: symbolic parameters %v", i, op.Symbols)
		}
	}
	return nil
}

// NoBarriersPredicate rejects barriers.
type NoBarriersPredicate struct{}

func (NoBarriersPredicate) Name() string { return "NoBarriersPredicate" }

func (NoBarriersPredicate) Check(c *Circuit) error {
	for i, op := range c.Ops {
		if op.Kind == noise.OpBarrier {
			return fmt.Errorf("op %d: barrier", i)
		}
	}
	return nil
}

// NoClassicalControlPredicate rejects conditional ops.
type NoClassicalControlPredicate struct{}

func (NoClassicalControlPredicate) Name() string { return "NoClassicalControlPredicate" }

func (NoClassicalControlPredicate) Check(c *Circuit) error {
	for i, op := range c.Ops {
		if op.Condition != nil || op.Kind == noise.OpConditional || op.Kind == noise.OpRangePredicate {
			return fmt.Errorf("op %d: classically controlled %s", i, op.Kind)
		}
	}
	return nil
}

// NoFastFeedforwardPredicate rejects conditions on bits written by an
// earlier measurement in the same circuit.
type NoFastFeedforwardPredicate struct{}

func (NoFastFeedforwardPredicate) Name() string { return "NoFastFeedforwardPredicate" }

func (NoFastFeedforwardPredicate) Check(c *Circuit) error {
	measured := make(map[int]struct{})
	for i, op := range c.Ops {
		if op.Condition != nil {
			for _, b := range op.Condition.Bits {
				if _, ok := measured[b]; ok {
					return fmt.Errorf("op %d: conditioned on bit %d measured mid-circuit", i, b)
				}
			}
		}
		if op.Kind == noise.OpMeasure {
			for _, b := range op.Clbits {
				measured[b] = struct{}{}
			}
		}
	}
	return nil
}

// DefaultRegisterPredicate requires the circuit to use the default qubit
// register.
type DefaultRegisterPredicate struct{}

func (DefaultRegisterPredicate) Name() string { return "DefaultRegisterPredicate" }

func (DefaultRegisterPredicate) Check(c *Circuit) error {
	if name := c.RegisterName(); name != DefaultRegister {
		return fmt.Errorf("qubit register %q is not %q", name, DefaultRegister)
	}
	return nil
}
