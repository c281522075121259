// Package circuit holds the concrete circuit value submitted to backends,
// its lowering into engine programs, batch files, and the predicates a
// backend requires before submission.
package circuit

import (
	"fmt"
	"slices"

	"github.com/roach88/aerbatch/internal/canon"
	"github.com/roach88/aerbatch/internal/engine"
	"github.com/roach88/aerbatch/internal/noise"
)

// DefaultRegister is the name of the implicit qubit register.
const DefaultRegister = "q"

// Circuit is an ordered list of operations on Qubits qubits and Clbits
// classical bits.
type Circuit struct {
	Name   string `yaml:"name" json:"name"`
	Qubits int    `yaml:"qubits" json:"qubits"`
	Clbits int    `yaml:"clbits,omitempty" json:"clbits,omitempty"`
	Ops    []Op   `yaml:"ops" json:"ops"`

	// Register names the qubit register; empty means DefaultRegister.
	Register string `yaml:"register,omitempty" json:"register,omitempty"`

	// PostProcessing is an opaque classical post-processing descriptor
	// that travels with the circuit's result handle.
	PostProcessing map[string]any `yaml:"post_processing,omitempty" json:"post_processing,omitempty"`

	// Tag is carried through the engine unchanged so results can be
	// correlated with their circuit.
	Tag string `yaml:"tag,omitempty" json:"tag,omitempty"`
}

// Op is one operation. Symbols lists unresolved symbolic parameters.
type Op struct {
	Kind      noise.OpKind `yaml:"op" json:"op"`
	Qubits    []int        `yaml:"qubits,omitempty" json:"qubits,omitempty"`
	Clbits    []int        `yaml:"clbits,omitempty" json:"clbits,omitempty"`
	Params    []float64    `yaml:"params,omitempty" json:"params,omitempty"`
	Symbols   []string     `yaml:"symbols,omitempty" json:"symbols,omitempty"`
	Condition *Condition   `yaml:"condition,omitempty" json:"condition,omitempty"`
}

// Condition applies an op only when the listed bits, Bits[0] least
// significant, equal Value.
type Condition struct {
	Bits  []int `yaml:"bits" json:"bits"`
	Value int   `yaml:"value" json:"value"`
}

// Clone returns a deep copy. Compilation stages work on clones so a failed
// submission leaves the caller's circuits untouched.
func (c *Circuit) Clone() *Circuit {
	out := *c
	out.Ops = make([]Op, len(c.Ops))
	for i, op := range c.Ops {
		op.Qubits = slices.Clone(op.Qubits)
		op.Clbits = slices.Clone(op.Clbits)
		op.Params = slices.Clone(op.Params)
		op.Symbols = slices.Clone(op.Symbols)
		if op.Condition != nil {
			cond := *op.Condition
			cond.Bits = slices.Clone(cond.Bits)
			op.Condition = &cond
		}
		out.Ops[i] = op
	}
	if c.PostProcessing != nil {
		out.PostProcessing = make(map[string]any, len(c.PostProcessing))
		for k, v := range c.PostProcessing {
			out.PostProcessing[k] = v
		}
	}
	return &out
}

// RegisterName returns the qubit register name, defaulting to "q".
func (c *Circuit) RegisterName() string {
	if c.Register == "" {
		return DefaultRegister
	}
	return c.Register
}

// PostProcessingDescriptor renders PostProcessing as canonical JSON, or
// "null" when the circuit has none. Equal descriptors render identically.
func (c *Circuit) PostProcessingDescriptor() (string, error) {
	if len(c.PostProcessing) == 0 {
		return "null", nil
	}
	data, err := canon.Marshal(c.PostProcessing)
	if err != nil {
		return "", fmt.Errorf("circuit %q: post-processing descriptor: %w", c.Name, err)
	}
	return string(data), nil
}

// Lower translates c into an engine program. Ops without a native engine
// instruction (boxes, TK1, symbolic parameters) must be compiled away
// first.
func Lower(c *Circuit, save engine.SaveKind) (engine.Program, error) {
	prog := engine.Program{
		Name:         c.Name,
		NumQubits:    c.Qubits,
		NumClbits:    c.Clbits,
		Instructions: make([]engine.Instruction, 0, len(c.Ops)),
		Save:         save,
		Header:       map[string]any{"name": c.Name},
	}
	if c.Tag != "" {
		prog.Header["tag"] = c.Tag
	}

	for i, op := range c.Ops {
		if len(op.Symbols) > 0 {
			return engine.Program{}, fmt.Errorf("circuit %q op %d (%s): unresolved symbols %v", c.Name, i, op.Kind, op.Symbols)
		}
		name := op.Kind.EngineName()
		if name == "" {
			return engine.Program{}, fmt.Errorf("circuit %q op %d: %s has no engine instruction", c.Name, i, op.Kind)
		}
		in := engine.Instruction{
			Name:   name,
			Qubits: slices.Clone(op.Qubits),
			Clbits: slices.Clone(op.Clbits),
			Params: slices.Clone(op.Params),
		}
		if op.Condition != nil {
			in.Condition = &engine.Condition{
				Bits:  slices.Clone(op.Condition.Bits),
				Value: op.Condition.Value,
			}
		}
		prog.Instructions = append(prog.Instructions, in)
	}
	return prog, nil
}
