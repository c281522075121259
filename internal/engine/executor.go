package engine

import (
	"context"
	"fmt"
	"strings"
)

// Executor runs one program of a job.
type Executor interface {
	Execute(ctx context.Context, prog Program, req RunRequest) (CircuitResult, error)
}

// ExpectationExecutor is implemented by executors that can evaluate Pauli
// expectation values.
type ExpectationExecutor interface {
	Expectation(ctx context.Context, prog Program, op PauliOperator) (complex128, error)
}

// maxBasisQubits is the width of the bit-packed basis state.
const maxBasisQubits = 64

// BasisExecutor tracks a single computational basis state through
// classical reversible gates. It accepts id, x, cx, ccx, swap, reset,
// measure and barrier, optionally classically conditioned. Any other gate
// is rejected with ErrCodeUnsupported. Noise models are ignored and every
// shot yields the same outcome.
type BasisExecutor struct{}

// BasisState is the statevector snapshot produced by BasisExecutor: the
// single basis state with amplitude 1.
type BasisState struct {
	NumQubits int    `json:"num_qubits"`
	Index     uint64 `json:"index"`
}

// String renders the state as a bitstring with qubit 0 rightmost.
func (s BasisState) String() string {
	return bitstring(s.NumQubits, func(i int) bool { return s.Index&(1<<uint(i)) != 0 })
}

// Execute runs prog and fills counts, memory and snapshot per req.
func (BasisExecutor) Execute(ctx context.Context, prog Program, req RunRequest) (CircuitResult, error) {
	if err := ctx.Err(); err != nil {
		return CircuitResult{}, err
	}
	switch prog.Save {
	case SaveNone, SaveStatevector:
	default:
		return CircuitResult{}, unsupported("basis executor cannot save %s", prog.Save)
	}

	st, err := evolve(prog)
	if err != nil {
		return CircuitResult{}, err
	}

	res := CircuitResult{Name: prog.Name, Header: prog.Header}
	if req.Shots != nil {
		shots := *req.Shots
		outcome := st.classical()
		res.Shots = shots
		if shots > 0 {
			res.Counts = map[string]int{outcome: shots}
		}
		if req.Memory {
			res.Memory = make([]string, shots)
			for i := range res.Memory {
				res.Memory[i] = outcome
			}
		}
	}
	if prog.Save == SaveStatevector {
		res.Snapshot = BasisState{NumQubits: prog.NumQubits, Index: st.qubits}
	}
	return res, nil
}

// Expectation returns sum(coeff * <b|P|b>) for the final basis state b.
// Off-diagonal Paulis (X, Y) contribute zero.
func (BasisExecutor) Expectation(ctx context.Context, prog Program, op PauliOperator) (complex128, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	st, err := evolve(prog)
	if err != nil {
		return 0, err
	}

	var total complex128
	for ti, term := range op {
		if len(term.Qubits) != len(term.Paulis) {
			return 0, fmt.Errorf("term %d: %d qubits for %d Paulis", ti, len(term.Qubits), len(term.Paulis))
		}
		v := term.Coeff
		for i, p := range strings.ToUpper(term.Paulis) {
			q := term.Qubits[i]
			if q < 0 || q >= prog.NumQubits {
				return 0, fmt.Errorf("term %d: qubit %d out of range", ti, q)
			}
			switch p {
			case 'I':
			case 'Z':
				if st.bit(q) {
					v = -v
				}
			case 'X', 'Y':
				v = 0
			default:
				return 0, fmt.Errorf("term %d: unknown Pauli %q", ti, p)
			}
		}
		total += v
	}
	return total, nil
}

type basisState struct {
	qubits uint64
	clbits []bool
}

func (s *basisState) bit(q int) bool {
	return s.qubits&(1<<uint(q)) != 0
}

func (s *basisState) set(q int, v bool) {
	if v {
		s.qubits |= 1 << uint(q)
	} else {
		s.qubits &^= 1 << uint(q)
	}
}

func (s *basisState) classical() string {
	return bitstring(len(s.clbits), func(i int) bool { return s.clbits[i] })
}

func evolve(prog Program) (*basisState, error) {
	if prog.NumQubits > maxBasisQubits {
		return nil, unsupported("basis executor supports at most %d qubits, program %q has %d",
			maxBasisQubits, prog.Name, prog.NumQubits)
	}
	st := &basisState{clbits: make([]bool, prog.NumClbits)}

	for i, in := range prog.Instructions {
		if err := checkOperands(prog, in); err != nil {
			return nil, fmt.Errorf("instruction %d (%s): %w", i, in.Name, err)
		}
		if in.Condition != nil && !conditionHolds(st, *in.Condition) {
			continue
		}
		q := in.Qubits
		switch in.Name {
		case "id", "barrier":
		case "x":
			st.set(q[0], !st.bit(q[0]))
		case "cx":
			if st.bit(q[0]) {
				st.set(q[1], !st.bit(q[1]))
			}
		case "ccx":
			if st.bit(q[0]) && st.bit(q[1]) {
				st.set(q[2], !st.bit(q[2]))
			}
		case "swap":
			a, b := st.bit(q[0]), st.bit(q[1])
			st.set(q[0], b)
			st.set(q[1], a)
		case "reset":
			st.set(q[0], false)
		case "measure":
			for j, qb := range q {
				st.clbits[in.Clbits[j]] = st.bit(qb)
			}
		default:
			return nil, unsupported("basis executor cannot apply %q", in.Name)
		}
	}
	return st, nil
}

var basisArity = map[string]int{
	"x": 1, "reset": 1, "cx": 2, "swap": 2, "ccx": 3,
}

func checkOperands(prog Program, in Instruction) error {
	if n, ok := basisArity[in.Name]; ok && len(in.Qubits) != n {
		return fmt.Errorf("expected %d qubits, got %d", n, len(in.Qubits))
	}
	if in.Name == "measure" && len(in.Qubits) != len(in.Clbits) {
		return fmt.Errorf("%d qubits measured into %d bits", len(in.Qubits), len(in.Clbits))
	}
	for _, q := range in.Qubits {
		if q < 0 || q >= prog.NumQubits {
			return fmt.Errorf("qubit %d out of range", q)
		}
	}
	for _, c := range in.Clbits {
		if c < 0 || c >= prog.NumClbits {
			return fmt.Errorf("bit %d out of range", c)
		}
	}
	if in.Condition != nil {
		for _, c := range in.Condition.Bits {
			if c < 0 || c >= prog.NumClbits {
				return fmt.Errorf("condition bit %d out of range", c)
			}
		}
	}
	return nil
}

func conditionHolds(st *basisState, cond Condition) bool {
	v := 0
	for i, c := range cond.Bits {
		if st.clbits[c] {
			v |= 1 << uint(i)
		}
	}
	return v == cond.Value
}

func bitstring(n int, bit func(int) bool) string {
	var b strings.Builder
	b.Grow(n)
	for i := n - 1; i >= 0; i-- {
		if bit(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
