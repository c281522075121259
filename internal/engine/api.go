package engine

import "context"

// NativeStatus is the engine's own job status vocabulary.
type NativeStatus string

const (
	StatusInitializing NativeStatus = "INITIALIZING"
	StatusValidating   NativeStatus = "VALIDATING"
	StatusQueued       NativeStatus = "QUEUED"
	StatusRunning      NativeStatus = "RUNNING"
	StatusDone         NativeStatus = "DONE"
	StatusCancelled    NativeStatus = "CANCELLED"
	StatusError        NativeStatus = "ERROR"
)

// Final reports whether no further transition can happen.
func (s NativeStatus) Final() bool {
	return s == StatusDone || s == StatusCancelled || s == StatusError
}

// Engine is the job API of a simulation engine.
type Engine interface {
	// Run submits programs as one job and returns its id.
	Run(ctx context.Context, req RunRequest) (string, error)

	// Status returns the job's current native status.
	Status(ctx context.Context, jobID string) (NativeStatus, error)

	// Result blocks until the job has finished and returns one
	// CircuitResult per submitted program, in submission order.
	Result(ctx context.Context, jobID string) (*JobResult, error)

	// Cancel requests cancellation. false means the engine could not
	// cancel the job; it is not an error.
	Cancel(ctx context.Context, jobID string) (bool, error)
}

// ExpectationEngine is implemented by engines that can evaluate operator
// expectation values directly from a program's final state.
type ExpectationEngine interface {
	Engine
	Expectation(ctx context.Context, prog Program, op PauliOperator) (complex128, error)
}

// RunRequest is one job submission. Shots is nil for state-returning
// programs.
type RunRequest struct {
	Programs   []Program
	Shots      *int
	Memory     bool
	Seed       *int
	NoiseModel any
}

// SaveKind selects which snapshot an engine attaches to a program result.
type SaveKind string

const (
	SaveNone          SaveKind = ""
	SaveStatevector   SaveKind = "statevector"
	SaveUnitary       SaveKind = "unitary"
	SaveDensityMatrix SaveKind = "density_matrix"
)

// Program is a circuit lowered into the engine's native instruction format.
type Program struct {
	Name         string         `json:"name"`
	NumQubits    int            `json:"num_qubits"`
	NumClbits    int            `json:"num_clbits"`
	Instructions []Instruction  `json:"instructions"`
	Save         SaveKind       `json:"save,omitempty"`
	Header       map[string]any `json:"header,omitempty"`
}

// Instruction is one native gate application. Name uses the engine's
// lowercase gate vocabulary ("x", "cx", "measure", ...).
type Instruction struct {
	Name      string     `json:"name"`
	Qubits    []int      `json:"qubits,omitempty"`
	Clbits    []int      `json:"clbits,omitempty"`
	Params    []float64  `json:"params,omitempty"`
	Condition *Condition `json:"condition,omitempty"`
}

// Condition gates an instruction on classical bits: it applies when the
// bits, read with Bits[0] as the least significant, equal Value.
type Condition struct {
	Bits  []int `json:"bits"`
	Value int   `json:"value"`
}

// JobResult is the engine-native result bundle of one job.
type JobResult struct {
	JobID   string
	Results []CircuitResult
}

// CircuitResult is the outcome of one program. Counts and Memory key
// outcomes by classical bitstring with clbit 0 rightmost.
type CircuitResult struct {
	Name     string         `json:"name"`
	Shots    int            `json:"shots"`
	Counts   map[string]int `json:"counts,omitempty"`
	Memory   []string       `json:"memory,omitempty"`
	Header   map[string]any `json:"header,omitempty"`
	Snapshot any            `json:"snapshot,omitempty"`
}

// PauliTerm is Coeff times a tensor product of single-qubit Paulis.
// Paulis[i] in {'I','X','Y','Z'} acts on Qubits[i].
type PauliTerm struct {
	Coeff  complex128
	Qubits []int
	Paulis string
}

// PauliOperator is a sum of Pauli terms.
type PauliOperator []PauliTerm
