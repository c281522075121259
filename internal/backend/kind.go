package backend

import (
	"fmt"

	"github.com/roach88/aerbatch/internal/engine"
	"github.com/roach88/aerbatch/internal/noise"
)

// Kind selects a backend variant.
type Kind int

const (
	// KindShots samples measurement outcomes.
	KindShots Kind = iota
	// KindState returns the final statevector.
	KindState
	// KindUnitary returns the circuit unitary.
	KindUnitary
	// KindDensityMatrix returns the final density matrix.
	KindDensityMatrix
)

// Capabilities lists what a kind supports.
type Capabilities struct {
	Shots          bool
	Counts         bool
	State          bool
	Unitary        bool
	DensityMatrix  bool
	Expectation    bool
	Memory         bool
	Noise          bool
	NeedsTranspile bool
}

var kinds = map[Kind]struct {
	name   string
	key    string
	device string
	save   engine.SaveKind
	caps   Capabilities
}{
	KindShots: {
		name: "AerBackend", key: "shots", device: "aer_simulator", save: engine.SaveNone,
		caps: Capabilities{Shots: true, Counts: true, Expectation: true, Memory: true, Noise: true},
	},
	KindState: {
		name: "AerStateBackend", key: "state", device: "aer_simulator_statevector", save: engine.SaveStatevector,
		caps: Capabilities{State: true, Expectation: true},
	},
	KindUnitary: {
		name: "AerUnitaryBackend", key: "unitary", device: "aer_simulator_unitary", save: engine.SaveUnitary,
		caps: Capabilities{Unitary: true, NeedsTranspile: true},
	},
	KindDensityMatrix: {
		name: "AerDensityMatrixBackend", key: "density_matrix", device: "aer_simulator_density_matrix", save: engine.SaveDensityMatrix,
		caps: Capabilities{DensityMatrix: true, Expectation: true, Noise: true, NeedsTranspile: true},
	},
}

// ParseKind accepts "shots", "state", "unitary" and "density_matrix".
func ParseKind(s string) (Kind, error) {
	for k, v := range kinds {
		if v.key == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown backend kind %q (want shots, state, unitary or density_matrix)", s)
}

// String returns the backend name, e.g. "AerBackend".
func (k Kind) String() string {
	if v, ok := kinds[k]; ok {
		return v.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Key returns the short CLI name.
func (k Kind) Key() string {
	return kinds[k].key
}

// DeviceName is the engine device this kind runs on.
func (k Kind) DeviceName() string {
	return kinds[k].device
}

// Capabilities returns the kind's capability flags.
func (k Kind) Capabilities() Capabilities {
	return kinds[k].caps
}

// Save returns the snapshot the engine should attach to each result.
func (k Kind) Save() engine.SaveKind {
	return kinds[k].save
}

// engineGateSet is what the simulator executes natively, plus the special
// operations every variant accepts.
func engineGateSet() noise.GateSet {
	return noise.NewGateSet(
		noise.OpNoop, noise.OpX, noise.OpY, noise.OpZ, noise.OpH,
		noise.OpS, noise.OpSdg, noise.OpT, noise.OpTdg, noise.OpSX, noise.OpSXdg,
		noise.OpRx, noise.OpRy, noise.OpRz, noise.OpU1, noise.OpU2, noise.OpU3,
		noise.OpCX, noise.OpCY, noise.OpCZ, noise.OpCH, noise.OpCRz,
		noise.OpSWAP, noise.OpECR, noise.OpCCX, noise.OpCSWAP,
		noise.OpUnitary1qBox, noise.OpUnitary2qBox, noise.OpUnitary3qBox,
		noise.OpBarrier, noise.OpReset, noise.OpMeasure, noise.OpConditional,
		noise.OpTK1,
	)
}

// specialGates are added for the noise-capable variants.
func specialGates() noise.GateSet {
	return noise.NewGateSet(noise.OpMeasure, noise.OpBarrier, noise.OpReset, noise.OpRangePredicate)
}
