package noise

import (
	"fmt"
	"slices"
	"strings"
)

// OpKind is the closed set of operation kinds a noise model may attach an
// error to, or a backend may declare in its gate set.
type OpKind int

const (
	OpUnknown OpKind = iota
	OpNoop
	OpX
	OpY
	OpZ
	OpH
	OpS
	OpSdg
	OpT
	OpTdg
	OpSX
	OpSXdg
	OpRx
	OpRy
	OpRz
	OpU1
	OpU2
	OpU3
	OpTK1
	OpCX
	OpCY
	OpCZ
	OpCH
	OpCRz
	OpSWAP
	OpECR
	OpCCX
	OpCSWAP
	OpReset
	OpMeasure
	OpBarrier
	OpConditional
	OpRangePredicate
	OpUnitary1qBox
	OpUnitary2qBox
	OpUnitary3qBox

	opKindCount
)

var opKindNames = [opKindCount]string{
	OpUnknown:        "Unknown",
	OpNoop:           "noop",
	OpX:              "X",
	OpY:              "Y",
	OpZ:              "Z",
	OpH:              "H",
	OpS:              "S",
	OpSdg:            "Sdg",
	OpT:              "T",
	OpTdg:            "Tdg",
	OpSX:             "SX",
	OpSXdg:           "SXdg",
	OpRx:             "Rx",
	OpRy:             "Ry",
	OpRz:             "Rz",
	OpU1:             "U1",
	OpU2:             "U2",
	OpU3:             "U3",
	OpTK1:            "TK1",
	OpCX:             "CX",
	OpCY:             "CY",
	OpCZ:             "CZ",
	OpCH:             "CH",
	OpCRz:            "CRz",
	OpSWAP:           "SWAP",
	OpECR:            "ECR",
	OpCCX:            "CCX",
	OpCSWAP:          "CSWAP",
	OpReset:          "Reset",
	OpMeasure:        "Measure",
	OpBarrier:        "Barrier",
	OpConditional:    "Conditional",
	OpRangePredicate: "RangePredicate",
	OpUnitary1qBox:   "Unitary1qBox",
	OpUnitary2qBox:   "Unitary2qBox",
	OpUnitary3qBox:   "Unitary3qBox",
}

// engineGateNames maps the simulator's lower-case gate vocabulary onto kinds.
// Names absent from this table cannot appear in a noise model.
var engineGateNames = map[string]OpKind{
	"id":      OpNoop,
	"x":       OpX,
	"y":       OpY,
	"z":       OpZ,
	"h":       OpH,
	"s":       OpS,
	"sdg":     OpSdg,
	"t":       OpT,
	"tdg":     OpTdg,
	"sx":      OpSX,
	"sxdg":    OpSXdg,
	"rx":      OpRx,
	"ry":      OpRy,
	"rz":      OpRz,
	"u1":      OpU1,
	"p":       OpU1,
	"u2":      OpU2,
	"u3":      OpU3,
	"u":       OpU3,
	"cx":      OpCX,
	"cy":      OpCY,
	"cz":      OpCZ,
	"ch":      OpCH,
	"crz":     OpCRz,
	"swap":    OpSWAP,
	"ecr":     OpECR,
	"ccx":     OpCCX,
	"cswap":   OpCSWAP,
	"reset":   OpReset,
	"measure": OpMeasure,
	"barrier": OpBarrier,
}

// String returns the canonical kind name.
func (k OpKind) String() string {
	if k < 0 || k >= opKindCount {
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
	return opKindNames[k]
}

// Valid reports whether k is a known, non-sentinel kind.
func (k OpKind) Valid() bool {
	return k > OpUnknown && k < opKindCount
}

// EngineName returns the simulator gate name for k, or "" when the engine
// has no native instruction for it.
func (k OpKind) EngineName() string {
	best := ""
	for name, kind := range engineGateNames {
		// "u1"/"p" and "u3"/"u" alias the same kind; prefer the shorter,
		// then lexically smaller name so the result is stable.
		if kind == k && (best == "" || len(name) < len(best) || (len(name) == len(best) && name < best)) {
			best = name
		}
	}
	return best
}

// ParseOpKind resolves a gate name from a noise model or circuit file.
// Both engine names ("cx") and canonical kind names ("CX") are accepted.
func ParseOpKind(name string) (OpKind, error) {
	if k, ok := engineGateNames[strings.ToLower(name)]; ok {
		return k, nil
	}
	for k := OpKind(1); k < opKindCount; k++ {
		if opKindNames[k] == name {
			return k, nil
		}
	}
	return OpUnknown, fmt.Errorf("unknown operation %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (k OpKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *OpKind) UnmarshalText(text []byte) error {
	parsed, err := ParseOpKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// GateSet is an unordered set of operation kinds.
type GateSet map[OpKind]struct{}

// NewGateSet builds a set from the given kinds.
func NewGateSet(kinds ...OpKind) GateSet {
	gs := make(GateSet, len(kinds))
	for _, k := range kinds {
		gs[k] = struct{}{}
	}
	return gs
}

// Contains reports whether k is in the set.
func (gs GateSet) Contains(k OpKind) bool {
	_, ok := gs[k]
	return ok
}

// Union returns a new set holding the kinds of both sets.
func (gs GateSet) Union(other GateSet) GateSet {
	out := make(GateSet, len(gs)+len(other))
	for k := range gs {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

// Sorted returns the kinds in enumeration order.
func (gs GateSet) Sorted() []OpKind {
	out := make([]OpKind, 0, len(gs))
	for k := range gs {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Names returns the canonical kind names in enumeration order.
func (gs GateSet) Names() []string {
	sorted := gs.Sorted()
	names := make([]string, len(sorted))
	for i, k := range sorted {
		names[i] = k.String()
	}
	return names
}
