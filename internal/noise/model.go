package noise

import (
	"github.com/roach88/aerbatch/internal/canon"
)

// NoiseModel is a declarative hardware noise description.
type NoiseModel struct {
	Errors []ErrorEvent `yaml:"errors" json:"errors"`
}

// IsTrivial reports whether the model declares no error distribution. A nil
// model is trivial.
func (m *NoiseModel) IsTrivial() bool {
	return m == nil || isTrivial(m.Errors)
}

// Validate classifies every event without building any maps.
func (m *NoiseModel) Validate() error {
	if m.IsTrivial() {
		return nil
	}
	for i, ev := range m.Errors {
		if _, err := Classify(i, ev); err != nil {
			return err
		}
	}
	return nil
}

// Characterize is Characterize applied to the model's events. A nil model
// yields the noiseless characterisation.
func (m *NoiseModel) Characterize(gateSet GateSet) (*Characterization, error) {
	if m == nil {
		return &Characterization{}, nil
	}
	return Characterize(m.Errors, gateSet)
}

// Fingerprint returns a content hash of the model. Models that differ only
// in YAML/JSON formatting share a fingerprint.
func (m *NoiseModel) Fingerprint() (string, error) {
	if m == nil {
		return canon.Hash(canon.DomainNoiseModel, nil)
	}
	events := make([]any, len(m.Errors))
	for i, ev := range m.Errors {
		obj := map[string]any{
			"type":          string(ev.Kind),
			"operations":    ev.Operations,
			"probabilities": ev.Probabilities.value(),
		}
		if ev.GateQubits != nil {
			obj["gate_qubits"] = ev.GateQubits
		}
		if ev.Instructions != nil {
			obj["instructions"] = ev.Instructions
		}
		events[i] = obj
	}
	return canon.Hash(canon.DomainNoiseModel, map[string]any{"errors": events})
}

// gateSetFingerprint hashes the sorted kind names of gs.
func gateSetFingerprint(gs GateSet) (string, error) {
	return canon.Hash(canon.DomainGateSet, gs.Names())
}
