package circuit

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BatchFile is a YAML list of circuits to submit together.
//
//	shots: 100          # default for entries without their own count
//	circuits:
//	  - name: bell
//	    qubits: 2
//	    clbits: 2
//	    shots: 50
//	    ops:
//	      - {op: x, qubits: [0]}
//	      - {op: cx, qubits: [0, 1]}
//	      - {op: measure, qubits: [0, 1], clbits: [0, 1]}
type BatchFile struct {
	Shots    *int    `yaml:"shots,omitempty"`
	Circuits []Entry `yaml:"circuits"`
}

// Entry is a circuit with an optional per-circuit shot count.
type Entry struct {
	Circuit `yaml:",inline"`
	Shots   *int `yaml:"shots,omitempty"`
}

// LoadBatchFile reads and strictly decodes a batch file.
func LoadBatchFile(path string) (*BatchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return ParseBatchFile(data)
}

// ParseBatchFile decodes a batch file, rejecting unknown fields.
func ParseBatchFile(data []byte) (*BatchFile, error) {
	var bf BatchFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&bf); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	if len(bf.Circuits) == 0 {
		return nil, fmt.Errorf("batch file declares no circuits")
	}
	for i := range bf.Circuits {
		c := &bf.Circuits[i].Circuit
		if c.Qubits < 0 || c.Clbits < 0 {
			return nil, fmt.Errorf("circuit %d (%s): negative register size", i, c.Name)
		}
		if c.Name == "" {
			c.Name = fmt.Sprintf("circuit-%d", i)
		}
	}
	return &bf, nil
}

// Split returns the circuits and their per-circuit shot counts in file
// order. Entries without a count yield nil; resolving them against
// BatchFile.Shots is the batcher's job.
func (b *BatchFile) Split() ([]*Circuit, []*int) {
	circuits := make([]*Circuit, len(b.Circuits))
	shots := make([]*int, len(b.Circuits))
	for i := range b.Circuits {
		circuits[i] = &b.Circuits[i].Circuit
		shots[i] = b.Circuits[i].Shots
	}
	return circuits, shots
}
