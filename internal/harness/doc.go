// Package harness runs YAML scenarios against a backend wired to the local
// engine and an in-memory ledger, recording every step in a trace.
//
// A scenario names a backend kind, an optional noise model, and a list of
// steps. Paths are relative to the scenario file.
//
//	name: mixed_shots
//	description: "Circuits sharing a shot count share a job"
//	backend: shots
//	noise: noise.yaml
//	steps:
//	  - action: process
//	    batch: batch.yaml
//	  - action: status
//	    circuits: [2]
//	  - action: result
//	assertions:
//	  - type: job_count
//	    count: 2
//	  - type: counts
//	    circuit: 2
//	    expect: {"10": 10}
//
// Step actions are process, result, status and cancel. Circuits are
// addressed by their index across every process step so far; an empty
// list means all of them.
//
// The engine worker is started by the first result step. Until then every
// submitted job stays QUEUED, which makes status and cancel steps
// deterministic.
//
// Assertion types:
//   - trace_contains: an event with the given action (and circuits or error)
//   - trace_order: actions first appear in the given order
//   - trace_count: action appears exactly count times
//   - job_count: distinct jobs across all handles
//   - same_job: the listed circuits share one job
//   - counts: a circuit's result counts equal expect
//   - ledger_status: the ledger's last status for job equals status
package harness
