// Package store is the SQLite job ledger.
//
// The ledger is an append-only audit trail of what was submitted to the
// engine and which job states were observed:
//   - jobs: one row per submitted job (backend, shots, seed, circuit count)
//   - job_events: status transitions observed for a job
//
// Circuit results are never written. They live only in the execution
// cache for the lifetime of the process.
//
// # Ordering
//
// Rows carry a seq INTEGER from a logical clock, never a timestamp. Every
// query orders by seq ASC with a binary-collated id tie-break, so listings
// are identical across runs.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
//   - one open connection (single writer)
package store
