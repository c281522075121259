// Package engine defines the job API of the external simulation engine and
// provides LocalEngine, an in-process asynchronous runner used by the CLI
// and the tests.
//
// The API is job oriented: Run accepts a batch of lowered programs and
// returns a job id immediately; Status, Result and Cancel address the job by
// that id. Engines execute jobs asynchronously, so Result may block.
//
// LocalEngine keeps the submission queue and worker loop in-process:
//
//   - Run appends the job to a FIFO queue and returns.
//   - Start drains the queue on one goroutine until its context ends.
//   - Jobs move QUEUED -> RUNNING -> DONE or ERROR. Cancel only succeeds
//     while a job is still QUEUED.
//
// Execution itself is delegated to an Executor. BasisExecutor is the only
// one shipped here: it tracks computational basis states through classical
// reversible gates, which is enough to dry-run batches and to check result
// plumbing end to end. It is not a quantum simulator.
package engine
