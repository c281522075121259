// Package execution submits batches to an engine and caches their results
// behind stable handles.
//
// Every submitted circuit gets a ResultHandle naming its job and its
// position within that job. The cache is append-then-fill: Submit inserts a
// pending entry per handle once the engine has accepted the job, and the
// first Result call for any handle of a job fetches the whole job once and
// fills every entry of that job. Entries are never removed.
//
// Concurrent first fetches of the same job are serialised by a per-job
// mutex, so each job's results are fetched from the engine at most once
// per Manager, however many goroutines ask.
package execution
