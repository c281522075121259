package store

import (
	"context"
	"fmt"

	"github.com/roach88/aerbatch/internal/execution"
)

var _ execution.Ledger = (*Store)(nil)

// RecordJob inserts a job row. Re-recording the same job id is a no-op.
func (s *Store) RecordJob(ctx context.Context, rec execution.JobRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (job_id, backend, shots, seed, circuits, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO NOTHING
	`,
		rec.JobID,
		rec.Backend,
		nullableInt(rec.Shots),
		nullableInt(rec.Seed),
		rec.Circuits,
		s.clock.Next(),
	)
	if err != nil {
		return fmt.Errorf("record job %s: %w", rec.JobID, err)
	}
	return nil
}

// RecordStatus appends a status event. The job must have been recorded.
func (s *Store) RecordStatus(ctx context.Context, jobID string, status execution.Status) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO job_events (job_id, status, seq)
		VALUES (?, ?, ?)
	`, jobID, string(status), s.clock.Next())
	if err != nil {
		return fmt.Errorf("record status of job %s: %w", jobID, err)
	}
	return nil
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
