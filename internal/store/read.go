package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Job is a ledger row plus the most recent recorded status.
type Job struct {
	JobID      string `json:"job_id"`
	Backend    string `json:"backend"`
	Shots      *int   `json:"shots"`
	Seed       *int   `json:"seed"`
	Circuits   int    `json:"circuits"`
	Seq        int64  `json:"seq"`
	LastStatus string `json:"last_status,omitempty"`
}

// JobEvent is one recorded status observation.
type JobEvent struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Seq    int64  `json:"seq"`
}

// ListJobs returns every recorded job in submission order.
// Returns an empty slice, not nil, for an empty ledger.
func (s *Store) ListJobs(ctx context.Context) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT j.job_id, j.backend, j.shots, j.seed, j.circuits, j.seq,
		       COALESCE((
		           SELECT e.status FROM job_events e
		           WHERE e.job_id = j.job_id
		           ORDER BY e.seq DESC, e.id DESC
		           LIMIT 1
		       ), '')
		FROM jobs j
		ORDER BY j.seq ASC, j.job_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		var (
			j           Job
			shots, seed sql.NullInt64
		)
		if err := rows.Scan(&j.JobID, &j.Backend, &shots, &seed, &j.Circuits, &j.Seq, &j.LastStatus); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j.Shots = intOrNil(shots)
		j.Seed = intOrNil(seed)
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// JobEvents returns the status events of one job in recording order.
func (s *Store) JobEvents(ctx context.Context, jobID string) ([]JobEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT job_id, status, seq
		FROM job_events
		WHERE job_id = ?
		ORDER BY seq ASC, id ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query job events: %w", err)
	}
	defer rows.Close()

	events := []JobEvent{}
	for rows.Next() {
		var ev JobEvent
		if err := rows.Scan(&ev.JobID, &ev.Status, &ev.Seq); err != nil {
			return nil, fmt.Errorf("scan job event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job events: %w", err)
	}
	return events, nil
}

func intOrNil(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
