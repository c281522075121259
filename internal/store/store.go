package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/aerbatch/internal/engine"
)

//go:embed schema.sql
var schemaSQL string

// MemoryDSN opens a private in-memory ledger.
const MemoryDSN = ":memory:"

// Schema version tracking:
// 0 - initial tables
// 1 - index on job_events(job_id, seq)
const currentSchemaVersion = 1

// Store is the job ledger. It implements execution.Ledger.
type Store struct {
	db    *sql.DB
	clock *engine.Clock
}

// Open creates or opens a ledger at path. An empty path opens MemoryDSN.
// Pragmas and migrations are applied on every open.
func Open(path string) (*Store, error) {
	if path == "" {
		path = MemoryDSN
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to ledger: %w", err)
	}

	// One connection: a single writer, and an in-memory database that
	// survives between queries.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	last, err := lastSeq(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, clock: engine.NewClockAt(last)}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return runMigrations(db)
}

func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if _, err := db.Exec(`
			CREATE INDEX IF NOT EXISTS idx_job_events_job
			ON job_events(job_id, seq)
		`); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// lastSeq returns the highest seq in the ledger so a reopened ledger keeps
// counting upwards.
func lastSeq(db *sql.DB) (int64, error) {
	var last int64
	err := db.QueryRowContext(context.Background(), `
		SELECT MAX(m) FROM (
			SELECT COALESCE(MAX(seq), 0) AS m FROM jobs
			UNION ALL
			SELECT COALESCE(MAX(seq), 0) FROM job_events
		)
	`).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("read last seq: %w", err)
	}
	return last, nil
}
