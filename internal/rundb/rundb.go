// Package rundb keeps a local sqlite history of pipeline runs so past
// registrations and calibrations can be audited without re-running them.
package rundb

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Run is one recorded pipeline invocation.
type Run struct {
	ID             string
	Command        string
	Inputs         []string
	MatchedCount   int
	SkippedCount   int
	HeadingApplied bool
	HeadingAngle   float64 // radians
	Status         string
	CreatedAt      time.Time
}

// Store wraps the runs database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the runs database at path and brings
// its schema up to date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open runs database %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrateUp() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	// Note: m is not closed, closing it would close the DB connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// RecordRun persists a run, assigning an id and timestamp when unset,
// and returns the run id.
func (s *Store) RecordRun(r Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	applied := 0
	if r.HeadingApplied {
		applied = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, command, inputs, matched_count, skipped_count,
			heading_applied, heading_angle, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Command, strings.Join(r.Inputs, "\n"),
		r.MatchedCount, r.SkippedCount,
		applied, r.HeadingAngle, r.Status, r.CreatedAt.UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return r.ID, nil
}

// RecentRuns returns up to limit runs, most recent first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT run_id, command, inputs, matched_count, skipped_count,
			heading_applied, heading_angle, status, created_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var inputs string
		var applied int
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.Command, &inputs, &r.MatchedCount, &r.SkippedCount,
			&applied, &r.HeadingAngle, &r.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if inputs != "" {
			r.Inputs = strings.Split(inputs, "\n")
		}
		r.HeadingApplied = applied != 0
		r.CreatedAt = time.Unix(0, createdAt)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
