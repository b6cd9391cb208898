// Package store persists synthesis runs: the scenario that produced them
// and the per-observation output rows. Storage is a single sqlite file
// managed through embedded schema migrations.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tundeakins/ellc"
)

// DB wraps the sqlite handle.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the database file and applies any pending
// migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db := &DB{DB: sqlDB}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Run is one persisted synthesis run.
type Run struct {
	ID        string
	CreatedAt time.Time
	// Scenario is the JSON document the run was synthesised from.
	Scenario string
}

// Observation is one output row of a run.
type Observation struct {
	RunID string
	Time  float64
	Flux  float64
	Flux1 float64
	Flux2 float64
	RV1   float64
	RV2   float64
	Flags int64
}

// RunStore manages persistence for synthesis runs.
type RunStore struct {
	db *DB
}

// NewRunStore creates a RunStore backed by the given database.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// InsertRun records a new run and returns its identifier.
func (s *RunStore) InsertRun(scenarioJSON string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO runs (id, created_at, scenario) VALUES (?, ?, ?)`,
		// Fixed-width fraction so text order matches time order.
		id, time.Now().UTC().Format("2006-01-02T15:04:05.000000000Z07:00"), scenarioJSON,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// InsertObservations stores the output rows of a run in one transaction.
func (s *RunStore) InsertObservations(runID string, times []float64, results []ellc.Result) error {
	if len(times) != len(results) {
		return fmt.Errorf("times/results length mismatch: %d vs %d", len(times), len(results))
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO observations
		(run_id, time, flux, flux_1, flux_2, rv_1, rv_2, flags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range times {
		r := results[i]
		if _, err := stmt.Exec(runID, t, r.Flux, r.Flux1, r.Flux2, r.RV1, r.RV2, int64(r.Flags)); err != nil {
			return fmt.Errorf("failed to insert observation %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// GetRun fetches one run by identifier.
func (s *RunStore) GetRun(id string) (*Run, error) {
	var r Run
	var created string
	err := s.db.QueryRow(
		`SELECT id, created_at, scenario FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &created, &r.Scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch run %s: %w", id, err)
	}
	if ts, perr := time.Parse(time.RFC3339Nano, created); perr == nil {
		r.CreatedAt = ts
	}
	return &r, nil
}

// ListRuns returns all runs, newest first.
func (s *RunStore) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(`SELECT id, created_at, scenario FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &created, &r.Scenario); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if ts, perr := time.Parse(time.RFC3339Nano, created); perr == nil {
			r.CreatedAt = ts
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Observations returns the output rows of a run in time order.
func (s *RunStore) Observations(runID string) ([]Observation, error) {
	rows, err := s.db.Query(`SELECT run_id, time, flux, flux_1, flux_2, rv_1, rv_2, flags
		FROM observations WHERE run_id = ? ORDER BY time`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var o Observation
		if err := rows.Scan(&o.RunID, &o.Time, &o.Flux, &o.Flux1, &o.Flux2, &o.RV1, &o.RV2, &o.Flags); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
