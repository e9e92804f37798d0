// Package store persists reports in a SQLite database so earlier runs can
// be listed and replayed without re-parsing their traces.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"y86trace/internal/logging"
	"y86trace/internal/report"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// Store manages the run database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// RunSummary is the listing view of one stored run.
type RunSummary struct {
	ID          string    `json:"id"`
	Mode        string    `json:"mode"`
	TracePath   string    `json:"tracePath"`
	GeneratedAt time.Time `json:"generatedAt"`
	Total       int       `json:"total"`
	PeriodTicks *uint64   `json:"periodTicks"`
	Timescale   *string   `json:"timescale"`
	ClockSignal string    `json:"clockSignal,omitempty"`
	CPI         *float64  `json:"cpi"`
}

// Run is a stored run with its auxiliary sections. Cycles are fetched
// separately with Cycles.
type Run struct {
	RunSummary
	// Aux holds the instructionMemory, dataMemory, registerMemory, clock
	// and metrics sections as stored.
	Aux json.RawMessage `json:"aux"`
}

// Open creates or opens a run database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dbPath: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logging.StoreDebug("opened run database %s", path)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		trace_path TEXT NOT NULL,
		generated_at INTEGER NOT NULL,
		total INTEGER NOT NULL,
		period_ticks INTEGER,
		timescale TEXT,
		clock_signal TEXT DEFAULT '',
		cpi REAL,
		aux_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_generated ON runs(generated_at);

	CREATE TABLE IF NOT EXISTS cycles (
		run_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		edge INTEGER NOT NULL,
		sim_time INTEGER NOT NULL,
		payload TEXT NOT NULL,
		PRIMARY KEY (run_id, idx),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return RunMigrations(s.db)
}

type aux struct {
	InstructionMemory any `json:"instructionMemory"`
	DataMemory        any `json:"dataMemory"`
	RegisterMemory    any `json:"registerMemory"`
	Clock             any `json:"clock"`
	Metrics           any `json:"metrics"`
}

// SaveReport stores a report and all of its cycles in one transaction.
func (s *Store) SaveReport(ctx context.Context, rep *report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	auxJSON, err := json.Marshal(aux{
		InstructionMemory: rep.InstructionMemory,
		DataMemory:        rep.DataMemory,
		RegisterMemory:    rep.RegisterMemory,
		Clock:             rep.Clock,
		Metrics:           rep.Metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	var (
		period    sql.NullInt64
		timescale sql.NullString
		signal    string
	)
	if rep.Clock != nil {
		if rep.Clock.PeriodTicks != nil {
			period = sql.NullInt64{Int64: int64(*rep.Clock.PeriodTicks), Valid: true}
		}
		if rep.Clock.Timescale != nil {
			timescale = sql.NullString{String: *rep.Clock.Timescale, Valid: true}
		}
		signal = rep.Clock.Signal
	}
	var cpi sql.NullFloat64
	if rep.Metrics != nil && rep.Metrics.CPI != nil {
		cpi = sql.NullFloat64{Float64: *rep.Metrics.CPI, Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, mode, trace_path, generated_at, total, period_ticks, timescale, clock_signal, cpi, aux_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rep.ID, string(rep.Mode), rep.TracePath, rep.GeneratedAt.UnixMilli(), rep.Total, period, timescale, signal, cpi, string(auxJSON))
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cycles (run_id, idx, edge, sim_time, payload) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare cycle insert: %w", err)
	}
	defer stmt.Close()

	for i := range rep.Cycles {
		c := &rep.Cycles[i]
		payload, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to encode cycle %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, rep.ID, i, c.Edge, int64(c.Time), string(payload)); err != nil {
			return fmt.Errorf("failed to save cycle %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	logging.Store("saved run %s (%d cycles)", rep.ID, len(rep.Cycles))
	return nil
}

const summaryColumns = `id, mode, trace_path, generated_at, total, period_ticks, timescale, clock_signal, cpi`

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner, extra ...any) (RunSummary, error) {
	var (
		r         RunSummary
		millis    int64
		period    sql.NullInt64
		timescale sql.NullString
		signal    sql.NullString
		cpi       sql.NullFloat64
	)
	dest := append([]any{&r.ID, &r.Mode, &r.TracePath, &millis, &r.Total, &period, &timescale, &signal, &cpi}, extra...)
	if err := row.Scan(dest...); err != nil {
		return r, err
	}
	r.GeneratedAt = time.UnixMilli(millis).UTC()
	if period.Valid {
		p := uint64(period.Int64)
		r.PeriodTicks = &p
	}
	if timescale.Valid {
		ts := timescale.String
		r.Timescale = &ts
	}
	r.ClockSignal = signal.String
	if cpi.Valid {
		v := cpi.Float64
		r.CPI = &v
	}
	return r, nil
}

// ListRuns returns the most recent runs first. limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + summaryColumns + ` FROM runs ORDER BY generated_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		r, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Run loads one run by id.
func (s *Store) Run(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var auxJSON string
	row := s.db.QueryRowContext(ctx, `SELECT `+summaryColumns+`, aux_json FROM runs WHERE id = ?`, id)
	sum, err := scanSummary(row, &auxJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	return &Run{RunSummary: sum, Aux: json.RawMessage(auxJSON)}, nil
}

// Cycles returns the stored cycle payloads of a run with index in
// [from, to). to <= 0 means through the last cycle.
func (s *Store) Cycles(ctx context.Context, id string, from, to int) ([]json.RawMessage, error) {
	if _, err := s.Run(ctx, id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT payload FROM cycles WHERE run_id = ? AND idx >= ?`
	args := []any{id, from}
	if to > 0 {
		query += ` AND idx < ?`
		args = append(args, to)
	}
	query += ` ORDER BY idx`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load cycles: %w", err)
	}
	defer rows.Close()

	out := []json.RawMessage{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		out = append(out, json.RawMessage(payload))
	}
	return out, rows.Err()
}

// DeleteRun removes a run and its cycles.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}
