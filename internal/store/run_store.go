// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     store
// Description: SQLite run history. Every lint or format run can be recorded
//              with its diagnostics for later inspection and rule statistics.
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/google/uuid"
	"github.com/msto63/structlint/internal/validator"
	mdwerrors "github.com/msto63/structlint/pkg/core/errors"
)

// Kind names the operation a run performed
type Kind string

const (
	KindLint   Kind = "lint"
	KindFormat Kind = "format"
)

// Run is one recorded lint or format run
type Run struct {
	ID        string        `json:"id" yaml:"id"`
	URI       string        `json:"uri" yaml:"uri"`
	Kind      Kind          `json:"kind" yaml:"kind"`
	Version   int           `json:"version" yaml:"version"`
	Errors    int           `json:"errors" yaml:"errors"`
	Warnings  int           `json:"warnings" yaml:"warnings"`
	Edits     int           `json:"edits" yaml:"edits"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`

	// Diagnostics is written by RecordRun; ListRuns leaves it empty
	Diagnostics []validator.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// RunFilter defines criteria for listing runs
type RunFilter struct {
	URI   string
	Kind  Kind
	Limit int
}

// RuleCount is the number of recorded diagnostics for one rule and severity
type RuleCount struct {
	Rule     string `json:"rule" yaml:"rule"`
	Severity string `json:"severity" yaml:"severity"`
	Count    int    `json:"count" yaml:"count"`
}

// RunStore defines the interface for run persistence
type RunStore interface {
	RecordRun(ctx context.Context, run *Run) error
	ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error)
	Diagnostics(ctx context.Context, runID string) ([]validator.Diagnostic, error)
	RuleCounts(ctx context.Context) ([]RuleCount, error)
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// SQLiteRunStore implements RunStore using SQLite
type SQLiteRunStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Config holds configuration for the SQLite store
type Config struct {
	Path string
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Path: "./data/structlint.db",
	}
}

// New creates a SQLite-based run store, creating the database file and
// schema if needed
func New(cfg Config) (*SQLiteRunStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, storeErr(err, "failed to create directory", "open")
	}

	// Open database with WAL mode
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on")
	if err != nil {
		return nil, storeErr(err, "failed to open database", "open")
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteRunStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, storeErr(err, "failed to initialize schema", "open")
	}

	return store, nil
}

// initSchema creates the necessary tables
func (s *SQLiteRunStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		uri TEXT NOT NULL,
		kind TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 0,
		errors INTEGER NOT NULL DEFAULT 0,
		warnings INTEGER NOT NULL DEFAULT 0,
		edits INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_diagnostics (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		line INTEGER NOT NULL,
		code TEXT NOT NULL,
		severity TEXT NOT NULL,
		message TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_uri ON runs(uri);
	CREATE INDEX IF NOT EXISTS idx_run_diagnostics_run_id ON run_diagnostics(run_id);
	CREATE INDEX IF NOT EXISTS idx_run_diagnostics_code ON run_diagnostics(code);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordRun stores a run and its diagnostics in one transaction. A missing
// ID or timestamp is filled in.
func (s *SQLiteRunStore) RecordRun(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(err, "failed to begin transaction", "record_run")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, uri, kind, version, errors, warnings, edits, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.URI, string(run.Kind), run.Version, run.Errors, run.Warnings, run.Edits,
		run.Duration.Milliseconds(), run.CreatedAt)
	if err != nil {
		return storeErr(err, "failed to insert run", "record_run")
	}

	if len(run.Diagnostics) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO run_diagnostics (run_id, line, code, severity, message)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return storeErr(err, "failed to prepare statement", "record_run")
		}
		defer stmt.Close()

		for _, d := range run.Diagnostics {
			if _, err := stmt.ExecContext(ctx, run.ID, d.Line, d.Rule, d.Severity.String(), d.Message); err != nil {
				return storeErr(err, "failed to insert diagnostic", "record_run")
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr(err, "failed to commit transaction", "record_run")
	}
	return nil
}

// ListRuns returns runs newest first
func (s *SQLiteRunStore) ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, uri, kind, version, errors, warnings, edits, duration_ms, created_at FROM runs WHERE 1=1`
	var args []interface{}

	if filter.URI != "" {
		query += " AND uri = ?"
		args = append(args, filter.URI)
	}
	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(filter.Kind))
	}

	query += " ORDER BY created_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err, "failed to query runs", "list_runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var kind string
		var durationMS int64
		if err := rows.Scan(&run.ID, &run.URI, &kind, &run.Version, &run.Errors, &run.Warnings,
			&run.Edits, &durationMS, &run.CreatedAt); err != nil {
			return nil, storeErr(err, "failed to scan run", "list_runs")
		}
		run.Kind = Kind(kind)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "failed to read runs", "list_runs")
	}
	return runs, nil
}

// Diagnostics returns the diagnostics recorded for a run in line order.
// Columns are not stored.
func (s *SQLiteRunStore) Diagnostics(ctx context.Context, runID string) ([]validator.Diagnostic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT line, code, severity, message FROM run_diagnostics
		WHERE run_id = ? ORDER BY line, rowid
	`, runID)
	if err != nil {
		return nil, storeErr(err, "failed to query diagnostics", "diagnostics")
	}
	defer rows.Close()

	var diags []validator.Diagnostic
	for rows.Next() {
		var d validator.Diagnostic
		var severity string
		if err := rows.Scan(&d.Line, &d.Rule, &severity, &d.Message); err != nil {
			return nil, storeErr(err, "failed to scan diagnostic", "diagnostics")
		}
		d.Severity, _ = validator.ParseSeverity(severity)
		diags = append(diags, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "failed to read diagnostics", "diagnostics")
	}
	return diags, nil
}

// RuleCounts aggregates all recorded diagnostics by rule and severity, most
// frequent first
func (s *SQLiteRunStore) RuleCounts(ctx context.Context) ([]RuleCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT code, severity, COUNT(*) AS n FROM run_diagnostics
		GROUP BY code, severity
		ORDER BY n DESC, code
	`)
	if err != nil {
		return nil, storeErr(err, "failed to query rule counts", "rule_counts")
	}
	defer rows.Close()

	var counts []RuleCount
	for rows.Next() {
		var rc RuleCount
		if err := rows.Scan(&rc.Rule, &rc.Severity, &rc.Count); err != nil {
			return nil, storeErr(err, "failed to scan rule count", "rule_counts")
		}
		counts = append(counts, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "failed to read rule counts", "rule_counts")
	}
	return counts, nil
}

// Prune deletes runs older than the given age together with their
// diagnostics
func (s *SQLiteRunStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, storeErr(err, "failed to prune runs", "prune")
	}
	return res.RowsAffected()
}

// Ping verifies the database is reachable
func (s *SQLiteRunStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storeErr(err, "database unreachable", "ping")
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}

func storeErr(err error, msg, op string) error {
	return mdwerrors.Wrap(err, msg).WithCode(mdwerrors.CodeStoreError).WithOperation("store." + op)
}
