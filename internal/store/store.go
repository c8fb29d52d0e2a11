// Package store persists validation run history in a local SQLite
// database. One row per run: where the inputs came from, the verdict,
// and the full report as JSON.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"veritab/internal/conformance"
)

// ErrNotFound is returned when no run exists for the requested id.
var ErrNotFound = errors.New("run not found")

// createdAtFormat is fixed-width so lexical ordering in SQL matches
// chronological ordering. Timestamps are stored in UTC.
const createdAtFormat = "2006-01-02 15:04:05.000000000"

// Run is one recorded validation. Status and the counts are derived
// from Report on save when Report is set.
type Run struct {
	ID           string
	CreatedAt    time.Time
	DataPath     string
	SchemaPath   string
	Status       conformance.Status
	ErrorCount   int
	WarningCount int
	// Report is the full evaluation result. ListRuns leaves it nil;
	// GetRun loads it.
	Report *conformance.ValidationReport
}

// Store is a run-history store backed by a single SQLite database
// file. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	logger *zap.Logger
}

// Open initializes the SQLite database at the given path, creating the
// parent directory and schema as needed.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Debug("failed to set sqlite journal_mode=WAL", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logger.Debug("failed to set sqlite synchronous=NORMAL", zap.Error(err))
	}

	s := &Store{db: db, dbPath: path, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("run history store ready", zap.String("path", path))
	return s, nil
}

// initialize creates the required tables.
func (s *Store) initialize() error {
	const runsTable = `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		data_path TEXT,
		schema_path TEXT,
		status TEXT NOT NULL,
		error_count INTEGER NOT NULL DEFAULT 0,
		warning_count INTEGER NOT NULL DEFAULT 0,
		report_json TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`
	if _, err := s.db.Exec(runsTable); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun records a run. A missing ID gets a fresh UUID and a zero
// CreatedAt gets the current time; when Report is set, Status and the
// counts are derived from it. The Run is updated in place.
func (s *Store) SaveRun(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC()
	if run.Report != nil {
		run.Status = run.Report.OverallStatus
		run.ErrorCount = len(run.Report.Errors)
		run.WarningCount = len(run.Report.Warnings)
	}

	var reportJSON []byte
	if run.Report != nil {
		b, err := json.Marshal(run.Report)
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		reportJSON = b
	}

	_, err := s.db.Exec(`
		INSERT INTO runs (id, created_at, data_path, schema_path, status, error_count, warning_count, report_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.Format(createdAtFormat),
		run.DataPath,
		run.SchemaPath,
		run.Status,
		run.ErrorCount,
		run.WarningCount,
		nullableText(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	s.logger.Debug("run saved",
		zap.String("id", run.ID),
		zap.String("status", string(run.Status)),
		zap.Int("errors", run.ErrorCount),
		zap.Int("warnings", run.WarningCount),
	)
	return nil
}

// GetRun loads one run, report included. Returns ErrNotFound when the
// id is unknown.
func (s *Store) GetRun(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, created_at, data_path, schema_path, status, error_count, warning_count, report_json
		FROM runs WHERE id = ?`, id)

	run, reportJSON, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	if reportJSON != "" {
		var report conformance.ValidationReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			return nil, fmt.Errorf("failed to decode stored report for run %s: %w", id, err)
		}
		run.Report = &report
	}
	return run, nil
}

// ListRuns returns runs newest first, up to limit when limit > 0.
// Reports are not loaded; use GetRun for the full record.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, created_at, data_path, schema_path, status, error_count, warning_count, ''
		FROM runs ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, _, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// PruneRuns deletes all but the newest keep runs and reports how many
// were removed. keep <= 0 empties the history.
func (s *Store) PruneRuns(keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 0 {
		keep = 0
	}
	res, err := s.db.Exec(`
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	if n > 0 {
		s.logger.Debug("pruned runs", zap.Int64("deleted", n), zap.Int("kept", keep))
	}
	return int(n), nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, string, error) {
	var (
		run        Run
		createdAt  string
		reportJSON sql.NullString
	)
	err := sc.Scan(
		&run.ID,
		&createdAt,
		&run.DataPath,
		&run.SchemaPath,
		&run.Status,
		&run.ErrorCount,
		&run.WarningCount,
		&reportJSON,
	)
	if err != nil {
		return nil, "", err
	}
	ts, err := time.Parse(createdAtFormat, createdAt)
	if err != nil {
		return nil, "", fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	run.CreatedAt = ts.UTC()
	return &run, reportJSON.String, nil
}

func nullableText(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
