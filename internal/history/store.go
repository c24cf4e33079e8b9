// Package history records organize runs in a SQLite database so past runs
// can be listed and the folders they created excluded from later scans.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/deeporganizer/internal/models"
)

// timeLayout is fixed width so started_at sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrRunNotFound is returned by GetRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded organize run.
type Run struct {
	ID             string
	Root           string
	Model          string
	Notes          string
	DryRun         bool
	FilesScanned   int
	FoldersCreated int
	FilesMoved     int
	Skipped        int
	Rejected       int
	Failed         int
	NotAttempted   int
	Canceled       bool
	StartedAt      time.Time
	Duration       time.Duration
}

// ActionRecord is one stored ExecutionResult.
type ActionRecord struct {
	Seq           int
	Kind          models.ActionKind
	Subject       string
	Folder        string
	Outcome       models.Outcome
	Message       string
	Destination   string
	FolderCreated bool
}

// Store manages the SQLite run history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the database at dbPath and applies
// migrations. ":memory:" opens a private in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// execWithRetry executes a statement with exponential backoff on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun stores a summary and its results. A summary without a RunID is
// assigned a new UUID, written back to summary.RunID.
func (s *Store) RecordRun(ctx context.Context, summary *models.OrganizationSummary, notes string) error {
	if summary == nil {
		return fmt.Errorf("record run: summary is nil")
	}
	if summary.RunID == "" {
		summary.RunID = uuid.NewString()
	}
	startedAt := summary.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, root, model, notes, dry_run, files_scanned, folders_created, files_moved, skipped, rejected, failed, not_attempted, canceled, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID, summary.Root, summary.Model, notes, summary.DryRun,
		summary.FilesScanned, summary.FoldersCreated, summary.FilesMoved,
		summary.Skipped, summary.Rejected, summary.Failed, summary.NotAttempted,
		summary.Canceled, startedAt.UTC().Format(timeLayout), summary.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO action_results
		(run_id, seq, action_type, subject, folder, outcome, message, destination, folder_created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare action insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range summary.Results {
		folder := r.Action.DestinationFolder
		if r.Action.Kind == models.ActionCreateFolder {
			folder = r.Action.Name
		}
		if _, err := stmt.ExecContext(ctx,
			summary.RunID, i, string(r.Action.Kind), r.Action.Subject(), folder,
			string(r.Outcome), r.Message, r.Destination, r.FolderCreated,
		); err != nil {
			return fmt.Errorf("insert action %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

const runColumns = `id, root, model, COALESCE(notes, ''), dry_run, files_scanned, folders_created, files_moved, skipped, rejected, failed, not_attempted, canceled, started_at, duration_ms`

// ListRuns returns the most recent runs first. An empty root lists every
// root; limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, root string, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []interface{}
	if root != "" {
		query += ` WHERE root = ?`
		args = append(args, root)
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run by ID, or ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// ActionResults returns a run's stored results in plan order.
func (s *Store) ActionResults(ctx context.Context, runID string) ([]*ActionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT seq, action_type, COALESCE(subject, ''), COALESCE(folder, ''),
		outcome, COALESCE(message, ''), COALESCE(destination, ''), folder_created
		FROM action_results WHERE run_id = ? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query action results: %w", err)
	}
	defer rows.Close()

	var records []*ActionRecord
	for rows.Next() {
		rec := &ActionRecord{}
		var kind, outcome string
		if err := rows.Scan(&rec.Seq, &kind, &rec.Subject, &rec.Folder, &outcome, &rec.Message, &rec.Destination, &rec.FolderCreated); err != nil {
			return nil, fmt.Errorf("scan action result: %w", err)
		}
		rec.Kind = models.ActionKind(kind)
		rec.Outcome = models.Outcome(outcome)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action results: %w", err)
	}
	return records, nil
}

// CreatedFolders lists the folders that non-dry runs created under root,
// sorted by name.
func (s *Store) CreatedFolders(ctx context.Context, root string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT a.folder
		FROM action_results a JOIN runs r ON r.id = a.run_id
		WHERE r.root = ? AND r.dry_run = 0 AND a.folder_created = 1
		  AND a.outcome != ? AND a.folder IS NOT NULL AND a.folder != ''
		ORDER BY a.folder ASC`, root, string(models.OutcomeSkippedDryRun))
	if err != nil {
		return nil, fmt.Errorf("query created folders: %w", err)
	}
	defer rows.Close()

	var folders []string
	for rows.Next() {
		var folder string
		if err := rows.Scan(&folder); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, folder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}
	return folders, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var startedAt string
	var durationMS int64
	err := row.Scan(&run.ID, &run.Root, &run.Model, &run.Notes, &run.DryRun,
		&run.FilesScanned, &run.FoldersCreated, &run.FilesMoved, &run.Skipped,
		&run.Rejected, &run.Failed, &run.NotAttempted, &run.Canceled,
		&startedAt, &durationMS)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if t, perr := time.Parse(timeLayout, startedAt); perr == nil {
		run.StartedAt = t
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return run, nil
}
