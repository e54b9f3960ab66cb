// Package sqlite persists sync run history in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/gridsync/gridsync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/gridsync/gridsync/internal/core/domain"
	"github.com/gridsync/gridsync/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.HistoryStore = (*Store)(nil)

// Store is a SQLite-backed run-history store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the history database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RecordRun stores a finished run report.
func (s *Store) RecordRun(ctx context.Context, report *domain.SyncReport) error {
	if report == nil || report.RunID == "" {
		return fmt.Errorf("recording run: %w", domain.ErrNotFound)
	}

	dates, err := json.Marshal(report.Dates)
	if err != nil {
		return fmt.Errorf("encoding dates: %w", err)
	}
	unitErrs, err := json.Marshal(report.Errors)
	if err != nil {
		return fmt.Errorf("encoding errors: %w", err)
	}
	usage, err := json.Marshal(report.SourceUsage)
	if err != nil {
		return fmt.Errorf("encoding source usage: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, dataset, started_at, ended_at, downloaded, skipped, failed, success, dates, errors, source_usage)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ended_at = excluded.ended_at,
			downloaded = excluded.downloaded,
			skipped = excluded.skipped,
			failed = excluded.failed,
			success = excluded.success,
			dates = excluded.dates,
			errors = excluded.errors,
			source_usage = excluded.source_usage
	`, report.RunID, report.Dataset,
		report.StartedAt.UTC(), nullableTime(report.EndedAt),
		report.Downloaded, report.Skipped, report.Failed, boolToInt(report.Success),
		string(dates), string(unitErrs), string(usage))
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// ListRuns returns recent runs, newest first. An empty dataset matches
// all datasets.
func (s *Store) ListRuns(ctx context.Context, dataset string, limit int) ([]domain.SyncReport, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, dataset, started_at, ended_at, downloaded, skipped, failed, success, dates, errors, source_usage
		FROM sync_runs`
	args := []any{}
	if dataset != "" {
		query += ` WHERE dataset = ?`
		args = append(args, dataset)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.SyncReport
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// PruneHistory keeps only the most recent keep runs per dataset.
func (s *Store) PruneHistory(ctx context.Context, keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM sync_runs WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY dataset ORDER BY started_at DESC) AS rn
				FROM sync_runs
			) WHERE rn <= ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning history: %w", err)
	}
	return nil
}

func scanRun(rows *sql.Rows) (*domain.SyncReport, error) {
	var (
		run       domain.SyncReport
		endedAt   sql.NullTime
		success   int
		dates     sql.NullString
		unitErrs  sql.NullString
		usageJSON sql.NullString
	)
	if err := rows.Scan(&run.RunID, &run.Dataset, &run.StartedAt, &endedAt,
		&run.Downloaded, &run.Skipped, &run.Failed, &success,
		&dates, &unitErrs, &usageJSON); err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	if endedAt.Valid {
		run.EndedAt = endedAt.Time
	}
	run.Success = success != 0

	if dates.Valid && dates.String != "" && dates.String != "null" {
		if err := json.Unmarshal([]byte(dates.String), &run.Dates); err != nil {
			return nil, fmt.Errorf("decoding dates: %w", err)
		}
	}
	if unitErrs.Valid && unitErrs.String != "" && unitErrs.String != "null" {
		if err := json.Unmarshal([]byte(unitErrs.String), &run.Errors); err != nil {
			return nil, fmt.Errorf("decoding errors: %w", err)
		}
	}
	if usageJSON.Valid && usageJSON.String != "" && usageJSON.String != "null" {
		if err := json.Unmarshal([]byte(usageJSON.String), &run.SourceUsage); err != nil {
			return nil, fmt.Errorf("decoding source usage: %w", err)
		}
	}
	return &run, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// migrate applies all pending .up.sql migrations in version order.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
