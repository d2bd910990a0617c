package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitecrawl/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "sitecrawl.db"

// ErrDatabaseNotFound is returned by Open when CreateIfNotExists is false and
// no database exists yet.
var ErrDatabaseNotFound = errors.New("history database not found")

// CrawlDB stores crawl runs and the pages fetched during them.
type CrawlDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close() //nolint:errcheck // already returning an error
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close() //nolint:errcheck // already returning an error
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per crawl
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		scope TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		completed INTEGER NOT NULL DEFAULT 0,
		discovered INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per fetch cycle of a run
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		path TEXT NOT NULL,
		status_code INTEGER NOT NULL DEFAULT 0,
		content_type TEXT NOT NULL DEFAULT '',
		hash TEXT NOT NULL DEFAULT '',
		headers TEXT,
		fetched_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_hash ON pages(hash);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// StartRun records a new running crawl and sets run.ID.
func (cdb *CrawlDB) StartRun(ctx context.Context, run *model.Run) (int64, error) {
	if run.Status == "" {
		run.Status = model.RunStatusRunning
	}

	query := `
	INSERT INTO runs (seed, scope, started_at, completed, discovered, status, error)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := cdb.db.ExecContext(ctx, query,
		run.Seed,
		run.Scope,
		formatTimestamp(run.StartedAt),
		run.Completed,
		run.Discovered,
		string(run.Status),
		run.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}
	run.ID = id
	return id, nil
}

// FinishRun stores the final counters, status and error of run.
func (cdb *CrawlDB) FinishRun(ctx context.Context, run *model.Run) error {
	query := `
	UPDATE runs
	SET finished_at = ?, completed = ?, discovered = ?, status = ?, error = ?
	WHERE id = ?
	`

	result, err := cdb.db.ExecContext(ctx, query,
		formatTimestamp(run.FinishedAt),
		run.Completed,
		run.Discovered,
		string(run.Status),
		run.Error,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to finish run: no run with id %d", run.ID)
	}
	return nil
}

// InsertPage records one fetch cycle of a run. Fetching the same URL twice
// in a run updates the existing row.
func (cdb *CrawlDB) InsertPage(ctx context.Context, runID int64, page *model.Page) error {
	var headersJSON sql.NullString
	if len(page.Headers) > 0 {
		data, err := json.Marshal(page.Headers)
		if err != nil {
			return fmt.Errorf("failed to serialize headers: %w", err)
		}
		headersJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `
	INSERT INTO pages (run_id, url, path, status_code, content_type, hash, headers, fetched_at, duration_ms, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, url) DO UPDATE SET
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		hash = excluded.hash,
		headers = excluded.headers,
		fetched_at = excluded.fetched_at,
		duration_ms = excluded.duration_ms,
		error = excluded.error
	`

	_, err := cdb.db.ExecContext(ctx, query,
		runID,
		page.URL,
		pagePath(page.URL),
		page.StatusCode,
		page.ContentType,
		page.Hash,
		headersJSON,
		formatTimestamp(page.FetchedAt),
		page.Duration.Milliseconds(),
		page.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert page: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. It returns nil, nil when no such run exists.
func (cdb *CrawlDB) GetRun(ctx context.Context, id int64) (*model.Run, error) {
	query := `
	SELECT id, seed, scope, started_at, finished_at, completed, discovered, status, error
	FROM runs
	WHERE id = ?
	`

	run, err := scanRun(cdb.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns
// all runs.
func (cdb *CrawlDB) ListRuns(ctx context.Context, limit int) ([]*model.Run, error) {
	query := `
	SELECT id, seed, scope, started_at, finished_at, completed, discovered, status, error
	FROM runs
	ORDER BY id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetRunPages returns the pages of a run in fetch order.
func (cdb *CrawlDB) GetRunPages(ctx context.Context, runID int64) ([]*model.Page, error) {
	query := `
	SELECT url, status_code, content_type, hash, headers, fetched_at, duration_ms, error
	FROM pages
	WHERE run_id = ?
	ORDER BY id
	`

	rows, err := cdb.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pages: %w", err)
	}
	defer rows.Close()

	var pages []*model.Page
	for rows.Next() {
		var (
			page        model.Page
			headersJSON sql.NullString
			fetchedAt   string
			durationMS  int64
		)
		err := rows.Scan(
			&page.URL,
			&page.StatusCode,
			&page.ContentType,
			&page.Hash,
			&headersJSON,
			&fetchedAt,
			&durationMS,
			&page.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}

		page.FetchedAt = parseTimestamp(fetchedAt)
		page.Duration = time.Duration(durationMS) * time.Millisecond
		if headersJSON.Valid && headersJSON.String != "" {
			if err := json.Unmarshal([]byte(headersJSON.String), &page.Headers); err != nil {
				return nil, fmt.Errorf("failed to parse headers: %w", err)
			}
		}
		pages = append(pages, &page)
	}

	return pages, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.Run, error) {
	var (
		run        model.Run
		startedAt  string
		finishedAt sql.NullString
		status     string
	)
	err := row.Scan(
		&run.ID,
		&run.Seed,
		&run.Scope,
		&startedAt,
		&finishedAt,
		&run.Completed,
		&run.Discovered,
		&status,
		&run.Error,
	)
	if err != nil {
		return nil, err
	}

	run.Status = model.RunStatus(status)
	run.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTimestamp(finishedAt.String)
	}
	return &run, nil
}

// pagePath returns the path part of rawURL, "/" for an empty path.
func pagePath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if p := u.EscapedPath(); p != "" {
		return p
	}
	return "/"
}

// formatTimestamp stores times as RFC 3339 in UTC. A zero time is stored as
// the current time.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
