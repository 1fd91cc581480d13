package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/tablecrawl/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "tablecrawl.db"

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("crawl run not found")

// RecordDB provides SQLite-based storage for crawl runs and records.
// It is safe for concurrent use.
type RecordDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures RecordDB behavior.
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

// Open opens or creates the database in dbDir.
// With CreateIfNotExists false, a missing database file is an error.
func Open(dbDir string, opts Options) (*RecordDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	dsn := dbPath + "?mode=rwc"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	} else {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection avoids SQLITE_BUSY
	// when several sites store records at once.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RecordDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return rdb, nil
}

// Path returns the database file path.
func (rdb *RecordDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *RecordDB) Close() error {
	return rdb.db.Close()
}

func (rdb *RecordDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site TEXT NOT NULL,
		start_url TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		entries INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		fetch_failed INTEGER NOT NULL DEFAULT 0,
		records INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_site ON crawl_runs(site);

	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
		site TEXT NOT NULL,
		url TEXT NOT NULL,
		fields_json TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		UNIQUE(run_id, fingerprint)
	);

	CREATE INDEX IF NOT EXISTS idx_records_run ON records(run_id);
	`
	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// Run is one stored crawl of a site.
type Run struct {
	ID       int64
	Site     string
	StartURL string

	StartedAt time.Time

	// FinishedAt is zero while the run is in progress or if it was
	// interrupted.
	FinishedAt time.Time

	Entries     int
	Skipped     int
	FetchFailed int
	Records     int
}

// Finished reports whether FinishRun was called for the run.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// RunStats are the counters written by FinishRun.
type RunStats struct {
	Entries     int
	Skipped     int
	FetchFailed int
	Records     int
}

// BeginRun records the start of a crawl and returns its run ID.
func (rdb *RecordDB) BeginRun(ctx context.Context, site, startURL string) (int64, error) {
	res, err := rdb.db.ExecContext(ctx,
		`INSERT INTO crawl_runs (site, start_url, started_at) VALUES (?, ?, ?)`,
		site, startURL, formatTimestamp(time.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to begin run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}
	return id, nil
}

// FinishRun stamps the run's finish time and counters.
func (rdb *RecordDB) FinishRun(ctx context.Context, runID int64, stats RunStats) error {
	res, err := rdb.db.ExecContext(ctx, `
	UPDATE crawl_runs
	SET finished_at = ?, entries = ?, skipped = ?, fetch_failed = ?, records = ?
	WHERE id = ?`,
		formatTimestamp(time.Now()), stats.Entries, stats.Skipped, stats.FetchFailed, stats.Records, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, runID)
	}
	return nil
}

// InsertRecord stores rec under runID. It reports false, without error,
// when a record with the same fingerprint is already stored for the run.
func (rdb *RecordDB) InsertRecord(ctx context.Context, runID int64, rec model.DetailRecord) (bool, error) {
	fieldsJSON, err := json.Marshal(rec.Fields)
	if err != nil {
		return false, fmt.Errorf("failed to serialize fields: %w", err)
	}

	res, err := rdb.db.ExecContext(ctx, `
	INSERT OR IGNORE INTO records (run_id, site, url, fields_json, fingerprint)
	VALUES (?, ?, ?, ?, ?)`,
		runID, rec.Site, rec.URL, string(fieldsJSON), rec.Fingerprint(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to insert record: %w", err)
	}
	return n > 0, nil
}

const runColumns = `id, site, start_url, started_at, finished_at, entries, skipped, fetch_failed, records`

// ListRuns returns the runs of site, newest first. An empty site lists
// the runs of every site.
func (rdb *RecordDB) ListRuns(ctx context.Context, site string) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM crawl_runs`
	args := []any{}
	if site != "" {
		query += ` WHERE site = ?`
		args = append(args, site)
	}
	query += ` ORDER BY id DESC`

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// LatestRun returns the most recent run of site, or nil if there is none.
func (rdb *RecordDB) LatestRun(ctx context.Context, site string) (*Run, error) {
	row := rdb.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM crawl_runs WHERE site = ? ORDER BY id DESC LIMIT 1`,
		site,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRun returns the run with the given ID.
func (rdb *RecordDB) GetRun(ctx context.Context, runID int64) (*Run, error) {
	row := rdb.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM crawl_runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRunRecords returns the records of a run in insertion order.
func (rdb *RecordDB) GetRunRecords(ctx context.Context, runID int64) ([]model.DetailRecord, error) {
	rows, err := rdb.db.QueryContext(ctx,
		`SELECT site, url, fields_json FROM records WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get run records: %w", err)
	}
	defer rows.Close()

	records := make([]model.DetailRecord, 0)
	for rows.Next() {
		var (
			rec        model.DetailRecord
			fieldsJSON string
		)
		if err := rows.Scan(&rec.Site, &rec.URL, &fieldsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if err := json.Unmarshal([]byte(fieldsJSON), &rec.Fields); err != nil {
			return nil, fmt.Errorf("failed to parse record fields: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get run records: %w", err)
	}
	return records, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run        Run
		startedAt  string
		finishedAt sql.NullString
	)
	err := s.Scan(&run.ID, &run.Site, &run.StartURL, &startedAt, &finishedAt,
		&run.Entries, &run.Skipped, &run.FetchFailed, &run.Records)
	if errors.Is(err, sql.ErrNoRows) {
		return run, err
	}
	if err != nil {
		return run, fmt.Errorf("failed to scan run: %w", err)
	}
	run.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTimestamp(finishedAt.String)
	}
	return run, nil
}

// timestampLayout has a fixed-width fraction so stored values sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999",
	"2006-01-02T15:04:05",
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
