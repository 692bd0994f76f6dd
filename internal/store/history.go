package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// HistoryFileName is the default database name inside the output directory.
const HistoryFileName = "playrun.db"

// timeLayout is fixed-width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one recorded playbook run.
type Entry struct {
	RunID       string
	StartedAt   time.Time
	Duration    time.Duration
	Environment string
	Playbook    string
	Inventory   string
	Check       bool
	ExitStatus  int
	Plays       int
	Tasks       int
	OK          int
	Changed     int
	Failed      int
	Unreachable int
	ReportFile  string
}

// History is the sqlite-backed run log.
type History struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	environment TEXT NOT NULL,
	playbook    TEXT NOT NULL,
	inventory   TEXT NOT NULL,
	check_mode  INTEGER NOT NULL,
	exit_status INTEGER NOT NULL,
	plays       INTEGER NOT NULL,
	tasks       INTEGER NOT NULL,
	ok          INTEGER NOT NULL,
	changed     INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	unreachable INTEGER NOT NULL,
	report_file TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at);
`

// OpenHistory opens (creating if needed) the history database at path.
func OpenHistory(ctx context.Context, path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating directory for %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	h := &History{db: db, path: path}
	err = WithLock(ctx, path, DefaultLockTimeout, func() error {
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			return err
		}
		_, err := db.ExecContext(ctx, schema)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history %s: %w", path, err)
	}
	return h, nil
}

// Close releases the database.
func (h *History) Close() error {
	return h.db.Close()
}

// Record stores e. Recording the same run id twice replaces the row.
func (h *History) Record(ctx context.Context, e Entry) error {
	return WithLock(ctx, h.path, DefaultLockTimeout, func() error {
		_, err := h.db.ExecContext(ctx, `
INSERT OR REPLACE INTO runs (
	run_id, started_at, duration_ms, environment, playbook, inventory, check_mode,
	exit_status, plays, tasks, ok, changed, failed, unreachable, report_file
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.RunID, e.StartedAt.UTC().Format(timeLayout), e.Duration.Milliseconds(),
			e.Environment, e.Playbook, e.Inventory, e.Check,
			e.ExitStatus, e.Plays, e.Tasks, e.OK, e.Changed, e.Failed, e.Unreachable, e.ReportFile,
		)
		if err != nil {
			return fmt.Errorf("recording run %s: %w", e.RunID, err)
		}
		return nil
	})
}

// Recent returns up to limit runs, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]Entry, error) {
	var entries []Entry
	err := WithReadLock(ctx, h.path, DefaultLockTimeout, func() error {
		rows, err := h.db.QueryContext(ctx, `
SELECT run_id, started_at, duration_ms, environment, playbook, inventory, check_mode,
       exit_status, plays, tasks, ok, changed, failed, unreachable, report_file
FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
		if err != nil {
			return fmt.Errorf("querying history: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				e          Entry
				startedAt  string
				durationMS int64
			)
			if err := rows.Scan(&e.RunID, &startedAt, &durationMS, &e.Environment, &e.Playbook, &e.Inventory,
				&e.Check, &e.ExitStatus, &e.Plays, &e.Tasks, &e.OK, &e.Changed, &e.Failed, &e.Unreachable,
				&e.ReportFile); err != nil {
				return fmt.Errorf("scanning history row: %w", err)
			}
			e.StartedAt, _ = time.Parse(timeLayout, startedAt)
			e.Duration = time.Duration(durationMS) * time.Millisecond
			entries = append(entries, e)
		}
		return rows.Err()
	})
	return entries, err
}
