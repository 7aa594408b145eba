// Package sqlite persists the work book and earnings ledger in a local
// SQLite database. The in-memory structures stay authoritative; this layer
// is write-through storage plus restore-on-startup.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure-Go driver, no cgo
)

// DB wraps the SQLite handle.
type DB struct {
	db *sql.DB
}

// Open creates (or opens) crafter.db in dir and applies migrations.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dir, "crafter.db")

	handle, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite permits one writer; serialize through a single connection.
	handle.SetMaxOpenConns(1)

	db := &DB{db: handle}
	if err := db.migrate(); err != nil {
		handle.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying handle.
func (db *DB) Close() error {
	return db.db.Close()
}

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		// Work book records
		`CREATE TABLE IF NOT EXISTS job_records (
			id                 TEXT PRIMARY KEY,
			requester_id       TEXT NOT NULL,
			item_id            TEXT NOT NULL,
			target_quality     INTEGER NOT NULL,
			mail_on_completion INTEGER NOT NULL DEFAULT 0,
			price_charged      INTEGER NOT NULL DEFAULT 0,
			state              INTEGER NOT NULL DEFAULT 0,
			kind               INTEGER NOT NULL DEFAULT 0,
			worker_cut         INTEGER NOT NULL DEFAULT 0,
			created_at         TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_job_state ON job_records(state)`,
		`CREATE INDEX IF NOT EXISTS idx_job_requester ON job_records(requester_id)`,

		// Append-only earnings ledger
		`CREATE TABLE IF NOT EXISTS earnings_ledger (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			account   TEXT NOT NULL,
			amount    INTEGER NOT NULL,
			job_id    TEXT,
			reason    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_earnings_account ON earnings_ledger(account)`,
		`CREATE INDEX IF NOT EXISTS idx_earnings_job ON earnings_ledger(job_id)`,
	}
}

func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w\nstatement: %s", err, stmt)
		}
	}
	return nil
}
