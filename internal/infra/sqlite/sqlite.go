// Package sqlite provides the engine's persistent store: reference data
// (accounts, sectors, listings), the submission event log the in-memory
// ledgers rehydrate from at boot, suspension state, earnings, and the
// audit trail.
//
// Uses the pure-Go modernc.org/sqlite driver — no CGO.
package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// timeFormat is how timestamps are stored. RFC3339 keeps them readable
// and sortable in sqlite TEXT columns.
const timeFormat = time.RFC3339Nano

// DB wraps the sqlite connection with typed operations.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the engine database inside dir and applies all
// migrations.
func Open(dir string) (*DB, error) {
	path := filepath.Join(dir, "localboost.db")
	conn, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite serializes writers; one connection avoids lock churn.
	conn.SetMaxOpenConns(1)

	db := &DB{db: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (sqlite executes one at a time).
func Migrations() []string {
	return []string{
		// Contributor posting accounts
		`CREATE TABLE IF NOT EXISTS accounts (
			id              TEXT PRIMARY KEY,
			contributor_id  TEXT NOT NULL,
			handle          TEXT NOT NULL DEFAULT '',
			experience_tier INTEGER NOT NULL DEFAULT 0,
			disabled        INTEGER NOT NULL DEFAULT 0,
			created_at      TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_contributor ON accounts(contributor_id)`,

		// Sector reference data
		`CREATE TABLE IF NOT EXISTS sectors (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL DEFAULT '',
			difficulty    TEXT NOT NULL DEFAULT 'easy',
			cooldown_days INTEGER NOT NULL DEFAULT 0,
			max_per_month INTEGER NOT NULL DEFAULT 0
		)`,

		// Listings ("fiches")
		`CREATE TABLE IF NOT EXISTS listings (
			id               TEXT PRIMARY KEY,
			artisan_id       TEXT NOT NULL DEFAULT '',
			sector_id        TEXT NOT NULL,
			quantity         INTEGER NOT NULL DEFAULT 0,
			reviews_received INTEGER NOT NULL DEFAULT 0,
			reviews_per_day  INTEGER NOT NULL DEFAULT 0,
			cancelled        INTEGER NOT NULL DEFAULT 0,
			created_at       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_sector ON listings(sector_id)`,

		// Submission event log — the in-memory quota ledger and cooldown
		// tracker are rebuilt from this at boot.
		`CREATE TABLE IF NOT EXISTS submissions (
			id             TEXT PRIMARY KEY,
			listing_id     TEXT NOT NULL,
			account_id     TEXT NOT NULL,
			contributor_id TEXT NOT NULL,
			sector_id      TEXT NOT NULL,
			state          TEXT NOT NULL DEFAULT 'PENDING',
			started_at     TEXT NOT NULL,
			resolved_at    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_account ON submissions(account_id, sector_id)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_state ON submissions(state)`,

		// Suspension records and lifetime warning counters
		`CREATE TABLE IF NOT EXISTS suspension_records (
			id             TEXT PRIMARY KEY,
			contributor_id TEXT NOT NULL,
			level          INTEGER NOT NULL DEFAULT 1,
			reason         TEXT NOT NULL DEFAULT '',
			country        TEXT NOT NULL DEFAULT '',
			manual         INTEGER NOT NULL DEFAULT 0,
			created_at     TEXT NOT NULL,
			resolved_at    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_suspension_contributor ON suspension_records(contributor_id)`,
		`CREATE INDEX IF NOT EXISTS idx_suspension_active ON suspension_records(resolved_at)`,

		`CREATE TABLE IF NOT EXISTS suspension_warnings (
			contributor_id TEXT PRIMARY KEY,
			count          INTEGER NOT NULL DEFAULT 0
		)`,

		// Versioned suspension config history; highest version is current.
		`CREATE TABLE IF NOT EXISTS suspension_config (
			version    INTEGER PRIMARY KEY,
			body_json  TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,

		// Raw trust signals — the engine recomputes scores from these at boot
		`CREATE TABLE IF NOT EXISTS trust_signals (
			contributor_id     TEXT PRIMARY KEY,
			email_score        INTEGER NOT NULL DEFAULT 0,
			maps_profile_score INTEGER NOT NULL DEFAULT 0,
			verification_bonus INTEGER NOT NULL DEFAULT 0,
			penalties          INTEGER NOT NULL DEFAULT 0
		)`,

		// Contributor earnings ledger
		`CREATE TABLE IF NOT EXISTS earnings (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      TEXT NOT NULL,
			type           TEXT NOT NULL,
			contributor_id TEXT NOT NULL,
			submission_id  TEXT NOT NULL DEFAULT '',
			amount_cents   INTEGER NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			balance_cents  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_earnings_contributor ON earnings(contributor_id)`,

		// Audit trail for suspension/claim events and operator actions
		`CREATE TABLE IF NOT EXISTS audit_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			event      TEXT NOT NULL,
			subject_id TEXT NOT NULL,
			detail     TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
	}
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func fmtNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return fmtTime(t)
}

func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	return parseTime(s.String)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
