// Engine-state operations: the submission event log, suspension state,
// versioned suspension config, earnings, and the audit trail.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/localboost/localboost/internal/domain"
	"github.com/localboost/localboost/internal/infra/trust"
)

// ─── Submissions ────────────────────────────────────────────────────────────

// SaveSubmission inserts or updates a submission row.
func (db *DB) SaveSubmission(s domain.Submission) error {
	_, err := db.db.Exec(`
		INSERT INTO submissions (id, listing_id, account_id, contributor_id, sector_id, state, started_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state       = excluded.state,
			resolved_at = excluded.resolved_at
	`, s.ID, s.ListingID, s.AccountID, s.ContributorID, s.SectorID, string(s.State),
		fmtTime(s.StartedAt), fmtNullableTime(s.ResolvedAt))
	return err
}

// ListSubmissions returns the full submission log, oldest first. The boot
// sequence replays it to rebuild the quota ledger and cooldown marks.
func (db *DB) ListSubmissions() ([]domain.Submission, error) {
	rows, err := db.db.Query(`
		SELECT id, listing_id, account_id, contributor_id, sector_id, state, started_at, resolved_at
		FROM submissions ORDER BY started_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		var s domain.Submission
		var state, startedAt string
		var resolvedAt sql.NullString
		if err := rows.Scan(&s.ID, &s.ListingID, &s.AccountID, &s.ContributorID, &s.SectorID, &state, &startedAt, &resolvedAt); err != nil {
			return nil, err
		}
		s.State = domain.SubmissionState(state)
		s.StartedAt = parseTime(startedAt)
		s.ResolvedAt = parseNullableTime(resolvedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

// ─── Suspensions ────────────────────────────────────────────────────────────

// SaveSuspension inserts or updates a suspension record.
func (db *DB) SaveSuspension(r domain.SuspensionRecord) error {
	_, err := db.db.Exec(`
		INSERT INTO suspension_records (id, contributor_id, level, reason, country, manual, created_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			level       = excluded.level,
			reason      = excluded.reason,
			resolved_at = excluded.resolved_at
	`, r.ID, r.ContributorID, r.Level, r.Reason, r.Country, boolToInt(r.Manual),
		fmtTime(r.CreatedAt), fmtNullableTime(r.ResolvedAt))
	return err
}

// ListSuspensions returns all suspension records, oldest first.
func (db *DB) ListSuspensions() ([]domain.SuspensionRecord, error) {
	rows, err := db.db.Query(`
		SELECT id, contributor_id, level, reason, country, manual, created_at, resolved_at
		FROM suspension_records ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list suspensions: %w", err)
	}
	defer rows.Close()

	var out []domain.SuspensionRecord
	for rows.Next() {
		var r domain.SuspensionRecord
		var manual int
		var createdAt string
		var resolvedAt sql.NullString
		if err := rows.Scan(&r.ID, &r.ContributorID, &r.Level, &r.Reason, &r.Country, &manual, &createdAt, &resolvedAt); err != nil {
			return nil, err
		}
		r.Manual = manual == 1
		r.CreatedAt = parseTime(createdAt)
		r.ResolvedAt = parseNullableTime(resolvedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveWarningCount upserts a contributor's lifetime warning counter.
func (db *DB) SaveWarningCount(contributorID string, count int) error {
	_, err := db.db.Exec(`
		INSERT INTO suspension_warnings (contributor_id, count) VALUES (?, ?)
		ON CONFLICT(contributor_id) DO UPDATE SET count = excluded.count
	`, contributorID, count)
	return err
}

// WarningCounts returns all persisted warning counters.
func (db *DB) WarningCounts() (map[string]int, error) {
	rows, err := db.db.Query(`SELECT contributor_id, count FROM suspension_warnings`)
	if err != nil {
		return nil, fmt.Errorf("warning counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		out[id] = count
	}
	return out, rows.Err()
}

// SaveSuspensionConfig appends a new config version.
func (db *DB) SaveSuspensionConfig(cfg domain.SuspensionConfig) error {
	body, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal suspension config: %w", err)
	}
	_, err = db.db.Exec(`
		INSERT INTO suspension_config (version, body_json, created_at) VALUES (?, ?, ?)
		ON CONFLICT(version) DO UPDATE SET body_json = excluded.body_json
	`, cfg.Version, string(body), fmtTime(time.Now()))
	return err
}

// LatestSuspensionConfig returns the highest-versioned config, or
// ok=false when none was ever saved.
func (db *DB) LatestSuspensionConfig() (domain.SuspensionConfig, bool, error) {
	var body string
	err := db.db.QueryRow(`
		SELECT body_json FROM suspension_config ORDER BY version DESC LIMIT 1
	`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SuspensionConfig{}, false, nil
	}
	if err != nil {
		return domain.SuspensionConfig{}, false, fmt.Errorf("latest suspension config: %w", err)
	}

	var cfg domain.SuspensionConfig
	if err := json.Unmarshal([]byte(body), &cfg); err != nil {
		return domain.SuspensionConfig{}, false, fmt.Errorf("unmarshal suspension config: %w", err)
	}
	return cfg, true, nil
}

// ─── Trust Signals ──────────────────────────────────────────────────────────

// SaveTrustSignals upserts a contributor's raw trust inputs.
func (db *DB) SaveTrustSignals(contributorID string, s trust.Signals) error {
	_, err := db.db.Exec(`
		INSERT INTO trust_signals (contributor_id, email_score, maps_profile_score, verification_bonus, penalties)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(contributor_id) DO UPDATE SET
			email_score        = excluded.email_score,
			maps_profile_score = excluded.maps_profile_score,
			verification_bonus = excluded.verification_bonus,
			penalties          = excluded.penalties
	`, contributorID, s.EmailScore, s.MapsProfileScore, s.VerificationBonus, s.Penalties)
	return err
}

// ListTrustSignals returns all persisted trust inputs, keyed by
// contributor.
func (db *DB) ListTrustSignals() (map[string]trust.Signals, error) {
	rows, err := db.db.Query(`
		SELECT contributor_id, email_score, maps_profile_score, verification_bonus, penalties
		FROM trust_signals
	`)
	if err != nil {
		return nil, fmt.Errorf("list trust signals: %w", err)
	}
	defer rows.Close()

	out := make(map[string]trust.Signals)
	for rows.Next() {
		var id string
		var s trust.Signals
		if err := rows.Scan(&id, &s.EmailScore, &s.MapsProfileScore, &s.VerificationBonus, &s.Penalties); err != nil {
			return nil, err
		}
		out[id] = s
	}
	return out, rows.Err()
}

// ─── Earnings ───────────────────────────────────────────────────────────────

// AppendEarning appends an entry to the contributor's earnings ledger,
// carrying the running balance forward.
func (db *DB) AppendEarning(e domain.EarningEntry) error {
	var balance int64
	err := db.db.QueryRow(`
		SELECT balance_cents FROM earnings WHERE contributor_id = ? ORDER BY id DESC LIMIT 1
	`, e.ContributorID).Scan(&balance)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("earnings balance: %w", err)
	}

	_, err = db.db.Exec(`
		INSERT INTO earnings (timestamp, type, contributor_id, submission_id, amount_cents, description, balance_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, fmtTime(e.Timestamp), string(e.Type), e.ContributorID, e.SubmissionID,
		e.AmountCents, e.Description, balance+e.AmountCents)
	return err
}

// EarningsBalance returns a contributor's current balance in cents.
func (db *DB) EarningsBalance(contributorID string) (int64, error) {
	var balance int64
	err := db.db.QueryRow(`
		SELECT balance_cents FROM earnings WHERE contributor_id = ? ORDER BY id DESC LIMIT 1
	`, contributorID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return balance, err
}

// ─── Audit Trail ────────────────────────────────────────────────────────────

// Record implements domain.AuditLog. Failures are swallowed: audit writes
// must never break the policy path.
func (db *DB) Record(event, subjectID, detail string) {
	db.db.Exec(`
		INSERT INTO audit_events (event, subject_id, detail, created_at) VALUES (?, ?, ?, ?)
	`, event, subjectID, detail, fmtTime(time.Now()))
}

// AuditEvent is one persisted audit row.
type AuditEvent struct {
	ID        int64     `json:"id"`
	Event     string    `json:"event"`
	SubjectID string    `json:"subject_id"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// RecentAuditEvents returns the newest audit rows, most recent first.
func (db *DB) RecentAuditEvents(limit int) ([]AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.db.Query(`
		SELECT id, event, subject_id, detail, created_at
		FROM audit_events ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent audit events: %w", err)
	}
	defer rows.Close()

	var out []AuditEvent
	for rows.Next() {
		var e AuditEvent
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Event, &e.SubjectID, &e.Detail, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = parseTime(createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}
