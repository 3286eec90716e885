// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
package domain

import (
	"fmt"
	"time"
)

// ─── Contributor & Account Types ────────────────────────────────────────────

// AccountStatus is the lifecycle status of a posting account, derived at
// read time from quota and cooldown state — never stored.
type AccountStatus string

const (
	AccountReady         AccountStatus = "ready"
	AccountCooldown      AccountStatus = "cooldown"
	AccountQuotaExceeded AccountStatus = "quota_exceeded"
)

// ContributorAccount is a single review-posting identity (e.g. one Gmail
// address) owned by exactly one contributor. Accounts are soft-disabled,
// never hard-deleted, while submissions reference them.
type ContributorAccount struct {
	ID             string    `json:"id"`
	ContributorID  string    `json:"contributor_id"`
	Handle         string    `json:"handle"`
	ExperienceTier int       `json:"experience_tier"`
	Disabled       bool      `json:"disabled"`
	CreatedAt      time.Time `json:"created_at"`
}

// ─── Sector Types ───────────────────────────────────────────────────────────

// Difficulty classifies how hard a sector is to post convincing reviews in.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Sector is a business category with its own cooldown and quota policy.
// Static reference data, editable only by operators.
type Sector struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Difficulty   Difficulty `json:"difficulty"`
	CooldownDays int        `json:"cooldown_days"`
	MaxPerMonth  int        `json:"max_per_month"`
}

// ─── Listing Types ──────────────────────────────────────────────────────────

// Listing is a client order ("fiche") requesting N reviews for one
// establishment. Mutated by accepted submissions and claim acquire/release.
type Listing struct {
	ID              string    `json:"id"`
	ArtisanID       string    `json:"artisan_id"`
	SectorID        string    `json:"sector_id"`
	Quantity        int       `json:"quantity"`
	ReviewsReceived int       `json:"reviews_received"`
	ReviewsPerDay   int       `json:"reviews_per_day,omitempty"` // 0 = uncapped
	LockHolder      string    `json:"lock_holder,omitempty"`
	LockExpiresAt   time.Time `json:"lock_expires_at,omitempty"`
	Cancelled       bool      `json:"cancelled"`
	CreatedAt       time.Time `json:"created_at"`
}

// Complete reports whether the listing has reached a terminal state.
func (l Listing) Complete() bool {
	return l.Cancelled || l.ReviewsReceived >= l.Quantity
}

// Remaining returns how many reviews the listing still needs.
func (l Listing) Remaining() int {
	r := l.Quantity - l.ReviewsReceived
	if r < 0 {
		return 0
	}
	return r
}

// ─── Quota Types ────────────────────────────────────────────────────────────

// UnlimitedPerMonth is the sentinel ceiling meaning "no monthly limit".
const UnlimitedPerMonth = 999

// QuotaSnapshot is the read-only used/max view surfaced to callers.
// Pending reservations are folded into the used figures.
type QuotaSnapshot struct {
	SectorUsed int `json:"sector_used"`
	SectorMax  int `json:"sector_max"`
	GlobalUsed int `json:"global_used"`
	GlobalMax  int `json:"global_max"`
}

// SectorRemaining returns remaining sector quota, never negative.
func (q QuotaSnapshot) SectorRemaining() int {
	r := q.SectorMax - q.SectorUsed
	if r < 0 {
		return 0
	}
	return r
}

// GlobalRemaining returns remaining global quota, never negative.
// Returns UnlimitedPerMonth when the ceiling is the unlimited sentinel.
func (q QuotaSnapshot) GlobalRemaining() int {
	if q.GlobalMax >= UnlimitedPerMonth {
		return UnlimitedPerMonth
	}
	r := q.GlobalMax - q.GlobalUsed
	if r < 0 {
		return 0
	}
	return r
}

// PeriodKey formats the calendar-month ledger period for a given instant,
// e.g. "2026-08". All ledger keys use the platform reference timezone.
func PeriodKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// DayKey formats the calendar-day key used by per-day listing caps.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ─── Submission Types ───────────────────────────────────────────────────────

// SubmissionState tracks one review submission through moderation.
type SubmissionState string

const (
	SubmissionPending  SubmissionState = "PENDING"
	SubmissionAccepted SubmissionState = "ACCEPTED"
	SubmissionRejected SubmissionState = "REJECTED"
)

// Submission is one review-posting attempt by an account against a listing.
type Submission struct {
	ID            string          `json:"id"`
	ListingID     string          `json:"listing_id"`
	AccountID     string          `json:"account_id"`
	ContributorID string          `json:"contributor_id"`
	SectorID      string          `json:"sector_id"`
	State         SubmissionState `json:"state"`
	StartedAt     time.Time       `json:"started_at"`
	ResolvedAt    time.Time       `json:"resolved_at,omitempty"`
}
