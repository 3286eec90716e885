package domain

import "time"

// ─── Earnings Types ─────────────────────────────────────────────────────────
// Contributors are paid per validated review. Earnings are finalized only
// on a moderator's acceptance — a rejected submission earns nothing.

// EarningType represents the business reason for an earnings entry.
type EarningType string

const (
	EarnReview  EarningType = "REVIEW"  // validated review payout
	EarnBonus   EarningType = "BONUS"   // operator-granted bonus
	EarnPenalty EarningType = "PENALTY" // deduction for policy violation
)

// EarningEntry is a single row in the contributor earnings ledger.
type EarningEntry struct {
	ID            int64       `json:"id"`
	Timestamp     time.Time   `json:"timestamp"`
	Type          EarningType `json:"type"`
	ContributorID string      `json:"contributor_id"`
	SubmissionID  string      `json:"submission_id,omitempty"`
	AmountCents   int64       `json:"amount_cents"`
	Description   string      `json:"description,omitempty"`
	BalanceCents  int64       `json:"balance_cents"`
}
