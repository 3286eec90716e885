package domain

import "time"

// ─── Eligibility Types ──────────────────────────────────────────────────────
// Policy denials are successful evaluations with CanTake=false, never
// errors. The caller surfaces exactly one reason, so evaluation order is
// part of the contract.

// Reason is a wire-level denial code. Names are frozen for compatibility
// with existing calling surfaces; DAILY_LIMIT_REACHED is historically named
// but represents the account's global MONTHLY ceiling.
type Reason string

const (
	ReasonNotFound            Reason = "NOT_FOUND"
	ReasonAccountNotFound     Reason = "GMAIL_NOT_FOUND"
	ReasonLevelInsufficient   Reason = "LEVEL_INSUFFICIENT"
	ReasonComplianceLow       Reason = "COMPLIANCE_LOW"
	ReasonSectorCooldown      Reason = "SECTOR_COOLDOWN"
	ReasonSectorQuotaExceeded Reason = "SECTOR_QUOTA_EXCEEDED"
	ReasonDailyLimitReached   Reason = "DAILY_LIMIT_REACHED"
)

// EligibilityDetails carries enough context for the caller to explain the
// denial and offer remediation.
type EligibilityDetails struct {
	NextAvailableDate *time.Time `json:"next_available_date,omitempty"`
	Used              int        `json:"used,omitempty"`
	Max               int        `json:"max,omitempty"`
	RequiredLevel     TrustLevel `json:"required_level,omitempty"`
	CurrentLevel      TrustLevel `json:"current_level,omitempty"`
	Alternatives      []string   `json:"alternatives,omitempty"` // other eligible account ids
}

// EligibilityResult is the single decision consumed by calling surfaces
// before a contributor may proceed to the submission form.
type EligibilityResult struct {
	CanTake bool                `json:"can_take"`
	Reason  Reason              `json:"reason,omitempty"`
	Message string              `json:"message"`
	Details *EligibilityDetails `json:"details,omitempty"`
}

// Allowed is the canonical positive result.
func Allowed() EligibilityResult {
	return EligibilityResult{CanTake: true, Message: "eligible"}
}

// Denied builds a negative result with the given reason and details.
func Denied(reason Reason, message string, details *EligibilityDetails) EligibilityResult {
	return EligibilityResult{CanTake: false, Reason: reason, Message: message, Details: details}
}
