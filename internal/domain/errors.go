package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Lookup errors
	ErrListingNotFound    = errors.New("listing not found")
	ErrAccountNotFound    = errors.New("account not found")
	ErrSectorNotFound     = errors.New("sector not found")
	ErrSubmissionNotFound = errors.New("submission not found")

	// Claim errors
	ErrClaimHeld = errors.New("listing claimed by another contributor")

	// Listing errors
	ErrListingComplete = errors.New("listing already reached its review quantity")
	ErrDailyCapReached = errors.New("listing daily review cap reached")

	// Configuration errors — a data gap must never silently allow
	// unlimited submissions on a write path.
	ErrSectorLimitMissing = errors.New("sector quota configuration missing")
	ErrCountryBlocked     = errors.New("registration from this country is not permitted")

	// Suspension errors
	ErrContributorSuspended = errors.New("contributor is suspended")
	ErrSuspensionNotFound   = errors.New("suspension record not found")

	// Quota errors
	ErrQuotaExhausted = errors.New("quota exhausted for this period")
)
