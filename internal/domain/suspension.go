package domain

import "time"

// ─── Suspension & Geo-Policy Types ──────────────────────────────────────────

// Suspension level bounds. A new automatic suspension starts at MinLevel;
// recidivism escalates up to MaxLevel, never beyond.
const (
	MinSuspensionLevel = 1
	MaxSuspensionLevel = 5
)

// SuspensionRecord is one suspension of a contributor. ResolvedAt is the
// zero time while the suspension is active.
type SuspensionRecord struct {
	ID            string    `json:"id"`
	ContributorID string    `json:"contributor_id"`
	Level         int       `json:"level"` // [1,5]
	Reason        string    `json:"reason"`
	Country       string    `json:"country,omitempty"` // detected/declared ISO2
	Manual        bool      `json:"manual"`
	CreatedAt     time.Time `json:"created_at"`
	ResolvedAt    time.Time `json:"resolved_at,omitempty"`
}

// Active reports whether the record is still in force.
func (r SuspensionRecord) Active() bool {
	return r.ResolvedAt.IsZero()
}

// SuspensionConfig is the versioned, hot-reloadable policy for automatic
// suspensions and geo restrictions. Exemption and block lists are checked
// before any detection logic runs.
type SuspensionConfig struct {
	Version                  int             `json:"version"`
	Enabled                  bool            `json:"is_enabled"`
	AutoSuspendEnabled       bool            `json:"auto_suspend_enabled"`
	MaxWarningsBeforeSuspend int             `json:"max_warnings_before_suspend"`
	ExemptedCountries        map[string]bool `json:"exempted_countries"` // ISO2
	BlockedCountries         map[string]bool `json:"blocked_countries"`  // ISO2
	ExemptedUserIDs          map[string]bool `json:"exempted_user_ids"`
}

// DefaultSuspensionConfig returns the platform's shipped policy defaults.
func DefaultSuspensionConfig() SuspensionConfig {
	return SuspensionConfig{
		Version:                  1,
		Enabled:                  true,
		AutoSuspendEnabled:       true,
		MaxWarningsBeforeSuspend: 3,
		ExemptedCountries:        map[string]bool{},
		BlockedCountries:         map[string]bool{},
		ExemptedUserIDs:          map[string]bool{},
	}
}

// Exempted reports whether automatic detection must be suppressed for the
// given contributor. Config disablement counts as a blanket exemption.
func (c SuspensionConfig) Exempted(contributorID, country string) bool {
	if !c.Enabled {
		return true
	}
	if c.ExemptedUserIDs[contributorID] {
		return true
	}
	return c.ExemptedCountries[country]
}

// CountryBlocked reports whether registration from the country is refused
// outright. Evaluated at account creation, never at submission time.
func (c SuspensionConfig) CountryBlocked(country string) bool {
	return c.BlockedCountries[country]
}

// ViolationOutcome describes what a reported violation resulted in.
type ViolationOutcome string

const (
	OutcomeExempted  ViolationOutcome = "EXEMPTED"
	OutcomeWarned    ViolationOutcome = "WARNED"
	OutcomeSuspended ViolationOutcome = "SUSPENDED"
	OutcomeEscalated ViolationOutcome = "ESCALATED"
	OutcomeIgnored   ViolationOutcome = "IGNORED" // already suspended, auto-escalation off
)
