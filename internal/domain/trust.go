package domain

import "time"

// ─── Trust Score Types ──────────────────────────────────────────────────────
// Composite anti-fraud confidence rating per contributor. Gates sector
// access (difficulty floors) and the global monthly review ceiling.

// TrustLevel is the tier derived from the final score.
type TrustLevel string

const (
	TrustBlocked  TrustLevel = "BLOCKED"
	TrustBronze   TrustLevel = "BRONZE"
	TrustSilver   TrustLevel = "SILVER"
	TrustGold     TrustLevel = "GOLD"
	TrustPlatinum TrustLevel = "PLATINUM"
)

// TrustBreakdown itemizes the score composition for operator display.
type TrustBreakdown struct {
	EmailScore        int `json:"email_score"`        // 0–30, identity signal quality
	MapsProfileScore  int `json:"maps_profile_score"` // 0–60, external profile strength
	VerificationBonus int `json:"verification_bonus"` // 0–10, completed identity checks
	Penalties         int `json:"penalties"`          // subtracted, uncapped
}

// TrustScore is the cached, precomputed trust state for one contributor.
// Recomputed on signal change — never derived lazily at submission time.
type TrustScore struct {
	ContributorID      string         `json:"contributor_id"`
	FinalScore         int            `json:"final_score"` // [0,100]
	Level              TrustLevel     `json:"trust_level"`
	Breakdown          TrustBreakdown `json:"breakdown"`
	MaxReviewsPerMonth int            `json:"max_reviews_per_month"` // UnlimitedPerMonth = no cap
	ComputedAt         time.Time      `json:"computed_at"`
}

// LevelForScore maps a final score onto its trust tier.
func LevelForScore(score int) TrustLevel {
	switch {
	case score <= 20:
		return TrustBlocked
	case score <= 40:
		return TrustBronze
	case score <= 65:
		return TrustSilver
	case score <= 85:
		return TrustGold
	default:
		return TrustPlatinum
	}
}

// CeilingForLevel maps a trust tier onto its global monthly review ceiling.
func CeilingForLevel(level TrustLevel) int {
	switch level {
	case TrustBlocked:
		return 0
	case TrustBronze:
		return 10
	case TrustSilver:
		return 30
	case TrustGold:
		return 60
	case TrustPlatinum:
		return UnlimitedPerMonth
	default:
		return 0
	}
}

// FloorForDifficulty returns the minimum trust tier required to work a
// sector of the given difficulty. Easy sectors have no floor — the global
// compliance check still screens out BLOCKED contributors.
func FloorForDifficulty(d Difficulty) TrustLevel {
	switch d {
	case DifficultyMedium:
		return TrustSilver
	case DifficultyHard:
		return TrustGold
	default:
		return TrustBlocked
	}
}

// levelRank orders tiers for floor comparisons.
var levelRank = map[TrustLevel]int{
	TrustBlocked:  0,
	TrustBronze:   1,
	TrustSilver:   2,
	TrustGold:     3,
	TrustPlatinum: 4,
}

// MeetsFloor reports whether level satisfies the required minimum tier.
func MeetsFloor(level, floor TrustLevel) bool {
	return levelRank[level] >= levelRank[floor]
}
