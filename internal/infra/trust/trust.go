// Package trust implements the composite trust score engine for
// contributors.
//
// Each contributor has 3 positive signals and a penalty accumulator:
//   - EmailScore (0–30): identity signal quality
//   - MapsProfileScore (0–60): external reviewer-profile strength —
//     older, more established profiles score higher (anti-detection
//     heuristic, not a correctness constraint)
//   - VerificationBonus (0–10): completed identity checks
//   - Penalties: uncapped, subtracted; can drive the score to 0, never
//     below
//
// finalScore = clamp(email + mapsProfile + bonus − penalties, 0, 100)
//
// The tier and the global monthly ceiling are step functions of the final
// score. Scores are recomputed whenever an underlying signal changes
// (verification event, penalty event, nightly recompute) — never computed
// lazily from stale inputs at submission time.
package trust

import (
	"sync"
	"time"

	"github.com/localboost/localboost/internal/domain"
)

// ─── Constants ──────────────────────────────────────────────────────────────

const (
	// MaxEmailScore caps the identity signal component.
	MaxEmailScore = 30

	// MaxMapsProfileScore caps the external-profile component.
	MaxMapsProfileScore = 60

	// MaxVerificationBonus caps the identity-check bonus.
	MaxVerificationBonus = 10

	// MaxFinalScore is the absolute score ceiling.
	MaxFinalScore = 100
)

// ─── Signals ────────────────────────────────────────────────────────────────

// Signals are the raw inputs a contributor's score is computed from.
// A newly created contributor has no maps-profile signal yet: the zero
// value yields BRONZE-or-lower by construction rather than an error.
type Signals struct {
	EmailScore        int `json:"email_score"`
	MapsProfileScore  int `json:"maps_profile_score"`
	VerificationBonus int `json:"verification_bonus"`
	Penalties         int `json:"penalties"`
}

// ─── Engine ─────────────────────────────────────────────────────────────────

// Engine computes and caches trust scores. Thread-safe via RWMutex.
type Engine struct {
	mu      sync.RWMutex
	signals map[string]Signals           // contributorID → raw inputs
	scores  map[string]domain.TrustScore // contributorID → cached score

	// Injectable clock for testing.
	now func() time.Time
}

// NewEngine creates a trust score engine.
func NewEngine() *Engine {
	return &Engine{
		signals: make(map[string]Signals),
		scores:  make(map[string]domain.TrustScore),
		now:     time.Now,
	}
}

// ─── Signal Updates ─────────────────────────────────────────────────────────
// Every mutation recomputes and re-caches the score immediately.

// SetSignals replaces a contributor's raw inputs wholesale and recomputes.
func (e *Engine) SetSignals(contributorID string, s Signals) domain.TrustScore {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.signals[contributorID] = s
	return e.recomputeLocked(contributorID)
}

// RecordVerification applies a completed identity check and recomputes.
func (e *Engine) RecordVerification(contributorID string, bonus int) domain.TrustScore {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.signals[contributorID]
	s.VerificationBonus = clampInt(s.VerificationBonus+bonus, 0, MaxVerificationBonus)
	e.signals[contributorID] = s
	return e.recomputeLocked(contributorID)
}

// RecordPenalty applies a penalty event and recomputes. Penalties are
// uncapped and accumulate across the contributor's lifetime.
func (e *Engine) RecordPenalty(contributorID string, points int) domain.TrustScore {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.signals[contributorID]
	if points > 0 {
		s.Penalties += points
	}
	e.signals[contributorID] = s
	return e.recomputeLocked(contributorID)
}

// SetMapsProfileScore updates the external-profile strength signal, fed
// asynchronously by the profile re-verification worker.
func (e *Engine) SetMapsProfileScore(contributorID string, score int) domain.TrustScore {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.signals[contributorID]
	s.MapsProfileScore = clampInt(score, 0, MaxMapsProfileScore)
	e.signals[contributorID] = s
	return e.recomputeLocked(contributorID)
}

// ─── Reads ──────────────────────────────────────────────────────────────────

// GetCurrent returns the cached score for a contributor. An unknown
// contributor gets a score computed from zero signals — never an error.
func (e *Engine) GetCurrent(contributorID string) domain.TrustScore {
	e.mu.RLock()
	score, ok := e.scores[contributorID]
	e.mu.RUnlock()
	if ok {
		return score
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if score, ok := e.scores[contributorID]; ok {
		return score
	}
	return e.recomputeLocked(contributorID)
}

// CurrentSignals returns the raw inputs for a contributor, zero-valued
// for unknown ids.
func (e *Engine) CurrentSignals(contributorID string) Signals {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.signals[contributorID]
}

// Recompute forces a fresh computation from current signals.
func (e *Engine) Recompute(contributorID string) domain.TrustScore {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recomputeLocked(contributorID)
}

// RecomputeAll refreshes every cached score. Invoked by the nightly
// scheduler. Returns the number of scores refreshed.
func (e *Engine) RecomputeAll() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id := range e.signals {
		e.recomputeLocked(id)
	}
	return len(e.signals)
}

// GlobalMax implements quota.Limits for the contributor's accounts: the
// trust-derived monthly ceiling, typically tighter than sector ceilings.
func (e *Engine) GlobalMax(contributorID string) int {
	return e.GetCurrent(contributorID).MaxReviewsPerMonth
}

// ─── Computation ────────────────────────────────────────────────────────────

func (e *Engine) recomputeLocked(contributorID string) domain.TrustScore {
	s := e.signals[contributorID]

	breakdown := domain.TrustBreakdown{
		EmailScore:        clampInt(s.EmailScore, 0, MaxEmailScore),
		MapsProfileScore:  clampInt(s.MapsProfileScore, 0, MaxMapsProfileScore),
		VerificationBonus: clampInt(s.VerificationBonus, 0, MaxVerificationBonus),
		Penalties:         s.Penalties,
	}

	raw := breakdown.EmailScore + breakdown.MapsProfileScore +
		breakdown.VerificationBonus - breakdown.Penalties
	final := clampInt(raw, 0, MaxFinalScore)

	level := domain.LevelForScore(final)
	score := domain.TrustScore{
		ContributorID:      contributorID,
		FinalScore:         final,
		Level:              level,
		Breakdown:          breakdown,
		MaxReviewsPerMonth: domain.CeilingForLevel(level),
		ComputedAt:         e.now(),
	}
	e.scores[contributorID] = score
	return score
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
