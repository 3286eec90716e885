// Package anomaly watches contributor submission behavior and flags
// patterns that look automated or abusive: rapid-fire starts, bursts far
// outside a contributor's own pace baseline, and rejection streaks.
//
// The detector is advisory. It never blocks a submission itself; the
// pipeline records its findings and the suspension console acts on them.
package anomaly

import (
	"math"
	"sync"
	"time"
)

// ─── Types ──────────────────────────────────────────────────────────────────

// AnomalyType classifies a detected anomaly.
type AnomalyType int

const (
	AnomalyNone AnomalyType = iota
	AnomalyRapidFire
	AnomalyVelocityBurst
	AnomalyRejectStreak
)

func (at AnomalyType) String() string {
	switch at {
	case AnomalyNone:
		return "NONE"
	case AnomalyRapidFire:
		return "RAPID_FIRE"
	case AnomalyVelocityBurst:
		return "VELOCITY_BURST"
	case AnomalyRejectStreak:
		return "REJECT_STREAK"
	default:
		return "UNKNOWN"
	}
}

// Severity grades how actionable an anomaly is.
type Severity int

const (
	SevInfo Severity = iota
	SevWarning
	SevCritical
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Result reports the outcome of analyzing one event.
type Result struct {
	IsAnomaly     bool        `json:"is_anomaly"`
	Type          AnomalyType `json:"-"`
	TypeName      string      `json:"type"`
	Severity      Severity    `json:"-"`
	SeverityName  string      `json:"severity"`
	ContributorID string      `json:"contributor_id"`
	Detail        string      `json:"detail,omitempty"`
}

// ContributorProfile holds the running behavior baseline for one
// contributor. Gap statistics use Welford's online algorithm over the
// seconds between consecutive submission starts.
type ContributorProfile struct {
	ContributorID string `json:"contributor_id"`

	GapCount int     `json:"gap_count"`
	GapMean  float64 `json:"gap_mean_seconds"`
	gapM2    float64

	AcceptCount        int `json:"accept_count"`
	RejectCount        int `json:"reject_count"`
	ConsecutiveRejects int `json:"consecutive_rejects"`

	ConsecutiveAnomalies int       `json:"consecutive_anomalies"`
	LastSubmission       time.Time `json:"last_submission"`
	LastSeen             time.Time `json:"last_seen"`
}

// GapStddev returns the standard deviation of inter-submission gaps in
// seconds. Zero until at least two gaps have been observed.
func (p *ContributorProfile) GapStddev() float64 {
	if p.GapCount < 2 {
		return 0
	}
	return math.Sqrt(p.gapM2 / float64(p.GapCount-1))
}

// AcceptRate returns the fraction of resolved submissions that were
// accepted. A contributor with no resolutions yet rates 1.0.
func (p *ContributorProfile) AcceptRate() float64 {
	total := p.AcceptCount + p.RejectCount
	if total == 0 {
		return 1.0
	}
	return float64(p.AcceptCount) / float64(total)
}

func (p *ContributorProfile) observeGap(gap time.Duration) {
	secs := gap.Seconds()
	p.GapCount++
	delta := secs - p.GapMean
	p.GapMean += delta / float64(p.GapCount)
	p.gapM2 += delta * (secs - p.GapMean)
}

// Flag is an abuse report against a contributor, deduplicated on
// (contributor, reason).
type Flag struct {
	ContributorID string    `json:"contributor_id"`
	Reason        string    `json:"reason"`
	Source        string    `json:"source"`
	ReportedAt    time.Time `json:"reported_at"`
}

// Stats summarizes detector state.
type Stats struct {
	ProfileCount   int `json:"profile_count"`
	TotalAnomalies int `json:"total_anomalies"`
	FlagCount      int `json:"flag_count"`
}

// ─── Detector ───────────────────────────────────────────────────────────────

const (
	// MaxConsecutiveAnomalies escalates any further anomaly to critical.
	MaxConsecutiveAnomalies = 3

	// ProfileExpiryDays is how long an idle profile is retained.
	ProfileExpiryDays = 90
)

// DetectorConfig sets detection thresholds.
type DetectorConfig struct {
	// MinGap is the floor between two starts by the same contributor.
	// Anything faster is rapid fire regardless of baseline.
	MinGap time.Duration

	// BurstZScore is how many standard deviations below the baseline
	// mean a gap must fall to count as a velocity burst.
	BurstZScore float64

	// MinSamples is the number of gaps needed before the baseline is
	// trusted for burst detection.
	MinSamples int

	// RejectStreakLimit is the consecutive-rejection count that trips
	// the reject-streak anomaly.
	RejectStreakLimit int
}

// DefaultDetectorConfig returns production thresholds.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		MinGap:            30 * time.Second,
		BurstZScore:       3.0,
		MinSamples:        10,
		RejectStreakLimit: 3,
	}
}

// Detector tracks per-contributor behavior baselines and an abuse flag
// feed. Safe for concurrent use.
type Detector struct {
	config DetectorConfig

	mu             sync.RWMutex
	profiles       map[string]*ContributorProfile
	flags          map[string]Flag // contributorID|reason → flag
	totalAnomalies int

	// Injectable clock for testing.
	now func() time.Time
}

// NewDetector creates a detector with the given thresholds.
func NewDetector(cfg DetectorConfig) *Detector {
	return &Detector{
		config:   cfg,
		profiles: make(map[string]*ContributorProfile),
		flags:    make(map[string]Flag),
		now:      time.Now,
	}
}

// Observe records one submission start and checks it against the
// contributor's pace baseline. The first start for a contributor only
// seeds the profile.
func (d *Detector) Observe(contributorID string, at time.Time) Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := d.profile(contributorID)
	defer func() {
		p.LastSubmission = at
		p.LastSeen = d.now()
	}()

	if p.LastSubmission.IsZero() {
		return d.clean(p, contributorID)
	}

	gap := at.Sub(p.LastSubmission)
	if gap < 0 {
		gap = 0
	}

	if gap < d.config.MinGap {
		return d.anomaly(p, contributorID, AnomalyRapidFire, SevCritical,
			"start gap "+gap.String()+" below floor "+d.config.MinGap.String())
	}

	mean, stddev, samples := p.GapMean, p.GapStddev(), p.GapCount
	p.observeGap(gap)

	if samples >= d.config.MinSamples && stddev > 0 {
		if z := (mean - gap.Seconds()) / stddev; z > d.config.BurstZScore {
			return d.anomaly(p, contributorID, AnomalyVelocityBurst, SevWarning,
				"gap far below contributor baseline")
		}
	}
	return d.clean(p, contributorID)
}

// RecordOutcome feeds a moderation result back into the contributor's
// profile and checks for rejection streaks.
func (d *Detector) RecordOutcome(contributorID string, accepted bool) Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := d.profile(contributorID)
	p.LastSeen = d.now()

	if accepted {
		p.AcceptCount++
		p.ConsecutiveRejects = 0
		return d.clean(p, contributorID)
	}

	p.RejectCount++
	p.ConsecutiveRejects++
	if p.ConsecutiveRejects >= d.config.RejectStreakLimit {
		return d.anomaly(p, contributorID, AnomalyRejectStreak, SevWarning,
			"consecutive rejections reached streak limit")
	}
	return d.clean(p, contributorID)
}

// ─── Flag Feed ──────────────────────────────────────────────────────────────

// ReportFlag files an abuse report. Duplicate (contributor, reason)
// pairs collapse into one flag; the first report wins.
func (d *Detector) ReportFlag(contributorID, reason, source string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := contributorID + "|" + reason
	if _, ok := d.flags[key]; ok {
		return
	}
	d.flags[key] = Flag{
		ContributorID: contributorID,
		Reason:        reason,
		Source:        source,
		ReportedAt:    d.now(),
	}
}

// IsFlagged reports whether any abuse flag exists for the contributor.
func (d *Detector) IsFlagged(contributorID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, f := range d.flags {
		if f.ContributorID == contributorID {
			return true
		}
	}
	return false
}

// FlagFeed returns all filed flags.
func (d *Detector) FlagFeed() []Flag {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Flag, 0, len(d.flags))
	for _, f := range d.flags {
		out = append(out, f)
	}
	return out
}

// ─── Queries ────────────────────────────────────────────────────────────────

// GetProfile returns a copy of the contributor's profile, or nil if the
// contributor has never been observed.
func (d *Detector) GetProfile(contributorID string) *ContributorProfile {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.profiles[contributorID]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// ProfileCount returns the number of tracked contributors.
func (d *Detector) ProfileCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.profiles)
}

// Stats summarizes detector state.
func (d *Detector) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Stats{
		ProfileCount:   len(d.profiles),
		TotalAnomalies: d.totalAnomalies,
		FlagCount:      len(d.flags),
	}
}

// CleanupStaleProfiles drops profiles idle for longer than the expiry
// window and returns how many were removed.
func (d *Detector) CleanupStaleProfiles() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := d.now().Add(-ProfileExpiryDays * 24 * time.Hour)
	removed := 0
	for id, p := range d.profiles {
		if p.LastSeen.Before(cutoff) {
			delete(d.profiles, id)
			removed++
		}
	}
	return removed
}

// ─── Internal ───────────────────────────────────────────────────────────────

func (d *Detector) profile(contributorID string) *ContributorProfile {
	p, ok := d.profiles[contributorID]
	if !ok {
		p = &ContributorProfile{ContributorID: contributorID}
		d.profiles[contributorID] = p
	}
	return p
}

func (d *Detector) clean(p *ContributorProfile, contributorID string) Result {
	p.ConsecutiveAnomalies = 0
	return Result{
		Type:          AnomalyNone,
		TypeName:      AnomalyNone.String(),
		SeverityName:  SevInfo.String(),
		ContributorID: contributorID,
	}
}

func (d *Detector) anomaly(p *ContributorProfile, contributorID string, at AnomalyType, sev Severity, detail string) Result {
	p.ConsecutiveAnomalies++
	d.totalAnomalies++
	if p.ConsecutiveAnomalies >= MaxConsecutiveAnomalies {
		sev = SevCritical
	}
	return Result{
		IsAnomaly:     true,
		Type:          at,
		TypeName:      at.String(),
		Severity:      sev,
		SeverityName:  sev.String(),
		ContributorID: contributorID,
		Detail:        detail,
	}
}
