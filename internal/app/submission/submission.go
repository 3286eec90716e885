// Package submission coordinates the write path of the engine: starting a
// submission (evaluate → claim → reserve), and finalizing it on the
// moderation outcome (accept → commit+mark, reject → exact rollback).
//
// Quota commit and cooldown mark are applied together under a per-account
// lock: a partial application (quota moved but cooldown not marked, or the
// reverse) would give the next evaluation an inconsistent view.
package submission

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/localboost/localboost/internal/app/eligibility"
	"github.com/localboost/localboost/internal/domain"
	"github.com/localboost/localboost/internal/infra/anomaly"
	"github.com/localboost/localboost/internal/infra/claim"
	"github.com/localboost/localboost/internal/infra/cooldown"
	"github.com/localboost/localboost/internal/infra/observability"
	"github.com/localboost/localboost/internal/infra/quota"
	"github.com/localboost/localboost/internal/infra/suspension"
)

// Store persists submissions and earnings. The sqlite store implements
// it; a nil Store keeps the pipeline purely in-memory (tests).
type Store interface {
	SaveSubmission(s domain.Submission) error
	AppendEarning(e domain.EarningEntry) error
}

// Config controls pipeline behavior.
type Config struct {
	ClaimTTL    time.Duration // exclusive claim duration (default: 30m)
	PayoutCents int64         // payout per validated review
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		ClaimTTL:    30 * time.Minute,
		PayoutCents: 250,
	}
}

// Pipeline drives submissions from start through moderation outcome.
type Pipeline struct {
	config      Config
	evaluator   *eligibility.Evaluator
	ledger      *quota.Ledger
	cooldowns   *cooldown.Tracker
	claims      *claim.Arbiter
	suspensions *suspension.Manager
	listings    domain.ListingStore
	store       Store             // optional, may be nil
	detector    *anomaly.Detector // optional, may be nil

	mu      sync.Mutex
	pending map[string]*domain.Submission // submissionID → pending submission
	daily   map[string]int                // listingID|day → accepted count

	accountLocks sync.Map // accountID → *sync.Mutex

	// Injectable clock for testing.
	now func() time.Time
}

// NewPipeline creates the submission pipeline.
func NewPipeline(
	cfg Config,
	evaluator *eligibility.Evaluator,
	ledger *quota.Ledger,
	cooldowns *cooldown.Tracker,
	claims *claim.Arbiter,
	suspensions *suspension.Manager,
	listings domain.ListingStore,
	store Store,
) *Pipeline {
	return &Pipeline{
		config:      cfg,
		evaluator:   evaluator,
		ledger:      ledger,
		cooldowns:   cooldowns,
		claims:      claims,
		suspensions: suspensions,
		listings:    listings,
		store:       store,
		pending:     make(map[string]*domain.Submission),
		daily:       make(map[string]int),
		now:         time.Now,
	}
}

// SetDetector attaches a behavior anomaly detector. Detections are
// advisory: they land in logs and metrics, never in the decision path.
func (p *Pipeline) SetDetector(d *anomaly.Detector) {
	p.detector = d
}

// ─── Start ──────────────────────────────────────────────────────────────────

// Start opens a submission: runs the full eligibility evaluation, acquires
// the listing claim, and reserves one quota unit. On a policy denial the
// returned result carries the reason and no submission is created; an
// error means a hard refusal (suspension, conflict, configuration gap).
func (p *Pipeline) Start(listingID, accountID, contributorID string) (*domain.Submission, domain.EligibilityResult, error) {
	now := p.now()

	if p.suspensions != nil && p.suspensions.IsSuspended(contributorID) {
		return nil, domain.EligibilityResult{}, domain.ErrContributorSuspended
	}

	listing, err := p.listings.GetListing(listingID)
	if err != nil {
		return nil, domain.EligibilityResult{}, err
	}
	if listing.Complete() {
		return nil, domain.EligibilityResult{}, domain.ErrListingComplete
	}
	if listing.ReviewsPerDay > 0 {
		p.mu.Lock()
		accepted := p.daily[dayKey(listingID, now)]
		p.mu.Unlock()
		if accepted >= listing.ReviewsPerDay {
			return nil, domain.EligibilityResult{}, domain.ErrDailyCapReached
		}
	}

	result, err := p.evaluator.Evaluate(listingID, accountID, contributorID, now)
	if err != nil {
		return nil, domain.EligibilityResult{}, err
	}
	observability.RecordDecision(string(result.Reason))
	if !result.CanTake {
		return nil, result, nil
	}

	grant := p.claims.TryAcquire(listingID, contributorID, p.config.ClaimTTL)
	if !grant.OK {
		observability.ClaimAcquisitions.WithLabelValues("conflict").Inc()
		return nil, domain.EligibilityResult{}, domain.ErrClaimHeld
	}
	observability.ClaimAcquisitions.WithLabelValues("granted").Inc()

	if err := p.ledger.Reserve(accountID, listing.SectorID, now); err != nil {
		p.claims.Release(listingID, contributorID)
		return nil, domain.EligibilityResult{}, err
	}
	observability.QuotaEvents.WithLabelValues("reserve").Inc()

	sub := &domain.Submission{
		ID:            uuid.NewString(),
		ListingID:     listingID,
		AccountID:     accountID,
		ContributorID: contributorID,
		SectorID:      listing.SectorID,
		State:         domain.SubmissionPending,
		StartedAt:     now,
	}

	p.mu.Lock()
	p.pending[sub.ID] = sub
	p.mu.Unlock()
	observability.SubmissionsInFlight.Inc()

	p.persist(*sub)

	if p.detector != nil {
		p.noteAnomaly(p.detector.Observe(contributorID, now))
	}
	return sub, result, nil
}

// ─── Moderation Outcomes ────────────────────────────────────────────────────

// Accept finalizes a submission on a moderator's validation: the quota
// reservation commits, the cooldown mark lands, the listing's received
// count moves, the claim drops, and the contributor is paid. Commit and
// mark happen under the account's lock as one unit.
func (p *Pipeline) Accept(submissionID string) error {
	now := p.now()

	sub, err := p.takePending(submissionID)
	if err != nil {
		return err
	}

	lock := p.lockAccount(sub.AccountID)
	lock.Lock()
	p.ledger.Commit(sub.AccountID, sub.SectorID, now)
	p.cooldowns.Mark(sub.AccountID, sub.SectorID, now)
	lock.Unlock()
	observability.QuotaEvents.WithLabelValues("commit").Inc()

	if err := p.listings.IncrementReviews(sub.ListingID); err != nil {
		log.Printf("submission: increment reviews for listing=%s: %v", sub.ListingID, err)
	}

	p.mu.Lock()
	p.daily[dayKey(sub.ListingID, now)]++
	p.mu.Unlock()

	p.claims.Release(sub.ListingID, sub.ContributorID)
	observability.SubmissionsInFlight.Dec()

	sub.State = domain.SubmissionAccepted
	sub.ResolvedAt = now
	p.persist(sub)

	if p.store != nil {
		err := p.store.AppendEarning(domain.EarningEntry{
			Timestamp:     now,
			Type:          domain.EarnReview,
			ContributorID: sub.ContributorID,
			SubmissionID:  sub.ID,
			AmountCents:   p.config.PayoutCents,
			Description:   fmt.Sprintf("validated review on listing %s", sub.ListingID),
		})
		if err != nil {
			log.Printf("submission: append earning for %s: %v", sub.ID, err)
		}
	}

	if p.detector != nil {
		p.noteAnomaly(p.detector.RecordOutcome(sub.ContributorID, true))
	}
	return nil
}

// Reject rolls back a submission on a moderator's refusal. The rollback
// is exact: committed usage never moves, only the pending reservation is
// released. A reservation whose period already rolled over releases as a
// logged no-op — never an error.
func (p *Pipeline) Reject(submissionID string) error {
	now := p.now()

	sub, err := p.takePending(submissionID)
	if err != nil {
		return err
	}

	p.ledger.Release(sub.AccountID, sub.SectorID, now)
	observability.QuotaEvents.WithLabelValues("release").Inc()

	p.claims.Release(sub.ListingID, sub.ContributorID)
	observability.SubmissionsInFlight.Dec()

	sub.State = domain.SubmissionRejected
	sub.ResolvedAt = now
	p.persist(sub)

	if p.detector != nil {
		p.noteAnomaly(p.detector.RecordOutcome(sub.ContributorID, false))
	}
	return nil
}

// Abandon releases an in-flight submission whose contributor walked away.
// Same rollback semantics as a rejection.
func (p *Pipeline) Abandon(submissionID string) error {
	return p.Reject(submissionID)
}

// ─── Queries ────────────────────────────────────────────────────────────────

// Pending returns the number of submissions awaiting moderation.
func (p *Pipeline) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Restore re-seeds in-memory pipeline state from one logged submission at
// boot. Pending submissions become acceptable again; accepted ones feed
// the per-day listing counters. Claims are not restored: a restart drops
// all claims and holders re-acquire on their next action.
func (p *Pipeline) Restore(sub domain.Submission) {
	switch sub.State {
	case domain.SubmissionPending:
		s := sub
		p.mu.Lock()
		p.pending[s.ID] = &s
		p.mu.Unlock()
		observability.SubmissionsInFlight.Inc()
	case domain.SubmissionAccepted:
		p.mu.Lock()
		p.daily[dayKey(sub.ListingID, sub.ResolvedAt)]++
		p.mu.Unlock()
	}
}

// ─── Internal ───────────────────────────────────────────────────────────────

func (p *Pipeline) takePending(submissionID string) (domain.Submission, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sub, ok := p.pending[submissionID]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	delete(p.pending, submissionID)
	return *sub, nil
}

func (p *Pipeline) lockAccount(accountID string) *sync.Mutex {
	v, _ := p.accountLocks.LoadOrStore(accountID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (p *Pipeline) persist(sub domain.Submission) {
	if p.store == nil {
		return
	}
	if err := p.store.SaveSubmission(sub); err != nil {
		log.Printf("submission: persist %s: %v", sub.ID, err)
	}
}

func (p *Pipeline) noteAnomaly(res anomaly.Result) {
	if !res.IsAnomaly {
		return
	}
	observability.AnomalyDetections.WithLabelValues(res.TypeName).Inc()
	log.Printf("submission: anomaly %s (%s) contributor=%s: %s",
		res.TypeName, res.SeverityName, res.ContributorID, res.Detail)
}

func dayKey(listingID string, now time.Time) string {
	return listingID + "|" + domain.DayKey(now)
}
