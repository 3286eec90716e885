// Package eligibility orchestrates the policy components into a single
// submission-eligibility decision.
//
// The evaluation is an ordered list of pure predicate checks over an
// immutable, prefetched context — first failing check wins, because the
// calling surface displays exactly one reason. The evaluator never
// mutates state: it is safe to call on every account-selector change.
//
// Check order (part of the wire contract):
//  1. listing exists                    → NOT_FOUND
//  2. account exists, owned, enabled    → GMAIL_NOT_FOUND
//  3. trust floor for sector difficulty → LEVEL_INSUFFICIENT
//  4. global compliance floor           → COMPLIANCE_LOW
//  5. sector cooldown elapsed           → SECTOR_COOLDOWN
//  6. sector monthly quota              → SECTOR_QUOTA_EXCEEDED
//  7. account global monthly quota      → DAILY_LIMIT_REACHED
//
// DAILY_LIMIT_REACHED is a frozen wire name: it represents the MONTHLY
// global ceiling, not a daily one.
package eligibility

import (
	"errors"
	"fmt"
	"time"

	"github.com/localboost/localboost/internal/domain"
	"github.com/localboost/localboost/internal/infra/cooldown"
	"github.com/localboost/localboost/internal/infra/quota"
	"github.com/localboost/localboost/internal/infra/trust"
)

// Evaluator wires the policy components behind one Evaluate entry point.
type Evaluator struct {
	listings  domain.ListingStore
	accounts  domain.AccountStore
	sectors   domain.SectorStore
	trust     *trust.Engine
	ledger    *quota.Ledger
	cooldowns *cooldown.Tracker
}

// New creates an eligibility evaluator.
func New(
	listings domain.ListingStore,
	accounts domain.AccountStore,
	sectors domain.SectorStore,
	trustEngine *trust.Engine,
	ledger *quota.Ledger,
	cooldowns *cooldown.Tracker,
) *Evaluator {
	return &Evaluator{
		listings:  listings,
		accounts:  accounts,
		sectors:   sectors,
		trust:     trustEngine,
		ledger:    ledger,
		cooldowns: cooldowns,
	}
}

// ─── Evaluation Context ─────────────────────────────────────────────────────

// evalContext is the immutable arena of prefetched inputs the check chain
// runs over. Nil fields mean the lookup found nothing.
type evalContext struct {
	listing       *domain.Listing
	sector        *domain.Sector
	account       *domain.ContributorAccount
	contributorID string
	score         domain.TrustScore
	snapshot      domain.QuotaSnapshot
	nextAvailable time.Time
	coolingDown   bool
	now           time.Time
}

// A check inspects the context and returns a denial, or nil to pass.
type check struct {
	name string
	run  func(*evalContext) *domain.EligibilityResult
}

// checks is the ordered chain. Order is the contract — see package doc.
var checks = []check{
	{"listing_exists", checkListingExists},
	{"account_owned", checkAccountOwned},
	{"trust_floor", checkTrustFloor},
	{"compliance_floor", checkComplianceFloor},
	{"sector_cooldown", checkSectorCooldown},
	{"sector_quota", checkSectorQuota},
	{"global_quota", checkGlobalQuota},
}

// ─── Entry Point ────────────────────────────────────────────────────────────

// Evaluate decides whether the given account may start a submission
// against the listing right now. Policy denials come back as results with
// CanTake=false; the error return is reserved for infrastructure failures.
//
// On denial, Details.Alternatives lists the contributor's other accounts
// that would pass every check for the same listing.
func (ev *Evaluator) Evaluate(listingID, accountID, contributorID string, now time.Time) (domain.EligibilityResult, error) {
	ctx, err := ev.buildContext(listingID, accountID, contributorID, now)
	if err != nil {
		return domain.EligibilityResult{}, err
	}

	result := runChecks(ctx)
	if result.CanTake {
		return result, nil
	}

	// Only suggest alternatives when the account itself was resolvable —
	// an unknown listing has no useful remediation.
	if ctx.listing != nil {
		alts, err := ev.alternatives(ctx, listingID, accountID, contributorID, now)
		if err == nil && len(alts) > 0 {
			if result.Details == nil {
				result.Details = &domain.EligibilityDetails{}
			}
			result.Details.Alternatives = alts
		}
	}
	return result, nil
}

func runChecks(ctx *evalContext) domain.EligibilityResult {
	for _, c := range checks {
		if denial := c.run(ctx); denial != nil {
			return *denial
		}
	}
	return domain.Allowed()
}

// ─── Context Construction ───────────────────────────────────────────────────

func (ev *Evaluator) buildContext(listingID, accountID, contributorID string, now time.Time) (*evalContext, error) {
	ctx := &evalContext{contributorID: contributorID, now: now}

	listing, err := ev.listings.GetListing(listingID)
	switch {
	case errors.Is(err, domain.ErrListingNotFound):
		// Leave ctx.listing nil; the chain reports NOT_FOUND.
	case err != nil:
		return nil, fmt.Errorf("resolve listing: %w", err)
	default:
		ctx.listing = listing
	}

	if ctx.listing != nil {
		sector, err := ev.sectors.GetSector(ctx.listing.SectorID)
		switch {
		case errors.Is(err, domain.ErrSectorNotFound):
			// Missing sector config: no cooldown/quota restriction on the
			// read path. The write path refuses separately.
		case err != nil:
			return nil, fmt.Errorf("resolve sector: %w", err)
		default:
			ctx.sector = sector
		}
	}

	account, err := ev.accounts.GetAccount(accountID)
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		// Leave ctx.account nil; the chain reports GMAIL_NOT_FOUND.
	case err != nil:
		return nil, fmt.Errorf("resolve account: %w", err)
	default:
		ctx.account = account
	}

	ctx.score = ev.trust.GetCurrent(contributorID)

	if ctx.account != nil && ctx.sector != nil {
		ctx.snapshot = ev.ledger.Snapshot(accountID, ctx.sector.ID, now)
		if next, blocked := ev.cooldowns.NextAvailable(accountID, ctx.sector.ID, ctx.sector.CooldownDays, now); blocked {
			ctx.nextAvailable = next
			ctx.coolingDown = true
		}
	}
	return ctx, nil
}

// alternatives re-runs the chain for each of the contributor's other
// enabled accounts and returns those that pass everything.
func (ev *Evaluator) alternatives(base *evalContext, listingID, failedAccountID, contributorID string, now time.Time) ([]string, error) {
	accounts, err := ev.accounts.AccountsByContributor(contributorID)
	if err != nil {
		return nil, err
	}

	var eligible []string
	for _, acc := range accounts {
		if acc.ID == failedAccountID || acc.Disabled {
			continue
		}
		ctx, err := ev.buildContext(listingID, acc.ID, contributorID, now)
		if err != nil {
			continue
		}
		if runChecks(ctx).CanTake {
			eligible = append(eligible, acc.ID)
		}
	}
	return eligible, nil
}

// ─── Checks ─────────────────────────────────────────────────────────────────

func checkListingExists(ctx *evalContext) *domain.EligibilityResult {
	if ctx.listing == nil {
		r := domain.Denied(domain.ReasonNotFound, "listing does not exist", nil)
		return &r
	}
	return nil
}

func checkAccountOwned(ctx *evalContext) *domain.EligibilityResult {
	if ctx.account == nil || ctx.account.Disabled || ctx.account.ContributorID != ctx.contributorID {
		r := domain.Denied(domain.ReasonAccountNotFound, "account not found for this contributor", nil)
		return &r
	}
	return nil
}

func checkTrustFloor(ctx *evalContext) *domain.EligibilityResult {
	if ctx.sector == nil {
		return nil
	}
	floor := domain.FloorForDifficulty(ctx.sector.Difficulty)
	if domain.MeetsFloor(ctx.score.Level, floor) {
		return nil
	}
	r := domain.Denied(domain.ReasonLevelInsufficient,
		fmt.Sprintf("sector difficulty %s requires trust level %s", ctx.sector.Difficulty, floor),
		&domain.EligibilityDetails{RequiredLevel: floor, CurrentLevel: ctx.score.Level})
	return &r
}

func checkComplianceFloor(ctx *evalContext) *domain.EligibilityResult {
	if ctx.score.Level != domain.TrustBlocked {
		return nil
	}
	r := domain.Denied(domain.ReasonComplianceLow,
		"compliance score below the platform floor",
		&domain.EligibilityDetails{CurrentLevel: ctx.score.Level})
	return &r
}

func checkSectorCooldown(ctx *evalContext) *domain.EligibilityResult {
	if !ctx.coolingDown {
		return nil
	}
	next := ctx.nextAvailable
	r := domain.Denied(domain.ReasonSectorCooldown,
		fmt.Sprintf("account cooling down in sector until %s", next.Format(time.DateOnly)),
		&domain.EligibilityDetails{NextAvailableDate: &next})
	return &r
}

func checkSectorQuota(ctx *evalContext) *domain.EligibilityResult {
	if ctx.sector == nil {
		return nil
	}
	if ctx.snapshot.SectorUsed < ctx.snapshot.SectorMax {
		return nil
	}
	r := domain.Denied(domain.ReasonSectorQuotaExceeded,
		"sector monthly quota reached for this account",
		&domain.EligibilityDetails{Used: ctx.snapshot.SectorUsed, Max: ctx.snapshot.SectorMax})
	return &r
}

func checkGlobalQuota(ctx *evalContext) *domain.EligibilityResult {
	if ctx.sector == nil {
		return nil
	}
	if ctx.snapshot.GlobalMax >= domain.UnlimitedPerMonth ||
		ctx.snapshot.GlobalUsed < ctx.snapshot.GlobalMax {
		return nil
	}
	r := domain.Denied(domain.ReasonDailyLimitReached,
		"account monthly review ceiling reached",
		&domain.EligibilityDetails{Used: ctx.snapshot.GlobalUsed, Max: ctx.snapshot.GlobalMax})
	return &r
}
