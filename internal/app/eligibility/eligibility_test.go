package eligibility

import (
	"testing"
	"time"

	"github.com/localboost/localboost/internal/domain"
	"github.com/localboost/localboost/internal/infra/cooldown"
	"github.com/localboost/localboost/internal/infra/quota"
	"github.com/localboost/localboost/internal/infra/trust"
)

// ─── Fixtures ───────────────────────────────────────────────────────────────

type fixtureStore struct {
	listings map[string]domain.Listing
	accounts map[string]domain.ContributorAccount
	sectors  map[string]domain.Sector
}

func (f *fixtureStore) GetListing(id string) (*domain.Listing, error) {
	if l, ok := f.listings[id]; ok {
		return &l, nil
	}
	return nil, domain.ErrListingNotFound
}

func (f *fixtureStore) UpsertListing(l domain.Listing) error {
	f.listings[l.ID] = l
	return nil
}

func (f *fixtureStore) IncrementReviews(id string) error {
	l := f.listings[id]
	l.ReviewsReceived++
	f.listings[id] = l
	return nil
}

func (f *fixtureStore) GetAccount(id string) (*domain.ContributorAccount, error) {
	if a, ok := f.accounts[id]; ok {
		return &a, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (f *fixtureStore) AccountsByContributor(contributorID string) ([]domain.ContributorAccount, error) {
	var out []domain.ContributorAccount
	for _, a := range f.accounts {
		if a.ContributorID == contributorID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fixtureStore) UpsertAccount(a domain.ContributorAccount) error {
	f.accounts[a.ID] = a
	return nil
}

func (f *fixtureStore) GetSector(id string) (*domain.Sector, error) {
	if s, ok := f.sectors[id]; ok {
		return &s, nil
	}
	return nil, domain.ErrSectorNotFound
}

func (f *fixtureStore) ListSectors() ([]domain.Sector, error) {
	var out []domain.Sector
	for _, s := range f.sectors {
		out = append(out, s)
	}
	return out, nil
}

func (f *fixtureStore) UpsertSector(s domain.Sector) error {
	f.sectors[s.ID] = s
	return nil
}

// sectorLimits adapts the fixture sectors + trust engine to quota.Limits.
type sectorLimits struct {
	store *fixtureStore
	trust *trust.Engine
	owner map[string]string // accountID → contributorID
}

func (sl sectorLimits) SectorMax(sectorID string) (int, bool) {
	s, ok := sl.store.sectors[sectorID]
	if !ok {
		return 0, false
	}
	return s.MaxPerMonth, true
}

func (sl sectorLimits) GlobalMax(accountID string) int {
	return sl.trust.GlobalMax(sl.owner[accountID])
}

type harness struct {
	store     *fixtureStore
	trust     *trust.Engine
	ledger    *quota.Ledger
	cooldowns *cooldown.Tracker
	ev        *Evaluator
}

var now = time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := &fixtureStore{
		listings: map[string]domain.Listing{
			"fiche-1": {ID: "fiche-1", SectorID: "plumbing", Quantity: 20},
			"fiche-2": {ID: "fiche-2", SectorID: "legal", Quantity: 10},
		},
		accounts: map[string]domain.ContributorAccount{
			"acc-x":   {ID: "acc-x", ContributorID: "guide-1", Handle: "x@gmail.com"},
			"acc-y":   {ID: "acc-y", ContributorID: "guide-1", Handle: "y@gmail.com"},
			"acc-z":   {ID: "acc-z", ContributorID: "guide-2", Handle: "z@gmail.com"},
			"acc-off": {ID: "acc-off", ContributorID: "guide-1", Disabled: true},
		},
		sectors: map[string]domain.Sector{
			"plumbing": {ID: "plumbing", Difficulty: domain.DifficultyEasy, CooldownDays: 10, MaxPerMonth: 5},
			"legal":    {ID: "legal", Difficulty: domain.DifficultyHard, CooldownDays: 30, MaxPerMonth: 2},
		},
	}

	trustEngine := trust.NewEngine()
	// guide-1 is SILVER by default in these tests.
	trustEngine.SetSignals("guide-1", trust.Signals{EmailScore: 25, MapsProfileScore: 30})

	limits := sectorLimits{
		store: store,
		trust: trustEngine,
		owner: map[string]string{"acc-x": "guide-1", "acc-y": "guide-1", "acc-z": "guide-2", "acc-off": "guide-1"},
	}
	ledger := quota.NewLedger(limits, time.UTC)
	cooldowns := cooldown.NewTracker()

	return &harness{
		store:     store,
		trust:     trustEngine,
		ledger:    ledger,
		cooldowns: cooldowns,
		ev:        New(store, store, store, trustEngine, ledger, cooldowns),
	}
}

func (h *harness) evaluate(t *testing.T, listingID, accountID, contributorID string) domain.EligibilityResult {
	t.Helper()
	res, err := h.ev.Evaluate(listingID, accountID, contributorID, now)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	return res
}

// ─── Happy Path ─────────────────────────────────────────────────────────────

func TestEvaluate_Eligible(t *testing.T) {
	h := newHarness(t)
	res := h.evaluate(t, "fiche-1", "acc-x", "guide-1")
	if !res.CanTake {
		t.Fatalf("expected eligible, got %s: %s", res.Reason, res.Message)
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	h := newHarness(t)
	first := h.evaluate(t, "fiche-1", "acc-x", "guide-1")
	second := h.evaluate(t, "fiche-1", "acc-x", "guide-1")
	if first.CanTake != second.CanTake || first.Reason != second.Reason {
		t.Errorf("back-to-back evaluations differ: %+v vs %+v", first, second)
	}
}

// ─── Resolution Checks ──────────────────────────────────────────────────────

func TestEvaluate_ListingNotFound(t *testing.T) {
	h := newHarness(t)
	res := h.evaluate(t, "fiche-missing", "acc-x", "guide-1")
	if res.CanTake || res.Reason != domain.ReasonNotFound {
		t.Errorf("reason = %s, want NOT_FOUND", res.Reason)
	}
}

func TestEvaluate_AccountNotFound(t *testing.T) {
	h := newHarness(t)
	res := h.evaluate(t, "fiche-1", "acc-missing", "guide-1")
	if res.Reason != domain.ReasonAccountNotFound {
		t.Errorf("reason = %s, want GMAIL_NOT_FOUND", res.Reason)
	}
}

func TestEvaluate_AccountOwnedByOtherContributor(t *testing.T) {
	h := newHarness(t)
	res := h.evaluate(t, "fiche-1", "acc-z", "guide-1")
	if res.Reason != domain.ReasonAccountNotFound {
		t.Errorf("reason = %s, want GMAIL_NOT_FOUND for unowned account", res.Reason)
	}
}

func TestEvaluate_DisabledAccount(t *testing.T) {
	h := newHarness(t)
	res := h.evaluate(t, "fiche-1", "acc-off", "guide-1")
	if res.Reason != domain.ReasonAccountNotFound {
		t.Errorf("reason = %s, want GMAIL_NOT_FOUND for disabled account", res.Reason)
	}
}

// ─── Trust Checks ───────────────────────────────────────────────────────────

func TestEvaluate_LevelInsufficientForHardSector(t *testing.T) {
	h := newHarness(t)
	// SILVER guide against a hard sector (floor GOLD).
	res := h.evaluate(t, "fiche-2", "acc-x", "guide-1")
	if res.Reason != domain.ReasonLevelInsufficient {
		t.Fatalf("reason = %s, want LEVEL_INSUFFICIENT", res.Reason)
	}
	if res.Details.RequiredLevel != domain.TrustGold {
		t.Errorf("required = %s, want GOLD", res.Details.RequiredLevel)
	}
}

func TestEvaluate_BlockedGetsComplianceLowBeforeQuota(t *testing.T) {
	h := newHarness(t)
	h.trust.SetSignals("guide-1", trust.Signals{EmailScore: 5}) // BLOCKED

	// Easy sector has no difficulty floor, so the BLOCKED contributor
	// reaches and fails the compliance check — regardless of the fact
	// that quota and cooldown would also deny.
	res := h.evaluate(t, "fiche-1", "acc-x", "guide-1")
	if res.Reason != domain.ReasonComplianceLow {
		t.Errorf("reason = %s, want COMPLIANCE_LOW", res.Reason)
	}
}

// ─── Cooldown Check ─────────────────────────────────────────────────────────

func TestEvaluate_SectorCooldown(t *testing.T) {
	h := newHarness(t)
	marked := now.AddDate(0, 0, -4) // 4 days ago, 10-day cooldown
	h.cooldowns.Mark("acc-x", "plumbing", marked)

	res := h.evaluate(t, "fiche-1", "acc-x", "guide-1")
	if res.Reason != domain.ReasonSectorCooldown {
		t.Fatalf("reason = %s, want SECTOR_COOLDOWN", res.Reason)
	}
	want := marked.AddDate(0, 0, 10)
	if res.Details.NextAvailableDate == nil || !res.Details.NextAvailableDate.Equal(want) {
		t.Errorf("next_available_date = %v, want %v", res.Details.NextAvailableDate, want)
	}
}

func TestEvaluate_CooldownElapsed(t *testing.T) {
	h := newHarness(t)
	h.cooldowns.Mark("acc-x", "plumbing", now.AddDate(0, 0, -10))

	res := h.evaluate(t, "fiche-1", "acc-x", "guide-1")
	if res.Reason == domain.ReasonSectorCooldown {
		t.Error("cooldown of exactly cooldown_days must not block")
	}
}

// ─── Quota Checks ───────────────────────────────────────────────────────────

func TestEvaluate_SectorQuotaExceeded(t *testing.T) {
	h := newHarness(t)
	// Spec scenario: plumbing max 5, account used 5 this period.
	h.ledger.Restore("acc-x", "plumbing", domain.PeriodKey(now), 5, 0)

	res := h.evaluate(t, "fiche-1", "acc-x", "guide-1")
	if res.Reason != domain.ReasonSectorQuotaExceeded {
		t.Fatalf("reason = %s, want SECTOR_QUOTA_EXCEEDED", res.Reason)
	}
	if res.Details.Used != 5 || res.Details.Max != 5 {
		t.Errorf("details = %d/%d, want 5/5", res.Details.Used, res.Details.Max)
	}
}

func TestEvaluate_PendingCountsTowardSectorQuota(t *testing.T) {
	h := newHarness(t)
	h.ledger.Restore("acc-x", "plumbing", domain.PeriodKey(now), 3, 2)

	res := h.evaluate(t, "fiche-1", "acc-x", "guide-1")
	if res.Reason != domain.ReasonSectorQuotaExceeded {
		t.Errorf("reason = %s, want SECTOR_QUOTA_EXCEEDED with pending included", res.Reason)
	}
}

func TestEvaluate_GlobalMonthlyCeiling(t *testing.T) {
	h := newHarness(t)
	// SILVER ceiling is 30; fill the global ledger but leave sector room.
	h.ledger.RestoreGlobal("acc-x", domain.PeriodKey(now), 30, 0)

	res := h.evaluate(t, "fiche-1", "acc-x", "guide-1")
	if res.Reason != domain.ReasonDailyLimitReached {
		t.Fatalf("reason = %s, want DAILY_LIMIT_REACHED (monthly global ceiling)", res.Reason)
	}
	if res.Details.Used != 30 || res.Details.Max != 30 {
		t.Errorf("details = %d/%d, want 30/30", res.Details.Used, res.Details.Max)
	}
}

// ─── Alternatives ───────────────────────────────────────────────────────────

func TestEvaluate_SuggestsAlternativeAccounts(t *testing.T) {
	h := newHarness(t)
	// acc-x is quota-exhausted; acc-y (same guide) is clean.
	h.ledger.Restore("acc-x", "plumbing", domain.PeriodKey(now), 5, 0)

	res := h.evaluate(t, "fiche-1", "acc-x", "guide-1")
	if res.CanTake {
		t.Fatal("expected denial")
	}
	if len(res.Details.Alternatives) != 1 || res.Details.Alternatives[0] != "acc-y" {
		t.Errorf("alternatives = %v, want [acc-y]", res.Details.Alternatives)
	}
}

func TestEvaluate_NoAlternativesWhenAllExhausted(t *testing.T) {
	h := newHarness(t)
	h.ledger.Restore("acc-x", "plumbing", domain.PeriodKey(now), 5, 0)
	h.ledger.Restore("acc-y", "plumbing", domain.PeriodKey(now), 5, 0)

	res := h.evaluate(t, "fiche-1", "acc-x", "guide-1")
	if res.Details != nil && len(res.Details.Alternatives) != 0 {
		t.Errorf("alternatives = %v, want none", res.Details.Alternatives)
	}
}
