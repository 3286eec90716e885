package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/localboost/localboost/internal/app/eligibility"
	"github.com/localboost/localboost/internal/app/submission"
	"github.com/localboost/localboost/internal/domain"
	"github.com/localboost/localboost/internal/infra/anomaly"
	"github.com/localboost/localboost/internal/infra/claim"
	"github.com/localboost/localboost/internal/infra/cooldown"
	"github.com/localboost/localboost/internal/infra/quota"
	"github.com/localboost/localboost/internal/infra/sqlite"
	"github.com/localboost/localboost/internal/infra/suspension"
	"github.com/localboost/localboost/internal/infra/trust"
)

// ─── Harness ────────────────────────────────────────────────────────────────

type apiHarness struct {
	srv     *Server
	db      *sqlite.DB
	handler http.Handler
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	db.UpsertSector(domain.Sector{ID: "plumbing", Name: "Plumbing", Difficulty: domain.DifficultyEasy, CooldownDays: 10, MaxPerMonth: 5})
	db.UpsertListing(domain.Listing{ID: "fiche-1", SectorID: "plumbing", Quantity: 20, CreatedAt: time.Now()})
	db.UpsertAccount(domain.ContributorAccount{ID: "acc-x", ContributorID: "guide-1", Handle: "x@gmail.com", CreatedAt: time.Now()})
	db.UpsertAccount(domain.ContributorAccount{ID: "acc-y", ContributorID: "guide-1", Handle: "y@gmail.com", CreatedAt: time.Now()})

	trustEngine := trust.NewEngine()
	trustEngine.SetSignals("guide-1", trust.Signals{EmailScore: 25, MapsProfileScore: 30}) // SILVER

	limits := eligibility.StoreLimits{Sectors: db, Accounts: db, Trust: trustEngine}
	ledger := quota.NewLedger(limits, time.UTC)
	cooldowns := cooldown.NewTracker()
	claims := claim.NewArbiter()
	suspensions := suspension.NewManager(domain.DefaultSuspensionConfig(), db)
	suspensions.SetStore(db)

	evaluator := eligibility.New(db, db, db, trustEngine, ledger, cooldowns)
	pipeline := submission.NewPipeline(submission.DefaultConfig(), evaluator, ledger, cooldowns, claims, suspensions, db, db)

	detector := anomaly.NewDetector(anomaly.DefaultDetectorConfig())
	pipeline.SetDetector(detector)

	srv := NewServer(evaluator, pipeline, ledger, trustEngine, suspensions, claims, 30*time.Minute)
	srv.SetStore(db)
	srv.SetReferences(db)
	srv.SetDetector(detector)

	return &apiHarness{srv: srv, db: db, handler: srv.Handler()}
}

func (h *apiHarness) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

// ─── Basics ─────────────────────────────────────────────────────────────────

func TestAPI_Health(t *testing.T) {
	h := newAPIHarness(t)
	w := h.request(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAPI_Version(t *testing.T) {
	h := newAPIHarness(t)
	w := h.request(t, http.MethodGet, "/api/version", nil)
	if decode(t, w)["version"] != Version {
		t.Errorf("version = %v", decode(t, w)["version"])
	}
}

// ─── Eligibility ────────────────────────────────────────────────────────────

func TestAPI_Eligibility_OK(t *testing.T) {
	h := newAPIHarness(t)
	w := h.request(t, http.MethodGet, "/api/eligibility?listing_id=fiche-1&account_id=acc-x&contributor_id=guide-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if decode(t, w)["can_take"] != true {
		t.Errorf("expected eligible: %s", w.Body.String())
	}
}

func TestAPI_Eligibility_MissingParams(t *testing.T) {
	h := newAPIHarness(t)
	w := h.request(t, http.MethodGet, "/api/eligibility?listing_id=fiche-1", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAPI_Eligibility_UnknownListingIsDenialNotError(t *testing.T) {
	h := newAPIHarness(t)
	w := h.request(t, http.MethodGet, "/api/eligibility?listing_id=nope&account_id=acc-x&contributor_id=guide-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode(t, w)
	if resp["can_take"] != false || resp["reason"] != "NOT_FOUND" {
		t.Errorf("resp = %v", resp)
	}
}

// ─── Quota & Trust ──────────────────────────────────────────────────────────

func TestAPI_QuotaSnapshot(t *testing.T) {
	h := newAPIHarness(t)
	w := h.request(t, http.MethodGet, "/api/accounts/acc-x/quota?sector=plumbing", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode(t, w)
	if resp["sector_used"] != float64(0) || resp["sector_max"] != float64(5) {
		t.Errorf("sector quota = %v/%v, want 0/5", resp["sector_used"], resp["sector_max"])
	}
	if resp["global_max"] != float64(30) {
		t.Errorf("global_max = %v, want 30 for SILVER", resp["global_max"])
	}
}

func TestAPI_QuotaMissingSector(t *testing.T) {
	h := newAPIHarness(t)
	w := h.request(t, http.MethodGet, "/api/accounts/acc-x/quota", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAPI_TrustScore(t *testing.T) {
	h := newAPIHarness(t)
	w := h.request(t, http.MethodGet, "/api/contributors/guide-1/trust", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode(t, w)
	if resp["trust_level"] != "SILVER" {
		t.Errorf("trust_level = %v, want SILVER", resp["trust_level"])
	}
	if resp["final_score"] != float64(55) {
		t.Errorf("final_score = %v, want 55", resp["final_score"])
	}
}

func TestAPI_TrustSignalsUpdate(t *testing.T) {
	h := newAPIHarness(t)

	w := h.request(t, http.MethodPut, "/api/contributors/guide-1/trust/signals", trust.Signals{
		EmailScore: 30, MapsProfileScore: 50, VerificationBonus: 5,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode(t, w)
	if resp["trust_level"] != "GOLD" || resp["final_score"] != float64(85) {
		t.Errorf("resp = %v, want GOLD/85", resp)
	}

	// Persisted for boot rehydration.
	signals, err := h.db.ListTrustSignals()
	if err != nil || signals["guide-1"].MapsProfileScore != 50 {
		t.Errorf("stored signals = %+v (err %v)", signals["guide-1"], err)
	}
}

func TestAPI_TrustPenalty(t *testing.T) {
	h := newAPIHarness(t)

	// SILVER at 55; a 20-point penalty drops to BRONZE.
	w := h.request(t, http.MethodPost, "/api/contributors/guide-1/trust/penalty", penaltyRequest{Points: 20, Reason: "rejected review"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if decode(t, w)["trust_level"] != "BRONZE" {
		t.Errorf("trust_level = %v, want BRONZE after penalty", decode(t, w)["trust_level"])
	}

	w = h.request(t, http.MethodPost, "/api/contributors/guide-1/trust/penalty", penaltyRequest{Points: 0})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-positive points, got %d", w.Code)
	}
}

// ─── Claims ─────────────────────────────────────────────────────────────────

func TestAPI_ClaimConflict(t *testing.T) {
	h := newAPIHarness(t)

	w := h.request(t, http.MethodPost, "/api/listings/fiche-1/claim", claimRequest{ContributorID: "guide-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("first claim: expected 200, got %d", w.Code)
	}

	w = h.request(t, http.MethodPost, "/api/listings/fiche-1/claim", claimRequest{ContributorID: "guide-2"})
	if w.Code != http.StatusConflict {
		t.Fatalf("second claim: expected 409, got %d", w.Code)
	}
	if decode(t, w)["holder"] != "guide-1" {
		t.Errorf("holder = %v, want guide-1", decode(t, w)["holder"])
	}
}

func TestAPI_ReleaseFreesClaim(t *testing.T) {
	h := newAPIHarness(t)

	h.request(t, http.MethodPost, "/api/listings/fiche-1/claim", claimRequest{ContributorID: "guide-1"})
	w := h.request(t, http.MethodPost, "/api/listings/fiche-1/release", claimRequest{ContributorID: "guide-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("release: expected 200, got %d", w.Code)
	}

	w = h.request(t, http.MethodPost, "/api/listings/fiche-1/claim", claimRequest{ContributorID: "guide-2"})
	if w.Code != http.StatusOK {
		t.Errorf("claim after release: expected 200, got %d", w.Code)
	}
}

func TestAPI_ClaimRequiresContributor(t *testing.T) {
	h := newAPIHarness(t)
	w := h.request(t, http.MethodPost, "/api/listings/fiche-1/claim", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ─── Submissions ────────────────────────────────────────────────────────────

func startSubmission(t *testing.T, h *apiHarness) string {
	t.Helper()
	w := h.request(t, http.MethodPost, "/api/submissions/start", startRequest{
		ListingID: "fiche-1", AccountID: "acc-x", ContributorID: "guide-1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	sub := decode(t, w)["submission"].(map[string]interface{})
	return sub["id"].(string)
}

func TestAPI_SubmissionLifecycle_Accept(t *testing.T) {
	h := newAPIHarness(t)
	id := startSubmission(t, h)

	w := h.request(t, http.MethodPost, "/api/submissions/"+id+"/accept", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Quota committed and visible through the read surface.
	w = h.request(t, http.MethodGet, "/api/accounts/acc-x/quota?sector=plumbing", nil)
	if decode(t, w)["sector_used"] != float64(1) {
		t.Errorf("sector_used = %v, want 1 after accept", decode(t, w)["sector_used"])
	}

	// Listing moved.
	listing, err := h.db.GetListing("fiche-1")
	if err != nil || listing.ReviewsReceived != 1 {
		t.Errorf("reviews_received = %d (err %v), want 1", listing.ReviewsReceived, err)
	}
}

func TestAPI_SubmissionLifecycle_Reject(t *testing.T) {
	h := newAPIHarness(t)
	id := startSubmission(t, h)

	w := h.request(t, http.MethodPost, "/api/submissions/"+id+"/reject", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reject: expected 200, got %d", w.Code)
	}

	// Exact rollback.
	w = h.request(t, http.MethodGet, "/api/accounts/acc-x/quota?sector=plumbing", nil)
	if decode(t, w)["sector_used"] != float64(0) {
		t.Errorf("sector_used = %v, want 0 after reject", decode(t, w)["sector_used"])
	}
}

func TestAPI_SubmissionStart_ClaimHeld(t *testing.T) {
	h := newAPIHarness(t)
	h.request(t, http.MethodPost, "/api/listings/fiche-1/claim", claimRequest{ContributorID: "guide-9"})

	w := h.request(t, http.MethodPost, "/api/submissions/start", startRequest{
		ListingID: "fiche-1", AccountID: "acc-x", ContributorID: "guide-1",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 while another guide holds the claim, got %d", w.Code)
	}
}

func TestAPI_SubmissionStart_PolicyDenial(t *testing.T) {
	h := newAPIHarness(t)
	// acc-y belongs to guide-1; guide-2 cannot use it.
	w := h.request(t, http.MethodPost, "/api/submissions/start", startRequest{
		ListingID: "fiche-1", AccountID: "acc-y", ContributorID: "guide-2",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("policy denial: expected 200, got %d", w.Code)
	}
	resp := decode(t, w)
	if resp["submission"] != nil {
		t.Error("denial must not create a submission")
	}
	elig := resp["eligibility"].(map[string]interface{})
	if elig["reason"] != "GMAIL_NOT_FOUND" {
		t.Errorf("reason = %v, want GMAIL_NOT_FOUND", elig["reason"])
	}
}

func TestAPI_SubmissionAccept_Unknown(t *testing.T) {
	h := newAPIHarness(t)
	w := h.request(t, http.MethodPost, "/api/submissions/nope/accept", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// ─── Suspension Console ─────────────────────────────────────────────────────

func TestAPI_SuspensionConfig_GetAndPut(t *testing.T) {
	h := newAPIHarness(t)

	w := h.request(t, http.MethodGet, "/api/suspension/config", nil)
	if decode(t, w)["version"] != float64(1) {
		t.Fatalf("initial version = %v, want 1", decode(t, w)["version"])
	}

	cfg := domain.DefaultSuspensionConfig()
	cfg.MaxWarningsBeforeSuspend = 5
	w = h.request(t, http.MethodPut, "/api/suspension/config", cfg)
	if w.Code != http.StatusOK {
		t.Fatalf("put config: expected 200, got %d", w.Code)
	}
	if decode(t, w)["version"] != float64(2) {
		t.Errorf("version = %v, want 2 after update", decode(t, w)["version"])
	}

	// Persisted for restart survival.
	stored, ok, err := h.db.LatestSuspensionConfig()
	if err != nil || !ok {
		t.Fatalf("stored config: ok=%v err=%v", ok, err)
	}
	if stored.Version != 2 || stored.MaxWarningsBeforeSuspend != 5 {
		t.Errorf("stored = %+v", stored)
	}
}

func TestAPI_SuspensionManualAndQueue(t *testing.T) {
	h := newAPIHarness(t)

	w := h.request(t, http.MethodPost, "/api/suspension/manual", manualSuspendRequest{
		ContributorID: "guide-1", Level: 3, Reason: "operator decision",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("manual: expected 201, got %d", w.Code)
	}
	recID := decode(t, w)["id"].(string)

	w = h.request(t, http.MethodGet, "/api/suspension/queue", nil)
	if decode(t, w)["count"] != float64(1) {
		t.Fatalf("queue count = %v, want 1", decode(t, w)["count"])
	}

	// Suspended contributor is refused at start.
	w = h.request(t, http.MethodPost, "/api/submissions/start", startRequest{
		ListingID: "fiche-1", AccountID: "acc-x", ContributorID: "guide-1",
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for suspended contributor, got %d", w.Code)
	}

	// Approve resolves; a second approve is idempotent.
	w = h.request(t, http.MethodPost, "/api/suspension/"+recID+"/approve", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d", w.Code)
	}
	w = h.request(t, http.MethodPost, "/api/suspension/"+recID+"/approve", nil)
	if w.Code != http.StatusOK {
		t.Errorf("second approve: expected 200, got %d", w.Code)
	}

	w = h.request(t, http.MethodGet, "/api/suspension/queue", nil)
	if decode(t, w)["count"] != float64(0) {
		t.Errorf("queue count = %v, want 0 after approve", decode(t, w)["count"])
	}
}

func TestAPI_SuspensionViolation_WarnsThenSuspends(t *testing.T) {
	h := newAPIHarness(t)

	report := func() map[string]interface{} {
		w := h.request(t, http.MethodPost, "/api/suspension/violation", violationRequest{
			ContributorID: "guide-1", Country: "FR", Reason: "velocity anomaly",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("violation: expected 200, got %d", w.Code)
		}
		return decode(t, w)
	}

	// Default policy: warnings 1 and 2, suspension on the 3rd.
	if resp := report(); resp["outcome"] != "WARNED" {
		t.Fatalf("first violation outcome = %v, want WARNED", resp["outcome"])
	}
	if resp := report(); resp["outcome"] != "WARNED" {
		t.Fatalf("second violation outcome = %v, want WARNED", resp["outcome"])
	}
	resp := report()
	if resp["outcome"] != "SUSPENDED" {
		t.Fatalf("third violation outcome = %v, want SUSPENDED", resp["outcome"])
	}
	if resp["record"] == nil {
		t.Fatal("suspension must carry the created record")
	}

	// Record and warning count survive in the store.
	recs, err := h.db.ListSuspensions()
	if err != nil || len(recs) != 1 {
		t.Fatalf("stored records = %d (err %v), want 1", len(recs), err)
	}
	counts, _ := h.db.WarningCounts()
	if counts["guide-1"] != 3 {
		t.Errorf("stored warnings = %d, want 3", counts["guide-1"])
	}
}

func TestAPI_SuspensionApprove_Unknown(t *testing.T) {
	h := newAPIHarness(t)
	w := h.request(t, http.MethodPost, "/api/suspension/nope/approve", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// ─── Admin Surface ──────────────────────────────────────────────────────────

func TestAPI_AdminSectorUpsertAndList(t *testing.T) {
	h := newAPIHarness(t)

	w := h.request(t, http.MethodPut, "/api/admin/sectors/legal", domain.Sector{
		Name: "Legal", Difficulty: domain.DifficultyHard, CooldownDays: 30, MaxPerMonth: 2,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("upsert: expected 200, got %d", w.Code)
	}

	w = h.request(t, http.MethodGet, "/api/sectors", nil)
	sectors := decode(t, w)["sectors"].([]interface{})
	if len(sectors) != 2 {
		t.Errorf("sectors = %d, want 2", len(sectors))
	}
}

func TestAPI_ListingGet_ShowsClaimState(t *testing.T) {
	h := newAPIHarness(t)
	h.request(t, http.MethodPost, "/api/listings/fiche-1/claim", claimRequest{ContributorID: "guide-1"})

	w := h.request(t, http.MethodGet, "/api/listings/fiche-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode(t, w)
	if resp["claimed"] != true || resp["lock_holder"] != "guide-1" {
		t.Errorf("claim state = %v/%v", resp["claimed"], resp["lock_holder"])
	}
	if resp["remaining"] != float64(20) {
		t.Errorf("remaining = %v, want 20", resp["remaining"])
	}
}

func TestAPI_AdminAccountBlockedCountry(t *testing.T) {
	h := newAPIHarness(t)

	cfg := domain.DefaultSuspensionConfig()
	cfg.BlockedCountries = map[string]bool{"XX": true}
	h.request(t, http.MethodPut, "/api/suspension/config", cfg)

	w := h.request(t, http.MethodPut, "/api/admin/accounts/acc-new", map[string]string{
		"contributor_id": "guide-3", "handle": "n@gmail.com", "country": "XX",
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for blocked country, got %d", w.Code)
	}

	w = h.request(t, http.MethodPut, "/api/admin/accounts/acc-new", map[string]string{
		"contributor_id": "guide-3", "handle": "n@gmail.com", "country": "FR",
	})
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for allowed country, got %d", w.Code)
	}
}

func TestAPI_EarningsAfterAccept(t *testing.T) {
	h := newAPIHarness(t)
	id := startSubmission(t, h)
	h.request(t, http.MethodPost, "/api/submissions/"+id+"/accept", nil)

	w := h.request(t, http.MethodGet, "/api/contributors/guide-1/earnings", nil)
	if decode(t, w)["balance_cents"] != float64(250) {
		t.Errorf("balance = %v, want 250", decode(t, w)["balance_cents"])
	}
}

func TestAPI_AuditTrail(t *testing.T) {
	h := newAPIHarness(t)
	h.request(t, http.MethodPost, "/api/suspension/manual", manualSuspendRequest{
		ContributorID: "guide-1", Level: 1, Reason: "test",
	})

	w := h.request(t, http.MethodGet, "/api/admin/audit?limit=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	events := decode(t, w)["events"].([]interface{})
	if len(events) == 0 {
		t.Fatal("expected at least one audit event")
	}
	first := events[0].(map[string]interface{})
	if first["event"] != "suspension.manual" {
		t.Errorf("event = %v, want suspension.manual", first["event"])
	}
}

// ─── Anomaly Surface ────────────────────────────────────────────────────────

func TestAPI_AnomalyProfile_UnknownContributor(t *testing.T) {
	h := newAPIHarness(t)
	w := h.request(t, http.MethodGet, "/api/contributors/guide-9/anomaly", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode(t, w)
	if resp["profile"] != nil || resp["flagged"] != false {
		t.Errorf("resp = %v, want null profile and flagged=false", resp)
	}
}

func TestAPI_AnomalyProfile_AfterSubmissionStart(t *testing.T) {
	h := newAPIHarness(t)
	startSubmission(t, h)

	w := h.request(t, http.MethodGet, "/api/contributors/guide-1/anomaly", nil)
	resp := decode(t, w)
	profile, ok := resp["profile"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected profile after start: %s", w.Body.String())
	}
	if profile["contributor_id"] != "guide-1" {
		t.Errorf("profile contributor = %v", profile["contributor_id"])
	}
}

func TestAPI_AnomalyFlag(t *testing.T) {
	h := newAPIHarness(t)

	w := h.request(t, http.MethodPost, "/api/contributors/guide-1/flag", flagRequest{
		Reason: "review farm", Source: "moderator-1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = h.request(t, http.MethodGet, "/api/contributors/guide-1/anomaly", nil)
	if decode(t, w)["flagged"] != true {
		t.Error("expected contributor to be flagged")
	}

	w = h.request(t, http.MethodGet, "/api/anomaly/stats", nil)
	stats := decode(t, w)["stats"].(map[string]interface{})
	if stats["flag_count"] != float64(1) {
		t.Errorf("flag count = %v, want 1", stats["flag_count"])
	}
}

func TestAPI_AnomalyFlag_MissingReason(t *testing.T) {
	h := newAPIHarness(t)
	w := h.request(t, http.MethodPost, "/api/contributors/guide-1/flag", flagRequest{Source: "moderator-1"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
