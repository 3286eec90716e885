package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/localboost/localboost/internal/domain"
	"github.com/localboost/localboost/internal/infra/observability"
	"github.com/localboost/localboost/internal/infra/trust"
)

// ─── Policy Read Surface ────────────────────────────────────────────────────
//
// GET /api/eligibility?listing_id=&account_id=&contributor_id=
//   — full eligibility decision for one (listing, account) pair
// GET /api/accounts/{id}/quota?sector=
//   — current used/max quota view for one account
// GET /api/contributors/{id}/trust
//   — cached trust score with breakdown

// handleEligibility evaluates whether an account may take a listing.
// The decision is read-only: nothing is reserved or claimed here.
func (s *Server) handleEligibility(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	listingID := q.Get("listing_id")
	accountID := q.Get("account_id")
	contributorID := q.Get("contributor_id")
	if listingID == "" || accountID == "" || contributorID == "" {
		writeError(w, http.StatusBadRequest, "listing_id, account_id and contributor_id are required")
		return
	}

	result, err := s.evaluator.Evaluate(listingID, accountID, contributorID, s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	observability.RecordDecision(string(result.Reason))
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleQuota(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	sectorID := r.URL.Query().Get("sector")
	if sectorID == "" {
		writeError(w, http.StatusBadRequest, "sector query parameter is required")
		return
	}

	now := s.now()
	snap := s.ledger.Snapshot(accountID, sectorID, now)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account_id":       accountID,
		"sector_id":        sectorID,
		"period":           domain.PeriodKey(now),
		"sector_used":      snap.SectorUsed,
		"sector_max":       snap.SectorMax,
		"sector_remaining": snap.SectorRemaining(),
		"global_used":      snap.GlobalUsed,
		"global_max":       snap.GlobalMax,
		"global_remaining": snap.GlobalRemaining(),
	})
}

func (s *Server) handleTrust(w http.ResponseWriter, r *http.Request) {
	contributorID := chi.URLParam(r, "id")
	score := s.trust.GetCurrent(contributorID)
	writeJSON(w, http.StatusOK, score)
}

// handleTrustSignalsPut replaces a contributor's raw trust signals. The
// score recomputes immediately; eligibility sees the new tier on the
// next evaluation.
func (s *Server) handleTrustSignalsPut(w http.ResponseWriter, r *http.Request) {
	contributorID := chi.URLParam(r, "id")

	var sig trust.Signals
	if err := decodeJSON(r, &sig); err != nil {
		writeError(w, http.StatusBadRequest, "invalid signals body")
		return
	}

	score := s.trust.SetSignals(contributorID, sig)
	s.persistSignals(contributorID, sig)
	writeJSON(w, http.StatusOK, score)
}

type penaltyRequest struct {
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

func (s *Server) handleTrustPenalty(w http.ResponseWriter, r *http.Request) {
	contributorID := chi.URLParam(r, "id")

	var req penaltyRequest
	if err := decodeJSON(r, &req); err != nil || req.Points <= 0 {
		writeError(w, http.StatusBadRequest, "points must be positive")
		return
	}

	score := s.trust.RecordPenalty(contributorID, req.Points)
	s.persistSignals(contributorID, s.trust.CurrentSignals(contributorID))
	writeJSON(w, http.StatusOK, score)
}

func (s *Server) persistSignals(contributorID string, sig trust.Signals) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveTrustSignals(contributorID, sig); err != nil {
		log.Printf("api: persist trust signals for %s: %v", contributorID, err)
	}
}
