package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/localboost/localboost/internal/infra/observability"
)

// ─── Claims ─────────────────────────────────────────────────────────────────
//
// POST /api/listings/{id}/claim   — acquire the exclusive work claim
// POST /api/listings/{id}/release — drop a claim early
//
// Claims acquired here stand alone; the submission pipeline acquires its
// own claim at start and treats a self re-acquire as a TTL extension.

type claimRequest struct {
	ContributorID string `json:"contributor_id"`
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "id")

	var req claimRequest
	if err := decodeJSON(r, &req); err != nil || req.ContributorID == "" {
		writeError(w, http.StatusBadRequest, "contributor_id is required")
		return
	}

	grant := s.claims.TryAcquire(listingID, req.ContributorID, s.claimTTL)
	if !grant.OK {
		observability.ClaimAcquisitions.WithLabelValues("conflict").Inc()
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"acquired": false,
			"holder":   grant.Holder,
		})
		return
	}
	observability.ClaimAcquisitions.WithLabelValues("granted").Inc()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"acquired":   true,
		"listing_id": listingID,
		"holder":     grant.Holder,
		"expires_at": grant.ExpiresAt.Format(time.RFC3339),
	})
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "id")

	var req claimRequest
	if err := decodeJSON(r, &req); err != nil || req.ContributorID == "" {
		writeError(w, http.StatusBadRequest, "contributor_id is required")
		return
	}

	// Releasing a claim you do not hold is a no-op, not an error.
	s.claims.Release(listingID, req.ContributorID)
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "released",
	})
}
