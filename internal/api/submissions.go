package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ─── Submissions ────────────────────────────────────────────────────────────
//
// POST /api/submissions/start       — evaluate, claim, reserve
// POST /api/submissions/{id}/accept — moderation pass: commit + payout
// POST /api/submissions/{id}/reject — moderation fail: exact rollback

type startRequest struct {
	ListingID     string `json:"listing_id"`
	AccountID     string `json:"account_id"`
	ContributorID string `json:"contributor_id"`
}

func (s *Server) handleSubmissionStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ListingID == "" || req.AccountID == "" || req.ContributorID == "" {
		writeError(w, http.StatusBadRequest, "listing_id, account_id and contributor_id are required")
		return
	}

	sub, result, err := s.pipeline.Start(req.ListingID, req.AccountID, req.ContributorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if sub == nil {
		// Policy denial: a successful evaluation, not an error.
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"submission":  nil,
			"eligibility": result,
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"submission":  sub,
		"eligibility": result,
	})
}

func (s *Server) handleSubmissionAccept(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.pipeline.Accept(id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "accepted",
	})
}

func (s *Server) handleSubmissionReject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.pipeline.Reject(id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "rejected",
	})
}
