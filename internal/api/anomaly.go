package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleAnomalyStats reports detector-wide counters and the abuse flag
// feed for the operator console.
func (s *Server) handleAnomalyStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats": s.detector.Stats(),
		"flags": s.detector.FlagFeed(),
	})
}

// handleAnomalyProfile returns one contributor's behavior baseline. A
// contributor with no observed submissions yet has a null profile.
func (s *Server) handleAnomalyProfile(w http.ResponseWriter, r *http.Request) {
	contributorID := chi.URLParam(r, "id")

	profile := s.detector.GetProfile(contributorID)
	resp := map[string]interface{}{
		"contributor_id": contributorID,
		"profile":        profile,
		"flagged":        s.detector.IsFlagged(contributorID),
	}
	if profile != nil {
		resp["gap_stddev_seconds"] = profile.GapStddev()
		resp["accept_rate"] = profile.AcceptRate()
	}
	writeJSON(w, http.StatusOK, resp)
}

type flagRequest struct {
	Reason string `json:"reason"`
	Source string `json:"source"`
}

// handleAnomalyFlag files an abuse report against a contributor.
func (s *Server) handleAnomalyFlag(w http.ResponseWriter, r *http.Request) {
	contributorID := chi.URLParam(r, "id")

	var req flagRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "reason is required")
		return
	}

	s.detector.ReportFlag(contributorID, req.Reason, req.Source)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"contributor_id": contributorID,
		"flagged":        true,
	})
}
