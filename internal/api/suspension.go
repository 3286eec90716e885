package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/localboost/localboost/internal/domain"
)

// ─── Suspension Console ─────────────────────────────────────────────────────
//
// GET  /api/suspension/config       — current policy config
// PUT  /api/suspension/config       — replace policy config (version bumps)
// POST /api/suspension/manual       — operator-initiated suspension
// POST /api/suspension/violation    — feed one behavioral violation signal
// POST /api/suspension/{id}/approve — resolve an active suspension
// GET  /api/suspension/queue        — active suspensions, oldest first

func (s *Server) handleSuspensionConfigGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.suspensions.Config())
}

func (s *Server) handleSuspensionConfigPut(w http.ResponseWriter, r *http.Request) {
	var cfg domain.SuspensionConfig
	if err := decodeJSON(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid config body")
		return
	}
	if cfg.ExemptedCountries == nil {
		cfg.ExemptedCountries = map[string]bool{}
	}
	if cfg.BlockedCountries == nil {
		cfg.BlockedCountries = map[string]bool{}
	}
	if cfg.ExemptedUserIDs == nil {
		cfg.ExemptedUserIDs = map[string]bool{}
	}

	applied := s.suspensions.UpdateConfig(cfg)
	if s.store != nil {
		if err := s.store.SaveSuspensionConfig(applied); err != nil {
			log.Printf("api: persist suspension config v%d: %v", applied.Version, err)
		}
	}
	writeJSON(w, http.StatusOK, applied)
}

type manualSuspendRequest struct {
	ContributorID string `json:"contributor_id"`
	Level         int    `json:"level"`
	Reason        string `json:"reason"`
}

func (s *Server) handleSuspensionManual(w http.ResponseWriter, r *http.Request) {
	var req manualSuspendRequest
	if err := decodeJSON(r, &req); err != nil || req.ContributorID == "" {
		writeError(w, http.StatusBadRequest, "contributor_id is required")
		return
	}

	rec := s.suspensions.ManualSuspend(req.ContributorID, req.Level, req.Reason)
	writeJSON(w, http.StatusCreated, rec)
}

type violationRequest struct {
	ContributorID string `json:"contributor_id"`
	Country       string `json:"country"`
	Reason        string `json:"reason"`
}

func (s *Server) handleSuspensionViolation(w http.ResponseWriter, r *http.Request) {
	var req violationRequest
	if err := decodeJSON(r, &req); err != nil || req.ContributorID == "" {
		writeError(w, http.StatusBadRequest, "contributor_id is required")
		return
	}

	outcome, rec := s.suspensions.ReportViolation(req.ContributorID, req.Country, req.Reason)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"outcome":  outcome,
		"record":   rec,
		"warnings": s.suspensions.Warnings(req.ContributorID),
	})
}

func (s *Server) handleSuspensionApprove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.suspensions.Approve(id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "approved",
	})
}

func (s *Server) handleSuspensionQueue(w http.ResponseWriter, r *http.Request) {
	active := s.suspensions.ActiveSuspensions()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"suspensions": active,
		"count":       len(active),
	})
}
