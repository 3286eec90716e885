package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/localboost/localboost/internal/domain"
	"github.com/localboost/localboost/internal/infra/sqlite"
)

// ─── Operator Admin Surface ─────────────────────────────────────────────────
//
// PUT /api/admin/sectors/{id}  — upsert sector reference data
// PUT /api/admin/listings/{id} — upsert a listing
// PUT /api/admin/accounts/{id} — upsert a posting account
// GET /api/admin/audit         — recent audit events
// GET /api/sectors             — list sectors
// GET /api/listings/{id}       — one listing
// GET /api/contributors/{id}/earnings — current payout balance

// References is the reference-data and operator read surface, backed by
// the sqlite store.
type References interface {
	domain.SectorStore
	domain.ListingStore
	domain.AccountStore
	EarningsBalance(contributorID string) (int64, error)
	RecentAuditEvents(limit int) ([]sqlite.AuditEvent, error)
}

// SetReferences sets the reference-data store for the admin surface.
func (s *Server) SetReferences(refs References) { s.refs = refs }

func (s *Server) handleSectorPut(w http.ResponseWriter, r *http.Request) {
	var sector domain.Sector
	if err := decodeJSON(r, &sector); err != nil {
		writeError(w, http.StatusBadRequest, "invalid sector body")
		return
	}
	sector.ID = chi.URLParam(r, "id")

	if err := s.refs.UpsertSector(sector); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sector)
}

func (s *Server) handleSectorList(w http.ResponseWriter, r *http.Request) {
	sectors, err := s.refs.ListSectors()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sectors": sectors,
	})
}

func (s *Server) handleListingPut(w http.ResponseWriter, r *http.Request) {
	var listing domain.Listing
	if err := decodeJSON(r, &listing); err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing body")
		return
	}
	listing.ID = chi.URLParam(r, "id")
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = s.now()
	}

	if err := s.refs.UpsertListing(listing); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleListingGet(w http.ResponseWriter, r *http.Request) {
	listing, err := s.refs.GetListing(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	holder, locked := s.claims.Holder(listing.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"listing":     listing,
		"remaining":   listing.Remaining(),
		"complete":    listing.Complete(),
		"claimed":     locked,
		"lock_holder": holder,
	})
}

type accountUpsertRequest struct {
	domain.ContributorAccount
	Country string `json:"country,omitempty"` // declared at onboarding
}

// handleAccountPut creates or updates a posting account. The declared
// country is checked against the geo block list at creation.
func (s *Server) handleAccountPut(w http.ResponseWriter, r *http.Request) {
	var req accountUpsertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid account body")
		return
	}
	req.ID = chi.URLParam(r, "id")

	if err := s.suspensions.CanRegister(req.Country); err != nil {
		writeDomainError(w, err)
		return
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = s.now()
	}

	if err := s.refs.UpsertAccount(req.ContributorAccount); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req.ContributorAccount)
}

func (s *Server) handleEarnings(w http.ResponseWriter, r *http.Request) {
	contributorID := chi.URLParam(r, "id")
	balance, err := s.refs.EarningsBalance(contributorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"contributor_id": contributorID,
		"balance_cents":  balance,
	})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := s.refs.RecentAuditEvents(limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"as_of":  s.now().Format(time.RFC3339),
	})
}
