// Package api provides the HTTP server for the eligibility engine.
// It exposes the policy read surface (eligibility, quota, trust), the
// claim and submission write paths, and the operator suspension console.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/localboost/localboost/internal/app/eligibility"
	"github.com/localboost/localboost/internal/app/submission"
	"github.com/localboost/localboost/internal/domain"
	"github.com/localboost/localboost/internal/infra/anomaly"
	"github.com/localboost/localboost/internal/infra/claim"
	"github.com/localboost/localboost/internal/infra/quota"
	"github.com/localboost/localboost/internal/infra/suspension"
	"github.com/localboost/localboost/internal/infra/trust"
)

// Version is the engine release reported by /api/version.
const Version = "0.3.0"

// Server is the engine HTTP API server.
type Server struct {
	evaluator   *eligibility.Evaluator
	pipeline    *submission.Pipeline
	ledger      *quota.Ledger
	trust       *trust.Engine
	suspensions *suspension.Manager
	claims      *claim.Arbiter

	claimTTL       time.Duration
	metricsEnabled bool
	store          Store
	refs           References
	detector       *anomaly.Detector

	// Injectable clock for testing.
	now func() time.Time
}

// Store persists state accepted over the API (suspension config versions,
// trust signal updates) so it survives a restart. The sqlite store
// implements it; a nil store keeps the server purely in-memory.
type Store interface {
	SaveSuspensionConfig(cfg domain.SuspensionConfig) error
	SaveTrustSignals(contributorID string, s trust.Signals) error
}

// NewServer creates a new API server.
func NewServer(
	evaluator *eligibility.Evaluator,
	pipeline *submission.Pipeline,
	ledger *quota.Ledger,
	trustEngine *trust.Engine,
	suspensions *suspension.Manager,
	claims *claim.Arbiter,
	claimTTL time.Duration,
) *Server {
	return &Server{
		evaluator:   evaluator,
		pipeline:    pipeline,
		ledger:      ledger,
		trust:       trustEngine,
		suspensions: suspensions,
		claims:      claims,
		claimTTL:    claimTTL,
		now:         time.Now,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetStore sets the store that persists API-accepted state.
func (s *Server) SetStore(st Store) { s.store = st }

// SetDetector exposes the behavior anomaly detector on the API.
func (s *Server) SetDetector(d *anomaly.Detector) { s.detector = d }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": Version,
		})
	})

	// Policy read surface
	r.Get("/api/eligibility", s.handleEligibility)
	r.Get("/api/accounts/{id}/quota", s.handleQuota)
	r.Get("/api/contributors/{id}/trust", s.handleTrust)
	r.Put("/api/contributors/{id}/trust/signals", s.handleTrustSignalsPut)
	r.Post("/api/contributors/{id}/trust/penalty", s.handleTrustPenalty)

	// Claims
	r.Post("/api/listings/{id}/claim", s.handleClaim)
	r.Post("/api/listings/{id}/release", s.handleRelease)

	// Submissions
	r.Route("/api/submissions", func(r chi.Router) {
		r.Post("/start", s.handleSubmissionStart)
		r.Post("/{id}/accept", s.handleSubmissionAccept)
		r.Post("/{id}/reject", s.handleSubmissionReject)
	})

	// Suspension console
	r.Route("/api/suspension", func(r chi.Router) {
		r.Get("/config", s.handleSuspensionConfigGet)
		r.Put("/config", s.handleSuspensionConfigPut)
		r.Post("/manual", s.handleSuspensionManual)
		r.Post("/violation", s.handleSuspensionViolation)
		r.Post("/{id}/approve", s.handleSuspensionApprove)
		r.Get("/queue", s.handleSuspensionQueue)
	})

	// Behavior anomaly surface
	if s.detector != nil {
		r.Get("/api/anomaly/stats", s.handleAnomalyStats)
		r.Get("/api/contributors/{id}/anomaly", s.handleAnomalyProfile)
		r.Post("/api/contributors/{id}/flag", s.handleAnomalyFlag)
	}

	// Reference data and operator admin surface
	if s.refs != nil {
		r.Get("/api/sectors", s.handleSectorList)
		r.Get("/api/listings/{id}", s.handleListingGet)
		r.Get("/api/contributors/{id}/earnings", s.handleEarnings)
		r.Route("/api/admin", func(r chi.Router) {
			r.Put("/sectors/{id}", s.handleSectorPut)
			r.Put("/listings/{id}", s.handleListingPut)
			r.Put("/accounts/{id}", s.handleAccountPut)
			r.Get("/audit", s.handleAudit)
		})
	}

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ─── Error Mapping ──────────────────────────────────────────────────────────

// statusFor maps domain sentinel errors onto HTTP statuses. Policy
// denials never reach here — they travel as eligibility results.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrListingNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrSectorNotFound),
		errors.Is(err, domain.ErrSubmissionNotFound),
		errors.Is(err, domain.ErrSuspensionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrClaimHeld),
		errors.Is(err, domain.ErrListingComplete),
		errors.Is(err, domain.ErrDailyCapReached),
		errors.Is(err, domain.ErrQuotaExhausted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrContributorSuspended),
		errors.Is(err, domain.ErrCountryBlocked):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeDomainError maps and writes a domain error.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

// decodeJSON decodes a request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// corsMiddleware adds CORS headers for the operator console.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
