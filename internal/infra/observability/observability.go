// Package observability exposes Prometheus metrics for the eligibility
// and quota engine. Counters are registered via promauto and served on
// /metrics when enabled in config.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Engine Metrics ─────────────────────────────────────────────────────────

var (
	// EligibilityDecisions counts evaluations by outcome reason.
	// Allowed evaluations use reason="ALLOWED".
	EligibilityDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "localboost",
		Subsystem: "eligibility",
		Name:      "decisions_total",
		Help:      "Eligibility evaluations by decision reason.",
	}, []string{"reason"})

	// ClaimAcquisitions counts claim attempts by result.
	ClaimAcquisitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "localboost",
		Subsystem: "claims",
		Name:      "acquisitions_total",
		Help:      "Listing claim acquisition attempts by result (granted, conflict).",
	}, []string{"result"})

	// QuotaEvents counts ledger transitions by kind.
	QuotaEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "localboost",
		Subsystem: "quota",
		Name:      "ledger_events_total",
		Help:      "Quota ledger events (reserve, commit, release).",
	}, []string{"event"})

	// SuspensionEvents counts suspension lifecycle events.
	SuspensionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "localboost",
		Subsystem: "suspension",
		Name:      "events_total",
		Help:      "Suspension lifecycle events (warned, created, escalated, approved).",
	}, []string{"event"})

	// AnomalyDetections counts behavioral anomalies by type.
	AnomalyDetections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "localboost",
		Subsystem: "anomaly",
		Name:      "detections_total",
		Help:      "Contributor behavior anomalies by type (RAPID_FIRE, VELOCITY_BURST, REJECT_STREAK).",
	}, []string{"type"})

	// SubmissionsInFlight gauges submissions currently pending moderation.
	SubmissionsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "localboost",
		Subsystem: "submissions",
		Name:      "in_flight",
		Help:      "Submissions reserved but not yet accepted or rejected.",
	})
)

// RecordDecision tracks one eligibility evaluation outcome.
func RecordDecision(reason string) {
	if reason == "" {
		reason = "ALLOWED"
	}
	EligibilityDecisions.WithLabelValues(reason).Inc()
}
