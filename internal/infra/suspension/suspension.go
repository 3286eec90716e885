// Package suspension implements the suspension and geo-policy manager.
//
// State machine per contributor:
//
//	ACTIVE → (auto-detector fires OR operator manual action)
//	       → SUSPENDED(level) → (operator approves) → ACTIVE
//
// Exemption checks (config disabled, exempted user id, exempted country)
// run BEFORE any detection logic. A country on the block list instead
// refuses registration outright — a harder rule, evaluated at onboarding
// time, never at submission time.
//
// All transitions for one contributor serialize under the manager's lock:
// two near-simultaneous violations produce one escalating record, never
// two parallel level-1 records.
package suspension

import (
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/localboost/localboost/internal/domain"
	"github.com/localboost/localboost/internal/infra/observability"
)

// Store persists suspension state transitions. The sqlite store
// implements it; a nil store keeps the manager purely in-memory.
type Store interface {
	SaveSuspension(r domain.SuspensionRecord) error
	SaveWarningCount(contributorID string, count int) error
}

// Manager holds the versioned policy config, the active-suspension queue,
// and per-contributor warning history. Thread-safe.
type Manager struct {
	mu       sync.RWMutex
	cfg      domain.SuspensionConfig
	active   map[string]*domain.SuspensionRecord // contributorID → active record
	history  []domain.SuspensionRecord           // resolved records
	warnings map[string]int                      // contributorID → lifetime warning count
	audit    domain.AuditLog                     // optional, may be nil
	store    Store                               // optional, may be nil

	// Injectable for testing.
	now   func() time.Time
	newID func() string
}

// NewManager creates a suspension manager with the given starting policy.
func NewManager(cfg domain.SuspensionConfig, audit domain.AuditLog) *Manager {
	return &Manager{
		cfg:      cfg,
		active:   make(map[string]*domain.SuspensionRecord),
		warnings: make(map[string]int),
		audit:    audit,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// SetStore sets the store that persists state transitions.
func (m *Manager) SetStore(st Store) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = st
}

// ─── Configuration ──────────────────────────────────────────────────────────
// The config is versioned and hot-swapped as a whole — evaluations running
// concurrently each see one consistent snapshot, never a half-applied mix.

// Config returns the current policy snapshot.
func (m *Manager) Config() domain.SuspensionConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// UpdateConfig swaps in a new policy, bumping the version.
func (m *Manager) UpdateConfig(cfg domain.SuspensionConfig) domain.SuspensionConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg.Version = m.cfg.Version + 1
	m.cfg = cfg
	return m.cfg
}

// ─── Geo Policy ─────────────────────────────────────────────────────────────

// CanRegister enforces the blocked-country list at account creation.
func (m *Manager) CanRegister(country string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cfg.CountryBlocked(country) {
		return domain.ErrCountryBlocked
	}
	return nil
}

// ─── Violations ─────────────────────────────────────────────────────────────

// ReportViolation runs the automatic detection pipeline for one behavioral
// signal. Returns the outcome and, when a record was created or escalated,
// the record itself.
func (m *Manager) ReportViolation(contributorID, country, reason string) (domain.ViolationOutcome, *domain.SuspensionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Exemptions suppress detection entirely — checked before anything else.
	if m.cfg.Exempted(contributorID, country) {
		return domain.OutcomeExempted, nil
	}

	// Recidivism: a violation while already suspended escalates the
	// existing record instead of opening a parallel one.
	if rec, ok := m.active[contributorID]; ok {
		if !m.cfg.AutoSuspendEnabled {
			return domain.OutcomeIgnored, nil
		}
		if rec.Level < domain.MaxSuspensionLevel {
			rec.Level++
		}
		rec.Reason = reason
		m.record("suspension.escalated", contributorID, reason)
		m.persist(*rec)
		out := *rec
		return domain.OutcomeEscalated, &out
	}

	// Warnings accumulate across the contributor's lifetime; approval of a
	// past suspension does not reset them, so repeat offenders reach the
	// threshold faster.
	m.warnings[contributorID]++
	m.persistWarnings(contributorID)
	if m.warnings[contributorID] < m.cfg.MaxWarningsBeforeSuspend {
		m.record("suspension.warned", contributorID, reason)
		return domain.OutcomeWarned, nil
	}

	rec := &domain.SuspensionRecord{
		ID:            m.newID(),
		ContributorID: contributorID,
		Level:         domain.MinSuspensionLevel,
		Reason:        reason,
		Country:       country,
		CreatedAt:     m.now(),
	}
	m.active[contributorID] = rec
	m.record("suspension.created", contributorID, reason)
	m.persist(*rec)
	out := *rec
	return domain.OutcomeSuspended, &out
}

// ManualSuspend bypasses warning accumulation and sets an explicit level
// and reason. An existing active record is updated in place.
func (m *Manager) ManualSuspend(contributorID string, level int, reason string) domain.SuspensionRecord {
	if level < domain.MinSuspensionLevel {
		level = domain.MinSuspensionLevel
	}
	if level > domain.MaxSuspensionLevel {
		level = domain.MaxSuspensionLevel
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.active[contributorID]; ok {
		rec.Level = level
		rec.Reason = reason
		rec.Manual = true
		m.record("suspension.manual", contributorID, reason)
		m.persist(*rec)
		return *rec
	}

	rec := &domain.SuspensionRecord{
		ID:            m.newID(),
		ContributorID: contributorID,
		Level:         level,
		Reason:        reason,
		Manual:        true,
		CreatedAt:     m.now(),
	}
	m.active[contributorID] = rec
	m.record("suspension.manual", contributorID, reason)
	m.persist(*rec)
	return *rec
}

// ─── Resolution ─────────────────────────────────────────────────────────────

// Approve resolves a suspension, returning the contributor to ACTIVE.
// Idempotent: approving an already-resolved record is a no-op, not an
// error. Warning history is deliberately retained.
func (m *Manager) Approve(recordID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for contributorID, rec := range m.active {
		if rec.ID != recordID {
			continue
		}
		rec.ResolvedAt = m.now()
		m.history = append(m.history, *rec)
		delete(m.active, contributorID)
		m.record("suspension.approved", contributorID, rec.Reason)
		m.persist(*rec)
		return nil
	}

	// Already resolved? Then this is a concurrent double-approve: no-op.
	for _, rec := range m.history {
		if rec.ID == recordID {
			return nil
		}
	}
	return domain.ErrSuspensionNotFound
}

// ─── Queries ────────────────────────────────────────────────────────────────

// IsSuspended reports whether the contributor has an active record.
func (m *Manager) IsSuspended(contributorID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.active[contributorID]
	return ok
}

// ActiveSuspensions returns the pending queue for operator review, oldest
// first. Safe to poll.
func (m *Manager) ActiveSuspensions() []domain.SuspensionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	queue := make([]domain.SuspensionRecord, 0, len(m.active))
	for _, rec := range m.active {
		queue = append(queue, *rec)
	}
	sort.Slice(queue, func(i, j int) bool {
		return queue[i].CreatedAt.Before(queue[j].CreatedAt)
	})
	return queue
}

// Warnings returns the contributor's lifetime warning count.
func (m *Manager) Warnings(contributorID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.warnings[contributorID]
}

// Restore seeds an active record and warning count from the persistent
// store at boot.
func (m *Manager) Restore(rec domain.SuspensionRecord, warnings int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.Active() {
		r := rec
		m.active[rec.ContributorID] = &r
	} else {
		m.history = append(m.history, rec)
	}
	if warnings > m.warnings[rec.ContributorID] {
		m.warnings[rec.ContributorID] = warnings
	}
}

// RestoreWarnings seeds a contributor's warning count at boot. Covers
// contributors who were warned but never suspended.
func (m *Manager) RestoreWarnings(contributorID string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if count > m.warnings[contributorID] {
		m.warnings[contributorID] = count
	}
}

func (m *Manager) record(event, contributorID, detail string) {
	observability.SuspensionEvents.WithLabelValues(strings.TrimPrefix(event, "suspension.")).Inc()
	if m.audit != nil {
		m.audit.Record(event, contributorID, detail)
	}
}

func (m *Manager) persist(rec domain.SuspensionRecord) {
	if m.store == nil {
		return
	}
	if err := m.store.SaveSuspension(rec); err != nil {
		log.Printf("suspension: persist record %s: %v", rec.ID, err)
	}
}

func (m *Manager) persistWarnings(contributorID string) {
	if m.store == nil {
		return
	}
	if err := m.store.SaveWarningCount(contributorID, m.warnings[contributorID]); err != nil {
		log.Printf("suspension: persist warnings for %s: %v", contributorID, err)
	}
}
