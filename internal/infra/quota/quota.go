// Package quota implements the per-account submission quota ledger.
//
// Two ledgers run in parallel:
//   - sector ledger, keyed by (account, sector, calendar period)
//   - global ledger, keyed by (account, calendar period)
//
// Committed `used` counts only moderator-accepted submissions and is
// monotonically non-decreasing within a period. In-flight submissions hold
// a separate `pending` reservation that is folded into eligibility math,
// finalized on acceptance, and rolled back exactly on rejection — a
// rejection never reduces committed usage.
//
// Period rollover is lazy: a new calendar month simply keys fresh
// zero-initialized entries on first access. No sweep runs.
package quota

import (
	"log"
	"sync"
	"time"

	"github.com/localboost/localboost/internal/domain"
)

// Limits resolves the quota ceilings the ledger enforces.
// Sector ceilings come from sector reference data; the global ceiling is
// the trust engine's monthly cap for the account's owning contributor.
type Limits interface {
	// SectorMax returns the per-month ceiling for a sector.
	// ok=false means the sector has no configured limit.
	SectorMax(sectorID string) (max int, ok bool)

	// GlobalMax returns the account's global monthly ceiling.
	// domain.UnlimitedPerMonth means no cap.
	GlobalMax(accountID string) int
}

// entry is one period bucket. used only moves on Commit; pending tracks
// optimistic reservations for submissions still in moderation.
type entry struct {
	used    int
	pending int
}

// Ledger is the in-memory quota ledger. Thread-safe via RWMutex.
type Ledger struct {
	mu     sync.RWMutex
	limits Limits
	loc    *time.Location

	sector map[string]*entry // account|sector|period
	global map[string]*entry // account|period
}

// NewLedger creates a quota ledger. loc is the platform reference timezone
// used for calendar-month period keys; nil falls back to UTC.
func NewLedger(limits Limits, loc *time.Location) *Ledger {
	if loc == nil {
		loc = time.UTC
	}
	return &Ledger{
		limits: limits,
		loc:    loc,
		sector: make(map[string]*entry),
		global: make(map[string]*entry),
	}
}

func (l *Ledger) sectorKey(accountID, sectorID string, now time.Time) string {
	return accountID + "|" + sectorID + "|" + domain.PeriodKey(now.In(l.loc))
}

func (l *Ledger) globalKey(accountID string, now time.Time) string {
	return accountID + "|" + domain.PeriodKey(now.In(l.loc))
}

// ─── Read Path ──────────────────────────────────────────────────────────────

// Snapshot returns the used/max view for one (account, sector) pair at the
// given instant. Read-only: never mutates counters, safe to call on every
// UI refresh. Pending reservations are folded into the used figures so the
// caller sees the same numbers eligibility will be judged on.
//
// A missing sector limit is reported as unlimited here — display fails
// safe, the write path does not (see Reserve).
func (l *Ledger) Snapshot(accountID, sectorID string, now time.Time) domain.QuotaSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snap := domain.QuotaSnapshot{
		SectorMax: domain.UnlimitedPerMonth,
		GlobalMax: l.limits.GlobalMax(accountID),
	}
	if max, ok := l.limits.SectorMax(sectorID); ok {
		snap.SectorMax = max
	}

	if e, ok := l.sector[l.sectorKey(accountID, sectorID, now)]; ok {
		snap.SectorUsed = e.used + e.pending
	}
	if e, ok := l.global[l.globalKey(accountID, now)]; ok {
		snap.GlobalUsed = e.used + e.pending
	}
	return snap
}

// ─── Write Path ─────────────────────────────────────────────────────────────

// Reserve optimistically holds one unit in both ledgers for a submission
// entering moderation. Refuses when either ceiling is already consumed, so
// concurrent submitters cannot over-commit a quota that eligibility saw as
// available. A sector with no configured limit is a hard configuration
// error on this path — never a silent unlimited allowance.
func (l *Ledger) Reserve(accountID, sectorID string, now time.Time) error {
	sectorMax, ok := l.limits.SectorMax(sectorID)
	if !ok {
		return domain.ErrSectorLimitMissing
	}
	globalMax := l.limits.GlobalMax(accountID)

	l.mu.Lock()
	defer l.mu.Unlock()

	se := l.ensureSector(accountID, sectorID, now)
	ge := l.ensureGlobal(accountID, now)

	if se.used+se.pending >= sectorMax {
		return domain.ErrQuotaExhausted
	}
	if globalMax < domain.UnlimitedPerMonth && ge.used+ge.pending >= globalMax {
		return domain.ErrQuotaExhausted
	}

	se.pending++
	ge.pending++
	return nil
}

// Commit finalizes a reservation on moderator acceptance: pending moves to
// used in both ledgers. If the reservation's period has already rolled
// over, the acceptance still counts in the current period and the stale
// hold is noted — the new bucket starts clean.
func (l *Ledger) Commit(accountID, sectorID string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	se := l.ensureSector(accountID, sectorID, now)
	ge := l.ensureGlobal(accountID, now)

	if se.pending > 0 {
		se.pending--
	} else {
		log.Printf("quota: commit for account=%s sector=%s found no pending hold (period rollover)", accountID, sectorID)
	}
	se.used++

	if ge.pending > 0 {
		ge.pending--
	}
	ge.used++
}

// Release rolls back a reservation for a rejected or aborted submission.
// Committed usage is untouched. Releasing after a period rollover is a
// logged no-op, never an error — the stale bucket will simply age out.
func (l *Ledger) Release(accountID, sectorID string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	se, ok := l.sector[l.sectorKey(accountID, sectorID, now)]
	if !ok || se.pending == 0 {
		log.Printf("quota: release for account=%s sector=%s had nothing to roll back (period rollover)", accountID, sectorID)
	} else {
		se.pending--
	}

	if ge, ok := l.global[l.globalKey(accountID, now)]; ok && ge.pending > 0 {
		ge.pending--
	}
}

// ─── Hydration ──────────────────────────────────────────────────────────────

// Restore seeds a committed sector count, typically at boot from the
// persistent store. The matching global count is restored separately.
func (l *Ledger) Restore(accountID, sectorID, period string, used, pending int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sector[accountID+"|"+sectorID+"|"+period] = &entry{used: used, pending: pending}
}

// RestoreGlobal seeds a committed global count at boot.
func (l *Ledger) RestoreGlobal(accountID, period string, used, pending int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.global[accountID+"|"+period] = &entry{used: used, pending: pending}
}

func (l *Ledger) ensureSector(accountID, sectorID string, now time.Time) *entry {
	k := l.sectorKey(accountID, sectorID, now)
	e, ok := l.sector[k]
	if !ok {
		e = &entry{}
		l.sector[k] = e
	}
	return e
}

func (l *Ledger) ensureGlobal(accountID string, now time.Time) *entry {
	k := l.globalKey(accountID, now)
	e, ok := l.global[k]
	if !ok {
		e = &entry{}
		l.global[k] = e
	}
	return e
}
