// Package cooldown tracks "time since last accepted submission" per
// (account, sector) pair. Cooldowns are per-pair, not global: an account
// may submit in sector A while still cooling down in sector B.
//
// Marks move only on moderator acceptance, under the same per-account
// serialization as the quota commit, so two concurrent submissions cannot
// both observe "no cooldown" before either lands.
package cooldown

import (
	"sync"
	"time"
)

// Tracker holds the last accepted-submission mark per (account, sector).
// Thread-safe via RWMutex.
type Tracker struct {
	mu    sync.RWMutex
	marks map[string]time.Time // account|sector → last acceptance
}

// NewTracker creates an empty cooldown tracker.
func NewTracker() *Tracker {
	return &Tracker{marks: make(map[string]time.Time)}
}

func key(accountID, sectorID string) string {
	return accountID + "|" + sectorID
}

// NextAvailable returns when the account may next submit in the sector.
// ok=false means no restriction applies: either no prior submission
// exists, the cooldown has elapsed, or the sector sets no cooldown.
// The returned time is lastMark + cooldownDays, surfaced verbatim to the
// caller as the "next available date".
func (t *Tracker) NextAvailable(accountID, sectorID string, cooldownDays int, now time.Time) (time.Time, bool) {
	if cooldownDays <= 0 {
		return time.Time{}, false
	}

	t.mu.RLock()
	mark, found := t.marks[key(accountID, sectorID)]
	t.mu.RUnlock()
	if !found {
		return time.Time{}, false
	}

	next := mark.AddDate(0, 0, cooldownDays)
	if !now.Before(next) {
		return time.Time{}, false
	}
	return next, true
}

// Mark records an accepted submission at the given instant. A later mark
// always wins; an out-of-order older mark is ignored.
func (t *Tracker) Mark(accountID, sectorID string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key(accountID, sectorID)
	if existing, ok := t.marks[k]; ok && existing.After(at) {
		return
	}
	t.marks[k] = at
}

// LastMark returns the raw last-acceptance timestamp, if any.
func (t *Tracker) LastMark(accountID, sectorID string) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	mark, ok := t.marks[key(accountID, sectorID)]
	return mark, ok
}

// Restore seeds a mark from the persistent store at boot.
func (t *Tracker) Restore(accountID, sectorID string, at time.Time) {
	t.Mark(accountID, sectorID, at)
}
