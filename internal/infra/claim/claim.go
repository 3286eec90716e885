// Package claim implements the listing claim arbiter: a time-boxed
// exclusive right to work a listing, so at most one contributor holds a
// given listing at any instant.
//
// Expiry is lazy — a lock whose TTL has passed is treated as absent and
// silently reclaimable by the next acquirer. There is no background sweep
// and no heartbeat: absence of activity past the TTL is the sole liveness
// check for a disconnected client.
package claim

import (
	"sync"
	"time"
)

// Grant is the result of a TryAcquire call. On ok=false, Holder and
// ExpiresAt describe the competing claim so the caller can surface it.
type Grant struct {
	OK        bool      `json:"ok"`
	Holder    string    `json:"holder,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

type lock struct {
	holder    string
	expiresAt time.Time
}

func (l lock) live(now time.Time) bool {
	return l.holder != "" && l.expiresAt.After(now)
}

// Arbiter grants and releases listing claims. All acquire decisions happen
// under one mutex, giving compare-and-swap semantics on the holder — a
// read-then-write race is structurally impossible for callers.
type Arbiter struct {
	mu    sync.Mutex
	locks map[string]lock // listingID → lock

	// Injectable clock for testing.
	now func() time.Time
}

// NewArbiter creates an empty claim arbiter.
func NewArbiter() *Arbiter {
	return &Arbiter{
		locks: make(map[string]lock),
		now:   time.Now,
	}
}

// TryAcquire attempts to claim a listing for a contributor.
//
// Fails only when a live lock is held by a DIFFERENT contributor. The
// current holder re-acquiring extends the TTL (idempotent resume after a
// page reload). An expired lock is reclaimed as if absent.
func (a *Arbiter) TryAcquire(listingID, contributorID string, ttl time.Duration) Grant {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if l, ok := a.locks[listingID]; ok && l.live(now) && l.holder != contributorID {
		return Grant{OK: false, Holder: l.holder, ExpiresAt: l.expiresAt}
	}

	expires := now.Add(ttl)
	a.locks[listingID] = lock{holder: contributorID, expiresAt: expires}
	return Grant{OK: true, Holder: contributorID, ExpiresAt: expires}
}

// Release drops a contributor's claim on a listing. Redundant calls are
// safe: already-released or held-by-someone-else both no-op, since Release
// fires on explicit navigation away, on successful submission, and when
// the listing quota is reached.
func (a *Arbiter) Release(listingID, contributorID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if l, ok := a.locks[listingID]; ok && l.holder == contributorID {
		delete(a.locks, listingID)
	}
}

// IsLocked reports whether a live claim exists on the listing.
func (a *Arbiter) IsLocked(listingID string, now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[listingID]
	return ok && l.live(now)
}

// Holder returns the current live holder, if any.
func (a *Arbiter) Holder(listingID string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[listingID]
	if !ok || !l.live(a.now()) {
		return "", false
	}
	return l.holder, true
}
