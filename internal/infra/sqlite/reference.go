// Reference-data operations: accounts, sectors, listings.
// DB implements domain.AccountStore, domain.SectorStore and
// domain.ListingStore.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/localboost/localboost/internal/domain"
)

// ─── Accounts ───────────────────────────────────────────────────────────────

// UpsertAccount inserts or updates a contributor account.
func (db *DB) UpsertAccount(a domain.ContributorAccount) error {
	_, err := db.db.Exec(`
		INSERT INTO accounts (id, contributor_id, handle, experience_tier, disabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			contributor_id  = excluded.contributor_id,
			handle          = excluded.handle,
			experience_tier = excluded.experience_tier,
			disabled        = excluded.disabled
	`, a.ID, a.ContributorID, a.Handle, a.ExperienceTier, boolToInt(a.Disabled), fmtTime(a.CreatedAt))
	return err
}

// GetAccount fetches one account by id.
func (db *DB) GetAccount(id string) (*domain.ContributorAccount, error) {
	var a domain.ContributorAccount
	var disabled int
	var createdAt string
	err := db.db.QueryRow(`
		SELECT id, contributor_id, handle, experience_tier, disabled, created_at
		FROM accounts WHERE id = ?
	`, id).Scan(&a.ID, &a.ContributorID, &a.Handle, &a.ExperienceTier, &disabled, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	a.Disabled = disabled == 1
	a.CreatedAt = parseTime(createdAt)
	return &a, nil
}

// AccountsByContributor lists every account owned by a contributor.
func (db *DB) AccountsByContributor(contributorID string) ([]domain.ContributorAccount, error) {
	rows, err := db.db.Query(`
		SELECT id, contributor_id, handle, experience_tier, disabled, created_at
		FROM accounts WHERE contributor_id = ? ORDER BY created_at
	`, contributorID)
	if err != nil {
		return nil, fmt.Errorf("accounts by contributor: %w", err)
	}
	defer rows.Close()

	var out []domain.ContributorAccount
	for rows.Next() {
		var a domain.ContributorAccount
		var disabled int
		var createdAt string
		if err := rows.Scan(&a.ID, &a.ContributorID, &a.Handle, &a.ExperienceTier, &disabled, &createdAt); err != nil {
			return nil, err
		}
		a.Disabled = disabled == 1
		a.CreatedAt = parseTime(createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

// ─── Sectors ────────────────────────────────────────────────────────────────

// UpsertSector inserts or updates sector reference data.
func (db *DB) UpsertSector(s domain.Sector) error {
	_, err := db.db.Exec(`
		INSERT INTO sectors (id, name, difficulty, cooldown_days, max_per_month)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name          = excluded.name,
			difficulty    = excluded.difficulty,
			cooldown_days = excluded.cooldown_days,
			max_per_month = excluded.max_per_month
	`, s.ID, s.Name, string(s.Difficulty), s.CooldownDays, s.MaxPerMonth)
	return err
}

// GetSector fetches one sector by id.
func (db *DB) GetSector(id string) (*domain.Sector, error) {
	var s domain.Sector
	var difficulty string
	err := db.db.QueryRow(`
		SELECT id, name, difficulty, cooldown_days, max_per_month
		FROM sectors WHERE id = ?
	`, id).Scan(&s.ID, &s.Name, &difficulty, &s.CooldownDays, &s.MaxPerMonth)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSectorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sector: %w", err)
	}
	s.Difficulty = domain.Difficulty(difficulty)
	return &s, nil
}

// ListSectors returns all sectors, alphabetically.
func (db *DB) ListSectors() ([]domain.Sector, error) {
	rows, err := db.db.Query(`
		SELECT id, name, difficulty, cooldown_days, max_per_month
		FROM sectors ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list sectors: %w", err)
	}
	defer rows.Close()

	var out []domain.Sector
	for rows.Next() {
		var s domain.Sector
		var difficulty string
		if err := rows.Scan(&s.ID, &s.Name, &difficulty, &s.CooldownDays, &s.MaxPerMonth); err != nil {
			return nil, err
		}
		s.Difficulty = domain.Difficulty(difficulty)
		out = append(out, s)
	}
	return out, rows.Err()
}

// ─── Listings ───────────────────────────────────────────────────────────────

// UpsertListing inserts or updates a listing. Lock state is deliberately
// not persisted: claims are in-memory with lazy TTL expiry, and a restart
// simply drops all claims.
func (db *DB) UpsertListing(l domain.Listing) error {
	_, err := db.db.Exec(`
		INSERT INTO listings (id, artisan_id, sector_id, quantity, reviews_received, reviews_per_day, cancelled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			artisan_id       = excluded.artisan_id,
			sector_id        = excluded.sector_id,
			quantity         = excluded.quantity,
			reviews_received = excluded.reviews_received,
			reviews_per_day  = excluded.reviews_per_day,
			cancelled        = excluded.cancelled
	`, l.ID, l.ArtisanID, l.SectorID, l.Quantity, l.ReviewsReceived, l.ReviewsPerDay, boolToInt(l.Cancelled), fmtTime(l.CreatedAt))
	return err
}

// GetListing fetches one listing by id.
func (db *DB) GetListing(id string) (*domain.Listing, error) {
	var l domain.Listing
	var cancelled int
	var createdAt string
	err := db.db.QueryRow(`
		SELECT id, artisan_id, sector_id, quantity, reviews_received, reviews_per_day, cancelled, created_at
		FROM listings WHERE id = ?
	`, id).Scan(&l.ID, &l.ArtisanID, &l.SectorID, &l.Quantity, &l.ReviewsReceived, &l.ReviewsPerDay, &cancelled, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	l.Cancelled = cancelled == 1
	l.CreatedAt = parseTime(createdAt)
	return &l, nil
}

// IncrementReviews bumps reviews_received by one.
func (db *DB) IncrementReviews(id string) error {
	res, err := db.db.Exec(`UPDATE listings SET reviews_received = reviews_received + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment reviews: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}
