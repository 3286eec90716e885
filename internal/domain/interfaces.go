package domain

// ─── Store Interfaces ───────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// ListingStore abstracts listing/order persistence.
type ListingStore interface {
	GetListing(id string) (*Listing, error)
	UpsertListing(l Listing) error
	IncrementReviews(id string) error
}

// AccountStore abstracts contributor-account persistence.
type AccountStore interface {
	GetAccount(id string) (*ContributorAccount, error)
	AccountsByContributor(contributorID string) ([]ContributorAccount, error)
	UpsertAccount(a ContributorAccount) error
}

// SectorStore abstracts the static sector reference data.
type SectorStore interface {
	GetSector(id string) (*Sector, error)
	ListSectors() ([]Sector, error)
	UpsertSector(s Sector) error
}

// AuditLog receives suspension and claim events for operator traceability.
type AuditLog interface {
	Record(event string, subjectID string, detail string)
}
