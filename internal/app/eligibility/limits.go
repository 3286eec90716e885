package eligibility

import (
	"github.com/localboost/localboost/internal/domain"
	"github.com/localboost/localboost/internal/infra/trust"
)

// StoreLimits adapts the reference stores and the trust engine to the
// quota ledger's Limits interface: sector ceilings come from sector
// reference data, the global monthly ceiling from the owning
// contributor's trust tier.
type StoreLimits struct {
	Sectors  domain.SectorStore
	Accounts domain.AccountStore
	Trust    *trust.Engine
}

func (sl StoreLimits) SectorMax(sectorID string) (int, bool) {
	s, err := sl.Sectors.GetSector(sectorID)
	if err != nil {
		return 0, false
	}
	return s.MaxPerMonth, true
}

// GlobalMax resolves the account's owner and returns the tier ceiling.
// An unresolvable account reads as unlimited; such accounts fail the
// ownership check before any reservation can reach the ledger.
func (sl StoreLimits) GlobalMax(accountID string) int {
	a, err := sl.Accounts.GetAccount(accountID)
	if err != nil {
		return domain.UnlimitedPerMonth
	}
	return sl.Trust.GlobalMax(a.ContributorID)
}
