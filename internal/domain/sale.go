package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListingKey identifies one listed asset: the custodial service holding
// the asset plus the asset id within that service. Its canonical string
// form "<service>:<asset>" is the registry lookup key.
type ListingKey struct {
	ServiceID string `json:"service_id"`
	AssetID   string `json:"asset_id"`
}

func NewListingKey(serviceID, assetID string) ListingKey {
	return ListingKey{ServiceID: serviceID, AssetID: assetID}
}

func (k ListingKey) String() string {
	return k.ServiceID + ":" + k.AssetID
}

// SaleStatus is the listing lifecycle status.
type SaleStatus string

const (
	// SaleStatusListed means the asset is available for purchase.
	SaleStatusListed SaleStatus = "listed"
	// SaleStatusPurchasePending means a purchase is in flight and its
	// gateway transfer has not resolved yet. Further purchases and
	// cancellation are rejected while in this state.
	SaleStatusPurchasePending SaleStatus = "purchase_pending"
)

// Sale is the listing/escrow record. It is the sole source of truth for
// how much currency the marketplace holds for the listing: Deposit for
// the full life of the listing, Price only while a purchase is pending.
type Sale struct {
	// Owner may cancel the listing and receives the deposit back on
	// cancellation.
	Owner string `json:"owner"`
	// Beneficiary receives Price+Deposit when a purchase settles. It is
	// the account that created the listing, which differs from Owner
	// when listing on behalf of someone else.
	Beneficiary string `json:"beneficiary"`
	// Price is the exact payment required from a buyer, in the smallest
	// native currency unit.
	Price decimal.Decimal `json:"price"`
	// Deposit is the amount escrowed by the lister at creation time.
	Deposit decimal.Decimal `json:"deposit"`

	Status    SaleStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// Proceeds is the amount released to the beneficiary on successful
// settlement.
func (s *Sale) Proceeds() decimal.Decimal {
	return s.Price.Add(s.Deposit)
}

func (s *Sale) IsPending() bool {
	return s.Status == SaleStatusPurchasePending
}
