package registry

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/marketbay/marketd/internal/domain"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(OpenOptions{InMemory: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleSale() *domain.Sale {
	return &domain.Sale{
		Owner:       "alice",
		Beneficiary: "alice",
		Price:       decimal.RequireFromString("5"),
		Deposit:     decimal.RequireFromString("1"),
		Status:      domain.SaleStatusListed,
	}
}

func TestCreateAndGet(t *testing.T) {
	s := openStore(t)
	key := domain.NewListingKey("nft-svc", "token-1")

	if _, err := s.Get(key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := s.Create(key, sampleSale()); err != nil {
		t.Fatalf("create: %v", err)
	}

	sale, err := s.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sale.Owner != "alice" || !sale.Price.Equal(decimal.RequireFromString("5")) {
		t.Fatalf("round-tripped sale = %+v", sale)
	}

	if err := s.Create(key, sampleSale()); !errors.Is(err, domain.ErrDuplicateListing) {
		t.Fatalf("want ErrDuplicateListing, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	s := openStore(t)
	key := domain.NewListingKey("nft-svc", "token-1")

	if _, err := s.Remove(key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	if err := s.Create(key, sampleSale()); err != nil {
		t.Fatalf("create: %v", err)
	}
	removed, err := s.Remove(key)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed.Owner != "alice" {
		t.Fatalf("removed sale = %+v", removed)
	}
	if _, err := s.Get(key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("sale must be gone, got %v", err)
	}
}

func TestTransition(t *testing.T) {
	s := openStore(t)
	key := domain.NewListingKey("nft-svc", "token-1")
	if err := s.Create(key, sampleSale()); err != nil {
		t.Fatalf("create: %v", err)
	}

	sale, err := s.Transition(key, domain.SaleStatusListed, domain.SaleStatusPurchasePending)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if sale.Status != domain.SaleStatusPurchasePending {
		t.Fatalf("status = %s, want purchase_pending", sale.Status)
	}

	// Same transition again must fail without changing anything.
	if _, err := s.Transition(key, domain.SaleStatusListed, domain.SaleStatusPurchasePending); !errors.Is(err, ErrStatusMismatch) {
		t.Fatalf("want ErrStatusMismatch, got %v", err)
	}
	sale, err = s.Get(key)
	if err != nil || sale.Status != domain.SaleStatusPurchasePending {
		t.Fatalf("status after failed CAS = %v (err %v)", sale, err)
	}

	if _, err := s.Transition(domain.NewListingKey("nft-svc", "other"), domain.SaleStatusListed, domain.SaleStatusPurchasePending); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestRemoveIfStatus(t *testing.T) {
	s := openStore(t)
	key := domain.NewListingKey("nft-svc", "token-1")
	if err := s.Create(key, sampleSale()); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.RemoveIfStatus(key, domain.SaleStatusPurchasePending); !errors.Is(err, ErrStatusMismatch) {
		t.Fatalf("want ErrStatusMismatch, got %v", err)
	}
	if _, err := s.Get(key); err != nil {
		t.Fatalf("sale must survive a failed conditional remove: %v", err)
	}

	removed, err := s.RemoveIfStatus(key, domain.SaleStatusListed)
	if err != nil {
		t.Fatalf("conditional remove: %v", err)
	}
	if removed.Owner != "alice" {
		t.Fatalf("removed sale = %+v", removed)
	}
}

func TestRemoveIfOwnerAndStatus(t *testing.T) {
	s := openStore(t)
	key := domain.NewListingKey("nft-svc", "token-1")
	if err := s.Create(key, sampleSale()); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.RemoveIfOwnerAndStatus(key, "mallory", domain.SaleStatusListed); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("want ErrNotOwner, got %v", err)
	}
	if _, err := s.Get(key); err != nil {
		t.Fatalf("sale must survive a failed owner-gated remove: %v", err)
	}

	if _, err := s.RemoveIfOwnerAndStatus(key, "alice", domain.SaleStatusPurchasePending); !errors.Is(err, ErrStatusMismatch) {
		t.Fatalf("want ErrStatusMismatch, got %v", err)
	}

	removed, err := s.RemoveIfOwnerAndStatus(key, "alice", domain.SaleStatusListed)
	if err != nil {
		t.Fatalf("owner-gated remove: %v", err)
	}
	if removed.Owner != "alice" {
		t.Fatalf("removed sale = %+v", removed)
	}
	if _, err := s.Get(key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("sale must be gone, got %v", err)
	}

	if _, err := s.RemoveIfOwnerAndStatus(key, "alice", domain.SaleStatusListed); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	s := openStore(t)
	keys := []domain.ListingKey{
		domain.NewListingKey("nft-svc", "token-1"),
		domain.NewListingKey("nft-svc", "token-2"),
		domain.NewListingKey("other-svc", "token-1"),
	}
	for _, k := range keys {
		if err := s.Create(k, sampleSale()); err != nil {
			t.Fatalf("create %s: %v", k, err)
		}
	}

	listings, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listings) != len(keys) {
		t.Fatalf("got %d listings, want %d", len(listings), len(keys))
	}
	seen := make(map[string]bool)
	for _, l := range listings {
		seen[l.Key.String()] = true
	}
	for _, k := range keys {
		if !seen[k.String()] {
			t.Fatalf("missing listing %s", k)
		}
	}
}
