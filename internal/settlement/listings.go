package settlement

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/marketbay/marketd/internal/domain"
	"github.com/marketbay/marketd/internal/events"
	"github.com/marketbay/marketd/internal/registry"
)

// AddSale lists an asset for sale. The caller becomes the beneficiary
// of the eventual sale; ownership (cancellation rights and deposit
// refunds) goes to onBehalfOf when set, otherwise to the caller. The
// deposit must already be under marketplace control when this is
// called, mirroring the attached-payment model of Purchase.
//
// onBehalfOf is trusted input: the gateway re-validates true asset
// ownership at transfer time, so a bogus owner only misdirects
// cancellation rights over the lister's own deposit.
func (s *Service) AddSale(ctx context.Context, key domain.ListingKey, caller string, price decimal.Decimal, onBehalfOf string, deposit decimal.Decimal) error {
	if price.IsNegative() {
		return errors.Wrapf(domain.ErrInvalidAmount, "price %s", price)
	}
	if deposit.LessThan(s.cfg.MinDeposit) {
		return errors.Wrapf(domain.ErrInsufficientDeposit, "attach at least %s to list a sale", s.cfg.MinDeposit)
	}

	owner := caller
	if onBehalfOf != "" {
		owner = onBehalfOf
	}

	sale := &domain.Sale{
		Owner:       owner,
		Beneficiary: caller,
		Price:       price,
		Deposit:     deposit,
		Status:      domain.SaleStatusListed,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.Create(key, sale); err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"key":     key.String(),
		"owner":   owner,
		"price":   price.String(),
		"deposit": deposit.String(),
	}).Info("listing created")
	s.pub.Publish(events.ListingCreated{Key: key, Sale: sale, Timestamp: time.Now().UTC()})
	return nil
}

// Cancel removes the listing and refunds the deposit to its owner.
// Authorization is verified before any mutation, and again inside the
// removal transaction itself: the record can be replaced between the
// read and the remove, so the ownership and status guards must bind to
// the record actually deleted.
func (s *Service) Cancel(ctx context.Context, key domain.ListingKey, caller string) error {
	sale, err := s.store.Get(key)
	if err != nil {
		return err
	}
	if sale.IsPending() {
		return domain.ErrPurchaseInProgress
	}
	if caller != sale.Owner {
		return errors.Wrapf(domain.ErrNotOwner, "caller %s, owner %s", caller, sale.Owner)
	}

	removed, err := s.store.RemoveIfOwnerAndStatus(key, caller, domain.SaleStatusListed)
	if err != nil {
		if errors.Is(err, registry.ErrStatusMismatch) {
			return domain.ErrPurchaseInProgress
		}
		return err
	}

	log.WithFields(map[string]interface{}{
		"key":    key.String(),
		"owner":  removed.Owner,
		"refund": removed.Deposit.String(),
	}).Info("listing canceled")
	s.pub.Publish(events.ListingCanceled{Key: key, Owner: removed.Owner, Refund: removed.Deposit, Timestamp: time.Now().UTC()})

	// Deposit refund is the last action; validation failures above move
	// no funds.
	if err := s.funds.Transfer(ctx, removed.Owner, removed.Deposit, "listing canceled: "+key.String()); err != nil {
		log.WithError(err).WithField("key", key.String()).Error("deposit refund could not be journaled")
	}
	return nil
}

// GetSale returns the sale record verbatim. Read-only, safe to call
// concurrently with anything.
func (s *Service) GetSale(ctx context.Context, key domain.ListingKey) (*domain.Sale, error) {
	return s.store.Get(key)
}

// Listings returns every current listing.
func (s *Service) Listings(ctx context.Context) ([]registry.Listing, error) {
	return s.store.List()
}
