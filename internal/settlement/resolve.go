package settlement

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/marketbay/marketd/internal/domain"
	"github.com/marketbay/marketd/internal/events"
	"github.com/marketbay/marketd/internal/ports"
)

// Resolve is phase two of the settlement saga, invoked by the dispatch
// runner once the gateway reports an outcome. It is a fresh entry
// point: nothing survives from phase one except the key and the buyer
// carried on the ticket.
//
// Success commits: the sale is removed and price+deposit released to
// the beneficiary. Failure compensates: the buyer is refunded exactly
// the price, the deposit stays escrowed and the listing returns to
// listed so the asset can be purchased again. Exactly one of the two
// transfers is scheduled per phase-one call.
func (s *Service) Resolve(key domain.ListingKey, buyer string, outcome ports.TransferOutcome) Settlement {
	s.mu.Lock()
	p, ok := s.pending[key.String()]
	if ok && p.Buyer == buyer {
		delete(s.pending, key.String())
	} else {
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		err := errors.Wrapf(domain.ErrInvariantViolation, "no pending purchase for %s by %s", key, buyer)
		log.WithField("key", key.String()).Error("resolve without a matching ticket")
		return Settlement{Settled: false, Err: err}
	}

	ctx := context.Background()
	if outcome.Transferred {
		return s.commit(ctx, key, buyer)
	}
	return s.compensate(ctx, key, buyer, outcome.Reason)
}

func (s *Service) commit(ctx context.Context, key domain.ListingKey, buyer string) Settlement {
	sale, err := s.store.RemoveIfStatus(key, domain.SaleStatusPurchasePending)
	if err != nil {
		// The listing must still exist in purchase_pending; anything else
		// means state was corrupted underneath the saga. Abort without
		// moving funds rather than guessing.
		wrapped := errors.Wrapf(domain.ErrInvariantViolation, "pending sale missing on commit of %s: %v", key, err)
		log.WithError(err).WithField("key", key.String()).Error("settlement commit aborted")
		return Settlement{Settled: false, Err: wrapped}
	}

	log.WithFields(map[string]interface{}{
		"key":         key.String(),
		"buyer":       buyer,
		"beneficiary": sale.Beneficiary,
		"proceeds":    sale.Proceeds().String(),
	}).Info("sale settled")
	s.pub.Publish(events.SaleSettled{Key: key, Buyer: buyer, Beneficiary: sale.Beneficiary, Proceeds: sale.Proceeds(), Timestamp: time.Now().UTC()})

	if err := s.funds.Transfer(ctx, sale.Beneficiary, sale.Proceeds(), "sale settled: "+key.String()); err != nil {
		log.WithError(err).WithField("key", key.String()).Error("payout could not be journaled")
	}
	return Settlement{Settled: true}
}

func (s *Service) compensate(ctx context.Context, key domain.ListingKey, buyer string, reason string) Settlement {
	sale, err := s.store.Transition(key, domain.SaleStatusPurchasePending, domain.SaleStatusListed)
	if err != nil {
		wrapped := errors.Wrapf(domain.ErrInvariantViolation, "pending sale missing on compensation of %s: %v", key, err)
		log.WithError(err).WithField("key", key.String()).Error("settlement compensation aborted")
		return Settlement{Settled: false, Err: wrapped}
	}

	log.WithFields(map[string]interface{}{
		"key":    key.String(),
		"buyer":  buyer,
		"refund": sale.Price.String(),
		"reason": reason,
	}).Warn("transfer failed, refunding buyer")
	s.pub.Publish(events.PurchaseRefunded{Key: key, Buyer: buyer, Refund: sale.Price, Reason: reason, Timestamp: time.Now().UTC()})

	// Refund the payment only; the deposit stays escrowed with the
	// still-active listing.
	if err := s.funds.Transfer(ctx, buyer, sale.Price, "purchase refund: "+key.String()); err != nil {
		log.WithError(err).WithField("key", key.String()).Error("refund could not be journaled")
	}
	return Settlement{Settled: false, Err: errors.Wrap(domain.ErrGatewayFailure, reason)}
}
