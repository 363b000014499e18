package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/marketbay/marketd/internal/domain"
	"github.com/marketbay/marketd/internal/events"
	"github.com/marketbay/marketd/internal/ports"
	"github.com/marketbay/marketd/internal/registry"
)

// Settlement is the terminal outcome of one purchase attempt.
type Settlement struct {
	Settled bool
	Err     error // nil when settled; wraps ErrGatewayFailure on compensation
}

// PendingPurchase is the asynchronous handle returned by Purchase. It
// carries exactly the facts the resolution needs: the listing key and
// the buyer. The outcome arrives on Done.
type PendingPurchase struct {
	ID    string
	Key   domain.ListingKey
	Buyer string

	done chan Settlement
}

// Done delivers the settlement outcome exactly once.
func (p *PendingPurchase) Done() <-chan Settlement {
	return p.done
}

// Purchase is phase one of the settlement saga. The payment must
// already be under marketplace control when this is called; validation
// failures return synchronously with no gateway call and no fund
// movement. On success the listing is locked in purchase_pending, the
// ownership transfer is dispatched to the gateway, and resolution runs
// asynchronously when the gateway reports its outcome.
func (s *Service) Purchase(ctx context.Context, key domain.ListingKey, buyer string, payment decimal.Decimal) (*PendingPurchase, error) {
	sale, err := s.store.Get(key)
	if err != nil {
		return nil, err
	}
	if sale.IsPending() {
		return nil, domain.ErrPurchaseInProgress
	}
	if !payment.Equal(sale.Price) {
		return nil, errors.Wrapf(domain.ErrWrongAmount, "attached %s, sale price %s", payment, sale.Price)
	}

	// Lock the listing for this purchase. A concurrent purchase that won
	// the race leaves the status already pending; reject rather than
	// escrowing a second payment against one asset.
	sale, err = s.store.Transition(key, domain.SaleStatusListed, domain.SaleStatusPurchasePending)
	if err != nil {
		if errors.Is(err, registry.ErrStatusMismatch) {
			return nil, domain.ErrPurchaseInProgress
		}
		return nil, err
	}

	// The record can be canceled and relisted at a different price
	// between the validation read and the lock. The payment must match
	// the sale actually locked; on mismatch, unlock and reject. The
	// pending status shields the record from other writers until the
	// rollback lands.
	if !payment.Equal(sale.Price) {
		if _, rbErr := s.store.Transition(key, domain.SaleStatusPurchasePending, domain.SaleStatusListed); rbErr != nil {
			log.WithError(rbErr).WithField("key", key.String()).Error("unlock after price mismatch failed")
		}
		return nil, errors.Wrapf(domain.ErrWrongAmount, "attached %s, sale price %s", payment, sale.Price)
	}

	p := &PendingPurchase{
		ID:    uuid.NewString(),
		Key:   key,
		Buyer: buyer,
		done:  make(chan Settlement, 1),
	}
	s.mu.Lock()
	s.pending[key.String()] = p
	s.mu.Unlock()

	req := ports.TransferRequest{
		ServiceID:     key.ServiceID,
		AssetID:       key.AssetID,
		Recipient:     buyer,
		ExpectedOwner: sale.Owner,
		Memo:          s.cfg.TransferMemo,
	}

	log.WithFields(map[string]interface{}{
		"ticket": p.ID,
		"key":    key.String(),
		"buyer":  buyer,
		"price":  sale.Price.String(),
	}).Info("purchase initiated, dispatching transfer")
	s.pub.Publish(events.PurchaseInitiated{Key: key, TicketID: p.ID, Buyer: buyer, Payment: payment, Timestamp: time.Now().UTC()})

	s.wg.Add(1)
	go s.dispatch(p, req)
	return p, nil
}

// dispatch performs the remote transfer and feeds its outcome to the
// resolution. Transport errors and timeouts become failed outcomes; the
// resolution always runs, so every ticket settles exactly once.
func (s *Service) dispatch(p *PendingPurchase, req ports.TransferRequest) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GatewayTimeout)
	defer cancel()

	outcome, err := s.gateway.AttemptTransfer(ctx, req)
	if err != nil {
		log.WithError(err).WithField("ticket", p.ID).Warn("gateway transfer errored")
		outcome = ports.TransferOutcome{Transferred: false, Reason: err.Error()}
	}

	p.done <- s.Resolve(p.Key, p.Buyer, outcome)
}
