package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/marketbay/marketd/internal/domain"
)

// Publisher fans marketplace events out to subscribers (websocket hub,
// logs). Implementations must not block the settlement path.
type Publisher interface {
	Publish(event Event)
}

// Event is implemented by every marketplace event; Kind tags the JSON
// payload on the wire.
type Event interface {
	Kind() string
}

// NopPublisher drops all events. Used when no feed is attached.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}

type ListingCreated struct {
	Key       domain.ListingKey `json:"key"`
	Sale      *domain.Sale      `json:"sale"`
	Timestamp time.Time         `json:"timestamp"`
}

func (ListingCreated) Kind() string { return "listing_created" }

type ListingCanceled struct {
	Key       domain.ListingKey `json:"key"`
	Owner     string            `json:"owner"`
	Refund    decimal.Decimal   `json:"refund"`
	Timestamp time.Time         `json:"timestamp"`
}

func (ListingCanceled) Kind() string { return "listing_canceled" }

type PurchaseInitiated struct {
	Key       domain.ListingKey `json:"key"`
	TicketID  string            `json:"ticket_id"`
	Buyer     string            `json:"buyer"`
	Payment   decimal.Decimal   `json:"payment"`
	Timestamp time.Time         `json:"timestamp"`
}

func (PurchaseInitiated) Kind() string { return "purchase_initiated" }

type SaleSettled struct {
	Key         domain.ListingKey `json:"key"`
	Buyer       string            `json:"buyer"`
	Beneficiary string            `json:"beneficiary"`
	Proceeds    decimal.Decimal   `json:"proceeds"`
	Timestamp   time.Time         `json:"timestamp"`
}

func (SaleSettled) Kind() string { return "sale_settled" }

type PurchaseRefunded struct {
	Key       domain.ListingKey `json:"key"`
	Buyer     string            `json:"buyer"`
	Refund    decimal.Decimal   `json:"refund"`
	Reason    string            `json:"reason"`
	Timestamp time.Time         `json:"timestamp"`
}

func (PurchaseRefunded) Kind() string { return "purchase_refunded" }
