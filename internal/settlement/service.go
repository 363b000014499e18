package settlement

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/marketbay/marketd/internal/domain"
	"github.com/marketbay/marketd/internal/events"
	"github.com/marketbay/marketd/internal/ports"
	"github.com/marketbay/marketd/internal/registry"
)

// SaleStore is the registry surface the settlement protocol drives.
// Every mutation is conditional: the guards run inside the store's own
// transaction, so a record swapped out between a read here and the
// mutation cannot be acted on under stale assumptions.
type SaleStore interface {
	Create(key domain.ListingKey, sale *domain.Sale) error
	Get(key domain.ListingKey) (*domain.Sale, error)
	Transition(key domain.ListingKey, from, to domain.SaleStatus) (*domain.Sale, error)
	RemoveIfStatus(key domain.ListingKey, want domain.SaleStatus) (*domain.Sale, error)
	RemoveIfOwnerAndStatus(key domain.ListingKey, owner string, want domain.SaleStatus) (*domain.Sale, error)
	List() ([]registry.Listing, error)
}

var log = logrus.WithField("component", "settlement")

// DefaultMinDeposit is the minimum amount a lister must escrow to
// create a listing (0.1 native units).
var DefaultMinDeposit = decimal.RequireFromString("0.1")

const (
	// DefaultTransferMemo is attached to gateway transfer requests.
	DefaultTransferMemo = "Sold by Market"

	// DefaultGatewayTimeout bounds one transfer attempt; expiry is
	// surfaced to resolution as a failed outcome.
	DefaultGatewayTimeout = 30 * time.Second
)

type Config struct {
	MinDeposit     decimal.Decimal
	TransferMemo   string
	GatewayTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.MinDeposit.IsZero() {
		c.MinDeposit = DefaultMinDeposit
	}
	if c.TransferMemo == "" {
		c.TransferMemo = DefaultTransferMemo
	}
	if c.GatewayTimeout <= 0 {
		c.GatewayTimeout = DefaultGatewayTimeout
	}
}

// Service coordinates the purchase settlement saga on top of the
// passive listing registry. The remote transfer step cannot be rolled
// back, so recovery is forward-only: the resolution either commits the
// payout or compensates the buyer with a refund.
type Service struct {
	cfg     Config
	store   SaleStore
	gateway ports.AssetGateway
	funds   ports.FundMover
	pub     events.Publisher

	mu      sync.Mutex
	pending map[string]*PendingPurchase // by ListingKey string, one in flight per key
	wg      sync.WaitGroup
}

func New(cfg Config, store SaleStore, gateway ports.AssetGateway, funds ports.FundMover, pub events.Publisher) *Service {
	cfg.applyDefaults()
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Service{
		cfg:     cfg,
		store:   store,
		gateway: gateway,
		funds:   funds,
		pub:     pub,
		pending: make(map[string]*PendingPurchase),
	}
}

// Wait blocks until every in-flight purchase has resolved. Called on
// shutdown so no ticket is abandoned mid-saga.
func (s *Service) Wait() {
	s.wg.Wait()
}
