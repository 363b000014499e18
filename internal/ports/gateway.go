package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// Small capability interfaces shared across layers (settlement/server/adapters).

// TransferRequest asks a custodial asset service to move ownership of
// one asset. The service enforces the ExpectedOwner check itself and
// rejects the transfer when the asset is no longer held by that owner.
type TransferRequest struct {
	ServiceID     string
	AssetID       string
	Recipient     string
	ExpectedOwner string
	Memo          string
}

// TransferOutcome is the gateway's verdict on a transfer attempt.
// Timeouts and transport failures surface as Transferred=false.
type TransferOutcome struct {
	Transferred bool
	Reason      string
}

type AssetGateway interface {
	// AttemptTransfer performs the ownership transfer and reports its
	// outcome. The returned error is diagnostic only; settlement treats
	// any non-transferred outcome the same way.
	AttemptTransfer(ctx context.Context, req TransferRequest) (TransferOutcome, error)
}

type FundMover interface {
	// Transfer schedules delivery of amount to recipient. Delivery is
	// fire-and-forget with eventual, reliable completion; an error here
	// means the transfer could not be journaled at all.
	Transfer(ctx context.Context, recipient string, amount decimal.Decimal, memo string) error
}
