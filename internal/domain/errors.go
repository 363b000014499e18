package domain

import "errors"

// Error taxonomy for listing and settlement operations. Callers match
// with errors.Is; layers above attach context via wrapping.
var (
	// ErrNotFound means no listing exists at the key.
	ErrNotFound = errors.New("no sale at listing key")

	// ErrDuplicateListing means a listing already occupies the key.
	ErrDuplicateListing = errors.New("listing key already occupied")

	// ErrNotOwner means the caller is not the listing owner.
	ErrNotOwner = errors.New("caller is not the listing owner")

	// ErrInsufficientDeposit means the attached deposit is below the
	// configured minimum.
	ErrInsufficientDeposit = errors.New("deposit below minimum")

	// ErrWrongAmount means the attached payment does not equal the sale
	// price exactly.
	ErrWrongAmount = errors.New("payment does not match sale price")

	// ErrInvalidAmount means a supplied amount is malformed, e.g. a
	// negative listing price.
	ErrInvalidAmount = errors.New("amount must not be negative")

	// ErrPurchaseInProgress means a purchase against the listing is
	// already pending gateway resolution.
	ErrPurchaseInProgress = errors.New("purchase already in progress")

	// ErrGatewayFailure means the asset gateway rejected or failed the
	// ownership transfer (timeouts included).
	ErrGatewayFailure = errors.New("asset gateway transfer failed")

	// ErrInvariantViolation means internal state broke an invariant the
	// settlement protocol guarantees, e.g. a pending listing vanished
	// before resolution. Settlement aborts rather than moving funds.
	ErrInvariantViolation = errors.New("settlement invariant violated")
)
