package errors

import "errors"

var (
	ErrInvalidRequest         = errors.New("invalid request")
	ErrInvalidRoyalty         = errors.New("royalty percentage must be between 0 and 100")
	ErrInvalidDuration        = errors.New("auction duration must be positive")
	ErrInvalidAmount          = errors.New("amount must be a non-negative integer")
	ErrTokenNotFound          = errors.New("token not found")
	ErrAccountNotFound        = errors.New("account not found")
	ErrTokenAlreadySold       = errors.New("token already sold")
	ErrSupplyExhausted        = errors.New("maximum token supply reached")
	ErrWrongPayment           = errors.New("payment does not match required amount")
	ErrInsufficientFunds      = errors.New("insufficient account balance")
	ErrNoActiveAuction        = errors.New("no active auction for token")
	ErrAuctionActive          = errors.New("auction already active for token")
	ErrAuctionUnsettled       = errors.New("expired auction holds an unsettled bid")
	ErrAuctionEnded           = errors.New("auction has ended")
	ErrAuctionNotEnded        = errors.New("auction has not ended yet")
	ErrBidTooLow              = errors.New("bid must be strictly greater than highest bid")
	ErrTransferFailed         = errors.New("payout transfer rejected by recipient account")
	ErrAdminRequired          = errors.New("administrator privilege required")
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrIdempotencyConflict    = errors.New("idempotency key conflict")
	ErrDependencyUnavailable  = errors.New("dependency unavailable")
)
