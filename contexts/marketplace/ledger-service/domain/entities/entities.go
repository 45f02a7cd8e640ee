package entities

import (
	"time"

	"github.com/holiman/uint256"
)

// Token is a uniquely identified non-fungible asset record tracked by the
// marketplace ledger. Identifiers start at 1 and are never reused. ContentURI
// and RoyaltyPct are immutable after mint; Price is mutable while unsold.
type Token struct {
	TokenID    uint64
	ContentURI string
	Price      *uint256.Int
	RoyaltyPct uint8
	Sold       bool
	MintedBy   string
	MintedAt   time.Time
	UpdatedAt  time.Time
}

// Auction is the open auction record for a token. HighestBidder is empty while
// no bid has been accepted. StartPrice is recorded for the event log only and
// is not enforced as a bid floor.
type Auction struct {
	TokenID       uint64
	HighestBidder string
	HighestBid    *uint256.Int
	StartPrice    *uint256.Int
	StartedAt     time.Time
	EndsAt        time.Time
}

// HasBids reports whether at least one bid was accepted.
func (a Auction) HasBids() bool {
	return a.HighestBidder != ""
}

// Expired reports whether the auction end time has passed at now.
func (a Auction) Expired(now time.Time) bool {
	return !now.Before(a.EndsAt)
}

// Account holds a participant balance inside the ledger escrow. A frozen
// account rejects incoming payouts, which aborts the enclosing operation.
type Account struct {
	AccountID string
	Balance   *uint256.Int
	Frozen    bool
	UpdatedAt time.Time
}

// Ledger event types, in the order external indexers observe them.
const (
	EventTokenMinted       = "token.minted"
	EventTokenPriceChanged = "token.price_changed"
	EventTokenRoyaltyPaid  = "token.royalty_paid"
	EventTokenSold         = "token.sold"
	EventAuctionStarted    = "auction.started"
	EventAuctionBidPlaced  = "auction.bid_placed"
	EventAuctionEnded      = "auction.ended"
)

// LedgerEvent is one row of the append-only, totally ordered event log.
// Sequence numbers are assigned on commit; events for a rejected operation are
// never appended.
type LedgerEvent struct {
	Sequence     uint64
	EventType    string
	TokenID      uint64
	Actor        string
	Counterparty string
	Amount       *uint256.Int
	OccurredAt   time.Time
}

// LedgerParams are the global marketplace counters fixed at boot: the exact
// payment every mint requires and the ceiling on total minted tokens.
type LedgerParams struct {
	MintPrice *uint256.Int
	MaxSupply uint64
}

// RoyaltySplit computes the royalty share of a sale amount with floor
// division, plus the remainder owed to the seller. royalty + remainder always
// equals amount.
func RoyaltySplit(amount *uint256.Int, royaltyPct uint8) (royalty, remainder *uint256.Int) {
	royalty = new(uint256.Int).Mul(amount, uint256.NewInt(uint64(royaltyPct)))
	royalty.Div(royalty, uint256.NewInt(100))
	remainder = new(uint256.Int).Sub(amount, royalty)
	return royalty, remainder
}
