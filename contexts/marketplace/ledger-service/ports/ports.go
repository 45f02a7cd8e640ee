package ports

import (
	"context"
	"time"

	"github.com/holiman/uint256"

	"curio/contexts/marketplace/ledger-service/domain/entities"
	"curio/internal/shared/events"
	"curio/internal/shared/outbox"
)

// Clock allows deterministic testing of auction expiry rules.
type Clock interface {
	Now() time.Time
}

// AccessGate is the external capability restricting privileged operations to
// the single designated administrator account.
type AccessGate interface {
	IsAdmin(ctx context.Context, accountID string) (bool, error)
}

// OwnershipRegistry is the external token-registry primitive: it assigns and
// transfers token ids between accounts and guarantees uniqueness. The ledger
// never tracks ownership itself.
type OwnershipRegistry interface {
	Exists(ctx context.Context, tokenID uint64) (bool, error)
	OwnerOf(ctx context.Context, tokenID uint64) (string, error)
	Register(ctx context.Context, tokenID uint64, owner string) error
	Transfer(ctx context.Context, tokenID uint64, from string, to string) error
}

// MintInput carries the caller-supplied fields of a mint request.
type MintInput struct {
	ContentURI string
	RoyaltyPct uint8
	Payment    *uint256.Int
}

// SaleReceipt reports a settled fixed-price purchase.
type SaleReceipt struct {
	Token          entities.Token
	Seller         string
	Buyer          string
	RoyaltyPaid    *uint256.Int
	SellerProceeds *uint256.Int
}

// BidReceipt reports an accepted bid, including the displaced bidder refunded
// before the new bid was recorded.
type BidReceipt struct {
	Auction        entities.Auction
	RefundedBidder string
	RefundedAmount *uint256.Int
}

// SettlementReceipt reports the outcome of closing an auction. HadBids is
// false for the zero-bid settlement path, in which the token stays with its
// seller and no funds move.
type SettlementReceipt struct {
	Token      entities.Token
	Seller     string
	Winner     string
	WinningBid *uint256.Int
	HadBids    bool
}

// TokenListFilter defines read-side filtering/pagination over the catalog.
type TokenListFilter struct {
	Sold   *bool
	Cursor string
	Limit  int
}

// Repository owns ledger state and transaction boundaries. Every mutating
// method applies the full state transition and its balance movements as one
// atomic unit: on any error no state changes and no events are appended.
// Monetary preconditions (payer balance, recipient not frozen) are validated
// before anything is applied.
type Repository interface {
	MintToken(ctx context.Context, minter string, input MintInput, now time.Time) (entities.Token, error)
	SetTokenPrice(ctx context.Context, actor string, tokenID uint64, price *uint256.Int, now time.Time) (entities.Token, error)
	// PurchaseToken settles a fixed-price sale: finalize state (sold flag,
	// ownership transfer), then pay royalty and remainder out of escrow.
	PurchaseToken(ctx context.Context, buyer string, tokenID uint64, payment *uint256.Int, now time.Time) (SaleReceipt, error)
	OpenAuction(ctx context.Context, actor string, tokenID uint64, startPrice *uint256.Int, endsAt time.Time, now time.Time) (entities.Auction, error)
	// RecordBid refunds the displaced bidder in full before accepting the new
	// high bid, so escrow always covers all outstanding bids.
	RecordBid(ctx context.Context, bidder string, tokenID uint64, amount *uint256.Int, now time.Time) (BidReceipt, error)
	SettleAuction(ctx context.Context, actor string, tokenID uint64, now time.Time) (SettlementReceipt, error)
	// SweepBalance moves the entire escrow balance to the given account and
	// returns the amount swept.
	SweepBalance(ctx context.Context, to string, now time.Time) (*uint256.Int, error)
	Deposit(ctx context.Context, accountID string, amount *uint256.Int, now time.Time) (entities.Account, error)

	GetToken(ctx context.Context, tokenID uint64) (entities.Token, error)
	ListTokens(ctx context.Context, filter TokenListFilter) ([]entities.Token, string, error)
	GetAuction(ctx context.Context, tokenID uint64) (entities.Auction, error)
	GetAccount(ctx context.Context, accountID string) (entities.Account, error)
	ListEvents(ctx context.Context, afterSequence uint64, limit int) ([]entities.LedgerEvent, error)
}

// TokenView joins ledger token state with the registry's current owner for
// read responses.
type TokenView struct {
	TokenID    uint64
	ContentURI string
	Price      *uint256.Int
	RoyaltyPct uint8
	Sold       bool
	Owner      string
	MintedBy   string
	MintedAt   time.Time
	UpdatedAt  time.Time
}

func NewTokenView(token entities.Token, owner string) TokenView {
	return TokenView{
		TokenID:    token.TokenID,
		ContentURI: token.ContentURI,
		Price:      token.Price,
		RoyaltyPct: token.RoyaltyPct,
		Sold:       token.Sold,
		Owner:      owner,
		MintedBy:   token.MintedBy,
		MintedAt:   token.MintedAt,
		UpdatedAt:  token.UpdatedAt,
	}
}

type AuctionView struct {
	TokenID       uint64
	HighestBidder string
	HighestBid    *uint256.Int
	StartPrice    *uint256.Int
	StartedAt     time.Time
	EndsAt        time.Time
}

type AccountView struct {
	AccountID string
	Balance   *uint256.Int
}

type EventView struct {
	Sequence     uint64
	EventType    string
	TokenID      uint64
	Actor        string
	Counterparty string
	Amount       *uint256.Int
	OccurredAt   time.Time
}

// IdempotencyRecord captures dedupe metadata for mutating requests.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	Payload     []byte
	ExpiresAt   time.Time
}

// IdempotencyStore abstracts idempotency persistence with TTL handling.
type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

// OutboxMessage reuses the shared outbox row contract.
type OutboxMessage = outbox.Message

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

// EventEnvelope reuses the canonical cross-service envelope contract.
type EventEnvelope = events.Envelope

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// EventSubscriber registers a topic consumer callback.
type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}
