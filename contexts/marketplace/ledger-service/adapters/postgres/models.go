package postgresadapter

import (
	"time"

	"github.com/holiman/uint256"

	"curio/contexts/marketplace/ledger-service/domain/entities"
)

// Monetary columns hold decimal strings so 256-bit amounts round-trip through
// NUMERIC(78,0) without loss.

type tokenModel struct {
	TokenID    uint64 `gorm:"column:token_id;primaryKey"`
	ContentURI string `gorm:"column:content_uri"`
	Price      string `gorm:"column:price"`
	RoyaltyPct int16  `gorm:"column:royalty_pct"`
	Sold       bool   `gorm:"column:sold"`
	MintedBy   string `gorm:"column:minted_by"`
	MintedAt   time.Time
	UpdatedAt  time.Time
}

func (tokenModel) TableName() string { return "ledger_tokens" }

func (m tokenModel) toEntity() entities.Token {
	return entities.Token{
		TokenID:    m.TokenID,
		ContentURI: m.ContentURI,
		Price:      mustAmount(m.Price),
		RoyaltyPct: uint8(m.RoyaltyPct),
		Sold:       m.Sold,
		MintedBy:   m.MintedBy,
		MintedAt:   m.MintedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type auctionModel struct {
	TokenID       uint64 `gorm:"column:token_id;primaryKey"`
	HighestBidder string `gorm:"column:highest_bidder"`
	HighestBid    string `gorm:"column:highest_bid"`
	StartPrice    string `gorm:"column:start_price"`
	StartedAt     time.Time
	EndsAt        time.Time `gorm:"column:ends_at"`
}

func (auctionModel) TableName() string { return "ledger_auctions" }

func (m auctionModel) toEntity() entities.Auction {
	return entities.Auction{
		TokenID:       m.TokenID,
		HighestBidder: m.HighestBidder,
		HighestBid:    mustAmount(m.HighestBid),
		StartPrice:    mustAmount(m.StartPrice),
		StartedAt:     m.StartedAt,
		EndsAt:        m.EndsAt,
	}
}

type accountModel struct {
	AccountID string `gorm:"column:account_id;primaryKey"`
	Balance   string `gorm:"column:balance"`
	Frozen    bool   `gorm:"column:frozen"`
	UpdatedAt time.Time
}

func (accountModel) TableName() string { return "ledger_accounts" }

func (m accountModel) toEntity() entities.Account {
	return entities.Account{
		AccountID: m.AccountID,
		Balance:   mustAmount(m.Balance),
		Frozen:    m.Frozen,
		UpdatedAt: m.UpdatedAt,
	}
}

type eventModel struct {
	Sequence     uint64 `gorm:"column:sequence;primaryKey;autoIncrement"`
	EventType    string `gorm:"column:event_type"`
	TokenID      uint64 `gorm:"column:token_id"`
	Actor        string `gorm:"column:actor"`
	Counterparty string `gorm:"column:counterparty"`
	Amount       string `gorm:"column:amount"`
	OccurredAt   time.Time
}

func (eventModel) TableName() string { return "ledger_events" }

func (m eventModel) toEntity() entities.LedgerEvent {
	return entities.LedgerEvent{
		Sequence:     m.Sequence,
		EventType:    m.EventType,
		TokenID:      m.TokenID,
		Actor:        m.Actor,
		Counterparty: m.Counterparty,
		Amount:       mustAmount(m.Amount),
		OccurredAt:   m.OccurredAt,
	}
}

type outboxModel struct {
	OutboxID     string `gorm:"column:outbox_id;primaryKey"`
	EventType    string `gorm:"column:event_type"`
	PartitionKey string `gorm:"column:partition_key"`
	Payload      []byte `gorm:"column:payload"`
	Status       string `gorm:"column:status"`
	CreatedAt    time.Time
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string { return "ledger_outbox" }

type idempotencyModel struct {
	Key         string `gorm:"column:key;primaryKey"`
	RequestHash string `gorm:"column:request_hash"`
	Payload     []byte `gorm:"column:payload"`
	ExpiresAt   time.Time
}

func (idempotencyModel) TableName() string { return "ledger_idempotency_keys" }

// counterModel holds singleton ledger counters: the next token id and the
// escrow balance, locked FOR UPDATE inside mutating transactions.
type counterModel struct {
	Name  string `gorm:"column:name;primaryKey"`
	Value string `gorm:"column:value"`
}

func (counterModel) TableName() string { return "ledger_counters" }

const (
	counterNextTokenID   = "next_token_id"
	counterEscrowBalance = "escrow_balance"
)

// mustAmount trusts stored columns: they are only ever written via Dec().
func mustAmount(value string) *uint256.Int {
	if value == "" {
		return uint256.NewInt(0)
	}
	amount, err := uint256.FromDecimal(value)
	if err != nil {
		return uint256.NewInt(0)
	}
	return amount
}
