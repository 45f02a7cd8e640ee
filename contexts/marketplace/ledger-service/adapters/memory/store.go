package memory

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"curio/contexts/marketplace/ledger-service/domain/entities"
	domainerrors "curio/contexts/marketplace/ledger-service/domain/errors"
	"curio/contexts/marketplace/ledger-service/ports"
	"curio/internal/shared/events"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"

	sourceService = "curio-ledger"
)

type outboxRow struct {
	message ports.OutboxMessage
	status  string
	sentAt  time.Time
}

// Store is the reference repository implementation. A single mutex serializes
// operations, matching the ledger's execution model: every call observes fully
// applied or fully rejected transitions. Mutating methods validate every
// precondition, including payer balance and recipient freeze state, before
// touching any state, so a rejected operation never leaves partial updates.
type Store struct {
	mu sync.RWMutex

	params   entities.LedgerParams
	registry ports.OwnershipRegistry

	tokensByID      map[uint64]entities.Token
	auctionsByToken map[uint64]entities.Auction
	accountsByID    map[string]entities.Account
	events          []entities.LedgerEvent
	outbox          []outboxRow

	idempotency map[string]ports.IdempotencyRecord

	nextTokenID   uint64
	eventSequence uint64
	escrowBalance *uint256.Int
}

func NewStore(params entities.LedgerParams, registry ports.OwnershipRegistry) *Store {
	mintPrice := params.MintPrice
	if mintPrice == nil {
		mintPrice = uint256.NewInt(0)
	}
	return &Store{
		params: entities.LedgerParams{
			MintPrice: mintPrice.Clone(),
			MaxSupply: params.MaxSupply,
		},
		registry:        registry,
		tokensByID:      make(map[uint64]entities.Token),
		auctionsByToken: make(map[uint64]entities.Auction),
		accountsByID:    make(map[string]entities.Account),
		idempotency:     make(map[string]ports.IdempotencyRecord),
		nextTokenID:     1,
		escrowBalance:   uint256.NewInt(0),
	}
}

func (s *Store) MintToken(
	ctx context.Context,
	minter string,
	input ports.MintInput,
	now time.Time,
) (entities.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if uint64(len(s.tokensByID)) >= s.params.MaxSupply {
		return entities.Token{}, domainerrors.ErrSupplyExhausted
	}
	if input.RoyaltyPct > 100 {
		return entities.Token{}, domainerrors.ErrInvalidRoyalty
	}
	if input.Payment == nil || !input.Payment.Eq(s.params.MintPrice) {
		return entities.Token{}, domainerrors.ErrWrongPayment
	}
	if err := s.checkDebit(minter, input.Payment); err != nil {
		return entities.Token{}, err
	}

	tokenID := s.nextTokenID
	if err := s.registry.Register(ctx, tokenID, minter); err != nil {
		return entities.Token{}, err
	}

	s.nextTokenID++
	s.debit(minter, input.Payment, now)

	now = now.UTC()
	token := entities.Token{
		TokenID:    tokenID,
		ContentURI: input.ContentURI,
		Price:      s.params.MintPrice.Clone(),
		RoyaltyPct: input.RoyaltyPct,
		Sold:       false,
		MintedBy:   minter,
		MintedAt:   now,
		UpdatedAt:  now,
	}
	s.tokensByID[tokenID] = token
	s.appendEvent(entities.EventTokenMinted, tokenID, minter, "", input.Payment, now)

	return cloneToken(token), nil
}

func (s *Store) SetTokenPrice(
	ctx context.Context,
	actor string,
	tokenID uint64,
	price *uint256.Int,
	now time.Time,
) (entities.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokensByID[tokenID]
	if !ok {
		return entities.Token{}, domainerrors.ErrTokenNotFound
	}
	if token.Sold {
		return entities.Token{}, domainerrors.ErrTokenAlreadySold
	}

	now = now.UTC()
	token.Price = price.Clone()
	token.UpdatedAt = now
	s.tokensByID[tokenID] = token
	s.appendEvent(entities.EventTokenPriceChanged, tokenID, actor, "", price, now)

	return cloneToken(token), nil
}

func (s *Store) PurchaseToken(
	ctx context.Context,
	buyer string,
	tokenID uint64,
	payment *uint256.Int,
	now time.Time,
) (ports.SaleReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokensByID[tokenID]
	if !ok {
		return ports.SaleReceipt{}, domainerrors.ErrTokenNotFound
	}
	if token.Sold {
		return ports.SaleReceipt{}, domainerrors.ErrTokenAlreadySold
	}
	if !payment.Eq(token.Price) {
		return ports.SaleReceipt{}, domainerrors.ErrWrongPayment
	}

	seller, err := s.registry.OwnerOf(ctx, tokenID)
	if err != nil {
		return ports.SaleReceipt{}, err
	}
	if err := s.checkDebit(buyer, payment); err != nil {
		return ports.SaleReceipt{}, err
	}
	// Royalty and remainder both land on the seller; a frozen seller account
	// rejects the payout and aborts the whole purchase.
	if err := s.checkCredit(seller); err != nil {
		return ports.SaleReceipt{}, err
	}

	// Finalize ownership and sale state before funds leave escrow.
	if err := s.registry.Transfer(ctx, tokenID, seller, buyer); err != nil {
		return ports.SaleReceipt{}, err
	}

	now = now.UTC()
	token.Sold = true
	token.UpdatedAt = now
	s.tokensByID[tokenID] = token

	royalty, remainder := entities.RoyaltySplit(payment, token.RoyaltyPct)
	s.debit(buyer, payment, now)
	s.payout(seller, royalty, now)
	s.payout(seller, remainder, now)

	s.appendEvent(entities.EventTokenRoyaltyPaid, tokenID, buyer, seller, royalty, now)
	s.appendEvent(entities.EventTokenSold, tokenID, buyer, seller, payment, now)

	return ports.SaleReceipt{
		Token:          cloneToken(token),
		Seller:         seller,
		Buyer:          buyer,
		RoyaltyPaid:    royalty.Clone(),
		SellerProceeds: remainder.Clone(),
	}, nil
}

func (s *Store) OpenAuction(
	ctx context.Context,
	actor string,
	tokenID uint64,
	startPrice *uint256.Int,
	endsAt time.Time,
	now time.Time,
) (entities.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokensByID[tokenID]
	if !ok {
		return entities.Auction{}, domainerrors.ErrTokenNotFound
	}
	if token.Sold {
		return entities.Auction{}, domainerrors.ErrTokenAlreadySold
	}
	if existing, ok := s.auctionsByToken[tokenID]; ok {
		if !existing.Expired(now) {
			return entities.Auction{}, domainerrors.ErrAuctionActive
		}
		// An expired auction that collected bids must settle through
		// SettleAuction first so the leading bid is never stranded.
		if existing.HasBids() {
			return entities.Auction{}, domainerrors.ErrAuctionUnsettled
		}
	}

	now = now.UTC()
	auction := entities.Auction{
		TokenID:       tokenID,
		HighestBidder: "",
		HighestBid:    uint256.NewInt(0),
		StartPrice:    startPrice.Clone(),
		StartedAt:     now,
		EndsAt:        endsAt.UTC(),
	}
	s.auctionsByToken[tokenID] = auction
	s.appendEvent(entities.EventAuctionStarted, tokenID, actor, "", startPrice, now)

	return cloneAuction(auction), nil
}

func (s *Store) RecordBid(
	ctx context.Context,
	bidder string,
	tokenID uint64,
	amount *uint256.Int,
	now time.Time,
) (ports.BidReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokensByID[tokenID]
	if !ok {
		return ports.BidReceipt{}, domainerrors.ErrTokenNotFound
	}
	if token.Sold {
		return ports.BidReceipt{}, domainerrors.ErrTokenAlreadySold
	}
	auction, ok := s.auctionsByToken[tokenID]
	if !ok {
		return ports.BidReceipt{}, domainerrors.ErrNoActiveAuction
	}
	if auction.Expired(now) {
		return ports.BidReceipt{}, domainerrors.ErrAuctionEnded
	}
	if !amount.Gt(auction.HighestBid) {
		return ports.BidReceipt{}, domainerrors.ErrBidTooLow
	}
	if err := s.checkDebit(bidder, amount); err != nil {
		return ports.BidReceipt{}, err
	}
	// The displaced bidder is refunded in full before the new bid is
	// accepted; a refund that cannot land rejects the new bid.
	if auction.HasBids() {
		if err := s.checkCredit(auction.HighestBidder); err != nil {
			return ports.BidReceipt{}, err
		}
	}

	now = now.UTC()
	refundedBidder := auction.HighestBidder
	refundedAmount := uint256.NewInt(0)
	s.debit(bidder, amount, now)
	if auction.HasBids() {
		refundedAmount = auction.HighestBid.Clone()
		s.payout(refundedBidder, auction.HighestBid, now)
	}

	auction.HighestBidder = bidder
	auction.HighestBid = amount.Clone()
	s.auctionsByToken[tokenID] = auction
	s.appendEvent(entities.EventAuctionBidPlaced, tokenID, bidder, refundedBidder, amount, now)

	return ports.BidReceipt{
		Auction:        cloneAuction(auction),
		RefundedBidder: refundedBidder,
		RefundedAmount: refundedAmount,
	}, nil
}

func (s *Store) SettleAuction(
	ctx context.Context,
	actor string,
	tokenID uint64,
	now time.Time,
) (ports.SettlementReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokensByID[tokenID]
	if !ok {
		return ports.SettlementReceipt{}, domainerrors.ErrTokenNotFound
	}
	auction, ok := s.auctionsByToken[tokenID]
	if !ok {
		return ports.SettlementReceipt{}, domainerrors.ErrNoActiveAuction
	}
	if !auction.Expired(now) {
		return ports.SettlementReceipt{}, domainerrors.ErrAuctionNotEnded
	}

	seller, err := s.registry.OwnerOf(ctx, tokenID)
	if err != nil {
		return ports.SettlementReceipt{}, err
	}
	if auction.HasBids() {
		if err := s.checkCredit(seller); err != nil {
			return ports.SettlementReceipt{}, err
		}
		if err := s.registry.Transfer(ctx, tokenID, seller, auction.HighestBidder); err != nil {
			return ports.SettlementReceipt{}, err
		}
	}

	now = now.UTC()
	token.Sold = true
	token.UpdatedAt = now
	s.tokensByID[tokenID] = token
	delete(s.auctionsByToken, tokenID)

	winningBid := auction.HighestBid.Clone()
	if auction.HasBids() {
		s.payout(seller, auction.HighestBid, now)
	}

	s.appendEvent(entities.EventAuctionEnded, tokenID, auction.HighestBidder, seller, winningBid, now)
	if auction.HasBids() {
		s.appendEvent(entities.EventTokenSold, tokenID, auction.HighestBidder, seller, winningBid, now)
	}

	return ports.SettlementReceipt{
		Token:      cloneToken(token),
		Seller:     seller,
		Winner:     auction.HighestBidder,
		WinningBid: winningBid,
		HadBids:    auction.HasBids(),
	}, nil
}

func (s *Store) SweepBalance(ctx context.Context, to string, now time.Time) (*uint256.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCredit(to); err != nil {
		return nil, err
	}

	amount := s.escrowBalance.Clone()
	if !amount.IsZero() {
		s.credit(to, amount, now.UTC())
	}
	s.escrowBalance = uint256.NewInt(0)
	return amount, nil
}

func (s *Store) Deposit(
	ctx context.Context,
	accountID string,
	amount *uint256.Int,
	now time.Time,
) (entities.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCredit(accountID); err != nil {
		return entities.Account{}, err
	}
	s.credit(accountID, amount, now.UTC())
	return cloneAccount(s.accountsByID[accountID]), nil
}

func (s *Store) GetToken(ctx context.Context, tokenID uint64) (entities.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokensByID[tokenID]
	if !ok {
		return entities.Token{}, domainerrors.ErrTokenNotFound
	}
	return cloneToken(token), nil
}

func (s *Store) ListTokens(
	ctx context.Context,
	filter ports.TokenListFilter,
) ([]entities.Token, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	matched := make([]entities.Token, 0, len(s.tokensByID))
	for id := uint64(1); id < s.nextTokenID; id++ {
		token, ok := s.tokensByID[id]
		if !ok {
			continue
		}
		if filter.Sold != nil && token.Sold != *filter.Sold {
			continue
		}
		matched = append(matched, token)
	}

	offset := decodeCursor(filter.Cursor)
	if offset < 0 || offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	nextCursor := ""
	if end < len(matched) {
		nextCursor = encodeCursor(end)
	} else {
		end = len(matched)
	}

	items := make([]entities.Token, 0, end-offset)
	for _, token := range matched[offset:end] {
		items = append(items, cloneToken(token))
	}
	return items, nextCursor, nil
}

func (s *Store) GetAuction(ctx context.Context, tokenID uint64) (entities.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.tokensByID[tokenID]; !ok {
		return entities.Auction{}, domainerrors.ErrTokenNotFound
	}
	auction, ok := s.auctionsByToken[tokenID]
	if !ok {
		return entities.Auction{}, domainerrors.ErrNoActiveAuction
	}
	return cloneAuction(auction), nil
}

func (s *Store) GetAccount(ctx context.Context, accountID string) (entities.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accountsByID[accountID]
	if !ok {
		return entities.Account{}, domainerrors.ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

func (s *Store) ListEvents(
	ctx context.Context,
	afterSequence uint64,
	limit int,
) ([]entities.LedgerEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]entities.LedgerEvent, 0, limit)
	for _, event := range s.events {
		if event.Sequence <= afterSequence {
			continue
		}
		items = append(items, cloneEvent(event))
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

// EscrowBalance exposes the held balance for tests and inspection.
func (s *Store) EscrowBalance() *uint256.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.escrowBalance.Clone()
}

// FreezeAccount makes an account reject incoming payouts, standing in for an
// external recipient that refuses a transfer.
func (s *Store) FreezeAccount(accountID string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account := s.accountAt(accountID, now.UTC())
	account.Frozen = true
	s.accountsByID[accountID] = account
}

func (s *Store) Get(
	ctx context.Context,
	key string,
	now time.Time,
) (ports.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.idempotency[key]
	if !ok || now.After(record.ExpiresAt) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.idempotency[record.Key] = record
	return nil
}

func (s *Store) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, limit)
	for _, row := range s.outbox {
		if row.status != outboxStatusPending {
			continue
		}
		items = append(items, row.message)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == outboxID {
			s.outbox[i].status = outboxStatusSent
			s.outbox[i].sentAt = sentAt.UTC()
			return nil
		}
	}
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

// checkDebit validates a payer can fund amount without mutating anything.
func (s *Store) checkDebit(accountID string, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	account, ok := s.accountsByID[accountID]
	if !ok || account.Balance.Lt(amount) {
		return domainerrors.ErrInsufficientFunds
	}
	return nil
}

// checkCredit validates a payout recipient without mutating anything.
func (s *Store) checkCredit(accountID string) error {
	if account, ok := s.accountsByID[accountID]; ok && account.Frozen {
		return domainerrors.ErrTransferFailed
	}
	return nil
}

// debit moves funds from an account into escrow. Callers must have validated
// via checkDebit first.
func (s *Store) debit(accountID string, amount *uint256.Int, now time.Time) {
	if amount.IsZero() {
		return
	}
	account := s.accountAt(accountID, now)
	account.Balance = new(uint256.Int).Sub(account.Balance, amount)
	account.UpdatedAt = now
	s.accountsByID[accountID] = account
	s.escrowBalance.Add(s.escrowBalance, amount)
}

// payout moves funds from escrow to an account. Callers must have validated
// via checkCredit first.
func (s *Store) payout(accountID string, amount *uint256.Int, now time.Time) {
	if amount.IsZero() {
		return
	}
	s.credit(accountID, amount, now)
	s.escrowBalance.Sub(s.escrowBalance, amount)
}

func (s *Store) credit(accountID string, amount *uint256.Int, now time.Time) {
	account := s.accountAt(accountID, now)
	account.Balance = new(uint256.Int).Add(account.Balance, amount)
	account.UpdatedAt = now
	s.accountsByID[accountID] = account
}

func (s *Store) accountAt(accountID string, now time.Time) entities.Account {
	account, ok := s.accountsByID[accountID]
	if !ok {
		account = entities.Account{
			AccountID: accountID,
			Balance:   uint256.NewInt(0),
			UpdatedAt: now,
		}
	}
	return account
}

func (s *Store) appendEvent(
	eventType string,
	tokenID uint64,
	actor string,
	counterparty string,
	amount *uint256.Int,
	now time.Time,
) {
	s.eventSequence++
	event := entities.LedgerEvent{
		Sequence:     s.eventSequence,
		EventType:    eventType,
		TokenID:      tokenID,
		Actor:        actor,
		Counterparty: counterparty,
		Amount:       amount.Clone(),
		OccurredAt:   now,
	}
	s.events = append(s.events, event)

	payload, _ := json.Marshal(events.NewTokenEvent(sourceService, eventType, now, events.TokenEventPayload{
		Sequence:     event.Sequence,
		TokenID:      tokenID,
		Actor:        actor,
		Counterparty: counterparty,
		Amount:       amount.Dec(),
	}))
	s.outbox = append(s.outbox, outboxRow{
		message: ports.OutboxMessage{
			OutboxID:     uuid.NewString(),
			EventType:    eventType,
			PartitionKey: strconv.FormatUint(tokenID, 10),
			Payload:      payload,
			CreatedAt:    now,
		},
		status: outboxStatusPending,
	})
}

func cloneToken(token entities.Token) entities.Token {
	out := token
	out.Price = token.Price.Clone()
	return out
}

func cloneAuction(auction entities.Auction) entities.Auction {
	out := auction
	out.HighestBid = auction.HighestBid.Clone()
	out.StartPrice = auction.StartPrice.Clone()
	return out
}

func cloneAccount(account entities.Account) entities.Account {
	out := account
	out.Balance = account.Balance.Clone()
	return out
}

func cloneEvent(event entities.LedgerEvent) entities.LedgerEvent {
	out := event
	out.Amount = event.Amount.Clone()
	return out
}

func encodeCursor(offset int) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

func decodeCursor(cursor string) int {
	if cursor == "" {
		return 0
	}
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return -1
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil {
		return -1
	}
	return offset
}
