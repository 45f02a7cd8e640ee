package postgresadapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

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

// Repository is the Postgres-backed ledger store. Every mutating method runs
// inside one transaction with the touched rows locked FOR UPDATE, so a
// rejected operation rolls back in full: no sold flag, no balance movement,
// no event or outbox rows.
type Repository struct {
	db       *gorm.DB
	registry ports.OwnershipRegistry
	params   entities.LedgerParams
	logger   *slog.Logger
}

func NewRepository(
	db *gorm.DB,
	registry ports.OwnershipRegistry,
	params entities.LedgerParams,
	logger *slog.Logger,
) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	if params.MintPrice == nil {
		params.MintPrice = uint256.NewInt(0)
	}
	return &Repository{
		db:       db,
		registry: registry,
		params:   params,
		logger:   logger,
	}
}

func (r *Repository) MintToken(
	ctx context.Context,
	minter string,
	input ports.MintInput,
	now time.Time,
) (entities.Token, error) {
	var out entities.Token
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		nextID, err := lockCounter(tx, counterNextTokenID, "1")
		if err != nil {
			return err
		}
		tokenID, err := strconv.ParseUint(nextID, 10, 64)
		if err != nil {
			return err
		}
		if tokenID-1 >= r.params.MaxSupply {
			return domainerrors.ErrSupplyExhausted
		}
		if input.RoyaltyPct > 100 {
			return domainerrors.ErrInvalidRoyalty
		}
		if input.Payment == nil || !input.Payment.Eq(r.params.MintPrice) {
			return domainerrors.ErrWrongPayment
		}
		if err := debitAccount(tx, minter, input.Payment, now); err != nil {
			return err
		}
		if err := creditEscrow(tx, input.Payment); err != nil {
			return err
		}

		row := tokenModel{
			TokenID:    tokenID,
			ContentURI: input.ContentURI,
			Price:      r.params.MintPrice.Dec(),
			RoyaltyPct: int16(input.RoyaltyPct),
			Sold:       false,
			MintedBy:   minter,
			MintedAt:   now.UTC(),
			UpdatedAt:  now.UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if err := saveCounter(tx, counterNextTokenID, strconv.FormatUint(tokenID+1, 10)); err != nil {
			return err
		}
		if err := appendEvent(tx, entities.EventTokenMinted, tokenID, minter, "", input.Payment, now); err != nil {
			return err
		}
		// The registry lives outside this transaction; call it only once every
		// ledger-side check has passed.
		if err := r.registry.Register(ctx, tokenID, minter); err != nil {
			return err
		}
		out = row.toEntity()
		return nil
	})
	if err != nil {
		return entities.Token{}, err
	}
	return out, nil
}

func (r *Repository) SetTokenPrice(
	ctx context.Context,
	actor string,
	tokenID uint64,
	price *uint256.Int,
	now time.Time,
) (entities.Token, error) {
	var out entities.Token
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockToken(tx, tokenID)
		if err != nil {
			return err
		}
		if row.Sold {
			return domainerrors.ErrTokenAlreadySold
		}
		row.Price = price.Dec()
		row.UpdatedAt = now.UTC()
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		if err := appendEvent(tx, entities.EventTokenPriceChanged, tokenID, actor, "", price, now); err != nil {
			return err
		}
		out = row.toEntity()
		return nil
	})
	if err != nil {
		return entities.Token{}, err
	}
	return out, nil
}

func (r *Repository) PurchaseToken(
	ctx context.Context,
	buyer string,
	tokenID uint64,
	payment *uint256.Int,
	now time.Time,
) (ports.SaleReceipt, error) {
	var out ports.SaleReceipt
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockToken(tx, tokenID)
		if err != nil {
			return err
		}
		if row.Sold {
			return domainerrors.ErrTokenAlreadySold
		}
		if !payment.Eq(mustAmount(row.Price)) {
			return domainerrors.ErrWrongPayment
		}
		seller, err := r.registry.OwnerOf(ctx, tokenID)
		if err != nil {
			return err
		}

		// Finalize sale state before funds leave escrow.
		row.Sold = true
		row.UpdatedAt = now.UTC()
		if err := tx.Save(&row).Error; err != nil {
			return err
		}

		royalty, remainder := entities.RoyaltySplit(payment, uint8(row.RoyaltyPct))
		if err := debitAccount(tx, buyer, payment, now); err != nil {
			return err
		}
		if err := creditAccount(tx, seller, royalty, now); err != nil {
			return err
		}
		if err := creditAccount(tx, seller, remainder, now); err != nil {
			return err
		}

		if err := appendEvent(tx, entities.EventTokenRoyaltyPaid, tokenID, buyer, seller, royalty, now); err != nil {
			return err
		}
		if err := appendEvent(tx, entities.EventTokenSold, tokenID, buyer, seller, payment, now); err != nil {
			return err
		}
		// The registry lives outside this transaction; call it only once every
		// ledger-side check has passed.
		if err := r.registry.Transfer(ctx, tokenID, seller, buyer); err != nil {
			return err
		}

		out = ports.SaleReceipt{
			Token:          row.toEntity(),
			Seller:         seller,
			Buyer:          buyer,
			RoyaltyPaid:    royalty,
			SellerProceeds: remainder,
		}
		return nil
	})
	if err != nil {
		return ports.SaleReceipt{}, err
	}
	return out, nil
}

func (r *Repository) OpenAuction(
	ctx context.Context,
	actor string,
	tokenID uint64,
	startPrice *uint256.Int,
	endsAt time.Time,
	now time.Time,
) (entities.Auction, error) {
	var out entities.Auction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockToken(tx, tokenID)
		if err != nil {
			return err
		}
		if row.Sold {
			return domainerrors.ErrTokenAlreadySold
		}

		var existing auctionModel
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("token_id = ?", tokenID).
			First(&existing).
			Error
		switch {
		case err == nil:
			if now.Before(existing.EndsAt) {
				return domainerrors.ErrAuctionActive
			}
			if existing.HighestBidder != "" {
				return domainerrors.ErrAuctionUnsettled
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		auction := auctionModel{
			TokenID:       tokenID,
			HighestBidder: "",
			HighestBid:    "0",
			StartPrice:    startPrice.Dec(),
			StartedAt:     now.UTC(),
			EndsAt:        endsAt.UTC(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token_id"}},
			UpdateAll: true,
		}).Create(&auction).Error; err != nil {
			return err
		}
		if err := appendEvent(tx, entities.EventAuctionStarted, tokenID, actor, "", startPrice, now); err != nil {
			return err
		}
		out = auction.toEntity()
		return nil
	})
	if err != nil {
		return entities.Auction{}, err
	}
	return out, nil
}

func (r *Repository) RecordBid(
	ctx context.Context,
	bidder string,
	tokenID uint64,
	amount *uint256.Int,
	now time.Time,
) (ports.BidReceipt, error) {
	var out ports.BidReceipt
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockToken(tx, tokenID)
		if err != nil {
			return err
		}
		if row.Sold {
			return domainerrors.ErrTokenAlreadySold
		}

		var auction auctionModel
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("token_id = ?", tokenID).
			First(&auction).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrNoActiveAuction
			}
			return err
		}
		if !now.Before(auction.EndsAt) {
			return domainerrors.ErrAuctionEnded
		}
		highestBid := mustAmount(auction.HighestBid)
		if !amount.Gt(highestBid) {
			return domainerrors.ErrBidTooLow
		}

		if err := debitAccount(tx, bidder, amount, now); err != nil {
			return err
		}
		if err := creditEscrow(tx, amount); err != nil {
			return err
		}

		refundedBidder := auction.HighestBidder
		refundedAmount := uint256.NewInt(0)
		if refundedBidder != "" {
			// Refund the displaced bidder out of escrow before recording the
			// new bid, so escrow nets to exactly the standing high bid.
			if err := debitEscrow(tx, highestBid); err != nil {
				return err
			}
			if err := creditAccount(tx, refundedBidder, highestBid, now); err != nil {
				return err
			}
			refundedAmount = highestBid
		}

		auction.HighestBidder = bidder
		auction.HighestBid = amount.Dec()
		if err := tx.Save(&auction).Error; err != nil {
			return err
		}
		if err := appendEvent(tx, entities.EventAuctionBidPlaced, tokenID, bidder, refundedBidder, amount, now); err != nil {
			return err
		}

		out = ports.BidReceipt{
			Auction:        auction.toEntity(),
			RefundedBidder: refundedBidder,
			RefundedAmount: refundedAmount,
		}
		return nil
	})
	if err != nil {
		return ports.BidReceipt{}, err
	}
	return out, nil
}

func (r *Repository) SettleAuction(
	ctx context.Context,
	actor string,
	tokenID uint64,
	now time.Time,
) (ports.SettlementReceipt, error) {
	var out ports.SettlementReceipt
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockToken(tx, tokenID)
		if err != nil {
			return err
		}

		var auction auctionModel
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("token_id = ?", tokenID).
			First(&auction).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrNoActiveAuction
			}
			return err
		}
		if now.Before(auction.EndsAt) {
			return domainerrors.ErrAuctionNotEnded
		}

		seller, err := r.registry.OwnerOf(ctx, tokenID)
		if err != nil {
			return err
		}
		hadBids := auction.HighestBidder != ""
		winningBid := mustAmount(auction.HighestBid)

		row.Sold = true
		row.UpdatedAt = now.UTC()
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		if hadBids {
			if err := debitEscrow(tx, winningBid); err != nil {
				return err
			}
			if err := creditAccount(tx, seller, winningBid, now); err != nil {
				return err
			}
		}
		if err := tx.Delete(&auctionModel{}, "token_id = ?", tokenID).Error; err != nil {
			return err
		}

		if err := appendEvent(tx, entities.EventAuctionEnded, tokenID, auction.HighestBidder, seller, winningBid, now); err != nil {
			return err
		}
		if hadBids {
			if err := appendEvent(tx, entities.EventTokenSold, tokenID, auction.HighestBidder, seller, winningBid, now); err != nil {
				return err
			}
			// The registry lives outside this transaction; call it only once
			// every ledger-side check has passed.
			if err := r.registry.Transfer(ctx, tokenID, seller, auction.HighestBidder); err != nil {
				return err
			}
		}

		out = ports.SettlementReceipt{
			Token:      row.toEntity(),
			Seller:     seller,
			Winner:     auction.HighestBidder,
			WinningBid: winningBid,
			HadBids:    hadBids,
		}
		return nil
	})
	if err != nil {
		return ports.SettlementReceipt{}, err
	}
	return out, nil
}

func (r *Repository) SweepBalance(ctx context.Context, to string, now time.Time) (*uint256.Int, error) {
	var out *uint256.Int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		raw, err := lockCounter(tx, counterEscrowBalance, "0")
		if err != nil {
			return err
		}
		amount := mustAmount(raw)
		if !amount.IsZero() {
			if err := creditAccount(tx, to, amount, now); err != nil {
				return err
			}
		}
		if err := saveCounter(tx, counterEscrowBalance, "0"); err != nil {
			return err
		}
		out = amount
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) Deposit(
	ctx context.Context,
	accountID string,
	amount *uint256.Int,
	now time.Time,
) (entities.Account, error) {
	var out entities.Account
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := creditAccount(tx, accountID, amount, now); err != nil {
			return err
		}
		var row accountModel
		if err := tx.Where("account_id = ?", accountID).First(&row).Error; err != nil {
			return err
		}
		out = row.toEntity()
		return nil
	})
	if err != nil {
		return entities.Account{}, err
	}
	return out, nil
}

func (r *Repository) GetToken(ctx context.Context, tokenID uint64) (entities.Token, error) {
	var row tokenModel
	err := r.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Token{}, domainerrors.ErrTokenNotFound
		}
		return entities.Token{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListTokens(
	ctx context.Context,
	filter ports.TokenListFilter,
) ([]entities.Token, string, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	tx := r.db.WithContext(ctx).Model(&tokenModel{}).Order("token_id ASC")
	if filter.Sold != nil {
		tx = tx.Where("sold = ?", *filter.Sold)
	}

	offset := decodeCursor(filter.Cursor)
	if offset < 0 {
		offset = 0
	}

	var rows []tokenModel
	if err := tx.Offset(offset).Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = encodeCursor(offset + limit)
		rows = rows[:limit]
	}

	items := make([]entities.Token, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nextCursor, nil
}

func (r *Repository) GetAuction(ctx context.Context, tokenID uint64) (entities.Auction, error) {
	var tokenRow tokenModel
	err := r.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		First(&tokenRow).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Auction{}, domainerrors.ErrTokenNotFound
		}
		return entities.Auction{}, err
	}

	var row auctionModel
	err = r.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Auction{}, domainerrors.ErrNoActiveAuction
		}
		return entities.Auction{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetAccount(ctx context.Context, accountID string) (entities.Account, error) {
	var row accountModel
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Account{}, domainerrors.ErrAccountNotFound
		}
		return entities.Account{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListEvents(
	ctx context.Context,
	afterSequence uint64,
	limit int,
) ([]entities.LedgerEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []eventModel
	err := r.db.WithContext(ctx).
		Where("sequence > ?", afterSequence).
		Order("sequence ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	items := make([]entities.LedgerEvent, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) Get(
	ctx context.Context,
	key string,
	now time.Time,
) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}
	if now.After(row.ExpiresAt) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		Payload:     row.Payload,
		ExpiresAt:   row.ExpiresAt,
	}, true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:         record.Key,
		RequestHash: record.RequestHash,
		Payload:     record.Payload,
		ExpiresAt:   record.ExpiresAt,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(&row).
		Error
	if err != nil && !isUniqueViolation(err) {
		return err
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	sentAt = sentAt.UTC()
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": &sentAt,
		}).
		Error
}

func lockToken(tx *gorm.DB, tokenID uint64) (tokenModel, error) {
	var row tokenModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token_id = ?", tokenID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tokenModel{}, domainerrors.ErrTokenNotFound
		}
		return tokenModel{}, err
	}
	return row, nil
}

func lockCounter(tx *gorm.DB, name string, initial string) (string, error) {
	var row counterModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", name).
		First(&row).
		Error
	if err == nil {
		return row.Value, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	row = counterModel{Name: name, Value: initial}
	if err := tx.Create(&row).Error; err != nil {
		return "", err
	}
	return row.Value, nil
}

func saveCounter(tx *gorm.DB, name string, value string) error {
	return tx.Model(&counterModel{}).
		Where("name = ?", name).
		Update("value", value).
		Error
}

// debitAccount locks the payer row and rejects before mutating when the
// balance cannot cover the amount.
func debitAccount(tx *gorm.DB, accountID string, amount *uint256.Int, now time.Time) error {
	if amount.IsZero() {
		return nil
	}
	var row accountModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ?", accountID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainerrors.ErrInsufficientFunds
		}
		return err
	}
	balance := mustAmount(row.Balance)
	if balance.Lt(amount) {
		return domainerrors.ErrInsufficientFunds
	}
	row.Balance = new(uint256.Int).Sub(balance, amount).Dec()
	row.UpdatedAt = now.UTC()
	return tx.Save(&row).Error
}

// creditAccount locks or creates the recipient row; a frozen recipient
// rejects the payout, which rolls back the enclosing transaction.
func creditAccount(tx *gorm.DB, accountID string, amount *uint256.Int, now time.Time) error {
	var row accountModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ?", accountID).
		First(&row).
		Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		row = accountModel{AccountID: accountID, Balance: "0", UpdatedAt: now.UTC()}
	}
	if row.Frozen {
		return domainerrors.ErrTransferFailed
	}
	if amount.IsZero() {
		return nil
	}
	row.Balance = new(uint256.Int).Add(mustAmount(row.Balance), amount).Dec()
	row.UpdatedAt = now.UTC()
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}},
		UpdateAll: true,
	}).Create(&row).Error
}

func creditEscrow(tx *gorm.DB, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	raw, err := lockCounter(tx, counterEscrowBalance, "0")
	if err != nil {
		return err
	}
	return saveCounter(tx, counterEscrowBalance, new(uint256.Int).Add(mustAmount(raw), amount).Dec())
}

func debitEscrow(tx *gorm.DB, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	raw, err := lockCounter(tx, counterEscrowBalance, "0")
	if err != nil {
		return err
	}
	balance := mustAmount(raw)
	if balance.Lt(amount) {
		return domainerrors.ErrInsufficientFunds
	}
	return saveCounter(tx, counterEscrowBalance, new(uint256.Int).Sub(balance, amount).Dec())
}

func appendEvent(
	tx *gorm.DB,
	eventType string,
	tokenID uint64,
	actor string,
	counterparty string,
	amount *uint256.Int,
	now time.Time,
) error {
	row := eventModel{
		EventType:    eventType,
		TokenID:      tokenID,
		Actor:        actor,
		Counterparty: counterparty,
		Amount:       amount.Dec(),
		OccurredAt:   now.UTC(),
	}
	if err := tx.Create(&row).Error; err != nil {
		return err
	}

	payload, err := json.Marshal(events.NewTokenEvent(sourceService, eventType, now, events.TokenEventPayload{
		Sequence:     row.Sequence,
		TokenID:      tokenID,
		Actor:        actor,
		Counterparty: counterparty,
		Amount:       amount.Dec(),
	}))
	if err != nil {
		return err
	}
	return tx.Create(&outboxModel{
		OutboxID:     uuid.NewString(),
		EventType:    eventType,
		PartitionKey: strconv.FormatUint(tokenID, 10),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    now.UTC(),
	}).Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
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

// SystemClock is the production clock adapter.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
