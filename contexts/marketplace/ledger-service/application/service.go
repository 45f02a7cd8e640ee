package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/holiman/uint256"

	domainerrors "curio/contexts/marketplace/ledger-service/domain/errors"
	"curio/contexts/marketplace/ledger-service/ports"
)

const moduleName = "marketplace/ledger-service"

// Service drives the token lifecycle state machine:
// minted(unsold) -> priced -> sold via purchase, or
// minted(unsold) -> auction open -> bid sequence -> sold via settlement.
// Privileged operations are gated on the single administrator account; every
// mutation is delegated to the repository as one atomic unit.
type Service struct {
	Repo           ports.Repository
	Registry       ports.OwnershipRegistry
	Gate           ports.AccessGate
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	Logger         *slog.Logger
	IdempotencyTTL time.Duration
}

type MintCommand struct {
	ContentURI string
	RoyaltyPct uint8
	Payment    *uint256.Int
}

type MintResult struct {
	TokenID    uint64
	ContentURI string
	Price      *uint256.Int
	RoyaltyPct uint8
	Owner      string
	MintedAt   time.Time
}

func (s Service) Mint(
	ctx context.Context,
	idempotencyKey string,
	actorAccountID string,
	cmd MintCommand,
) (MintResult, error) {
	var out MintResult
	if strings.TrimSpace(actorAccountID) == "" || strings.TrimSpace(cmd.ContentURI) == "" {
		return out, domainerrors.ErrInvalidRequest
	}
	if cmd.RoyaltyPct > 100 {
		return out, domainerrors.ErrInvalidRoyalty
	}
	if cmd.Payment == nil {
		return out, domainerrors.ErrInvalidAmount
	}
	if err := s.requireIdempotency(idempotencyKey); err != nil {
		return out, err
	}

	requestHash := hashStrings("ledger_mint", actorAccountID, cmd.ContentURI,
		strconv.Itoa(int(cmd.RoyaltyPct)), cmd.Payment.Dec())
	err := s.runIdempotent(
		ctx,
		strings.TrimSpace(idempotencyKey),
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &out) },
		func() ([]byte, error) {
			token, err := s.Repo.MintToken(ctx, strings.TrimSpace(actorAccountID), ports.MintInput{
				ContentURI: strings.TrimSpace(cmd.ContentURI),
				RoyaltyPct: cmd.RoyaltyPct,
				Payment:    cmd.Payment,
			}, s.now())
			if err != nil {
				return nil, err
			}
			ResolveLogger(s.Logger).Info("token minted",
				"event", "ledger_token_minted",
				"module", moduleName,
				"layer", "application",
				"token_id", token.TokenID,
				"minter", token.MintedBy,
			)
			return json.Marshal(MintResult{
				TokenID:    token.TokenID,
				ContentURI: token.ContentURI,
				Price:      token.Price,
				RoyaltyPct: token.RoyaltyPct,
				Owner:      token.MintedBy,
				MintedAt:   token.MintedAt,
			})
		},
	)
	return out, err
}

func (s Service) SetPrice(
	ctx context.Context,
	idempotencyKey string,
	actorAccountID string,
	tokenID uint64,
	price *uint256.Int,
) (ports.TokenView, error) {
	var out ports.TokenView
	if price == nil {
		return out, domainerrors.ErrInvalidAmount
	}
	if err := s.requireAdmin(ctx, actorAccountID); err != nil {
		return out, err
	}
	if err := s.requireIdempotency(idempotencyKey); err != nil {
		return out, err
	}

	requestHash := hashStrings("ledger_set_price", actorAccountID,
		strconv.FormatUint(tokenID, 10), price.Dec())
	err := s.runIdempotent(
		ctx,
		strings.TrimSpace(idempotencyKey),
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &out) },
		func() ([]byte, error) {
			token, err := s.Repo.SetTokenPrice(ctx, strings.TrimSpace(actorAccountID), tokenID, price, s.now())
			if err != nil {
				return nil, err
			}
			view, err := s.tokenView(ctx, token.TokenID)
			if err != nil {
				return nil, err
			}
			return json.Marshal(view)
		},
	)
	return out, err
}

func (s Service) Buy(
	ctx context.Context,
	idempotencyKey string,
	actorAccountID string,
	tokenID uint64,
	payment *uint256.Int,
) (ports.SaleReceipt, error) {
	var out ports.SaleReceipt
	if strings.TrimSpace(actorAccountID) == "" {
		return out, domainerrors.ErrInvalidRequest
	}
	if payment == nil {
		return out, domainerrors.ErrInvalidAmount
	}
	if err := s.requireIdempotency(idempotencyKey); err != nil {
		return out, err
	}

	requestHash := hashStrings("ledger_buy", actorAccountID,
		strconv.FormatUint(tokenID, 10), payment.Dec())
	err := s.runIdempotent(
		ctx,
		strings.TrimSpace(idempotencyKey),
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &out) },
		func() ([]byte, error) {
			receipt, err := s.Repo.PurchaseToken(ctx, strings.TrimSpace(actorAccountID), tokenID, payment, s.now())
			if err != nil {
				return nil, err
			}
			ResolveLogger(s.Logger).Info("token sold",
				"event", "ledger_token_sold",
				"module", moduleName,
				"layer", "application",
				"token_id", tokenID,
				"seller", receipt.Seller,
				"buyer", receipt.Buyer,
				"royalty", receipt.RoyaltyPaid.Dec(),
				"proceeds", receipt.SellerProceeds.Dec(),
			)
			return json.Marshal(receipt)
		},
	)
	return out, err
}

func (s Service) StartAuction(
	ctx context.Context,
	idempotencyKey string,
	actorAccountID string,
	tokenID uint64,
	startPrice *uint256.Int,
	durationSeconds int64,
) (ports.AuctionView, error) {
	var out ports.AuctionView
	if startPrice == nil {
		return out, domainerrors.ErrInvalidAmount
	}
	if durationSeconds <= 0 {
		return out, domainerrors.ErrInvalidDuration
	}
	if err := s.requireAdmin(ctx, actorAccountID); err != nil {
		return out, err
	}
	if err := s.requireIdempotency(idempotencyKey); err != nil {
		return out, err
	}

	requestHash := hashStrings("ledger_start_auction", actorAccountID,
		strconv.FormatUint(tokenID, 10), startPrice.Dec(), strconv.FormatInt(durationSeconds, 10))
	err := s.runIdempotent(
		ctx,
		strings.TrimSpace(idempotencyKey),
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &out) },
		func() ([]byte, error) {
			now := s.now()
			auction, err := s.Repo.OpenAuction(ctx, strings.TrimSpace(actorAccountID), tokenID, startPrice,
				now.Add(time.Duration(durationSeconds)*time.Second), now)
			if err != nil {
				return nil, err
			}
			ResolveLogger(s.Logger).Info("auction started",
				"event", "ledger_auction_started",
				"module", moduleName,
				"layer", "application",
				"token_id", tokenID,
				"start_price", startPrice.Dec(),
				"ends_at", auction.EndsAt,
			)
			return json.Marshal(ports.AuctionView{
				TokenID:       auction.TokenID,
				HighestBidder: auction.HighestBidder,
				HighestBid:    auction.HighestBid,
				StartPrice:    auction.StartPrice,
				StartedAt:     auction.StartedAt,
				EndsAt:        auction.EndsAt,
			})
		},
	)
	return out, err
}

func (s Service) PlaceBid(
	ctx context.Context,
	idempotencyKey string,
	actorAccountID string,
	tokenID uint64,
	amount *uint256.Int,
) (ports.BidReceipt, error) {
	var out ports.BidReceipt
	if strings.TrimSpace(actorAccountID) == "" {
		return out, domainerrors.ErrInvalidRequest
	}
	if amount == nil {
		return out, domainerrors.ErrInvalidAmount
	}
	if err := s.requireIdempotency(idempotencyKey); err != nil {
		return out, err
	}

	requestHash := hashStrings("ledger_place_bid", actorAccountID,
		strconv.FormatUint(tokenID, 10), amount.Dec())
	err := s.runIdempotent(
		ctx,
		strings.TrimSpace(idempotencyKey),
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &out) },
		func() ([]byte, error) {
			receipt, err := s.Repo.RecordBid(ctx, strings.TrimSpace(actorAccountID), tokenID, amount, s.now())
			if err != nil {
				return nil, err
			}
			return json.Marshal(receipt)
		},
	)
	return out, err
}

func (s Service) EndAuction(
	ctx context.Context,
	idempotencyKey string,
	actorAccountID string,
	tokenID uint64,
) (ports.SettlementReceipt, error) {
	var out ports.SettlementReceipt
	if err := s.requireAdmin(ctx, actorAccountID); err != nil {
		return out, err
	}
	if err := s.requireIdempotency(idempotencyKey); err != nil {
		return out, err
	}

	requestHash := hashStrings("ledger_end_auction", actorAccountID, strconv.FormatUint(tokenID, 10))
	err := s.runIdempotent(
		ctx,
		strings.TrimSpace(idempotencyKey),
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &out) },
		func() ([]byte, error) {
			receipt, err := s.Repo.SettleAuction(ctx, strings.TrimSpace(actorAccountID), tokenID, s.now())
			if err != nil {
				return nil, err
			}
			ResolveLogger(s.Logger).Info("auction settled",
				"event", "ledger_auction_settled",
				"module", moduleName,
				"layer", "application",
				"token_id", tokenID,
				"winner", receipt.Winner,
				"had_bids", receipt.HadBids,
			)
			return json.Marshal(receipt)
		},
	)
	return out, err
}

type WithdrawResult struct {
	AccountID string
	Amount    *uint256.Int
}

func (s Service) Withdraw(
	ctx context.Context,
	idempotencyKey string,
	actorAccountID string,
) (WithdrawResult, error) {
	var out WithdrawResult
	if err := s.requireAdmin(ctx, actorAccountID); err != nil {
		return out, err
	}
	if err := s.requireIdempotency(idempotencyKey); err != nil {
		return out, err
	}

	requestHash := hashStrings("ledger_withdraw", actorAccountID)
	err := s.runIdempotent(
		ctx,
		strings.TrimSpace(idempotencyKey),
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &out) },
		func() ([]byte, error) {
			amount, err := s.Repo.SweepBalance(ctx, strings.TrimSpace(actorAccountID), s.now())
			if err != nil {
				return nil, err
			}
			ResolveLogger(s.Logger).Info("ledger balance withdrawn",
				"event", "ledger_balance_withdrawn",
				"module", moduleName,
				"layer", "application",
				"account_id", actorAccountID,
				"amount", amount.Dec(),
			)
			return json.Marshal(WithdrawResult{
				AccountID: strings.TrimSpace(actorAccountID),
				Amount:    amount,
			})
		},
	)
	return out, err
}

func (s Service) Deposit(
	ctx context.Context,
	idempotencyKey string,
	accountID string,
	amount *uint256.Int,
) (ports.AccountView, error) {
	var out ports.AccountView
	if strings.TrimSpace(accountID) == "" {
		return out, domainerrors.ErrInvalidRequest
	}
	if amount == nil || amount.IsZero() {
		return out, domainerrors.ErrInvalidAmount
	}
	if err := s.requireIdempotency(idempotencyKey); err != nil {
		return out, err
	}

	requestHash := hashStrings("ledger_deposit", accountID, amount.Dec())
	err := s.runIdempotent(
		ctx,
		strings.TrimSpace(idempotencyKey),
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &out) },
		func() ([]byte, error) {
			account, err := s.Repo.Deposit(ctx, strings.TrimSpace(accountID), amount, s.now())
			if err != nil {
				return nil, err
			}
			return json.Marshal(ports.AccountView{
				AccountID: account.AccountID,
				Balance:   account.Balance,
			})
		},
	)
	return out, err
}

func (s Service) GetToken(ctx context.Context, tokenID uint64) (ports.TokenView, error) {
	return s.tokenView(ctx, tokenID)
}

// GetPrice rejects on nonexistent tokens, matching the pure-read contract.
func (s Service) GetPrice(ctx context.Context, tokenID uint64) (*uint256.Int, error) {
	token, err := s.Repo.GetToken(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return token.Price, nil
}

func (s Service) GetRoyalty(ctx context.Context, tokenID uint64) (uint8, error) {
	token, err := s.Repo.GetToken(ctx, tokenID)
	if err != nil {
		return 0, err
	}
	return token.RoyaltyPct, nil
}

func (s Service) ListTokens(ctx context.Context, filter ports.TokenListFilter) ([]ports.TokenView, string, error) {
	tokens, nextCursor, err := s.Repo.ListTokens(ctx, filter)
	if err != nil {
		return nil, "", err
	}
	views := make([]ports.TokenView, 0, len(tokens))
	for _, token := range tokens {
		owner, err := s.Registry.OwnerOf(ctx, token.TokenID)
		if err != nil {
			return nil, "", err
		}
		views = append(views, ports.NewTokenView(token, owner))
	}
	return views, nextCursor, nil
}

func (s Service) GetAuction(ctx context.Context, tokenID uint64) (ports.AuctionView, error) {
	auction, err := s.Repo.GetAuction(ctx, tokenID)
	if err != nil {
		return ports.AuctionView{}, err
	}
	return ports.AuctionView{
		TokenID:       auction.TokenID,
		HighestBidder: auction.HighestBidder,
		HighestBid:    auction.HighestBid,
		StartPrice:    auction.StartPrice,
		StartedAt:     auction.StartedAt,
		EndsAt:        auction.EndsAt,
	}, nil
}

func (s Service) GetBalance(ctx context.Context, accountID string) (ports.AccountView, error) {
	if strings.TrimSpace(accountID) == "" {
		return ports.AccountView{}, domainerrors.ErrInvalidRequest
	}
	account, err := s.Repo.GetAccount(ctx, strings.TrimSpace(accountID))
	if err != nil {
		return ports.AccountView{}, err
	}
	return ports.AccountView{AccountID: account.AccountID, Balance: account.Balance}, nil
}

func (s Service) ListEvents(ctx context.Context, afterSequence uint64, limit int) ([]ports.EventView, error) {
	items, err := s.Repo.ListEvents(ctx, afterSequence, limit)
	if err != nil {
		return nil, err
	}
	views := make([]ports.EventView, 0, len(items))
	for _, item := range items {
		views = append(views, ports.EventView{
			Sequence:     item.Sequence,
			EventType:    item.EventType,
			TokenID:      item.TokenID,
			Actor:        item.Actor,
			Counterparty: item.Counterparty,
			Amount:       item.Amount,
			OccurredAt:   item.OccurredAt,
		})
	}
	return views, nil
}

func (s Service) tokenView(ctx context.Context, tokenID uint64) (ports.TokenView, error) {
	token, err := s.Repo.GetToken(ctx, tokenID)
	if err != nil {
		return ports.TokenView{}, err
	}
	owner, err := s.Registry.OwnerOf(ctx, tokenID)
	if err != nil {
		return ports.TokenView{}, err
	}
	return ports.NewTokenView(token, owner), nil
}

func (s Service) requireAdmin(ctx context.Context, accountID string) error {
	if strings.TrimSpace(accountID) == "" {
		return domainerrors.ErrAdminRequired
	}
	ok, err := s.Gate.IsAdmin(ctx, strings.TrimSpace(accountID))
	if err != nil {
		ResolveLogger(s.Logger).Error("access gate check failed",
			"event", "ledger_access_gate_failed",
			"module", moduleName,
			"layer", "application",
			"account_id", accountID,
			"error", err.Error(),
		)
		return domainerrors.ErrDependencyUnavailable
	}
	if !ok {
		return domainerrors.ErrAdminRequired
	}
	return nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.IdempotencyTTL
}

func (s Service) requireIdempotency(key string) error {
	if strings.TrimSpace(key) == "" {
		return domainerrors.ErrIdempotencyKeyRequired
	}
	return nil
}

func (s Service) runIdempotent(
	ctx context.Context,
	key string,
	requestHash string,
	decode func([]byte) error,
	exec func() ([]byte, error),
) error {
	now := s.now()
	record, found, err := s.Idempotency.Get(ctx, key, now)
	if err != nil {
		return err
	}
	if found {
		// A reused idempotency key must map to an identical request payload.
		if record.RequestHash != requestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		return decode(record.Payload)
	}

	payload, err := exec()
	if err != nil {
		return err
	}
	if err := s.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Payload:     payload,
		ExpiresAt:   now.Add(s.idempotencyTTL()),
	}); err != nil {
		return err
	}

	ResolveLogger(s.Logger).Debug("ledger idempotent operation committed",
		"event", "ledger_idempotent_operation_committed",
		"module", moduleName,
		"layer", "application",
		"idempotency_key", key,
	)
	return decode(payload)
}

func hashStrings(values ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(values, "|")))
	return hex.EncodeToString(sum[:])
}
