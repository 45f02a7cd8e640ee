package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/holiman/uint256"

	"curio/contexts/marketplace/ledger-service/application"
	domainerrors "curio/contexts/marketplace/ledger-service/domain/errors"
	"curio/contexts/marketplace/ledger-service/ports"
	httptransport "curio/contexts/marketplace/ledger-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) MintTokenHandler(
	ctx context.Context,
	idempotencyKey string,
	actorAccountID string,
	req httptransport.MintTokenRequest,
) (httptransport.MintTokenResponse, error) {
	payment, err := parseAmount(req.Payment)
	if err != nil {
		return httptransport.MintTokenResponse{}, err
	}
	result, err := h.Service.Mint(ctx, idempotencyKey, actorAccountID, application.MintCommand{
		ContentURI: strings.TrimSpace(req.ContentURI),
		RoyaltyPct: req.RoyaltyPct,
		Payment:    payment,
	})
	if err != nil {
		return httptransport.MintTokenResponse{}, err
	}
	resp := httptransport.MintTokenResponse{Status: "success"}
	resp.Data.TokenID = result.TokenID
	resp.Data.ContentURI = result.ContentURI
	resp.Data.Price = result.Price.Dec()
	resp.Data.RoyaltyPct = result.RoyaltyPct
	resp.Data.Owner = result.Owner
	resp.Data.MintedAt = result.MintedAt.UTC().Format(time.RFC3339)
	return resp, nil
}

func (h Handler) SetPriceHandler(
	ctx context.Context,
	idempotencyKey string,
	actorAccountID string,
	tokenID uint64,
	req httptransport.SetPriceRequest,
) (httptransport.TokenResponse, error) {
	price, err := parseAmount(req.Price)
	if err != nil {
		return httptransport.TokenResponse{}, err
	}
	view, err := h.Service.SetPrice(ctx, idempotencyKey, actorAccountID, tokenID, price)
	if err != nil {
		return httptransport.TokenResponse{}, err
	}
	return tokenResponse(view), nil
}

func (h Handler) BuyTokenHandler(
	ctx context.Context,
	idempotencyKey string,
	actorAccountID string,
	tokenID uint64,
	req httptransport.PurchaseTokenRequest,
) (httptransport.PurchaseTokenResponse, error) {
	payment, err := parseAmount(req.Payment)
	if err != nil {
		return httptransport.PurchaseTokenResponse{}, err
	}
	receipt, err := h.Service.Buy(ctx, idempotencyKey, actorAccountID, tokenID, payment)
	if err != nil {
		return httptransport.PurchaseTokenResponse{}, err
	}
	resp := httptransport.PurchaseTokenResponse{Status: "success"}
	resp.Data.TokenID = receipt.Token.TokenID
	resp.Data.Seller = receipt.Seller
	resp.Data.Buyer = receipt.Buyer
	resp.Data.RoyaltyPaid = receipt.RoyaltyPaid.Dec()
	resp.Data.SellerProceeds = receipt.SellerProceeds.Dec()
	resp.Data.SoldAt = receipt.Token.UpdatedAt.UTC().Format(time.RFC3339)
	return resp, nil
}

func (h Handler) GetTokenHandler(
	ctx context.Context,
	tokenID uint64,
) (httptransport.TokenResponse, error) {
	view, err := h.Service.GetToken(ctx, tokenID)
	if err != nil {
		return httptransport.TokenResponse{}, err
	}
	return tokenResponse(view), nil
}

func (h Handler) ListTokensHandler(
	ctx context.Context,
	filter ports.TokenListFilter,
) (httptransport.ListTokensResponse, error) {
	views, nextCursor, err := h.Service.ListTokens(ctx, filter)
	if err != nil {
		return httptransport.ListTokensResponse{}, err
	}
	resp := httptransport.ListTokensResponse{Status: "success"}
	resp.Data.Items = make([]httptransport.TokenData, 0, len(views))
	for _, view := range views {
		resp.Data.Items = append(resp.Data.Items, tokenData(view))
	}
	resp.Data.NextCursor = nextCursor
	return resp, nil
}

func (h Handler) GetPriceHandler(
	ctx context.Context,
	tokenID uint64,
) (httptransport.PriceResponse, error) {
	price, err := h.Service.GetPrice(ctx, tokenID)
	if err != nil {
		return httptransport.PriceResponse{}, err
	}
	resp := httptransport.PriceResponse{Status: "success"}
	resp.Data.TokenID = tokenID
	resp.Data.Price = price.Dec()
	return resp, nil
}

func (h Handler) GetRoyaltyHandler(
	ctx context.Context,
	tokenID uint64,
) (httptransport.RoyaltyResponse, error) {
	pct, err := h.Service.GetRoyalty(ctx, tokenID)
	if err != nil {
		return httptransport.RoyaltyResponse{}, err
	}
	resp := httptransport.RoyaltyResponse{Status: "success"}
	resp.Data.TokenID = tokenID
	resp.Data.RoyaltyPct = pct
	return resp, nil
}

func (h Handler) StartAuctionHandler(
	ctx context.Context,
	idempotencyKey string,
	actorAccountID string,
	tokenID uint64,
	req httptransport.StartAuctionRequest,
) (httptransport.AuctionResponse, error) {
	startPrice, err := parseAmount(req.StartPrice)
	if err != nil {
		return httptransport.AuctionResponse{}, err
	}
	view, err := h.Service.StartAuction(ctx, idempotencyKey, actorAccountID, tokenID, startPrice, req.DurationSeconds)
	if err != nil {
		return httptransport.AuctionResponse{}, err
	}
	return auctionResponse(view), nil
}

func (h Handler) GetAuctionHandler(
	ctx context.Context,
	tokenID uint64,
) (httptransport.AuctionResponse, error) {
	view, err := h.Service.GetAuction(ctx, tokenID)
	if err != nil {
		return httptransport.AuctionResponse{}, err
	}
	return auctionResponse(view), nil
}

func (h Handler) PlaceBidHandler(
	ctx context.Context,
	idempotencyKey string,
	actorAccountID string,
	tokenID uint64,
	req httptransport.PlaceBidRequest,
) (httptransport.PlaceBidResponse, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return httptransport.PlaceBidResponse{}, err
	}
	receipt, err := h.Service.PlaceBid(ctx, idempotencyKey, actorAccountID, tokenID, amount)
	if err != nil {
		return httptransport.PlaceBidResponse{}, err
	}
	resp := httptransport.PlaceBidResponse{Status: "success"}
	resp.Data.TokenID = receipt.Auction.TokenID
	resp.Data.HighestBidder = receipt.Auction.HighestBidder
	resp.Data.HighestBid = receipt.Auction.HighestBid.Dec()
	resp.Data.RefundedBidder = receipt.RefundedBidder
	if receipt.RefundedBidder != "" {
		resp.Data.RefundedAmount = receipt.RefundedAmount.Dec()
	}
	resp.Data.EndsAt = receipt.Auction.EndsAt.UTC().Format(time.RFC3339)
	return resp, nil
}

func (h Handler) SettleAuctionHandler(
	ctx context.Context,
	idempotencyKey string,
	actorAccountID string,
	tokenID uint64,
) (httptransport.SettleAuctionResponse, error) {
	receipt, err := h.Service.EndAuction(ctx, idempotencyKey, actorAccountID, tokenID)
	if err != nil {
		return httptransport.SettleAuctionResponse{}, err
	}
	resp := httptransport.SettleAuctionResponse{Status: "success"}
	resp.Data.TokenID = receipt.Token.TokenID
	resp.Data.Seller = receipt.Seller
	resp.Data.Winner = receipt.Winner
	resp.Data.WinningBid = receipt.WinningBid.Dec()
	resp.Data.HadBids = receipt.HadBids
	resp.Data.Sold = receipt.Token.Sold
	return resp, nil
}

func (h Handler) WithdrawHandler(
	ctx context.Context,
	idempotencyKey string,
	actorAccountID string,
) (httptransport.WithdrawResponse, error) {
	result, err := h.Service.Withdraw(ctx, idempotencyKey, actorAccountID)
	if err != nil {
		return httptransport.WithdrawResponse{}, err
	}
	resp := httptransport.WithdrawResponse{Status: "success"}
	resp.Data.AccountID = result.AccountID
	resp.Data.Amount = result.Amount.Dec()
	return resp, nil
}

func (h Handler) DepositHandler(
	ctx context.Context,
	idempotencyKey string,
	accountID string,
	req httptransport.DepositRequest,
) (httptransport.BalanceResponse, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return httptransport.BalanceResponse{}, err
	}
	view, err := h.Service.Deposit(ctx, idempotencyKey, accountID, amount)
	if err != nil {
		return httptransport.BalanceResponse{}, err
	}
	return balanceResponse(view), nil
}

func (h Handler) GetBalanceHandler(
	ctx context.Context,
	accountID string,
) (httptransport.BalanceResponse, error) {
	view, err := h.Service.GetBalance(ctx, accountID)
	if err != nil {
		return httptransport.BalanceResponse{}, err
	}
	return balanceResponse(view), nil
}

func (h Handler) ListEventsHandler(
	ctx context.Context,
	afterSequence uint64,
	limit int,
) (httptransport.ListEventsResponse, error) {
	views, err := h.Service.ListEvents(ctx, afterSequence, limit)
	if err != nil {
		return httptransport.ListEventsResponse{}, err
	}
	resp := httptransport.ListEventsResponse{Status: "success"}
	resp.Data.Items = make([]httptransport.EventData, 0, len(views))
	for _, view := range views {
		resp.Data.Items = append(resp.Data.Items, httptransport.EventData{
			Sequence:     view.Sequence,
			EventType:    view.EventType,
			TokenID:      view.TokenID,
			Actor:        view.Actor,
			Counterparty: view.Counterparty,
			Amount:       view.Amount.Dec(),
			OccurredAt:   view.OccurredAt.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}

func tokenData(view ports.TokenView) httptransport.TokenData {
	return httptransport.TokenData{
		TokenID:    view.TokenID,
		ContentURI: view.ContentURI,
		Price:      view.Price.Dec(),
		RoyaltyPct: view.RoyaltyPct,
		Sold:       view.Sold,
		Owner:      view.Owner,
		MintedBy:   view.MintedBy,
		MintedAt:   view.MintedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  view.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func tokenResponse(view ports.TokenView) httptransport.TokenResponse {
	return httptransport.TokenResponse{Status: "success", Data: tokenData(view)}
}

func auctionResponse(view ports.AuctionView) httptransport.AuctionResponse {
	resp := httptransport.AuctionResponse{Status: "success"}
	resp.Data.TokenID = view.TokenID
	resp.Data.HighestBidder = view.HighestBidder
	resp.Data.HighestBid = view.HighestBid.Dec()
	resp.Data.StartPrice = view.StartPrice.Dec()
	resp.Data.StartedAt = view.StartedAt.UTC().Format(time.RFC3339)
	resp.Data.EndsAt = view.EndsAt.UTC().Format(time.RFC3339)
	return resp
}

func balanceResponse(view ports.AccountView) httptransport.BalanceResponse {
	resp := httptransport.BalanceResponse{Status: "success"}
	resp.Data.AccountID = view.AccountID
	resp.Data.Balance = view.Balance.Dec()
	return resp
}

// parseAmount accepts non-negative decimal strings up to 256 bits.
func parseAmount(value string) (*uint256.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, domainerrors.ErrInvalidAmount
	}
	amount, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, domainerrors.ErrInvalidAmount
	}
	return amount, nil
}
