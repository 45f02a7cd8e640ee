package unit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/holiman/uint256"

	accessmemory "curio/contexts/identity-access/access-gate/adapters/memory"
	ledgerservice "curio/contexts/marketplace/ledger-service"
	ledgermemory "curio/contexts/marketplace/ledger-service/adapters/memory"
	"curio/contexts/marketplace/ledger-service/application"
	"curio/contexts/marketplace/ledger-service/domain/entities"
	domainerrors "curio/contexts/marketplace/ledger-service/domain/errors"
	registryservice "curio/contexts/marketplace/registry-service"
)

const adminAccount = "admin"

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type ledgerFixture struct {
	module   ledgerservice.Module
	store    *ledgermemory.Store
	registry registryservice.Module
	clock    *manualClock
}

func newLedgerFixture(t *testing.T, mintPrice uint64, maxSupply uint64) *ledgerFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := accessmemory.NewStaticGate(adminAccount)
	registry := registryservice.NewInMemoryModule(gate, logger)
	store := ledgermemory.NewStore(entities.LedgerParams{
		MintPrice: uint256.NewInt(mintPrice),
		MaxSupply: maxSupply,
	}, registry.Service)
	clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	module := ledgerservice.NewModule(ledgerservice.Dependencies{
		Repo:        store,
		Registry:    registry.Service,
		Gate:        gate,
		Idempotency: store,
		Clock:       clock,
		Logger:      logger,
	})
	module.Store = store

	return &ledgerFixture{
		module:   module,
		store:    store,
		registry: registry,
		clock:    clock,
	}
}

func (f *ledgerFixture) deposit(t *testing.T, account string, amount uint64, key string) {
	t.Helper()
	_, err := f.module.Service.Deposit(context.Background(), key, account, uint256.NewInt(amount))
	if err != nil {
		t.Fatalf("deposit for %s should succeed: %v", account, err)
	}
}

func (f *ledgerFixture) mint(t *testing.T, minter string, payment uint64, key string) uint64 {
	t.Helper()
	result, err := f.module.Service.Mint(context.Background(), key, minter, application.MintCommand{
		ContentURI: "ipfs://content/" + key,
		RoyaltyPct: 10,
		Payment:    uint256.NewInt(payment),
	})
	if err != nil {
		t.Fatalf("mint by %s should succeed: %v", minter, err)
	}
	return result.TokenID
}

func (f *ledgerFixture) balance(t *testing.T, account string) *uint256.Int {
	t.Helper()
	view, err := f.module.Service.GetBalance(context.Background(), account)
	if err != nil {
		t.Fatalf("balance for %s should resolve: %v", account, err)
	}
	return view.Balance
}

func TestMintAssignsMonotonicTokenIDs(t *testing.T) {
	f := newLedgerFixture(t, 100, 10)
	f.deposit(t, "creator", 300, "idem-dep-1")

	first := f.mint(t, "creator", 100, "idem-mint-1")
	second := f.mint(t, "creator", 100, "idem-mint-2")

	if first != 1 || second != 2 {
		t.Fatalf("expected token ids 1 and 2, got %d and %d", first, second)
	}

	owner, err := f.registry.Service.OwnerOf(context.Background(), first)
	if err != nil || owner != "creator" {
		t.Fatalf("expected creator to own token %d, got %q err=%v", first, owner, err)
	}
}

func TestMintRejectsWrongPayment(t *testing.T) {
	f := newLedgerFixture(t, 100, 10)
	f.deposit(t, "creator", 300, "idem-dep-1")

	_, err := f.module.Service.Mint(context.Background(), "idem-mint-bad", "creator", application.MintCommand{
		ContentURI: "ipfs://content/bad",
		RoyaltyPct: 10,
		Payment:    uint256.NewInt(99),
	})
	if !errors.Is(err, domainerrors.ErrWrongPayment) {
		t.Fatalf("expected wrong payment, got %v", err)
	}
}

func TestMintExhaustsSupply(t *testing.T) {
	f := newLedgerFixture(t, 100, 2)
	f.deposit(t, "creator", 300, "idem-dep-1")

	f.mint(t, "creator", 100, "idem-mint-1")
	f.mint(t, "creator", 100, "idem-mint-2")

	_, err := f.module.Service.Mint(context.Background(), "idem-mint-3", "creator", application.MintCommand{
		ContentURI: "ipfs://content/overflow",
		RoyaltyPct: 10,
		Payment:    uint256.NewInt(100),
	})
	if !errors.Is(err, domainerrors.ErrSupplyExhausted) {
		t.Fatalf("expected supply exhausted, got %v", err)
	}
}

func TestPurchasePaysRoyaltyToCurrentOwner(t *testing.T) {
	f := newLedgerFixture(t, 100, 10)
	f.deposit(t, "creator", 100, "idem-dep-creator")
	f.deposit(t, "buyer", 500, "idem-dep-buyer")
	tokenID := f.mint(t, "creator", 100, "idem-mint")

	_, err := f.module.Service.SetPrice(context.Background(), "idem-price", adminAccount, tokenID, uint256.NewInt(100))
	if err != nil {
		t.Fatalf("set price should succeed: %v", err)
	}

	receipt, err := f.module.Service.Buy(context.Background(), "idem-buy", "buyer", tokenID, uint256.NewInt(100))
	if err != nil {
		t.Fatalf("purchase should succeed: %v", err)
	}
	if receipt.RoyaltyPaid.Uint64() != 10 || receipt.SellerProceeds.Uint64() != 90 {
		t.Fatalf("expected 10/90 split, got %s/%s", receipt.RoyaltyPaid.Dec(), receipt.SellerProceeds.Dec())
	}

	// Royalty recipient is the current owner, so the seller receives the full
	// payment across the two payouts.
	if got := f.balance(t, "creator").Uint64(); got != 100 {
		t.Fatalf("expected seller balance 100, got %d", got)
	}
	if got := f.balance(t, "buyer").Uint64(); got != 400 {
		t.Fatalf("expected buyer balance 400, got %d", got)
	}

	owner, err := f.registry.Service.OwnerOf(context.Background(), tokenID)
	if err != nil || owner != "buyer" {
		t.Fatalf("expected buyer to own token, got %q err=%v", owner, err)
	}

	events, err := f.module.Service.ListEvents(context.Background(), 0, 100)
	if err != nil {
		t.Fatalf("list events should succeed: %v", err)
	}
	var types []string
	for _, event := range events {
		types = append(types, event.EventType)
	}
	want := []string{
		entities.EventTokenMinted,
		entities.EventTokenPriceChanged,
		entities.EventTokenRoyaltyPaid,
		entities.EventTokenSold,
	}
	if len(types) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("expected event %d to be %s, got %s", i, want[i], types[i])
		}
	}
}

func TestPurchaseSoldTokenRejected(t *testing.T) {
	f := newLedgerFixture(t, 100, 10)
	f.deposit(t, "creator", 100, "idem-dep-creator")
	f.deposit(t, "buyer-a", 100, "idem-dep-a")
	f.deposit(t, "buyer-b", 100, "idem-dep-b")
	tokenID := f.mint(t, "creator", 100, "idem-mint")

	if _, err := f.module.Service.Buy(context.Background(), "idem-buy-a", "buyer-a", tokenID, uint256.NewInt(100)); err != nil {
		t.Fatalf("first purchase should succeed: %v", err)
	}

	_, err := f.module.Service.Buy(context.Background(), "idem-buy-b", "buyer-b", tokenID, uint256.NewInt(100))
	if !errors.Is(err, domainerrors.ErrTokenAlreadySold) {
		t.Fatalf("expected token already sold, got %v", err)
	}
	if got := f.balance(t, "buyer-b").Uint64(); got != 100 {
		t.Fatalf("rejected purchase must not move funds, balance %d", got)
	}
}

func TestPurchaseFrozenSellerLeavesStateUntouched(t *testing.T) {
	f := newLedgerFixture(t, 100, 10)
	f.deposit(t, "creator", 100, "idem-dep-creator")
	f.deposit(t, "buyer", 100, "idem-dep-buyer")
	tokenID := f.mint(t, "creator", 100, "idem-mint")

	f.store.FreezeAccount("creator", f.clock.Now())

	_, err := f.module.Service.Buy(context.Background(), "idem-buy", "buyer", tokenID, uint256.NewInt(100))
	if !errors.Is(err, domainerrors.ErrTransferFailed) {
		t.Fatalf("expected transfer failed, got %v", err)
	}

	if got := f.balance(t, "buyer").Uint64(); got != 100 {
		t.Fatalf("buyer balance must be untouched, got %d", got)
	}
	token, err := f.module.Service.GetToken(context.Background(), tokenID)
	if err != nil {
		t.Fatalf("get token should succeed: %v", err)
	}
	if token.Sold {
		t.Fatalf("token must remain unsold after rejected purchase")
	}
	if token.Owner != "creator" {
		t.Fatalf("ownership must be unchanged, got %s", token.Owner)
	}
}

func TestAuctionBidRefundsDisplacedBidder(t *testing.T) {
	f := newLedgerFixture(t, 100, 10)
	f.deposit(t, "creator", 100, "idem-dep-creator")
	f.deposit(t, "alice", 50, "idem-dep-alice")
	f.deposit(t, "bob", 60, "idem-dep-bob")
	tokenID := f.mint(t, "creator", 100, "idem-mint")

	_, err := f.module.Service.StartAuction(context.Background(), "idem-auction", adminAccount, tokenID, uint256.NewInt(10), 3600)
	if err != nil {
		t.Fatalf("start auction should succeed: %v", err)
	}

	if _, err := f.module.Service.PlaceBid(context.Background(), "idem-bid-alice", "alice", tokenID, uint256.NewInt(50)); err != nil {
		t.Fatalf("first bid should succeed: %v", err)
	}

	_, err = f.module.Service.PlaceBid(context.Background(), "idem-bid-low", "bob", tokenID, uint256.NewInt(40))
	if !errors.Is(err, domainerrors.ErrBidTooLow) {
		t.Fatalf("expected bid too low, got %v", err)
	}
	_, err = f.module.Service.PlaceBid(context.Background(), "idem-bid-equal", "bob", tokenID, uint256.NewInt(50))
	if !errors.Is(err, domainerrors.ErrBidTooLow) {
		t.Fatalf("matching bid must be rejected, got %v", err)
	}

	receipt, err := f.module.Service.PlaceBid(context.Background(), "idem-bid-bob", "bob", tokenID, uint256.NewInt(60))
	if err != nil {
		t.Fatalf("outbidding should succeed: %v", err)
	}
	if receipt.RefundedBidder != "alice" || receipt.RefundedAmount.Uint64() != 50 {
		t.Fatalf("expected alice refunded 50, got %s refunded %s",
			receipt.RefundedBidder, receipt.RefundedAmount.Dec())
	}
	if got := f.balance(t, "alice").Uint64(); got != 50 {
		t.Fatalf("displaced bidder must hold full refund, got %d", got)
	}
	if got := f.balance(t, "bob").Uint64(); got != 0 {
		t.Fatalf("leading bidder funds must be held in escrow, got %d", got)
	}
}

func TestAuctionSettlementPaysSellerAndTransfers(t *testing.T) {
	f := newLedgerFixture(t, 100, 10)
	f.deposit(t, "creator", 100, "idem-dep-creator")
	f.deposit(t, "alice", 80, "idem-dep-alice")
	tokenID := f.mint(t, "creator", 100, "idem-mint")

	if _, err := f.module.Service.StartAuction(context.Background(), "idem-auction", adminAccount, tokenID, uint256.NewInt(10), 3600); err != nil {
		t.Fatalf("start auction should succeed: %v", err)
	}
	if _, err := f.module.Service.PlaceBid(context.Background(), "idem-bid", "alice", tokenID, uint256.NewInt(80)); err != nil {
		t.Fatalf("bid should succeed: %v", err)
	}

	_, err := f.module.Service.EndAuction(context.Background(), "idem-settle-early", adminAccount, tokenID)
	if !errors.Is(err, domainerrors.ErrAuctionNotEnded) {
		t.Fatalf("settlement before expiry must be rejected, got %v", err)
	}

	f.clock.Advance(2 * time.Hour)

	receipt, err := f.module.Service.EndAuction(context.Background(), "idem-settle", adminAccount, tokenID)
	if err != nil {
		t.Fatalf("settlement should succeed: %v", err)
	}
	if !receipt.HadBids || receipt.Winner != "alice" || receipt.WinningBid.Uint64() != 80 {
		t.Fatalf("unexpected settlement receipt: %+v", receipt)
	}
	if got := f.balance(t, "creator").Uint64(); got != 80 {
		t.Fatalf("seller should receive the winning bid, got %d", got)
	}

	owner, err := f.registry.Service.OwnerOf(context.Background(), tokenID)
	if err != nil || owner != "alice" {
		t.Fatalf("winner should own the token, got %q err=%v", owner, err)
	}
}

func TestAuctionSettlementWithoutBidsDelists(t *testing.T) {
	f := newLedgerFixture(t, 100, 10)
	f.deposit(t, "creator", 100, "idem-dep-creator")
	tokenID := f.mint(t, "creator", 100, "idem-mint")

	if _, err := f.module.Service.StartAuction(context.Background(), "idem-auction", adminAccount, tokenID, uint256.NewInt(10), 3600); err != nil {
		t.Fatalf("start auction should succeed: %v", err)
	}
	f.clock.Advance(2 * time.Hour)

	receipt, err := f.module.Service.EndAuction(context.Background(), "idem-settle", adminAccount, tokenID)
	if err != nil {
		t.Fatalf("settlement should succeed: %v", err)
	}
	if receipt.HadBids || receipt.Winner != "" {
		t.Fatalf("expected no-bid settlement, got %+v", receipt)
	}

	owner, err := f.registry.Service.OwnerOf(context.Background(), tokenID)
	if err != nil || owner != "creator" {
		t.Fatalf("seller should keep the token, got %q err=%v", owner, err)
	}

	events, err := f.module.Service.ListEvents(context.Background(), 0, 100)
	if err != nil {
		t.Fatalf("list events should succeed: %v", err)
	}
	last := events[len(events)-1]
	if last.EventType != entities.EventAuctionEnded {
		t.Fatalf("expected final event auction.ended, got %s", last.EventType)
	}
	for _, event := range events {
		if event.EventType == entities.EventTokenSold {
			t.Fatalf("no-bid settlement must not emit token.sold")
		}
	}
}

func TestBidAfterExpiryRejected(t *testing.T) {
	f := newLedgerFixture(t, 100, 10)
	f.deposit(t, "creator", 100, "idem-dep-creator")
	f.deposit(t, "alice", 80, "idem-dep-alice")
	tokenID := f.mint(t, "creator", 100, "idem-mint")

	if _, err := f.module.Service.StartAuction(context.Background(), "idem-auction", adminAccount, tokenID, uint256.NewInt(10), 3600); err != nil {
		t.Fatalf("start auction should succeed: %v", err)
	}
	f.clock.Advance(time.Hour)

	_, err := f.module.Service.PlaceBid(context.Background(), "idem-bid-late", "alice", tokenID, uint256.NewInt(80))
	if !errors.Is(err, domainerrors.ErrAuctionEnded) {
		t.Fatalf("expected auction ended, got %v", err)
	}
}

func TestStartAuctionGuards(t *testing.T) {
	f := newLedgerFixture(t, 100, 10)
	f.deposit(t, "creator", 100, "idem-dep-creator")
	f.deposit(t, "alice", 80, "idem-dep-alice")
	tokenID := f.mint(t, "creator", 100, "idem-mint")

	if _, err := f.module.Service.StartAuction(context.Background(), "idem-auction-1", adminAccount, tokenID, uint256.NewInt(10), 3600); err != nil {
		t.Fatalf("start auction should succeed: %v", err)
	}

	_, err := f.module.Service.StartAuction(context.Background(), "idem-auction-2", adminAccount, tokenID, uint256.NewInt(10), 3600)
	if !errors.Is(err, domainerrors.ErrAuctionActive) {
		t.Fatalf("restart while active must be rejected, got %v", err)
	}

	if _, err := f.module.Service.PlaceBid(context.Background(), "idem-bid", "alice", tokenID, uint256.NewInt(80)); err != nil {
		t.Fatalf("bid should succeed: %v", err)
	}
	f.clock.Advance(2 * time.Hour)

	_, err = f.module.Service.StartAuction(context.Background(), "idem-auction-3", adminAccount, tokenID, uint256.NewInt(10), 3600)
	if !errors.Is(err, domainerrors.ErrAuctionUnsettled) {
		t.Fatalf("restart over an unsettled auction must be rejected, got %v", err)
	}
}

func TestStartAuctionRestartAfterNoBidExpiry(t *testing.T) {
	f := newLedgerFixture(t, 100, 10)
	f.deposit(t, "creator", 100, "idem-dep-creator")
	tokenID := f.mint(t, "creator", 100, "idem-mint")

	if _, err := f.module.Service.StartAuction(context.Background(), "idem-auction-1", adminAccount, tokenID, uint256.NewInt(10), 3600); err != nil {
		t.Fatalf("start auction should succeed: %v", err)
	}
	f.clock.Advance(2 * time.Hour)

	if _, err := f.module.Service.StartAuction(context.Background(), "idem-auction-2", adminAccount, tokenID, uint256.NewInt(20), 3600); err != nil {
		t.Fatalf("restart after no-bid expiry should succeed: %v", err)
	}
}

func TestAdminGatedOperations(t *testing.T) {
	f := newLedgerFixture(t, 100, 10)
	f.deposit(t, "creator", 100, "idem-dep-creator")
	tokenID := f.mint(t, "creator", 100, "idem-mint")

	_, err := f.module.Service.SetPrice(context.Background(), "idem-price", "creator", tokenID, uint256.NewInt(500))
	if !errors.Is(err, domainerrors.ErrAdminRequired) {
		t.Fatalf("set price by non-admin must be rejected, got %v", err)
	}
	_, err = f.module.Service.StartAuction(context.Background(), "idem-auction", "creator", tokenID, uint256.NewInt(10), 3600)
	if !errors.Is(err, domainerrors.ErrAdminRequired) {
		t.Fatalf("start auction by non-admin must be rejected, got %v", err)
	}
	_, err = f.module.Service.Withdraw(context.Background(), "idem-withdraw", "creator")
	if !errors.Is(err, domainerrors.ErrAdminRequired) {
		t.Fatalf("withdraw by non-admin must be rejected, got %v", err)
	}
}

func TestWithdrawSweepsMintProceeds(t *testing.T) {
	f := newLedgerFixture(t, 100, 10)
	f.deposit(t, "creator", 200, "idem-dep-creator")
	f.mint(t, "creator", 100, "idem-mint-1")
	f.mint(t, "creator", 100, "idem-mint-2")

	result, err := f.module.Service.Withdraw(context.Background(), "idem-withdraw", adminAccount)
	if err != nil {
		t.Fatalf("withdraw should succeed: %v", err)
	}
	if result.Amount.Uint64() != 200 {
		t.Fatalf("expected to sweep 200, got %s", result.Amount.Dec())
	}
	if got := f.balance(t, adminAccount).Uint64(); got != 200 {
		t.Fatalf("admin balance should hold the sweep, got %d", got)
	}
	if !f.store.EscrowBalance().IsZero() {
		t.Fatalf("escrow should be empty after withdraw")
	}
}

func TestMintIdempotencyReplayAndConflict(t *testing.T) {
	f := newLedgerFixture(t, 100, 10)
	f.deposit(t, "creator", 500, "idem-dep-creator")

	first, err := f.module.Service.Mint(context.Background(), "idem-mint", "creator", application.MintCommand{
		ContentURI: "ipfs://content/one",
		RoyaltyPct: 10,
		Payment:    uint256.NewInt(100),
	})
	if err != nil {
		t.Fatalf("mint should succeed: %v", err)
	}

	replay, err := f.module.Service.Mint(context.Background(), "idem-mint", "creator", application.MintCommand{
		ContentURI: "ipfs://content/one",
		RoyaltyPct: 10,
		Payment:    uint256.NewInt(100),
	})
	if err != nil {
		t.Fatalf("replay should succeed: %v", err)
	}
	if replay.TokenID != first.TokenID {
		t.Fatalf("replay must return the original token, got %d and %d", first.TokenID, replay.TokenID)
	}
	if got := f.balance(t, "creator").Uint64(); got != 400 {
		t.Fatalf("replay must not charge twice, balance %d", got)
	}

	_, err = f.module.Service.Mint(context.Background(), "idem-mint", "creator", application.MintCommand{
		ContentURI: "ipfs://content/two",
		RoyaltyPct: 10,
		Payment:    uint256.NewInt(100),
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("reused key with different payload must conflict, got %v", err)
	}
}

func TestMutationsRequireIdempotencyKey(t *testing.T) {
	f := newLedgerFixture(t, 100, 10)

	_, err := f.module.Service.Deposit(context.Background(), "", "creator", uint256.NewInt(100))
	if !errors.Is(err, domainerrors.ErrIdempotencyKeyRequired) {
		t.Fatalf("expected idempotency key required, got %v", err)
	}
}

func TestBidInsufficientFundsRejected(t *testing.T) {
	f := newLedgerFixture(t, 100, 10)
	f.deposit(t, "creator", 100, "idem-dep-creator")
	f.deposit(t, "alice", 30, "idem-dep-alice")
	tokenID := f.mint(t, "creator", 100, "idem-mint")

	if _, err := f.module.Service.StartAuction(context.Background(), "idem-auction", adminAccount, tokenID, uint256.NewInt(10), 3600); err != nil {
		t.Fatalf("start auction should succeed: %v", err)
	}

	_, err := f.module.Service.PlaceBid(context.Background(), "idem-bid", "alice", tokenID, uint256.NewInt(50))
	if !errors.Is(err, domainerrors.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if got := f.balance(t, "alice").Uint64(); got != 30 {
		t.Fatalf("rejected bid must not move funds, balance %d", got)
	}
}

func TestAuctionOutbidKeepsEscrowConserved(t *testing.T) {
	f := newLedgerFixture(t, 100, 10)
	f.deposit(t, "creator", 100, "idem-dep-creator")
	f.deposit(t, "alice", 50, "idem-dep-alice")
	f.deposit(t, "bob", 60, "idem-dep-bob")
	tokenID := f.mint(t, "creator", 100, "idem-mint")

	if _, err := f.module.Service.StartAuction(context.Background(), "idem-auction", adminAccount, tokenID, uint256.NewInt(10), 3600); err != nil {
		t.Fatalf("start auction should succeed: %v", err)
	}
	if _, err := f.module.Service.PlaceBid(context.Background(), "idem-bid-alice", "alice", tokenID, uint256.NewInt(50)); err != nil {
		t.Fatalf("first bid should succeed: %v", err)
	}
	if _, err := f.module.Service.PlaceBid(context.Background(), "idem-bid-bob", "bob", tokenID, uint256.NewInt(60)); err != nil {
		t.Fatalf("outbidding should succeed: %v", err)
	}

	// Escrow holds the mint payment plus exactly the standing high bid; the
	// displaced bid must have been paid back out of escrow, not duplicated.
	if got := f.store.EscrowBalance().Uint64(); got != 160 {
		t.Fatalf("expected escrow 160 after outbid, got %d", got)
	}

	f.clock.Advance(2 * time.Hour)
	if _, err := f.module.Service.EndAuction(context.Background(), "idem-settle", adminAccount, tokenID); err != nil {
		t.Fatalf("settlement should succeed: %v", err)
	}

	result, err := f.module.Service.Withdraw(context.Background(), "idem-withdraw", adminAccount)
	if err != nil {
		t.Fatalf("withdraw should succeed: %v", err)
	}
	if result.Amount.Uint64() != 100 {
		t.Fatalf("sweep must cover only the mint proceeds, got %s", result.Amount.Dec())
	}
	if !f.store.EscrowBalance().IsZero() {
		t.Fatalf("escrow must be empty once all bids are settled and swept")
	}

	// Deposits were 100+50+60; every unit is still on some account.
	total := f.balance(t, "creator").Uint64() +
		f.balance(t, "alice").Uint64() +
		f.balance(t, "bob").Uint64() +
		f.balance(t, adminAccount).Uint64()
	if total != 210 {
		t.Fatalf("value must be conserved, accounts sum to %d", total)
	}
}

func TestBidRefundToFrozenBidderRejected(t *testing.T) {
	f := newLedgerFixture(t, 100, 10)
	f.deposit(t, "creator", 100, "idem-dep-creator")
	f.deposit(t, "alice", 50, "idem-dep-alice")
	f.deposit(t, "bob", 60, "idem-dep-bob")
	tokenID := f.mint(t, "creator", 100, "idem-mint")

	if _, err := f.module.Service.StartAuction(context.Background(), "idem-auction", adminAccount, tokenID, uint256.NewInt(10), 3600); err != nil {
		t.Fatalf("start auction should succeed: %v", err)
	}
	if _, err := f.module.Service.PlaceBid(context.Background(), "idem-bid-alice", "alice", tokenID, uint256.NewInt(50)); err != nil {
		t.Fatalf("first bid should succeed: %v", err)
	}

	f.store.FreezeAccount("alice", f.clock.Now())

	_, err := f.module.Service.PlaceBid(context.Background(), "idem-bid-bob", "bob", tokenID, uint256.NewInt(60))
	if !errors.Is(err, domainerrors.ErrTransferFailed) {
		t.Fatalf("expected transfer failed when the refund cannot land, got %v", err)
	}

	auction, err := f.module.Service.GetAuction(context.Background(), tokenID)
	if err != nil {
		t.Fatalf("get auction should succeed: %v", err)
	}
	if auction.HighestBidder != "alice" || auction.HighestBid.Uint64() != 50 {
		t.Fatalf("auction must keep the standing bid, got %s/%s", auction.HighestBidder, auction.HighestBid.Dec())
	}
	if got := f.balance(t, "bob").Uint64(); got != 60 {
		t.Fatalf("rejected bid must not move the new bidder's funds, got %d", got)
	}
	if got := f.store.EscrowBalance().Uint64(); got != 150 {
		t.Fatalf("escrow must be unchanged, got %d", got)
	}
}

func TestSettlementPayoutToFrozenSellerRejected(t *testing.T) {
	f := newLedgerFixture(t, 100, 10)
	f.deposit(t, "creator", 100, "idem-dep-creator")
	f.deposit(t, "alice", 80, "idem-dep-alice")
	tokenID := f.mint(t, "creator", 100, "idem-mint")

	if _, err := f.module.Service.StartAuction(context.Background(), "idem-auction", adminAccount, tokenID, uint256.NewInt(10), 3600); err != nil {
		t.Fatalf("start auction should succeed: %v", err)
	}
	if _, err := f.module.Service.PlaceBid(context.Background(), "idem-bid", "alice", tokenID, uint256.NewInt(80)); err != nil {
		t.Fatalf("bid should succeed: %v", err)
	}

	f.store.FreezeAccount("creator", f.clock.Now())
	f.clock.Advance(2 * time.Hour)

	_, err := f.module.Service.EndAuction(context.Background(), "idem-settle", adminAccount, tokenID)
	if !errors.Is(err, domainerrors.ErrTransferFailed) {
		t.Fatalf("expected transfer failed when the payout cannot land, got %v", err)
	}

	token, err := f.module.Service.GetToken(context.Background(), tokenID)
	if err != nil {
		t.Fatalf("get token should succeed: %v", err)
	}
	if token.Sold {
		t.Fatalf("token must remain unsold after rejected settlement")
	}
	if token.Owner != "creator" {
		t.Fatalf("ownership must be unchanged, got %s", token.Owner)
	}
	if got := f.store.EscrowBalance().Uint64(); got != 180 {
		t.Fatalf("escrow must still hold the winning bid, got %d", got)
	}
}
