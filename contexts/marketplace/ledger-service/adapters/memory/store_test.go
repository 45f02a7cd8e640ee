package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"curio/contexts/marketplace/ledger-service/domain/entities"
	domainerrors "curio/contexts/marketplace/ledger-service/domain/errors"
	"curio/contexts/marketplace/ledger-service/ports"
)

type fakeRegistry struct {
	owners map[uint64]string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{owners: make(map[uint64]string)}
}

func (r *fakeRegistry) Register(ctx context.Context, tokenID uint64, owner string) error {
	if _, ok := r.owners[tokenID]; ok {
		return errors.New("token already bound")
	}
	r.owners[tokenID] = owner
	return nil
}

func (r *fakeRegistry) Transfer(ctx context.Context, tokenID uint64, from string, to string) error {
	if r.owners[tokenID] != from {
		return errors.New("not owner")
	}
	r.owners[tokenID] = to
	return nil
}

func (r *fakeRegistry) OwnerOf(ctx context.Context, tokenID uint64) (string, error) {
	owner, ok := r.owners[tokenID]
	if !ok {
		return "", errors.New("token not found")
	}
	return owner, nil
}

func (r *fakeRegistry) Exists(ctx context.Context, tokenID uint64) (bool, error) {
	_, ok := r.owners[tokenID]
	return ok, nil
}

func newStoreWithFunds(t *testing.T, accounts map[string]uint64) (*Store, *fakeRegistry, time.Time) {
	t.Helper()
	registry := newFakeRegistry()
	store := NewStore(entities.LedgerParams{
		MintPrice: uint256.NewInt(100),
		MaxSupply: 100,
	}, registry)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for account, amount := range accounts {
		if _, err := store.Deposit(context.Background(), account, uint256.NewInt(amount), now); err != nil {
			t.Fatalf("deposit should succeed: %v", err)
		}
	}
	return store, registry, now
}

func mustMint(t *testing.T, store *Store, minter string, now time.Time) entities.Token {
	t.Helper()
	token, err := store.MintToken(context.Background(), minter, ports.MintInput{
		ContentURI: "ipfs://content",
		RoyaltyPct: 10,
		Payment:    uint256.NewInt(100),
	}, now)
	if err != nil {
		t.Fatalf("mint should succeed: %v", err)
	}
	return token
}

func TestStoreEscrowAccountingAcrossPurchase(t *testing.T) {
	store, _, now := newStoreWithFunds(t, map[string]uint64{
		"creator": 100,
		"buyer":   100,
	})
	token := mustMint(t, store, "creator", now)

	// Mint payment is held in escrow until the admin sweeps it.
	if got := store.EscrowBalance().Uint64(); got != 100 {
		t.Fatalf("expected escrow 100 after mint, got %d", got)
	}

	if _, err := store.PurchaseToken(context.Background(), "buyer", token.TokenID, uint256.NewInt(100), now); err != nil {
		t.Fatalf("purchase should succeed: %v", err)
	}

	// A purchase routes the full payment to the seller, escrow is unchanged.
	if got := store.EscrowBalance().Uint64(); got != 100 {
		t.Fatalf("expected escrow 100 after purchase, got %d", got)
	}
	seller, err := store.GetAccount(context.Background(), "creator")
	if err != nil || seller.Balance.Uint64() != 100 {
		t.Fatalf("expected seller balance 100, got %v err=%v", seller.Balance, err)
	}
}

func TestStoreRejectedMintLeavesNoTrace(t *testing.T) {
	store, registry, now := newStoreWithFunds(t, map[string]uint64{"creator": 50})

	_, err := store.MintToken(context.Background(), "creator", ports.MintInput{
		ContentURI: "ipfs://content",
		RoyaltyPct: 10,
		Payment:    uint256.NewInt(100),
	}, now)
	if !errors.Is(err, domainerrors.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	if len(registry.owners) != 0 {
		t.Fatalf("rejected mint must not register ownership")
	}
	events, err := store.ListEvents(context.Background(), 0, 10)
	if err != nil || len(events) != 0 {
		t.Fatalf("rejected mint must not append events, got %d err=%v", len(events), err)
	}
	account, err := store.GetAccount(context.Background(), "creator")
	if err != nil || account.Balance.Uint64() != 50 {
		t.Fatalf("balance must be untouched, got %v err=%v", account.Balance, err)
	}
}

func TestStoreListTokensPaginationAndFilter(t *testing.T) {
	store, _, now := newStoreWithFunds(t, map[string]uint64{
		"creator": 500,
		"buyer":   100,
	})
	for i := 0; i < 5; i++ {
		mustMint(t, store, "creator", now)
	}
	if _, err := store.PurchaseToken(context.Background(), "buyer", 3, uint256.NewInt(100), now); err != nil {
		t.Fatalf("purchase should succeed: %v", err)
	}

	page, cursor, err := store.ListTokens(context.Background(), ports.TokenListFilter{Limit: 2})
	if err != nil {
		t.Fatalf("list should succeed: %v", err)
	}
	if len(page) != 2 || page[0].TokenID != 1 || page[1].TokenID != 2 {
		t.Fatalf("unexpected first page: %+v", page)
	}
	if cursor == "" {
		t.Fatalf("expected a next cursor")
	}

	rest, _, err := store.ListTokens(context.Background(), ports.TokenListFilter{Limit: 10, Cursor: cursor})
	if err != nil {
		t.Fatalf("list should succeed: %v", err)
	}
	if len(rest) != 3 || rest[0].TokenID != 3 {
		t.Fatalf("unexpected second page: %+v", rest)
	}

	sold := true
	soldOnly, _, err := store.ListTokens(context.Background(), ports.TokenListFilter{Sold: &sold})
	if err != nil {
		t.Fatalf("list should succeed: %v", err)
	}
	if len(soldOnly) != 1 || soldOnly[0].TokenID != 3 {
		t.Fatalf("expected only token 3 sold, got %+v", soldOnly)
	}
}

func TestStoreListEventsAfterSequence(t *testing.T) {
	store, _, now := newStoreWithFunds(t, map[string]uint64{"creator": 300})
	mustMint(t, store, "creator", now)
	mustMint(t, store, "creator", now)
	mustMint(t, store, "creator", now)

	events, err := store.ListEvents(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("list events should succeed: %v", err)
	}
	if len(events) != 2 || events[0].Sequence != 2 || events[1].Sequence != 3 {
		t.Fatalf("unexpected tail: %+v", events)
	}
}

func TestStoreSetPriceOnSoldTokenRejected(t *testing.T) {
	store, _, now := newStoreWithFunds(t, map[string]uint64{
		"creator": 100,
		"buyer":   100,
	})
	token := mustMint(t, store, "creator", now)
	if _, err := store.PurchaseToken(context.Background(), "buyer", token.TokenID, uint256.NewInt(100), now); err != nil {
		t.Fatalf("purchase should succeed: %v", err)
	}

	_, err := store.SetTokenPrice(context.Background(), "admin", token.TokenID, uint256.NewInt(500), now)
	if !errors.Is(err, domainerrors.ErrTokenAlreadySold) {
		t.Fatalf("expected token already sold, got %v", err)
	}
}

func TestRoyaltySplitFloorsAndPreservesSum(t *testing.T) {
	royalty, remainder := entities.RoyaltySplit(uint256.NewInt(99), 10)
	if royalty.Uint64() != 9 || remainder.Uint64() != 90 {
		t.Fatalf("expected 9/90, got %s/%s", royalty.Dec(), remainder.Dec())
	}

	royalty, remainder = entities.RoyaltySplit(uint256.NewInt(1), 99)
	if royalty.Uint64() != 0 || remainder.Uint64() != 1 {
		t.Fatalf("expected 0/1, got %s/%s", royalty.Dec(), remainder.Dec())
	}
}
