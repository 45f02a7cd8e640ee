package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"curio/contexts/marketplace/ledger-service/adapters/memory"
	"curio/contexts/marketplace/ledger-service/domain/entities"
	domainerrors "curio/contexts/marketplace/ledger-service/domain/errors"
)

type staticGate struct {
	admin string
}

func (g staticGate) IsAdmin(ctx context.Context, accountID string) (bool, error) {
	return accountID == g.admin, nil
}

type failingGate struct{}

func (failingGate) IsAdmin(ctx context.Context, accountID string) (bool, error) {
	return false, errors.New("gate unreachable")
}

type stubRegistry struct{}

func (stubRegistry) Register(ctx context.Context, tokenID uint64, owner string) error { return nil }
func (stubRegistry) Transfer(ctx context.Context, tokenID uint64, from, to string) error {
	return nil
}
func (stubRegistry) OwnerOf(ctx context.Context, tokenID uint64) (string, error) {
	return "owner", nil
}
func (stubRegistry) Exists(ctx context.Context, tokenID uint64) (bool, error) { return true, nil }

type frozenClock struct{ now time.Time }

func (c frozenClock) Now() time.Time { return c.now }

func newService(t *testing.T) Service {
	t.Helper()
	store := memory.NewStore(entities.LedgerParams{
		MintPrice: uint256.NewInt(100),
		MaxSupply: 10,
	}, stubRegistry{})
	return Service{
		Repo:        store,
		Registry:    stubRegistry{},
		Gate:        staticGate{admin: "admin"},
		Idempotency: store,
		Clock:       frozenClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestMintValidatesCommand(t *testing.T) {
	service := newService(t)

	_, err := service.Mint(context.Background(), "idem", "", MintCommand{
		ContentURI: "ipfs://x", Payment: uint256.NewInt(100),
	})
	if !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected invalid request for empty minter, got %v", err)
	}

	_, err = service.Mint(context.Background(), "idem", "creator", MintCommand{
		ContentURI: " ", Payment: uint256.NewInt(100),
	})
	if !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected invalid request for blank uri, got %v", err)
	}

	_, err = service.Mint(context.Background(), "idem", "creator", MintCommand{
		ContentURI: "ipfs://x", RoyaltyPct: 101, Payment: uint256.NewInt(100),
	})
	if !errors.Is(err, domainerrors.ErrInvalidRoyalty) {
		t.Fatalf("expected invalid royalty, got %v", err)
	}

	_, err = service.Mint(context.Background(), "idem", "creator", MintCommand{
		ContentURI: "ipfs://x",
	})
	if !errors.Is(err, domainerrors.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount for nil payment, got %v", err)
	}
}

func TestStartAuctionValidatesDuration(t *testing.T) {
	service := newService(t)

	_, err := service.StartAuction(context.Background(), "idem", "admin", 1, uint256.NewInt(10), 0)
	if !errors.Is(err, domainerrors.ErrInvalidDuration) {
		t.Fatalf("expected invalid duration, got %v", err)
	}
	_, err = service.StartAuction(context.Background(), "idem", "admin", 1, uint256.NewInt(10), -5)
	if !errors.Is(err, domainerrors.ErrInvalidDuration) {
		t.Fatalf("expected invalid duration, got %v", err)
	}
}

func TestDepositValidatesAmount(t *testing.T) {
	service := newService(t)

	_, err := service.Deposit(context.Background(), "idem", "creator", uint256.NewInt(0))
	if !errors.Is(err, domainerrors.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount for zero deposit, got %v", err)
	}
	_, err = service.Deposit(context.Background(), "idem", " ", uint256.NewInt(5))
	if !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected invalid request for blank account, got %v", err)
	}
}

func TestGetBalanceUnknownAccount(t *testing.T) {
	service := newService(t)

	_, err := service.GetBalance(context.Background(), "ghost")
	if !errors.Is(err, domainerrors.ErrAccountNotFound) {
		t.Fatalf("expected account not found, got %v", err)
	}
}

func TestAdminCheckFailureMapsToDependencyUnavailable(t *testing.T) {
	service := newService(t)
	service.Gate = failingGate{}

	_, err := service.Withdraw(context.Background(), "idem", "admin")
	if !errors.Is(err, domainerrors.ErrDependencyUnavailable) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
}

func TestGetPriceUnknownToken(t *testing.T) {
	service := newService(t)

	_, err := service.GetPrice(context.Background(), 99)
	if !errors.Is(err, domainerrors.ErrTokenNotFound) {
		t.Fatalf("expected token not found, got %v", err)
	}
	_, err = service.GetRoyalty(context.Background(), 99)
	if !errors.Is(err, domainerrors.ErrTokenNotFound) {
		t.Fatalf("expected token not found, got %v", err)
	}
}
