package ports

import (
	"context"
	"time"
)

// Ownership is one registry row: exactly one owner per token id.
type Ownership struct {
	TokenID      uint64
	Owner        string
	RegisteredAt time.Time
	UpdatedAt    time.Time
}

// Clock allows deterministic timestamps in tests.
type Clock interface {
	Now() time.Time
}

// Repository owns the token-id -> owner mapping and its uniqueness guarantee.
// Register rejects an already-assigned id; Transfer rejects a from-account
// that is not the current owner; Burn removes the id permanently (ids are
// never reused, the ledger allocates monotonically).
type Repository interface {
	Register(ctx context.Context, tokenID uint64, owner string, now time.Time) error
	Transfer(ctx context.Context, tokenID uint64, from string, to string, now time.Time) error
	Burn(ctx context.Context, tokenID uint64, now time.Time) error
	OwnerOf(ctx context.Context, tokenID uint64) (string, error)
	Exists(ctx context.Context, tokenID uint64) (bool, error)
	ListByOwner(ctx context.Context, owner string) ([]Ownership, error)
}

// AccessGate guards privileged registry operations (burn).
type AccessGate interface {
	IsAdmin(ctx context.Context, accountID string) (bool, error)
}
