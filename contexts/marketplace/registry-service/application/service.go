package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	domainerrors "curio/contexts/marketplace/registry-service/domain/errors"
	"curio/contexts/marketplace/registry-service/ports"
)

// Service fronts the ownership registry. Its mutating surface matches the
// consumer-side port the marketplace ledger declares, so the ledger can be
// wired straight against it.
type Service struct {
	Repo   ports.Repository
	Gate   ports.AccessGate
	Clock  ports.Clock
	Logger *slog.Logger
}

func (s Service) Register(ctx context.Context, tokenID uint64, owner string) error {
	if tokenID == 0 || strings.TrimSpace(owner) == "" {
		return domainerrors.ErrInvalidRequest
	}
	if err := s.Repo.Register(ctx, tokenID, strings.TrimSpace(owner), s.now()); err != nil {
		return err
	}
	resolveLogger(s.Logger).Debug("token registered",
		"event", "registry_token_registered",
		"module", "marketplace/registry-service",
		"layer", "application",
		"token_id", tokenID,
		"owner", owner,
	)
	return nil
}

func (s Service) Transfer(ctx context.Context, tokenID uint64, from string, to string) error {
	if tokenID == 0 || strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return domainerrors.ErrInvalidRequest
	}
	return s.Repo.Transfer(ctx, tokenID, strings.TrimSpace(from), strings.TrimSpace(to), s.now())
}

// Burn removes a token id permanently. Administrator-only: the ledger never
// burns on its own, destruction is an explicit collaborator call.
func (s Service) Burn(ctx context.Context, actorAccountID string, tokenID uint64) error {
	if err := s.requireAdmin(ctx, actorAccountID); err != nil {
		return err
	}
	if err := s.Repo.Burn(ctx, tokenID, s.now()); err != nil {
		return err
	}
	resolveLogger(s.Logger).Info("token burned",
		"event", "registry_token_burned",
		"module", "marketplace/registry-service",
		"layer", "application",
		"token_id", tokenID,
		"actor", actorAccountID,
	)
	return nil
}

func (s Service) OwnerOf(ctx context.Context, tokenID uint64) (string, error) {
	return s.Repo.OwnerOf(ctx, tokenID)
}

func (s Service) Exists(ctx context.Context, tokenID uint64) (bool, error) {
	return s.Repo.Exists(ctx, tokenID)
}

func (s Service) ListByOwner(ctx context.Context, owner string) ([]ports.Ownership, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, domainerrors.ErrInvalidRequest
	}
	return s.Repo.ListByOwner(ctx, strings.TrimSpace(owner))
}

func (s Service) requireAdmin(ctx context.Context, accountID string) error {
	if strings.TrimSpace(accountID) == "" || s.Gate == nil {
		return domainerrors.ErrAdminRequired
	}
	ok, err := s.Gate.IsAdmin(ctx, strings.TrimSpace(accountID))
	if err != nil {
		return err
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

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
