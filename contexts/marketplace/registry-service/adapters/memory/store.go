package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainerrors "curio/contexts/marketplace/registry-service/domain/errors"
	"curio/contexts/marketplace/registry-service/ports"
)

// Store is the in-memory ownership registry. Token ids map to exactly one
// owner; burned ids are removed and never reassigned by callers.
type Store struct {
	mu sync.RWMutex

	ownersByToken map[uint64]ports.Ownership
}

func NewStore() *Store {
	return &Store{
		ownersByToken: make(map[uint64]ports.Ownership),
	}
}

func (s *Store) Register(ctx context.Context, tokenID uint64, owner string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ownersByToken[tokenID]; exists {
		return domainerrors.ErrTokenAlreadyBound
	}
	now = now.UTC()
	s.ownersByToken[tokenID] = ports.Ownership{
		TokenID:      tokenID,
		Owner:        owner,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	return nil
}

func (s *Store) Transfer(ctx context.Context, tokenID uint64, from string, to string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.ownersByToken[tokenID]
	if !exists {
		return domainerrors.ErrTokenNotFound
	}
	if item.Owner != from {
		return domainerrors.ErrNotOwner
	}
	item.Owner = to
	item.UpdatedAt = now.UTC()
	s.ownersByToken[tokenID] = item
	return nil
}

func (s *Store) Burn(ctx context.Context, tokenID uint64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ownersByToken[tokenID]; !exists {
		return domainerrors.ErrTokenNotFound
	}
	delete(s.ownersByToken, tokenID)
	return nil
}

func (s *Store) OwnerOf(ctx context.Context, tokenID uint64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.ownersByToken[tokenID]
	if !exists {
		return "", domainerrors.ErrTokenNotFound
	}
	return item.Owner, nil
}

func (s *Store) Exists(ctx context.Context, tokenID uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.ownersByToken[tokenID]
	return exists, nil
}

func (s *Store) ListByOwner(ctx context.Context, owner string) ([]ports.Ownership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.Ownership, 0)
	for _, item := range s.ownersByToken {
		if item.Owner == owner {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].TokenID < items[j].TokenID })
	return items, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}
