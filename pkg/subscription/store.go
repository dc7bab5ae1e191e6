package subscription

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Store persists subscriptions. Each account has exactly one record, so
// AccountID serves as the primary key.
type Store interface {
	// Get retrieves the subscription for an account.
	// Returns ErrSubscriptionNotFound if no subscription exists.
	Get(ctx context.Context, accountID uuid.UUID) (*Subscription, error)

	// Save creates or updates a subscription keyed by AccountID.
	Save(ctx context.Context, sub *Subscription) error
}

// NoPlanStore reports every account as having no plan. It is the default
// store when no database is configured and rejects writes.
type NoPlanStore struct{}

func (NoPlanStore) Get(_ context.Context, accountID uuid.UUID) (*Subscription, error) {
	return None(accountID), nil
}

func (NoPlanStore) Save(context.Context, *Subscription) error {
	return ErrReadOnlyStore
}

// MemoryStore keeps subscriptions in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*Subscription
}

// NewMemoryStore returns a MemoryStore seeded with copies of subs.
// Panics on invalid seed data to fail fast during setup.
func NewMemoryStore(subs ...*Subscription) *MemoryStore {
	s := &MemoryStore{subs: make(map[uuid.UUID]*Subscription, len(subs))}
	for _, sub := range subs {
		if err := Validate(sub); err != nil {
			panic("subscription: invalid seed: " + err.Error())
		}
		s.subs[sub.AccountID] = sub.Clone()
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, accountID uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[accountID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return sub.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, sub *Subscription) error {
	if err := Validate(sub); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subs == nil {
		s.subs = make(map[uuid.UUID]*Subscription)
	}
	s.subs[sub.AccountID] = sub.Clone()
	return nil
}
