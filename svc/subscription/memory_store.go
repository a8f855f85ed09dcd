package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*Subscription
	now  func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subs: make(map[uuid.UUID]*Subscription),
		now:  time.Now,
	}
}

func (s *MemoryStore) Upsert(_ context.Context, sub *Subscription) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.subs {
		if existing.UserID == sub.UserID && existing.Provider == sub.Provider {
			updated := *sub
			updated.ID = existing.ID
			updated.CreatedAt = existing.CreatedAt
			updated.UpdatedAt = s.now()
			s.subs[existing.ID] = &updated
			return cloneSub(&updated), nil
		}
	}

	created := *sub
	created.ID = uuid.New()
	created.CreatedAt = s.now()
	created.UpdatedAt = created.CreatedAt
	s.subs[created.ID] = &created
	return cloneSub(&created), nil
}

func (s *MemoryStore) Update(_ context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[sub.ID]; !ok {
		return ErrSubscriptionNotFound
	}
	updated := *sub
	updated.UpdatedAt = s.now()
	s.subs[sub.ID] = &updated
	return nil
}

func (s *MemoryStore) LatestForUser(_ context.Context, userID uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *Subscription
	for _, sub := range s.subs {
		if sub.UserID != userID || !sub.GrantsAccess() {
			continue
		}
		if latest == nil || sub.CreatedAt.After(latest.CreatedAt) {
			latest = sub
		}
	}
	if latest == nil {
		return nil, ErrSubscriptionNotFound
	}
	return cloneSub(latest), nil
}

func (s *MemoryStore) GetByProviderSubID(_ context.Context, provider, providerSubID string) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subs {
		if sub.Provider == provider && sub.ProviderSubID == providerSubID {
			return cloneSub(sub), nil
		}
	}
	return nil, ErrSubscriptionNotFound
}

func cloneSub(sub *Subscription) *Subscription {
	c := *sub
	if sub.Metadata != nil {
		c.Metadata = make(map[string]any, len(sub.Metadata))
		for k, v := range sub.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
