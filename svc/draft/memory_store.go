package draft

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[uuid.UUID]*Draft
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[uuid.UUID]*Draft)}
}

func (s *MemoryStore) Create(_ context.Context, d *Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[d.ID] = cloneDraft(d)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return cloneDraft(d), nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Draft
	for _, d := range s.drafts {
		if d.UserID == userID {
			out = append(out, cloneDraft(d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, d *Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[d.ID]; !ok {
		return ErrDraftNotFound
	}
	s.drafts[d.ID] = cloneDraft(d)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[id]; !ok {
		return ErrDraftNotFound
	}
	delete(s.drafts, id)
	return nil
}

func cloneDraft(d *Draft) *Draft {
	c := *d
	c.PhotoURLs = append([]string(nil), d.PhotoURLs...)
	if d.CardContent != nil {
		c.CardContent = make(map[string]any, len(d.CardContent))
		for k, v := range d.CardContent {
			c.CardContent[k] = v
		}
	}
	return &c
}
