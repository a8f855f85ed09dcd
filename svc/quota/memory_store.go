package quota

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests and local development.
// Increment serializes on one mutex, giving the same refuse-at-limit
// guarantee the Postgres store gets from its conditional upsert.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*Usage
	ips   map[string]*Usage
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*Usage),
		ips:   make(map[string]*Usage),
	}
}

func (s *MemoryStore) Get(_ context.Context, id Identity, periodYM string) (Usage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.keyspace(id)[s.key(id, periodYM)]; ok {
		return *u, nil
	}
	return Usage{}, nil
}

func (s *MemoryStore) Increment(_ context.Context, id Identity, periodYM string, feature Feature, limit int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	space := s.keyspace(id)
	key := s.key(id, periodYM)
	u, ok := space[key]
	if !ok {
		u = &Usage{}
		space[key] = u
	}

	if limit != Unlimited && u.Counter(feature) >= limit {
		return 0, ErrQuotaExceeded
	}

	switch feature {
	case FeaturePhotos:
		u.PhotosProcessed++
	case FeatureMagicFill:
		u.MagicFillCount++
	case FeatureExport:
		u.ExportCount++
	default:
		return 0, ErrInvalidFeature
	}
	return u.Counter(feature), nil
}

func (s *MemoryStore) keyspace(id Identity) map[string]*Usage {
	if id.IsAnonymous() {
		return s.ips
	}
	return s.users
}

func (s *MemoryStore) key(id Identity, periodYM string) string {
	if id.IsAnonymous() {
		return id.IP + "|" + periodYM
	}
	return id.UserID.String() + "|" + periodYM
}
