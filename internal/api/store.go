package api

import (
	"sort"
	"sync"

	"github.com/tigertrust/tigertrust/internal/identity"
	"github.com/tigertrust/tigertrust/internal/services"
)

// memoryStore backs the server when no SQLite path is configured, and the
// handler tests. It copies records on the way in and out so callers never
// share state with the store.
type memoryStore struct {
	mu       sync.RWMutex
	profiles map[identity.Key]*services.Profile
	audit    []services.AuditEntry
}

// NewMemoryStore returns an empty, thread-safe in-memory store.
func NewMemoryStore() Store {
	return &memoryStore{profiles: map[identity.Key]*services.Profile{}}
}

func (s *memoryStore) AddProfile(p *services.Profile) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.Owner]; ok {
		return false
	}
	copy := *p
	s.profiles[p.Owner] = &copy
	return true
}

func (s *memoryStore) UpdateProfile(p *services.Profile) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.Owner]; !ok {
		return false
	}
	copy := *p
	s.profiles[p.Owner] = &copy
	return true
}

func (s *memoryStore) GetProfile(owner identity.Key) *services.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[owner]
	if !ok {
		return nil
	}
	copy := *p
	return &copy
}

func (s *memoryStore) ListProfiles() []*services.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*services.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		copy := *p
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Owner.String() < out[j].Owner.String() })
	return out
}

func (s *memoryStore) AddAudit(e services.AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, e)
}

func (s *memoryStore) ListAudit() []services.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]services.AuditEntry(nil), s.audit...)
}
