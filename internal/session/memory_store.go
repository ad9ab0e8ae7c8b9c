package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/applyme/internal/domain"
)

const viewSweepInterval = time.Minute

// MemoryTokenStore keeps tokens in process memory. Tokens are lost on restart
// and not shared between replicas.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

var _ domain.TokenStore = (*MemoryTokenStore)(nil)

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]string)}
}

func (s *MemoryTokenStore) Get(_ context.Context, browserID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[browserID], nil
}

func (s *MemoryTokenStore) Set(_ context.Context, browserID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" {
		delete(s.tokens, browserID)
		return nil
	}
	s.tokens[browserID] = token
	return nil
}

func (s *MemoryTokenStore) Clear(_ context.Context, browserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, browserID)
	return nil
}

func (s *MemoryTokenStore) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

type memoryView struct {
	view    domain.View
	expires time.Time
}

// MemoryViewStore keeps each browser's page state in process memory. Entries
// expire ttl after their last write; expired ones are swept at most once a
// minute, on write.
type MemoryViewStore struct {
	clock     clockwork.Clock
	ttl       time.Duration
	mu        sync.Mutex
	views     map[string]memoryView
	lastSweep time.Time
}

var _ domain.ViewStore = (*MemoryViewStore)(nil)

// NewMemoryViewStore creates a store. ttl <= 0 keeps entries forever.
func NewMemoryViewStore(clock clockwork.Clock, ttl time.Duration) *MemoryViewStore {
	return &MemoryViewStore{
		clock:     clock,
		ttl:       ttl,
		views:     make(map[string]memoryView),
		lastSweep: clock.Now(),
	}
}

func (s *MemoryViewStore) GetView(_ context.Context, browserID string) (domain.View, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.views[browserID]
	if !ok {
		return domain.View{}, nil
	}
	if s.expired(entry, now) {
		delete(s.views, browserID)
		return domain.View{}, nil
	}
	return entry.view, nil
}

func (s *MemoryViewStore) SetView(_ context.Context, browserID string, v domain.View) error {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryView{view: v}
	if s.ttl > 0 {
		entry.expires = now.Add(s.ttl)
	}
	s.views[browserID] = entry

	if now.Sub(s.lastSweep) >= viewSweepInterval {
		for id, e := range s.views {
			if s.expired(e, now) {
				delete(s.views, id)
			}
		}
		s.lastSweep = now
	}
	return nil
}

func (s *MemoryViewStore) expired(e memoryView, now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

func (s *MemoryViewStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}
