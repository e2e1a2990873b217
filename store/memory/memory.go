// Package memory keeps session history in process.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/salaryse/assistant/store"
)

// SessionStore keeps history in a go-cache. Threads idle for longer than the
// TTL are dropped.
type SessionStore struct {
	mu         sync.Mutex
	cache      *cache.Cache
	maxHistory int
}

var _ store.SessionStore = (*SessionStore)(nil)

// Options configures a SessionStore.
type Options struct {
	MaxHistory int           // Default store.DefaultMaxHistory
	TTL        time.Duration // Inactivity expiry, 0 keeps threads forever
}

// NewSessionStore creates an in-memory session store.
func NewSessionStore(opts Options) *SessionStore {
	maxHistory := opts.MaxHistory
	if maxHistory <= 0 {
		maxHistory = store.DefaultMaxHistory
	}

	ttl := opts.TTL
	cleanup := 10 * time.Minute
	if ttl <= 0 {
		ttl = cache.NoExpiration
		cleanup = 0
	}

	return &SessionStore{
		cache:      cache.New(ttl, cleanup),
		maxHistory: maxHistory,
	}
}

func (s *SessionStore) History(_ context.Context, threadID string) ([]store.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(threadID), nil
}

func (s *SessionStore) Append(_ context.Context, threadID string, exchange store.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.load(threadID), exchange)
	s.cache.Set(threadID, store.Trim(history, s.maxHistory), cache.DefaultExpiration)
	return nil
}

func (s *SessionStore) Delete(_ context.Context, threadID string) error {
	s.cache.Delete(threadID)
	return nil
}

// load returns a copy so callers never share the cached slice.
func (s *SessionStore) load(threadID string) []store.Exchange {
	x, found := s.cache.Get(threadID)
	if !found {
		return []store.Exchange{}
	}
	cached := x.([]store.Exchange)
	out := make([]store.Exchange, len(cached))
	copy(out, cached)
	return out
}
