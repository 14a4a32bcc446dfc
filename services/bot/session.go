package bot

import (
	"context"
	"sync"
	"time"

	"wellnessbot/models"
)

// SessionStore keeps one conversation session per user phone number.
type SessionStore interface {
	// Get returns the user's session, or nil when absent or expired.
	Get(ctx context.Context, phone string) (*models.Session, error)
	// Put stores the session, refreshing its TTL.
	Put(ctx context.Context, phone string, s *models.Session) error
	// Reset removes the session entirely.
	Reset(ctx context.Context, phone string) error
}

type memoryEntry struct {
	session  *models.Session
	deadline time.Time
}

// MemoryStore is a process-local session store with lazy TTL eviction.
// Sessions do not survive a restart; the Redis store is the durable option.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	clock   func() time.Time
}

// NewMemoryStore builds a memory store. A zero ttl disables expiry. A nil
// clock defaults to time.Now.
func NewMemoryStore(ttl time.Duration, clock func() time.Time) *MemoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		clock:   clock,
	}
}

func (s *MemoryStore) Get(ctx context.Context, phone string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[phone]
	if !ok {
		return nil, nil
	}
	if !e.deadline.IsZero() && s.clock().After(e.deadline) {
		delete(s.entries, phone)
		return nil, nil
	}
	return e.session, nil
}

func (s *MemoryStore) Put(ctx context.Context, phone string, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deadline time.Time
	if s.ttl > 0 {
		deadline = s.clock().Add(s.ttl)
	}
	s.entries[phone] = memoryEntry{session: sess, deadline: deadline}
	return nil
}

func (s *MemoryStore) Reset(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, phone)
	return nil
}
