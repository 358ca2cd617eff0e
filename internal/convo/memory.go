package convo

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/randevu/internal/domain"
)

// MemoryStore keeps sessions in process memory. Expiry is lazy: a session
// past the idle window is discarded on next Load. Sweep may additionally be
// run periodically to release memory for identities that never return.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[Key]*Session

	idleTTL     time.Duration
	maxMessages int
	now         func() time.Time
}

// MemoryStoreOption configures optional MemoryStore parameters.
type MemoryStoreOption func(*MemoryStore)

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates a store with the given idle window and trim size.
func NewMemoryStore(idleTTL time.Duration, maxMessages int, opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		sessions:    make(map[Key]*Session),
		idleTTL:     idleTTL,
		maxMessages: maxMessages,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Load(_ context.Context, key Key) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok || s.expired(sess) {
		if ok {
			delete(s.sessions, key)
		}
		return &Session{Key: key}, nil
	}

	return &Session{
		Key:          key,
		Messages:     append([]domain.Message(nil), sess.Messages...),
		LastActivity: sess.LastActivity,
	}, nil
}

func (s *MemoryStore) Save(_ context.Context, key Key, messages []domain.Message) error {
	compacted := Trim(Compact(messages), s.maxMessages)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[key] = &Session{
		Key:          key,
		Messages:     compacted,
		LastActivity: s.now(),
	}
	return nil
}

// Sweep removes all expired sessions and returns how many were evicted.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, key)
			evicted++
		}
	}
	if evicted > 0 {
		log.Debug().Int("evicted", evicted).Msg("convo: swept expired sessions")
	}
	return evicted
}

func (s *MemoryStore) expired(sess *Session) bool {
	return s.now().Sub(sess.LastActivity) > s.idleTTL
}
