package memory

import (
	"context"
	"sync"
	"time"

	"odyssey-quiz-service/internal/domain"
)

type session struct {
	userID    int64
	expiresAt time.Time
}

// SessionStore is an in-memory implementation of app.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]session
	clock    func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]session),
		clock:    time.Now,
	}
}

func (s *SessionStore) Create(_ context.Context, token string, userID int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = session{userID: userID, expiresAt: s.clock().Add(ttl)}
	return nil
}

func (s *SessionStore) Resolve(_ context.Context, token string) (int64, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return 0, domain.ErrSessionNotFound
	}
	if s.clock().After(sess.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return 0, domain.ErrSessionNotFound
	}
	return sess.userID, nil
}
