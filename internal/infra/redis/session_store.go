package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"odyssey-quiz-service/internal/domain"
)

// SessionStore keeps session tokens in Redis so logins survive restarts and
// are shared across instances. Values are the user id, expiry is Redis TTL.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Create(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.ttl
	}
	return s.client.Set(ctx, s.key(token), strconv.FormatInt(userID, 10), ttl).Err()
}

func (s *SessionStore) Resolve(ctx context.Context, token string) (int64, error) {
	raw, err := s.client.Get(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrSessionNotFound
	}
	if err != nil {
		return 0, err
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.ErrSessionNotFound
	}
	return userID, nil
}

func (s *SessionStore) key(token string) string {
	return "quiz:session:" + token
}
