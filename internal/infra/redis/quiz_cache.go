package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"odyssey-quiz-service/internal/app"
	"odyssey-quiz-service/internal/domain"
)

// QuizCache caches the quiz and questions for a date in Redis, in front of
// the relational store. Concurrent misses collapse into one store read. The
// lifecycle invalidates the date key after deleting or regenerating a quiz.
type QuizCache struct {
	client *redis.Client
	store  app.Store
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

type cachedQuiz struct {
	Quiz      domain.Quiz       `json:"quiz"`
	Questions []domain.Question `json:"questions"`
}

func NewQuizCache(client *redis.Client, store app.Store, ttl time.Duration) *QuizCache {
	return &QuizCache{
		client: client,
		store:  store,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// QuizOfDay returns the quiz and its questions for a date, from cache when
// possible.
func (c *QuizCache) QuizOfDay(ctx context.Context, date string) (domain.Quiz, []domain.Question, error) {
	key := c.key(date)

	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		var entry cachedQuiz
		if err := json.Unmarshal([]byte(raw), &entry); err == nil {
			return entry.Quiz, entry.Questions, nil
		}
	}

	result, err, _ := c.sf.Do(date, func() (interface{}, error) {
		// Re-check in case another goroutine filled the key.
		if raw, err := c.client.Get(ctx, key).Result(); err == nil {
			var entry cachedQuiz
			if err := json.Unmarshal([]byte(raw), &entry); err == nil {
				return entry, nil
			}
		}

		quiz, err := c.store.QuizByDate(ctx, date)
		if err != nil {
			return cachedQuiz{}, err
		}
		questions, err := c.store.QuestionsByQuiz(ctx, quiz.ID)
		if err != nil {
			return cachedQuiz{}, err
		}

		entry := cachedQuiz{Quiz: quiz, Questions: questions}
		if data, err := json.Marshal(entry); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return entry, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			return domain.Quiz{}, nil, domain.ErrQuizNotFound
		}
		return domain.Quiz{}, nil, err
	}

	entry := result.(cachedQuiz)
	return entry.Quiz, entry.Questions, nil
}

// Invalidate drops the cached entry for a date.
func (c *QuizCache) Invalidate(ctx context.Context, date string) error {
	return c.client.Del(ctx, c.key(date)).Err()
}

func (c *QuizCache) key(date string) string {
	return "quiz:daily:" + date
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
