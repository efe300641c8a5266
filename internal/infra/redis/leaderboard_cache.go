package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"odyssey-quiz-service/internal/domain"
)

// TopLoader is the uncached leaderboard source (the points ledger).
type TopLoader interface {
	Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// LeaderboardCache keeps the ranked top list in Redis with a short TTL so
// leaderboard reads don't hammer the points table. The TTL bounds staleness;
// submissions also push fresh entries over the live feed.
type LeaderboardCache struct {
	client *redis.Client
	loader TopLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewLeaderboardCache(client *redis.Client, loader TopLoader, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

const leaderboardKey = "quiz:leaderboard:top"

func (c *LeaderboardCache) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if raw, err := c.client.Get(ctx, leaderboardKey).Result(); err == nil {
		var entries []domain.LeaderboardEntry
		if err := json.Unmarshal([]byte(raw), &entries); err == nil {
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			return entries, nil
		}
	}

	result, err, _ := c.sf.Do(leaderboardKey, func() (interface{}, error) {
		entries, err := c.loader.Top(ctx, limit)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(entries); err == nil {
			_ = c.client.Set(ctx, leaderboardKey, data, c.ttlWithJitter()).Err()
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.LeaderboardEntry), nil
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
