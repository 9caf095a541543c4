package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizhost-service/internal/app"
	"quizhost-service/internal/domain"
)

// CatalogCache is a read-through cache in front of a catalog reader. Quiz
// content (metadata plus questions) is stored as one JSON value per quiz:
// SET quiz:{quizID}:content {json}. Misses are collapsed with singleflight
// so a stampede on a cold quiz reaches the store once.
type CatalogCache struct {
	client *redis.Client
	inner  app.CatalogReader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalogCache(client *redis.Client, inner app.CatalogReader, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CatalogCache) GetQuiz(ctx context.Context, quizID string) (domain.QuizWithQuestions, error) {
	key := c.key(quizID)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var cached domain.QuizWithQuestions
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		// Unreadable cache entry; drop it and reload.
		_ = c.client.Del(ctx, key).Err()
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var cached domain.QuizWithQuestions
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}

		resolved, err := c.inner.GetQuiz(ctx, quizID)
		if err != nil {
			return domain.QuizWithQuestions{}, err
		}

		if raw, err := json.Marshal(resolved); err == nil {
			// Best-effort fill; a cache write failure must not fail the read.
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return resolved, nil
	})
	if err != nil {
		return domain.QuizWithQuestions{}, err
	}
	return result.(domain.QuizWithQuestions), nil
}

// Invalidate drops the cached content for a quiz. Organiser mutations call
// this so participants never score against stale questions for a full TTL.
func (c *CatalogCache) Invalidate(ctx context.Context, quizID string) {
	_ = c.client.Del(ctx, c.key(quizID)).Err()
}

func (c *CatalogCache) key(quizID string) string {
	return "quiz:" + quizID + ":content"
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
