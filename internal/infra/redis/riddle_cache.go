package redis

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"riddle-game-service/internal/app"
	"riddle-game-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// RiddleLoader is the backing store the cache falls through to (Postgres in
// production, the memory store in tests).
type RiddleLoader interface {
	GetByID(ctx context.Context, id int64) (domain.Riddle, error)
	SelectRandom(ctx context.Context, category string) (domain.Riddle, error)
	ListIDs(ctx context.Context, category string) ([]int64, error)
}

// RiddleCache caches riddles in Redis and falls back to the loader on miss.
// Layout:
//
//	HSET riddle:{id} question … answer … category … explanation …
//	SADD riddles:cat:{category} {id…}
//
// Random selection is served by SRANDMEMBER against the category set, so
// repeated picks stay uniform without touching the backing store.
type RiddleCache struct {
	client *redis.Client
	loader RiddleLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewRiddleCache(client *redis.Client, loader RiddleLoader, ttl time.Duration) *RiddleCache {
	return &RiddleCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *RiddleCache) SelectRandom(ctx context.Context, category string) (domain.Riddle, error) {
	key := c.categoryKey(category)

	raw, err := c.client.SRandMember(ctx, key).Result()
	if err == nil && raw != "" {
		if id, convErr := strconv.ParseInt(raw, 10, 64); convErr == nil {
			riddle, err := c.GetByID(ctx, id)
			if err == nil {
				return riddle, nil
			}
			if errors.Is(err, domain.ErrRiddleNotFound) {
				// The set referenced a riddle deleted since it was built;
				// drop the member and fall through to the store.
				_ = c.client.SRem(ctx, key, raw).Err()
				return c.loader.SelectRandom(ctx, category)
			}
			return domain.Riddle{}, err
		}
	}

	result, err, _ := c.sf.Do("cat:"+key, func() (interface{}, error) {
		ids, err := c.loader.ListIDs(ctx, category)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, domain.ErrNoRiddles
		}

		members := make([]interface{}, len(ids))
		for i, id := range ids {
			members[i] = strconv.FormatInt(id, 10)
		}
		pipe := c.client.Pipeline()
		pipe.SAdd(ctx, key, members...)
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttlWithJitter())
		}
		_, _ = pipe.Exec(ctx)

		return ids[c.rnd.Intn(len(ids))], nil
	})
	if err != nil {
		return domain.Riddle{}, err
	}
	return c.GetByID(ctx, result.(int64))
}

func (c *RiddleCache) GetByID(ctx context.Context, id int64) (domain.Riddle, error) {
	key := c.riddleKey(id)

	fields, err := c.client.HGetAll(ctx, key).Result()
	if err == nil && len(fields) > 0 {
		return riddleFromFields(id, fields), nil
	}

	result, err, _ := c.sf.Do("id:"+key, func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		fields, err := c.client.HGetAll(ctx, key).Result()
		if err == nil && len(fields) > 0 {
			return riddleFromFields(id, fields), nil
		}

		riddle, err := c.loader.GetByID(ctx, id)
		if err != nil {
			return domain.Riddle{}, err
		}

		pipe := c.client.Pipeline()
		pipe.HSet(ctx, key,
			"question", riddle.Question,
			"answer", riddle.Answer,
			"category", riddle.Category,
			"explanation", riddle.Explanation,
		)
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttlWithJitter())
		}
		_, _ = pipe.Exec(ctx)

		return riddle, nil
	})
	if err != nil {
		return domain.Riddle{}, err
	}
	return result.(domain.Riddle), nil
}

// Invalidate drops the cached riddle and the category sets it may appear in;
// called by the admin path after writes.
func (c *RiddleCache) Invalidate(ctx context.Context, id int64, categories ...string) error {
	keys := []string{c.riddleKey(id)}
	for _, cat := range categories {
		keys = append(keys, c.categoryKey(cat))
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RiddleCache) riddleKey(id int64) string {
	return "riddle:" + strconv.FormatInt(id, 10)
}

func (c *RiddleCache) categoryKey(category string) string {
	return "riddles:cat:" + app.NormalizeCategory(category)
}

func riddleFromFields(id int64, fields map[string]string) domain.Riddle {
	return domain.Riddle{
		ID:          id,
		Question:    fields["question"],
		Answer:      fields["answer"],
		Category:    fields["category"],
		Explanation: fields["explanation"],
	}
}

// ttlWithJitter adds up to 10% jitter to spread expirations.
func (c *RiddleCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
