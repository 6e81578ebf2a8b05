package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/junes231/funnel-editor/internal/model"
)

// OutcomeStatsCache counts resolved outcomes per funnel in a Redis ZSET
type OutcomeStatsCache interface {
	Increment(ctx context.Context, funnelID, outcomeID string) error
	GetAll(ctx context.Context, funnelID string) ([]model.OutcomeCount, error)
	Reset(ctx context.Context, funnelID string) error
}

type outcomeStatsCache struct {
	client *redis.Client
}

// NewOutcomeStatsCache creates a new outcome stats cache
func NewOutcomeStatsCache(client *redis.Client) OutcomeStatsCache {
	return &outcomeStatsCache{
		client: client,
	}
}

func (c *outcomeStatsCache) key(funnelID string) string {
	return fmt.Sprintf("funnel:%s:outcomes", funnelID)
}

func (c *outcomeStatsCache) Increment(ctx context.Context, funnelID, outcomeID string) error {
	return c.client.ZIncrBy(ctx, c.key(funnelID), 1, outcomeID).Err()
}

// GetAll returns counts ordered from most to least frequent
func (c *outcomeStatsCache) GetAll(ctx context.Context, funnelID string) ([]model.OutcomeCount, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(funnelID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	counts := make([]model.OutcomeCount, len(results))
	for i, z := range results {
		counts[i] = model.OutcomeCount{
			OutcomeID: z.Member.(string),
			Count:     int(z.Score),
		}
	}
	return counts, nil
}

func (c *outcomeStatsCache) Reset(ctx context.Context, funnelID string) error {
	return c.client.Del(ctx, c.key(funnelID)).Err()
}
