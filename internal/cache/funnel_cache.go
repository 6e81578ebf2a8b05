package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/junes231/funnel-editor/internal/model"
)

// FunnelCache keeps published funnels in Redis for the player endpoints
type FunnelCache interface {
	Set(ctx context.Context, funnel *model.Funnel) error
	Get(ctx context.Context, id string) (*model.Funnel, error)
	Delete(ctx context.Context, id string) error
}

type funnelCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFunnelCache creates a new funnel cache
func NewFunnelCache(client *redis.Client, ttl time.Duration) FunnelCache {
	return &funnelCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *funnelCache) key(id string) string {
	return fmt.Sprintf("funnel:%s", id)
}

func (c *funnelCache) Set(ctx context.Context, funnel *model.Funnel) error {
	data, err := json.Marshal(funnel)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(funnel.ID), data, c.ttl).Err()
}

// Get returns nil, nil on a cache miss
func (c *funnelCache) Get(ctx context.Context, id string) (*model.Funnel, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var funnel model.Funnel
	if err := json.Unmarshal(data, &funnel); err != nil {
		return nil, err
	}
	return &funnel, nil
}

func (c *funnelCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
