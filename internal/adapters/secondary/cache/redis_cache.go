package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// RedisOverviewCache stores the dashboard aggregate in Redis as JSON.
type RedisOverviewCache struct {
	client *redis.Client
}

var _ ports.OverviewCache = (*RedisOverviewCache)(nil)

// NewRedisOverviewCache creates a cache backed by the given Redis client.
func NewRedisOverviewCache(client *redis.Client) *RedisOverviewCache {
	return &RedisOverviewCache{client: client}
}

// Get returns the cached overview, or nil on a cache miss.
func (c *RedisOverviewCache) Get(ctx context.Context, key string) (*domain.DashboardOverview, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var overview domain.DashboardOverview
	if err := json.Unmarshal(payload, &overview); err != nil {
		return nil, fmt.Errorf("decode cached overview: %w", err)
	}
	return &overview, nil
}

// Set stores the overview with the given TTL.
func (c *RedisOverviewCache) Set(ctx context.Context, key string, overview *domain.DashboardOverview, ttl time.Duration) error {
	payload, err := json.Marshal(overview)
	if err != nil {
		return fmt.Errorf("encode overview: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
