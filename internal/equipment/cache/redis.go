// Package cache keeps a best-effort fleet status snapshot in Redis for the
// dashboard. The database stays authoritative; every entry expires so a
// missed invalidation self-heals.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"turfops/internal/equipment/models"
	id "turfops/pkg/domain"
)

const (
	snapshotKey = "turfops:fleet:status"
	snapshotTTL = 5 * time.Minute
)

// RedisCache implements the lifecycle service's StatusCache over a shared
// Redis hash keyed by asset id.
type RedisCache struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) SetStatus(ctx context.Context, assetID id.AssetID, status models.Status) error {
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, snapshotKey, assetID.String(), string(status))
	pipe.Expire(ctx, snapshotKey, snapshotTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache status: %w", err)
	}
	return nil
}

func (c *RedisCache) Remove(ctx context.Context, assetID id.AssetID) error {
	if err := c.client.HDel(ctx, snapshotKey, assetID.String()).Err(); err != nil {
		return fmt.Errorf("remove cached status: %w", err)
	}
	return nil
}

func (c *RedisCache) Snapshot(ctx context.Context) (map[string]string, error) {
	snapshot, err := c.client.HGetAll(ctx, snapshotKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read fleet snapshot: %w", err)
	}
	return snapshot, nil
}
