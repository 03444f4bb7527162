package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dimpinis9/estately/app/dto"
	"github.com/redis/go-redis/v9"
)

// DashboardCache stores computed dashboard metrics for a short time.
// Invalidate makes every cached entry of the owner unreachable.
type DashboardCache interface {
	Get(ctx context.Context, ownerID uint, at time.Time) (*dto.DashboardMetrics, bool)
	Set(ctx context.Context, ownerID uint, at time.Time, metrics *dto.DashboardMetrics)
	Invalidate(ctx context.Context, ownerID uint) error
}

// RedisDashboardCache keys entries by owner, a per-owner generation counter and
// the evaluation instant truncated to the TTL. Bumping the generation orphans old
// entries, which then expire on their own.
type RedisDashboardCache struct {
	rc     *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisDashboardCache creates the cache. A nil client or a non-positive TTL disables caching.
func NewRedisDashboardCache(rc *redis.Client, prefix string, ttl time.Duration) *RedisDashboardCache {
	return &RedisDashboardCache{rc: rc, prefix: prefix, ttl: ttl}
}

func (c *RedisDashboardCache) enabled() bool {
	return c != nil && c.rc != nil && c.ttl > 0
}

func (c *RedisDashboardCache) generationKey(ownerID uint) string {
	return fmt.Sprintf("%sdashboard:gen:%d", c.prefix, ownerID)
}

func (c *RedisDashboardCache) entryKey(ownerID uint, generation int64, at time.Time) string {
	bucket := at.Truncate(c.ttl).Unix()
	return fmt.Sprintf("%sdashboard:metrics:%d:%d:%s:%d", c.prefix, ownerID, generation, at.Location(), bucket)
}

func (c *RedisDashboardCache) generation(ctx context.Context, ownerID uint) (int64, error) {
	gen, err := c.rc.Get(ctx, c.generationKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisDashboardCache) Get(ctx context.Context, ownerID uint, at time.Time) (*dto.DashboardMetrics, bool) {
	if !c.enabled() {
		return nil, false
	}

	gen, err := c.generation(ctx, ownerID)
	if err != nil {
		return nil, false
	}

	bs, err := c.rc.Get(ctx, c.entryKey(ownerID, gen, at)).Bytes()
	if err != nil || len(bs) == 0 {
		return nil, false
	}

	var out dto.DashboardMetrics
	if err := json.Unmarshal(bs, &out); err != nil {
		return nil, false
	}
	return &out, true
}

func (c *RedisDashboardCache) Set(ctx context.Context, ownerID uint, at time.Time, metrics *dto.DashboardMetrics) {
	if !c.enabled() || metrics == nil {
		return
	}

	gen, err := c.generation(ctx, ownerID)
	if err != nil {
		return
	}

	bs, err := json.Marshal(metrics)
	if err != nil {
		return
	}
	_ = c.rc.Set(ctx, c.entryKey(ownerID, gen, at), bs, c.ttl).Err()
}

func (c *RedisDashboardCache) Invalidate(ctx context.Context, ownerID uint) error {
	if !c.enabled() {
		return nil
	}
	return c.rc.Incr(ctx, c.generationKey(ownerID)).Err()
}
