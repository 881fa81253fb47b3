package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/lottopick/internal/domain"
)

// DefaultImpactTTL bounds how long an impact vector survives without a new
// draw invalidating it.
const DefaultImpactTTL = 24 * time.Hour

// ImpactCache implements domain.ImpactCache with JSON string values.
//
// Key schema:
//
//	{prefix}:impact:{variant}:{kind}:{normalize}:{asOf} - JSON []Impact
//	{prefix}:impact:index:{variant}                     - set of the keys above
type ImpactCache struct {
	client *Client
	ttl    time.Duration
}

// NewImpactCache creates an ImpactCache. A non-positive ttl uses
// DefaultImpactTTL.
func NewImpactCache(c *Client, ttl time.Duration) *ImpactCache {
	if ttl <= 0 {
		ttl = DefaultImpactTTL
	}
	return &ImpactCache{client: c, ttl: ttl}
}

func (ic *ImpactCache) entryKey(k domain.ImpactCacheKey) string {
	return ic.client.key("impact", k.Variant, string(k.Kind),
		strconv.FormatBool(k.Normalize), k.AsOf.Format(time.DateOnly))
}

func (ic *ImpactCache) indexKey(variant string) string {
	return ic.client.key("impact", "index", variant)
}

// Get returns a cached vector or domain.ErrNotFound.
func (ic *ImpactCache) Get(ctx context.Context, k domain.ImpactCacheKey) ([]domain.Impact, error) {
	data, err := ic.client.Underlying().Get(ctx, ic.entryKey(k)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get impact %s/%s: %w", k.Variant, k.Kind, err)
	}

	var impacts []domain.Impact
	if err := json.Unmarshal(data, &impacts); err != nil {
		return nil, fmt.Errorf("redis: unmarshal impact %s/%s: %w", k.Variant, k.Kind, err)
	}
	return impacts, nil
}

// Set stores a vector and records its key in the variant index.
func (ic *ImpactCache) Set(ctx context.Context, k domain.ImpactCacheKey, impacts []domain.Impact) error {
	data, err := json.Marshal(impacts)
	if err != nil {
		return fmt.Errorf("redis: marshal impact %s/%s: %w", k.Variant, k.Kind, err)
	}

	key, index := ic.entryKey(k), ic.indexKey(k.Variant)
	pipe := ic.client.Underlying().TxPipeline()
	pipe.Set(ctx, key, data, ic.ttl)
	pipe.SAdd(ctx, index, key)
	pipe.Expire(ctx, index, ic.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set impact %s/%s: %w", k.Variant, k.Kind, err)
	}
	return nil
}

// InvalidateVariant drops every cached vector of a variant.
func (ic *ImpactCache) InvalidateVariant(ctx context.Context, variant string) error {
	rdb := ic.client.Underlying()
	index := ic.indexKey(variant)

	keys, err := rdb.SMembers(ctx, index).Result()
	if err != nil {
		return fmt.Errorf("redis: list impact keys %s: %w", variant, err)
	}

	if err := rdb.Del(ctx, append(keys, index)...).Err(); err != nil {
		return fmt.Errorf("redis: invalidate impact %s: %w", variant, err)
	}
	return nil
}

var _ domain.ImpactCache = (*ImpactCache)(nil)
