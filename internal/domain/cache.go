package domain

import (
	"context"
	"time"
)

// ImpactCacheKey identifies one cached impact computation. AsOf is the date
// of the newest draw included, so new draws never hit a stale entry.
type ImpactCacheKey struct {
	Variant   string
	Kind      ImpactKind
	Normalize bool
	AsOf      time.Time
}

// ImpactCache stores computed impact vectors.
type ImpactCache interface {
	Get(ctx context.Context, key ImpactCacheKey) ([]Impact, error)
	Set(ctx context.Context, key ImpactCacheKey, impacts []Impact) error
	InvalidateVariant(ctx context.Context, variant string) error
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string) error
}

// IngestEvent announces the draws added by one ingestion run.
type IngestEvent struct {
	Variant  string    `json:"variant"`
	Inserted int       `json:"inserted"`
	Through  time.Time `json:"through"`
	At       time.Time `json:"at"`
}

// EventBus fans ingestion events out to interested stages and keeps a short
// durable history of them.
type EventBus interface {
	PublishIngest(ctx context.Context, ev IngestEvent) error
	SubscribeIngest(ctx context.Context) (<-chan IngestEvent, error)
	RecentIngests(ctx context.Context, count int) ([]IngestEvent, error)
}
