package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/lottopick/internal/domain"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := New(context.Background(), ClientConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestClient_KeyPrefixAndPingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := New(context.Background(), ClientConfig{Addr: mr.Addr(), KeyPrefix: "staging:"})
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "staging:lock:ingest:lotto", c.key("lock", "ingest:lotto"))

	c2, _ := newTestClient(t)
	assert.Equal(t, "lottopick:events:ingest", c2.key("events", "ingest"))

	mr.Close()
	_, err = New(context.Background(), ClientConfig{Addr: mr.Addr(), MaxRetries: -1})
	require.Error(t, err)
}

func impactKey(variant string, asOf time.Time) domain.ImpactCacheKey {
	return domain.ImpactCacheKey{Variant: variant, Kind: domain.ImpactNumbers, Normalize: true, AsOf: asOf}
}

func TestImpactCache_RoundTrip(t *testing.T) {
	c, mr := newTestClient(t)
	cache := NewImpactCache(c, time.Hour)
	ctx := context.Background()
	key := impactKey("lotto", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC))

	_, err := cache.Get(ctx, key)
	require.ErrorIs(t, err, domain.ErrNotFound)

	want := []domain.Impact{{Value: 1, Score: 0.25, Observed: true}, {Value: 2}}
	require.NoError(t, cache.Set(ctx, key, want))

	got, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	stored := "lottopick:impact:lotto:numbers:true:2024-03-09"
	assert.True(t, mr.Exists(stored))
	assert.Equal(t, time.Hour, mr.TTL(stored))

	mr.FastForward(2 * time.Hour)
	_, err = cache.Get(ctx, key)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestImpactCache_KeyIncludesNewestDraw(t *testing.T) {
	c, _ := newTestClient(t)
	cache := NewImpactCache(c, 0)
	ctx := context.Background()
	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	require.NoError(t, cache.Set(ctx, impactKey("lotto", day), []domain.Impact{{Value: 1}}))
	_, err := cache.Get(ctx, impactKey("lotto", day.AddDate(0, 0, 3)))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestImpactCache_InvalidateVariant(t *testing.T) {
	c, _ := newTestClient(t)
	cache := NewImpactCache(c, time.Hour)
	ctx := context.Background()
	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	lotto := impactKey("lotto", day)
	lottoBonus := lotto
	lottoBonus.Kind = domain.ImpactBonus
	ej := impactKey("eurojackpot", day)
	for _, k := range []domain.ImpactCacheKey{lotto, lottoBonus, ej} {
		require.NoError(t, cache.Set(ctx, k, []domain.Impact{{Value: 3}}))
	}

	require.NoError(t, cache.InvalidateVariant(ctx, "lotto"))

	_, err := cache.Get(ctx, lotto)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = cache.Get(ctx, lottoBonus)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = cache.Get(ctx, ej)
	require.NoError(t, err)

	// Invalidating an empty index is fine.
	require.NoError(t, cache.InvalidateVariant(ctx, "lotto"))
}

func TestLockManager(t *testing.T) {
	c, mr := newTestClient(t)
	locks := NewLockManager(c)
	ctx := context.Background()

	unlock, err := locks.Acquire(ctx, "ingest:lotto", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("lottopick:lock:ingest:lotto"))

	_, err = locks.Acquire(ctx, "ingest:lotto", time.Minute)
	require.ErrorIs(t, err, domain.ErrLockHeld)

	// A different variant is independent.
	unlockEJ, err := locks.Acquire(ctx, "ingest:eurojackpot", time.Minute)
	require.NoError(t, err)
	unlockEJ()

	unlock()
	unlock()
	assert.False(t, mr.Exists("lottopick:lock:ingest:lotto"))

	again, err := locks.Acquire(ctx, "ingest:lotto", time.Minute)
	require.NoError(t, err)
	again()
}

func TestLockManager_StaleUnlockKeepsNewHolder(t *testing.T) {
	c, mr := newTestClient(t)
	locks := NewLockManager(c)
	ctx := context.Background()

	stale, err := locks.Acquire(ctx, "ingest:lotto", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	holder, err := locks.Acquire(ctx, "ingest:lotto", time.Minute)
	require.NoError(t, err)
	defer holder()

	stale()
	assert.True(t, mr.Exists("lottopick:lock:ingest:lotto"))
}

func TestRateLimiter_Allow(t *testing.T) {
	c, _ := newTestClient(t)
	rl := NewRateLimiter(c, 2, time.Minute)
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		ok, err := rl.Allow(ctx, "archive", 2, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, ok, "request %d", i)
	}

	ok, err := rl.Allow(ctx, "other", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiter_WaitHonoursContext(t *testing.T) {
	c, _ := newTestClient(t)
	rl := NewRateLimiter(c, 1, time.Minute)

	require.NoError(t, rl.Wait(context.Background(), "archive"))

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	err := rl.Wait(ctx, "archive")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEventBus(t *testing.T) {
	c, _ := newTestClient(t)
	bus := NewEventBus(c)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := bus.SubscribeIngest(ctx)
	require.NoError(t, err)

	first := domain.IngestEvent{Variant: "lotto", Inserted: 2, Through: time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)}
	second := domain.IngestEvent{Variant: "lotto", Inserted: 1, Through: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, bus.PublishIngest(ctx, first))
	require.NoError(t, bus.PublishIngest(ctx, second))

	for _, want := range []domain.IngestEvent{first, second} {
		select {
		case got := <-events:
			assert.Equal(t, want.Inserted, got.Inserted)
			assert.True(t, want.Through.Equal(got.Through))
		case <-time.After(2 * time.Second):
			t.Fatal("no ingest event received")
		}
	}

	recent, err := bus.RecentIngests(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 1, recent[0].Inserted)

	cancel()
	_, open := <-events
	for open {
		_, open = <-events
	}
}
