package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alanyoungcy/lottopick/internal/analysis"
	"github.com/alanyoungcy/lottopick/internal/domain"
	"github.com/alanyoungcy/lottopick/internal/recommend"
)

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

type memoryStore struct {
	mu        sync.Mutex
	draws     []domain.Draw
	listCalls int
}

func (m *memoryStore) ListDraws(_ context.Context, f domain.DrawFilter) ([]domain.Draw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	var out []domain.Draw
	for _, d := range m.draws {
		if d.Variant != f.Variant {
			continue
		}
		if f.Since != nil && d.Date.Before(*f.Since) {
			continue
		}
		if f.Until != nil && d.Date.After(*f.Until) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *memoryStore) LastDrawDate(_ context.Context, variant string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last time.Time
	for _, d := range m.draws {
		if d.Variant == variant && d.Date.After(last) {
			last = d.Date
		}
	}
	return last, nil
}

func (m *memoryStore) InsertDraw(_ context.Context, d domain.Draw) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.draws {
		if existing.Variant == d.Variant && existing.Date.Equal(d.Date) {
			return nil
		}
	}
	m.draws = append(m.draws, d)
	return nil
}

func (m *memoryStore) Count(_ context.Context, variant string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, d := range m.draws {
		if d.Variant == variant {
			n++
		}
	}
	return n, nil
}

type memoryCache struct {
	entries map[domain.ImpactCacheKey][]domain.Impact
	err     error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[domain.ImpactCacheKey][]domain.Impact)}
}

func (c *memoryCache) Get(_ context.Context, key domain.ImpactCacheKey) ([]domain.Impact, error) {
	if c.err != nil {
		return nil, c.err
	}
	v, ok := c.entries[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return slices.Clone(v), nil
}

func (c *memoryCache) Set(_ context.Context, key domain.ImpactCacheKey, impacts []domain.Impact) error {
	if c.err != nil {
		return c.err
	}
	c.entries[key] = slices.Clone(impacts)
	return nil
}

func (c *memoryCache) InvalidateVariant(_ context.Context, variant string) error {
	for k := range c.entries {
		if k.Variant == variant {
			delete(c.entries, k)
		}
	}
	return nil
}

type memoryAudit struct {
	mu     sync.Mutex
	events []string
}

func (a *memoryAudit) Log(_ context.Context, event string, _ map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
	return nil
}

func (a *memoryAudit) List(context.Context, domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, errors.New("not implemented")
}

// countingTrainer returns a predictor that scores every combination 0 and
// counts both fits and predictions.
type countingTrainer struct {
	fits  atomic.Int64
	calls atomic.Int64
}

func (c *countingTrainer) train(context.Context, analysis.Dataset) (recommend.Predictor, error) {
	c.fits.Add(1)
	return c, nil
}

func (c *countingTrainer) Predict([]float64) []float64 {
	c.calls.Add(1)
	return []float64{0, 0, 0}
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func lottoDraw(date time.Time, numbers []int, w5, w4, w3 int64) domain.Draw {
	return domain.Draw{
		Variant: domain.VariantLotto,
		Date:    date,
		Stake:   sql.Null[int64]{V: 1_000_000, Valid: true},
		Numbers: numbers,
		Payouts: []domain.PayoutRow{
			{Description: "5 Richtige", Winners: w5},
			{Description: "4 Richtige", Winners: w4},
			{Description: "3 Richtige", Winners: w3},
		},
	}
}

// syntheticStore holds ten draws. Number 7 is in the first five, which
// always paid fewer winners than expected; 49 never appears.
func syntheticStore() *memoryStore {
	store := &memoryStore{}
	start := day("2020-01-04")
	for i := range 10 {
		date := start.AddDate(0, 0, 7*i)
		if i < 5 {
			store.draws = append(store.draws, lottoDraw(date, []int{7, 10 + i, 20 + i, 30 + i, 40 + i%4, 45 + i%4}, 1, 30, 500))
		} else {
			store.draws = append(store.draws, lottoDraw(date, []int{8, 10 + i, 20 + i, 30 + i, 40 + i%4, 45 + i%4}, 4, 120, 2000))
		}
	}
	return store
}
