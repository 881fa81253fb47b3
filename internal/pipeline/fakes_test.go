package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/alanyoungcy/lottopick/internal/domain"
)

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

// testVariant is Lotto with a short history so scrapes span two years.
func testVariant() domain.Variant {
	v := domain.Lotto
	v.FirstDrawDate = day(2023, time.January, 4)
	return v
}

type fakeFetcher struct {
	variant  domain.Variant
	days     map[int][]time.Time
	failures map[time.Time]error
	dayErr   error
	fetched  []time.Time
}

func (f *fakeFetcher) Variant() domain.Variant { return f.variant }

func (f *fakeFetcher) DrawDays(_ context.Context, year int) ([]time.Time, error) {
	if f.dayErr != nil {
		return nil, f.dayErr
	}
	return f.days[year], nil
}

func (f *fakeFetcher) Draw(_ context.Context, d time.Time) (domain.Draw, error) {
	f.fetched = append(f.fetched, d)
	if err := f.failures[d]; err != nil {
		return domain.Draw{}, err
	}
	return domain.Draw{
		Variant: f.variant.Name,
		Date:    d,
		Numbers: []int{1, 2, 3, 4, 5, 6},
	}, nil
}

type memoryDraws struct {
	mu        sync.Mutex
	draws     []domain.Draw
	insertErr error
}

func (s *memoryDraws) ListDraws(_ context.Context, filter domain.DrawFilter) ([]domain.Draw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Draw
	for _, d := range s.draws {
		if d.Variant == filter.Variant {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *memoryDraws) LastDrawDate(_ context.Context, variant string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last time.Time
	for _, d := range s.draws {
		if d.Variant == variant && d.Date.After(last) {
			last = d.Date
		}
	}
	return last, nil
}

func (s *memoryDraws) InsertDraw(_ context.Context, d domain.Draw) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.draws = append(s.draws, d)
	return nil
}

func (s *memoryDraws) Count(_ context.Context, variant string) (int64, error) {
	d, _ := s.ListDraws(context.Background(), domain.DrawFilter{Variant: variant})
	return int64(len(d)), nil
}

func (s *memoryDraws) dates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.draws))
	for i, d := range s.draws {
		out[i] = d.Date.Format(time.DateOnly)
	}
	return out
}

type recordingCache struct {
	invalidated []string
}

func (c *recordingCache) Get(context.Context, domain.ImpactCacheKey) ([]domain.Impact, error) {
	return nil, domain.ErrNotFound
}

func (c *recordingCache) Set(context.Context, domain.ImpactCacheKey, []domain.Impact) error {
	return nil
}

func (c *recordingCache) InvalidateVariant(_ context.Context, variant string) error {
	c.invalidated = append(c.invalidated, variant)
	return nil
}

type channelBus struct {
	mu        sync.Mutex
	published []domain.IngestEvent
	events    chan domain.IngestEvent
}

func newChannelBus() *channelBus {
	return &channelBus{events: make(chan domain.IngestEvent, 8)}
}

func (b *channelBus) PublishIngest(_ context.Context, ev domain.IngestEvent) error {
	b.mu.Lock()
	b.published = append(b.published, ev)
	b.mu.Unlock()
	b.events <- ev
	return nil
}

func (b *channelBus) SubscribeIngest(context.Context) (<-chan domain.IngestEvent, error) {
	return b.events, nil
}

func (b *channelBus) RecentIngests(context.Context, int) ([]domain.IngestEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.published), nil
}

type heldLocks struct {
	held     map[string]bool
	acquired []string
}

func (l *heldLocks) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	if l.held[key] {
		return nil, domain.ErrLockHeld
	}
	l.acquired = append(l.acquired, key)
	return func() {}, nil
}

type scriptedImpacts struct {
	mu    sync.Mutex
	calls []domain.ImpactKind
	errs  map[domain.ImpactKind]error
	done  chan struct{}
}

func (s *scriptedImpacts) ComputeImpact(_ context.Context, kind domain.ImpactKind, _ bool) ([]domain.Impact, error) {
	s.mu.Lock()
	s.calls = append(s.calls, kind)
	s.mu.Unlock()
	if s.done != nil {
		s.done <- struct{}{}
	}
	if err := s.errs[kind]; err != nil {
		return nil, err
	}
	return []domain.Impact{{Value: 1, Score: 1, Observed: true}}, nil
}

func (s *scriptedImpacts) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type recordingExporter struct {
	drawsAsOf []time.Time
	impacts   []domain.ImpactKind
	err       error
}

func (e *recordingExporter) ExportDraws(_ context.Context, _ string, asOf time.Time) (int64, error) {
	e.drawsAsOf = append(e.drawsAsOf, asOf)
	return 3, e.err
}

func (e *recordingExporter) ExportImpact(_ context.Context, variant string, kind domain.ImpactKind, _ time.Time, _ []domain.Impact) (string, error) {
	e.impacts = append(e.impacts, kind)
	return "export/" + variant + "/impact/" + string(kind), nil
}

func (e *recordingExporter) ExportPick(context.Context, string, []int, domain.PickResult) (string, error) {
	return "", errors.New("not used")
}

func (e *recordingExporter) ListExports(context.Context, string) ([]domain.BlobInfo, error) {
	return nil, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
	titles []string
}

func (n *recordingNotifier) Notify(_ context.Context, event, title, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	n.titles = append(n.titles, title)
	return nil
}
