package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/lottopick/internal/domain"
	"github.com/alanyoungcy/lottopick/internal/notify"
)

// DefaultIngestLockTTL bounds how long a crashed ingester can block others.
const DefaultIngestLockTTL = 30 * time.Minute

// ArchiveFetcher reads draw days and results from the public draw archive.
type ArchiveFetcher interface {
	Variant() domain.Variant
	DrawDays(ctx context.Context, year int) ([]time.Time, error)
	Draw(ctx context.Context, day time.Time) (domain.Draw, error)
}

// EventNotifier forwards operator notifications. *notify.Notifier
// implements it.
type EventNotifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// DrawScraper brings the draw store up to date with the archive.
type DrawScraper struct {
	fetcher ArchiveFetcher
	draws   domain.DrawStore
	cache   domain.ImpactCache
	bus     domain.EventBus
	locks   domain.LockManager
	notify  EventNotifier
	lockTTL time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewDrawScraper creates a DrawScraper. cache, bus and locks are optional.
func NewDrawScraper(
	fetcher ArchiveFetcher,
	draws domain.DrawStore,
	cache domain.ImpactCache,
	bus domain.EventBus,
	locks domain.LockManager,
	logger *slog.Logger,
) *DrawScraper {
	return &DrawScraper{
		fetcher: fetcher,
		draws:   draws,
		cache:   cache,
		bus:     bus,
		locks:   locks,
		lockTTL: DefaultIngestLockTTL,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger.With(slog.String("variant", fetcher.Variant().Name)),
	}
}

// WithNotifier sets the notifier told about runs that inserted draws.
func (s *DrawScraper) WithNotifier(n EventNotifier) *DrawScraper {
	s.notify = n
	return s
}

// Run fetches every draw newer than the newest stored one and inserts it.
// Draw days whose payload is incomplete or malformed are logged and skipped;
// fetch and store errors abort the run. It returns the number of draws
// inserted.
func (s *DrawScraper) Run(ctx context.Context) (int, error) {
	variant := s.fetcher.Variant()

	if s.locks != nil {
		unlock, err := s.locks.Acquire(ctx, "ingest:"+variant.Name, s.lockTTL)
		if err != nil {
			return 0, fmt.Errorf("acquiring ingest lock: %w", err)
		}
		defer unlock()
	}

	last, err := s.draws.LastDrawDate(ctx, variant.Name)
	if err != nil {
		return 0, fmt.Errorf("reading last draw date: %w", err)
	}
	if last.IsZero() {
		last = variant.FirstDrawDate.AddDate(0, 0, -1)
	}

	inserted := 0
	through := last
	for year := last.Year(); year <= s.now().Year(); year++ {
		if err := ctx.Err(); err != nil {
			return inserted, fmt.Errorf("draw scraper context cancelled: %w", err)
		}

		days, err := s.fetcher.DrawDays(ctx, year)
		if err != nil {
			return inserted, fmt.Errorf("fetching draw days of %d: %w", year, err)
		}

		for _, day := range days {
			if !day.After(last) {
				continue
			}

			draw, err := s.fetcher.Draw(ctx, day)
			switch {
			case errors.Is(err, domain.ErrIncompleteDraw), errors.Is(err, domain.ErrInvalidDraw):
				s.logger.Warn("skipping draw day",
					slog.String("day", day.Format(time.DateOnly)),
					slog.String("error", err.Error()),
				)
				continue
			case err != nil:
				return inserted, fmt.Errorf("fetching draw %s: %w", day.Format(time.DateOnly), err)
			}

			if err := s.draws.InsertDraw(ctx, draw); err != nil {
				return inserted, fmt.Errorf("storing draw %s: %w", day.Format(time.DateOnly), err)
			}
			inserted++
			through = day
		}
	}

	if inserted > 0 {
		s.announce(ctx, variant.Name, inserted, through)
	}
	s.logger.Info("draw scrape complete",
		slog.Int("inserted", inserted),
		slog.String("through", through.Format(time.DateOnly)),
	)
	return inserted, nil
}

// announce drops stale impact entries and tells subscribers and operators
// about new draws.
// Neither step fails the run.
func (s *DrawScraper) announce(ctx context.Context, variant string, inserted int, through time.Time) {
	if s.cache != nil {
		if err := s.cache.InvalidateVariant(ctx, variant); err != nil {
			s.logger.Warn("impact cache invalidation failed", slog.String("error", err.Error()))
		}
	}
	ev := domain.IngestEvent{Variant: variant, Inserted: inserted, Through: through, At: s.now()}
	if s.bus != nil {
		if err := s.bus.PublishIngest(ctx, ev); err != nil {
			s.logger.Warn("ingest event publish failed", slog.String("error", err.Error()))
		}
	}
	if s.notify != nil {
		title, msg := notify.IngestMessage(ev)
		if err := s.notify.Notify(ctx, notify.EventIngest, title, msg); err != nil {
			s.logger.Warn("ingest notification failed", slog.String("error", err.Error()))
		}
	}
}

// RunLoop runs the scraper on a repeating interval until the context is
// cancelled.
func (s *DrawScraper) RunLoop(ctx context.Context, interval time.Duration) error {
	// Run immediately on start.
	if _, err := s.Run(ctx); err != nil {
		s.logRunError(err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("draw scraper loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Run(ctx); err != nil {
				s.logRunError(err)
			}
		}
	}
}

func (s *DrawScraper) logRunError(err error) {
	if errors.Is(err, domain.ErrLockHeld) {
		s.logger.Info("another ingester holds the lock, skipping run")
		return
	}
	s.logger.Error("draw scrape failed", slog.String("error", err.Error()))
}
