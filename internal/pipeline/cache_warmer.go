package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/lottopick/internal/domain"
)

// ImpactComputer computes (and caches) impact vectors for one variant.
type ImpactComputer interface {
	ComputeImpact(ctx context.Context, kind domain.ImpactKind, normalize bool) ([]domain.Impact, error)
}

// CacheWarmer recomputes impact vectors after each ingestion so the first
// request after new draws does not pay for the analysis.
type CacheWarmer struct {
	bus     domain.EventBus
	impacts ImpactComputer
	variant string
	logger  *slog.Logger
}

// NewCacheWarmer creates a CacheWarmer for variant.
func NewCacheWarmer(bus domain.EventBus, impacts ImpactComputer, variant string, logger *slog.Logger) *CacheWarmer {
	return &CacheWarmer{
		bus:     bus,
		impacts: impacts,
		variant: variant,
		logger:  logger,
	}
}

// Warm computes the normalized numbers and bonus impacts. Kinds the variant
// does not support are skipped.
func (w *CacheWarmer) Warm(ctx context.Context) error {
	var errs []error
	for _, kind := range []domain.ImpactKind{domain.ImpactNumbers, domain.ImpactBonus} {
		_, err := w.impacts.ComputeImpact(ctx, kind, true)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrUnsupportedVariant), errors.Is(err, domain.ErrNotFound):
			w.logger.Debug("impact not warmed", slog.String("kind", string(kind)), slog.String("reason", err.Error()))
		default:
			errs = append(errs, fmt.Errorf("warming %s impact: %w", kind, err))
		}
	}
	return errors.Join(errs...)
}

// Run warms once on start and again for every ingest event of the variant
// until the context is cancelled.
func (w *CacheWarmer) Run(ctx context.Context) error {
	events, err := w.bus.SubscribeIngest(ctx)
	if err != nil {
		return fmt.Errorf("subscribing to ingest events: %w", err)
	}

	if err := w.Warm(ctx); err != nil {
		w.logger.Error("impact warm failed", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("cache warmer stopped")
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("ingest event subscription closed")
			}
			if ev.Variant != w.variant {
				continue
			}
			w.logger.Info("warming impacts after ingest",
				slog.Int("inserted", ev.Inserted),
				slog.Time("through", ev.Through),
			)
			if err := w.Warm(ctx); err != nil {
				w.logger.Error("impact warm failed", slog.String("error", err.Error()))
			}
		}
	}
}
