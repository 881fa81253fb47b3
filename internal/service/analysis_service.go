// Package service composes stores, caches and the analysis engine into the
// operations exposed by the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/lottopick/internal/analysis"
	"github.com/alanyoungcy/lottopick/internal/domain"
)

// AnalysisService computes per-number impact vectors from stored draws.
type AnalysisService struct {
	variant domain.Variant
	draws   domain.DrawStore
	cache   domain.ImpactCache
	audit   domain.AuditStore
	logger  *slog.Logger
}

// NewAnalysisService creates an AnalysisService. cache and audit may be nil.
func NewAnalysisService(
	variant domain.Variant,
	draws domain.DrawStore,
	cache domain.ImpactCache,
	audit domain.AuditStore,
	logger *slog.Logger,
) *AnalysisService {
	return &AnalysisService{
		variant: variant,
		draws:   draws,
		cache:   cache,
		audit:   audit,
		logger:  logger.With(slog.String("component", "analysis_service")),
	}
}

// ComputeImpact returns one impact per value of the requested number domain.
// Results are cached per newest draw date; a cache failure is logged and
// the vector is computed from the store.
func (s *AnalysisService) ComputeImpact(ctx context.Context, kind domain.ImpactKind, normalize bool) ([]domain.Impact, error) {
	asOf, err := s.draws.LastDrawDate(ctx, s.variant.Name)
	if err != nil {
		return nil, fmt.Errorf("analysis_service: last draw date: %w", err)
	}
	if asOf.IsZero() {
		return nil, fmt.Errorf("analysis_service: %w: no %s draws stored", domain.ErrNotFound, s.variant.Name)
	}

	key := domain.ImpactCacheKey{Variant: s.variant.Name, Kind: kind, Normalize: normalize, AsOf: asOf}
	if impacts, ok := s.cached(ctx, key); ok {
		return impacts, nil
	}

	start := time.Now()
	draws, err := s.draws.ListDraws(ctx, domain.DrawFilter{Variant: s.variant.Name})
	if err != nil {
		return nil, fmt.Errorf("analysis_service: list draws: %w", err)
	}

	impacts, err := analysis.ComputeImpact(draws, s.variant, kind, normalize)
	if err != nil {
		return nil, fmt.Errorf("analysis_service: compute %s impact: %w", kind, err)
	}

	s.logger.InfoContext(ctx, "impact computed",
		slog.String("kind", string(kind)),
		slog.Bool("normalize", normalize),
		slog.Int("draws", len(draws)),
		slog.String("as_of", asOf.Format(time.DateOnly)),
		slog.Duration("elapsed", time.Since(start)),
	)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, impacts); err != nil {
			s.logger.WarnContext(ctx, "impact cache write failed", slog.String("error", err.Error()))
		}
	}
	s.record(ctx, "impact.computed", map[string]any{
		"variant":   s.variant.Name,
		"kind":      string(kind),
		"normalize": normalize,
		"draws":     len(draws),
		"as_of":     asOf.Format(time.DateOnly),
	})
	return impacts, nil
}

func (s *AnalysisService) cached(ctx context.Context, key domain.ImpactCacheKey) ([]domain.Impact, bool) {
	if s.cache == nil {
		return nil, false
	}
	impacts, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		s.logger.DebugContext(ctx, "impact cache hit", slog.String("kind", string(key.Kind)))
		return impacts, true
	case errors.Is(err, domain.ErrNotFound):
	default:
		s.logger.WarnContext(ctx, "impact cache read failed", slog.String("error", err.Error()))
	}
	return nil, false
}

func (s *AnalysisService) record(ctx context.Context, event string, detail map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, event, detail); err != nil {
		s.logger.WarnContext(ctx, "audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
