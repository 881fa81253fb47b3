package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/lottopick/internal/analysis"
	"github.com/alanyoungcy/lottopick/internal/domain"
	"github.com/alanyoungcy/lottopick/internal/forest"
	"github.com/alanyoungcy/lottopick/internal/recommend"
)

// SearchConfig bounds the combination search.
type SearchConfig struct {
	MaxCandidates int
	Workers       int
}

// Trainer fits a predictor on a main-number dataset.
type Trainer func(ctx context.Context, ds analysis.Dataset) (recommend.Predictor, error)

// ForestTrainer fits the bagged tree ensemble with cfg.
func ForestTrainer(cfg forest.Config) Trainer {
	return func(ctx context.Context, ds analysis.Dataset) (recommend.Predictor, error) {
		model, err := recommend.Train(ctx, ds, cfg)
		if err != nil {
			return nil, err
		}
		return model, nil
	}
}

// RecommendService fits the unpopularity model and searches candidate sets.
// Fitted models live for one call only.
type RecommendService struct {
	variant domain.Variant
	draws   domain.DrawStore
	audit   domain.AuditStore
	train   Trainer
	search  SearchConfig
	logger  *slog.Logger
}

// NewRecommendService creates a RecommendService. audit may be nil.
func NewRecommendService(
	variant domain.Variant,
	draws domain.DrawStore,
	audit domain.AuditStore,
	train Trainer,
	search SearchConfig,
	logger *slog.Logger,
) *RecommendService {
	return &RecommendService{
		variant: variant,
		draws:   draws,
		audit:   audit,
		train:   train,
		search:  search,
		logger:  logger.With(slog.String("component", "recommend_service")),
	}
}

// Pick6 returns the best 6-number combination of candidates for the 3, 4
// and 5-correct categories. It is only defined for 6-number games.
func (s *RecommendService) Pick6(ctx context.Context, candidates []int) (domain.PickResult, error) {
	if s.variant.MainCount != 6 {
		return domain.PickResult{}, fmt.Errorf("recommend_service: pick6: %w: %s draws %d numbers",
			domain.ErrUnsupportedVariant, s.variant.Name, s.variant.MainCount)
	}
	return s.Pick(ctx, candidates)
}

// Pick searches combinations of the variant's main number count.
func (s *RecommendService) Pick(ctx context.Context, candidates []int) (domain.PickResult, error) {
	size := s.variant.MainCount
	if err := recommend.ValidateCandidates(candidates, s.variant, size, s.search.MaxCandidates); err != nil {
		return domain.PickResult{}, err
	}

	draws, err := s.draws.ListDraws(ctx, domain.DrawFilter{Variant: s.variant.Name})
	if err != nil {
		return domain.PickResult{}, fmt.Errorf("recommend_service: list draws: %w", err)
	}
	ds, err := analysis.PrepareNumbers(draws, s.variant)
	if err != nil {
		return domain.PickResult{}, fmt.Errorf("recommend_service: prepare: %w", err)
	}

	start := time.Now()
	model, err := s.train(ctx, ds)
	if err != nil {
		return domain.PickResult{}, fmt.Errorf("recommend_service: %w", err)
	}
	fitted := time.Since(start)

	searcher := recommend.Searcher{
		Variant:    s.variant,
		Categories: ds.Unpopularity.Categories,
		Workers:    s.search.Workers,
	}
	result, err := searcher.Search(ctx, model, candidates, size)
	if err != nil {
		return domain.PickResult{}, err
	}

	s.logger.InfoContext(ctx, "recommendation ready",
		slog.Int("draws", len(draws)),
		slog.Int("candidates", len(candidates)),
		slog.Duration("fit", fitted),
		slog.Duration("total", time.Since(start)),
	)
	if s.audit != nil {
		detail := map[string]any{
			"variant":    s.variant.Name,
			"candidates": candidates,
			"best3":      result.Best3.Numbers,
			"best4":      result.Best4.Numbers,
			"best5":      result.Best5.Numbers,
		}
		if err := s.audit.Log(ctx, "pick.completed", detail); err != nil {
			s.logger.WarnContext(ctx, "audit log failed", slog.String("error", err.Error()))
		}
	}
	return result, nil
}
