package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/lottopick/internal/analysis"
	"github.com/alanyoungcy/lottopick/internal/domain"
	"github.com/alanyoungcy/lottopick/internal/forest"
	"github.com/alanyoungcy/lottopick/internal/notify"
	"github.com/alanyoungcy/lottopick/internal/pipeline"
	"github.com/alanyoungcy/lottopick/internal/platform/lottode"
	"github.com/alanyoungcy/lottopick/internal/service"
)

// recentIngests is how much ingest history the ingest mode reports.
const recentIngests = 5

// IngestMode brings the draw store up to date once and reports how many
// draws were added.
func (a *App) IngestMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting ingest mode")

	n, err := a.newScraper(deps).Run(ctx)
	if err != nil {
		return fmt.Errorf("app: ingest: %w", err)
	}

	out := map[string]any{"variant": deps.Variant.Name, "inserted": n}
	if deps.EventBus != nil {
		recent, err := deps.EventBus.RecentIngests(ctx, recentIngests)
		if err != nil {
			a.logger.WarnContext(ctx, "reading ingest history failed", slog.String("error", err.Error()))
		} else {
			out["recent"] = recent
		}
	}
	return a.emit(out)
}

// ScrapeMode runs the ingestion loop, the impact cache warmer and the
// scheduled export until the context is cancelled.
func (a *App) ScrapeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scrape mode")

	analysisSvc := a.analysisService(deps)

	var warmer *pipeline.CacheWarmer
	if deps.EventBus != nil && a.cfg.Pipeline.WarmCache {
		warmer = pipeline.NewCacheWarmer(deps.EventBus, analysisSvc, deps.Variant.Name,
			a.logger.With(slog.String("component", "cache_warmer")))
	}

	var exporter *pipeline.Exporter
	if deps.Exporter != nil {
		exporter = a.newExporter(deps, analysisSvc)
	}

	orch := pipeline.NewOrchestrator(
		a.newScraper(deps),
		warmer,
		exporter,
		a.cfg.Pipeline.ScrapeInterval.Duration,
		a.cfg.Pipeline.ExportCron,
		a.logger.With(slog.String("component", "orchestrator")),
	)
	return orch.Run(ctx)
}

// ImpactMode computes one impact vector and prints it ranked from most to
// least unpopular.
func (a *App) ImpactMode(ctx context.Context, deps *Dependencies) error {
	kind := a.req.Kind
	if kind == "" {
		kind = domain.ImpactNumbers
	}
	a.logger.InfoContext(ctx, "starting impact mode", slog.String("kind", string(kind)))

	impacts, err := a.analysisService(deps).ComputeImpact(ctx, kind, a.req.Normalize)
	if err != nil {
		return fmt.Errorf("app: impact: %w", err)
	}
	return a.emit(map[string]any{
		"variant":   deps.Variant.Name,
		"kind":      kind,
		"normalize": a.req.Normalize,
		"impacts":   analysis.Rank(impacts),
	})
}

// PickMode fits the unpopularity model and prints the best combination of
// the requested candidates per prize category. With object storage
// configured the report is exported as well.
func (a *App) PickMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting pick mode", slog.Any("candidates", a.req.Candidates))

	fc := forest.Config{
		Trees:          a.cfg.Forest.Trees,
		MaxDepth:       a.cfg.Forest.MaxDepth,
		MinSamplesLeaf: a.cfg.Forest.MinSamplesLeaf,
		Seed:           a.cfg.Forest.Seed,
		Workers:        a.cfg.Forest.Workers,
	}
	svc := service.NewRecommendService(
		deps.Variant,
		deps.DrawStore,
		deps.AuditStore,
		service.ForestTrainer(fc),
		service.SearchConfig{MaxCandidates: a.cfg.Search.MaxCandidates, Workers: a.cfg.Search.Workers},
		a.logger,
	)

	var (
		result domain.PickResult
		err    error
	)
	if deps.Variant.MainCount == 6 {
		result, err = svc.Pick6(ctx, a.req.Candidates)
	} else {
		result, err = svc.Pick(ctx, a.req.Candidates)
	}
	if err != nil {
		return fmt.Errorf("app: pick: %w", err)
	}

	out := map[string]any{"variant": deps.Variant.Name, "candidates": a.req.Candidates, "result": result}
	if deps.Exporter != nil {
		path, err := deps.Exporter.ExportPick(ctx, deps.Variant.Name, a.req.Candidates, result)
		if err != nil {
			a.logger.WarnContext(ctx, "pick report export failed", slog.String("error", err.Error()))
		} else {
			out["report"] = path
		}
	}
	if deps.Notifier.Enabled() {
		title, msg := notify.PickMessage(deps.Variant.Name, a.req.Candidates, result)
		if err := deps.Notifier.Notify(ctx, notify.EventPick, title, msg); err != nil {
			a.logger.WarnContext(ctx, "pick notification failed", slog.String("error", err.Error()))
		}
	}
	return a.emit(out)
}

// ExportMode runs a single cold-storage export and prints the variant's
// stored exports.
func (a *App) ExportMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting export mode")
	if deps.Exporter == nil {
		return errors.New("app: export: object storage is not configured")
	}
	if err := a.newExporter(deps, a.analysisService(deps)).Run(ctx); err != nil {
		return fmt.Errorf("app: export: %w", err)
	}

	objects, err := deps.Exporter.ListExports(ctx, deps.Variant.Name)
	if err != nil {
		return fmt.Errorf("app: export: %w", err)
	}
	return a.emit(map[string]any{"variant": deps.Variant.Name, "objects": objects})
}

func (a *App) analysisService(deps *Dependencies) *service.AnalysisService {
	return service.NewAnalysisService(deps.Variant, deps.DrawStore, deps.ImpactCache, deps.AuditStore, a.logger)
}

func (a *App) newScraper(deps *Dependencies) *pipeline.DrawScraper {
	client := lottode.NewClient(lottode.ClientConfig{
		BaseURL:   a.cfg.Archive.BaseURL,
		Timeout:   a.cfg.Archive.Timeout.Duration,
		UserAgent: a.cfg.Archive.UserAgent,
	}, deps.Variant, deps.RateLimiter)

	scraper := pipeline.NewDrawScraper(
		client,
		deps.DrawStore,
		deps.ImpactCache,
		deps.EventBus,
		deps.LockManager,
		a.logger.With(slog.String("component", "draw_scraper")),
	)
	if deps.Notifier.Enabled() {
		scraper.WithNotifier(deps.Notifier)
	}
	return scraper
}

func (a *App) newExporter(deps *Dependencies, impacts pipeline.ImpactComputer) *pipeline.Exporter {
	exporter := pipeline.NewExporter(deps.Exporter, deps.DrawStore, impacts, deps.Variant.Name,
		a.logger.With(slog.String("component", "exporter")))
	if deps.Notifier.Enabled() {
		exporter.WithNotifier(deps.Notifier)
	}
	return exporter
}

func (a *App) emit(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("app: write result: %w", err)
	}
	return nil
}
