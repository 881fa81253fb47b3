package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Orchestrator manages the long-running pipeline goroutines: draw scraping,
// impact cache warming, and scheduled cold-storage export.
type Orchestrator struct {
	scraper        *DrawScraper
	warmer         *CacheWarmer
	exporter       *Exporter
	scrapeInterval time.Duration
	exportCron     string
	logger         *slog.Logger
}

// NewOrchestrator creates a new Orchestrator. warmer and exporter may be nil
// when the cache or the blob store is not configured.
func NewOrchestrator(
	scraper *DrawScraper,
	warmer *CacheWarmer,
	exporter *Exporter,
	scrapeInterval time.Duration,
	exportCron string,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		scraper:        scraper,
		warmer:         warmer,
		exporter:       exporter,
		scrapeInterval: scrapeInterval,
		exportCron:     exportCron,
		logger:         logger,
	}
}

// Run starts all sub-pipelines as concurrent goroutines using an errgroup. Each
// goroutine respects ctx cancellation. If any goroutine returns a non-context
// error, the errgroup cancels the shared context and Run returns that error.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("pipeline orchestrator starting",
		slog.Duration("scrape_interval", o.scrapeInterval),
		slog.String("export_cron", o.exportCron),
	)

	g, ctx := errgroup.WithContext(ctx)

	// 1. Draw scraper on ticker.
	g.Go(func() error {
		o.logger.Info("starting draw scraper loop")
		err := o.scraper.RunLoop(ctx, o.scrapeInterval)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("draw scraper: %w", err)
	})

	// 2. Cache warmer on ingest events.
	if o.warmer != nil {
		g.Go(func() error {
			o.logger.Info("starting impact cache warmer")
			err := o.warmer.Run(ctx)
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("cache warmer: %w", err)
		})
	}

	// 3. Exporter on cron schedule.
	if o.exporter != nil && o.exportCron != "" {
		g.Go(func() error {
			o.logger.Info("starting exporter cron")
			err := o.exporter.RunCron(ctx, o.exportCron)
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("exporter: %w", err)
		})
	}

	err := g.Wait()
	if err != nil {
		o.logger.Error("pipeline orchestrator stopped with error", slog.String("error", err.Error()))
		return err
	}

	o.logger.Info("pipeline orchestrator stopped cleanly")
	return nil
}
