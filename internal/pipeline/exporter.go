package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alanyoungcy/lottopick/internal/domain"
	"github.com/alanyoungcy/lottopick/internal/notify"
)

// LastDrawReader reports the newest stored draw date.
type LastDrawReader interface {
	LastDrawDate(ctx context.Context, variant string) (time.Time, error)
}

// Exporter copies the draw history and the current impact vectors of one
// variant to cold storage.
type Exporter struct {
	exporter domain.Exporter
	draws    LastDrawReader
	impacts  ImpactComputer
	variant  string
	notify   EventNotifier
	logger   *slog.Logger
}

// NewExporter creates an Exporter. impacts may be nil to export draws only.
func NewExporter(exporter domain.Exporter, draws LastDrawReader, impacts ImpactComputer, variant string, logger *slog.Logger) *Exporter {
	return &Exporter{
		exporter: exporter,
		draws:    draws,
		impacts:  impacts,
		variant:  variant,
		logger:   logger,
	}
}

// WithNotifier sets the notifier told about finished exports.
func (e *Exporter) WithNotifier(n EventNotifier) *Exporter {
	e.notify = n
	return e
}

// Run executes a single export as of the newest stored draw.
func (e *Exporter) Run(ctx context.Context) error {
	asOf, err := e.draws.LastDrawDate(ctx, e.variant)
	if err != nil {
		return fmt.Errorf("reading last draw date: %w", err)
	}
	if asOf.IsZero() {
		e.logger.Info("no draws stored, nothing to export")
		return nil
	}

	n, err := e.exporter.ExportDraws(ctx, e.variant, asOf)
	if err != nil {
		return fmt.Errorf("exporting draws as of %s: %w", asOf.Format(time.DateOnly), err)
	}
	e.logger.Info("exported draws", slog.Int64("count", n), slog.String("as_of", asOf.Format(time.DateOnly)))

	if e.impacts != nil {
		if err := e.exportImpacts(ctx, asOf); err != nil {
			return err
		}
	}

	if e.notify != nil {
		title, msg := notify.ExportMessage(e.variant, asOf)
		if err := e.notify.Notify(ctx, notify.EventExport, title, msg); err != nil {
			e.logger.Warn("export notification failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

func (e *Exporter) exportImpacts(ctx context.Context, asOf time.Time) error {
	for _, kind := range []domain.ImpactKind{domain.ImpactNumbers, domain.ImpactBonus} {
		impacts, err := e.impacts.ComputeImpact(ctx, kind, true)
		if errors.Is(err, domain.ErrUnsupportedVariant) {
			continue
		}
		if err != nil {
			return fmt.Errorf("computing %s impact: %w", kind, err)
		}
		path, err := e.exporter.ExportImpact(ctx, e.variant, kind, asOf, impacts)
		if err != nil {
			return fmt.Errorf("exporting %s impact: %w", kind, err)
		}
		e.logger.Info("exported impact", slog.String("kind", string(kind)), slog.String("path", path))
	}
	return nil
}

// RunCron runs the exporter on a standard 5-field cron schedule
// ("minute hour day-of-month month day-of-week") until the context is
// cancelled. Descriptors such as "@daily" are accepted too.
func (e *Exporter) RunCron(ctx context.Context, cronExpr string) error {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return fmt.Errorf("parsing cron expression %q: %w", cronExpr, err)
	}
	e.logger.Info("exporter cron started", slog.String("cron", cronExpr))

	for {
		next := schedule.Next(time.Now().UTC())
		wait := time.Until(next)
		e.logger.Debug("exporter waiting for next cron trigger",
			slog.Time("next_run", next),
			slog.Duration("wait", wait),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			e.logger.Info("exporter cron stopped")
			return ctx.Err()
		case <-timer.C:
			if err := e.Run(ctx); err != nil {
				e.logger.Error("export run failed", slog.String("error", err.Error()))
			}
		}
	}
}
