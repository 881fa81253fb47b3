// Package app provides the top-level application lifecycle management for
// lottopick. It wires together all dependencies (stores, caches, blob storage,
// services and pipelines) and runs the configured operating mode.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alanyoungcy/lottopick/internal/config"
	"github.com/alanyoungcy/lottopick/internal/domain"
)

// Request carries the per-invocation inputs of the one-shot modes.
type Request struct {
	// Candidates are the numbers the pick mode chooses from.
	Candidates []int
	// Kind selects the number domain of the impact mode.
	Kind domain.ImpactKind
	// Normalize scales impact scores to [0, 1].
	Normalize bool
}

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	req     Request
	out     io.Writer
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger. Results of
// the one-shot modes are written to stdout as JSON.
func New(cfg *config.Config, req Request, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		req:    req,
		out:    os.Stdout,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, selects the
// operating mode and runs it. Long-running modes block until the context is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.cfg.Mode),
		slog.String("variant", a.cfg.Variant),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	return a.runMode(ctx, deps)
}

func (a *App) runMode(ctx context.Context, deps *Dependencies) error {
	switch strings.ToLower(a.cfg.Mode) {
	case "ingest":
		return a.IngestMode(ctx, deps)
	case "scrape":
		return a.ScrapeMode(ctx, deps)
	case "impact":
		return a.ImpactMode(ctx, deps)
	case "pick":
		return a.PickMode(ctx, deps)
	case "export":
		return a.ExportMode(ctx, deps)
	default:
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
