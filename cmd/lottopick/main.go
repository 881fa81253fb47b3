// Command lottopick is the entry point for the lottery unpopularity analysis.
// It loads configuration, validates it, wires dependencies, sets up signal
// handling, and runs the configured mode.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/alanyoungcy/lottopick/internal/app"
	"github.com/alanyoungcy/lottopick/internal/config"
	"github.com/alanyoungcy/lottopick/internal/domain"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to configuration file")
	mode := flag.String("mode", "", "operating mode, overrides the configured one (ingest, scrape, impact, pick, export)")
	candidates := flag.String("candidates", "", "comma separated candidate numbers for pick mode")
	kind := flag.String("kind", string(domain.ImpactNumbers), "impact domain: numbers or bonus")
	normalize := flag.Bool("normalize", true, "scale impact scores to [0, 1]")
	flag.Parse()

	// Setup structured JSON logger. Results go to stdout, logs to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	if *mode != "" {
		cfg.Mode = *mode
	}

	// Set log level from config.
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Debug("configuration loaded", slog.Any("config", config.RedactedConfig(cfg)))

	req, err := parseRequest(*candidates, *kind, *normalize)
	if err != nil {
		logger.Error("invalid arguments", slog.String("error", err.Error()))
		os.Exit(2)
	}

	logger.Info("lottopick starting",
		slog.String("mode", cfg.Mode),
		slog.String("variant", cfg.Variant),
		slog.String("config", *configPath),
	)

	application := app.New(cfg, req, logger)
	defer application.Close()

	// Setup signal handling for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		// context.Canceled is expected on clean shutdown.
		if errors.Is(err, context.Canceled) {
			logger.Info("application shut down gracefully")
		} else {
			logger.Error("application exited with error",
				slog.String("error", err.Error()),
			)
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			application.Close()
			os.Exit(1)
		}
	}

	logger.Info("lottopick stopped")
}

func parseRequest(candidates, kind string, normalize bool) (app.Request, error) {
	req := app.Request{Normalize: normalize}

	switch k := domain.ImpactKind(strings.ToLower(strings.TrimSpace(kind))); k {
	case domain.ImpactNumbers, domain.ImpactBonus:
		req.Kind = k
	default:
		return req, fmt.Errorf("unknown impact kind %q (valid: numbers, bonus)", kind)
	}

	for _, field := range strings.Split(candidates, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return req, fmt.Errorf("candidate %q is not a number", field)
		}
		req.Candidates = append(req.Candidates, n)
	}
	return req, nil
}
