// Package config defines the top-level configuration for lottopick and
// provides validation helpers.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/alanyoungcy/lottopick/internal/domain"
	"github.com/alanyoungcy/lottopick/internal/forest"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by LOTTOPICK_* environment variables.
type Config struct {
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Archive  ArchiveConfig  `toml:"archive"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Forest   ForestConfig   `toml:"forest"`
	Search   SearchConfig   `toml:"search"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
	// Variant names the game: "lotto" or "eurojackpot".
	Variant string `toml:"variant"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. Without Redis the impact
// cache, the ingest lock and the archive rate limit are disabled.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	KeyPrefix  string   `toml:"key_prefix"`
	ImpactTTL  duration `toml:"impact_ttl"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ArchiveConfig holds the lotto.de archive client parameters.
type ArchiveConfig struct {
	BaseURL   string   `toml:"base_url"`
	Timeout   duration `toml:"timeout"`
	UserAgent string   `toml:"user_agent"`
	// RateLimit requests are allowed per RateWindow across all ingesters.
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// PipelineConfig holds ingestion and export scheduling parameters.
type PipelineConfig struct {
	ScrapeInterval duration `toml:"scrape_interval"`
	ExportCron     string   `toml:"export_cron"`
	ExportPrefix   string   `toml:"export_prefix"`
	WarmCache      bool     `toml:"warm_cache"`
}

// ForestConfig holds the random forest hyper-parameters.
type ForestConfig struct {
	Trees          int    `toml:"trees"`
	MaxDepth       int    `toml:"max_depth"`
	MinSamplesLeaf int    `toml:"min_samples_leaf"`
	Seed           uint64 `toml:"seed"`
	Workers        int    `toml:"workers"`
}

// SearchConfig holds the combination search parameters.
type SearchConfig struct {
	MaxCandidates int `toml:"max_candidates"`
	Workers       int `toml:"workers"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	fc := forest.DefaultConfig()
	return Config{
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "lottopick",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  1,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    true,
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
			KeyPrefix:  "lottopick",
			ImpactTTL:  duration{24 * time.Hour},
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "lottopick-data",
			ForcePathStyle: true,
		},
		Archive: ArchiveConfig{
			BaseURL:    "https://www.lotto.de",
			Timeout:    duration{30 * time.Second},
			UserAgent:  "lottopick/1.0",
			RateLimit:  2,
			RateWindow: duration{time.Second},
		},
		Pipeline: PipelineConfig{
			ScrapeInterval: duration{6 * time.Hour},
			ExportCron:     "0 4 * * 0",
			ExportPrefix:   "export",
			WarmCache:      true,
		},
		Forest: ForestConfig{
			Trees:          fc.Trees,
			MaxDepth:       fc.MaxDepth,
			MinSamplesLeaf: fc.MinSamplesLeaf,
			Seed:           fc.Seed,
			Workers:        fc.Workers,
		},
		Search: SearchConfig{
			MaxCandidates: 13,
			Workers:       runtime.GOMAXPROCS(0),
		},
		Notify: NotifyConfig{
			Events: []string{"ingest", "pick", "export"},
		},
		Mode:     "pick",
		LogLevel: "info",
		Variant:  domain.VariantLotto,
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"ingest": true,
	"scrape": true,
	"impact": true,
	"pick":   true,
	"export": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	mode := strings.ToLower(c.Mode)
	if !validModes[mode] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: ingest, scrape, impact, pick, export)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}
	if _, err := domain.VariantByName(c.Variant); err != nil {
		errs = append(errs, fmt.Sprintf("unknown variant %q (valid: lotto, eurojackpot)", c.Variant))
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Redis.ImpactTTL.Duration <= 0 {
			errs = append(errs, "redis: impact_ttl must be > 0")
		}
	}

	// S3 is required for exports.
	if c.S3.Enabled || mode == "export" {
		if !c.S3.Enabled {
			errs = append(errs, "s3: must be enabled for mode export")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	}

	// Archive
	if mode == "ingest" || mode == "scrape" {
		if c.Archive.BaseURL == "" {
			errs = append(errs, "archive: base_url must not be empty")
		}
		if c.Archive.RateLimit < 1 {
			errs = append(errs, "archive: rate_limit must be >= 1")
		}
		if c.Archive.RateWindow.Duration <= 0 {
			errs = append(errs, "archive: rate_window must be > 0")
		}
	}

	// Pipeline
	if mode == "scrape" && c.Pipeline.ScrapeInterval.Duration <= 0 {
		errs = append(errs, "pipeline: scrape_interval must be > 0")
	}

	// Notify
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	// Forest
	if c.Forest.Trees < 1 {
		errs = append(errs, "forest: trees must be >= 1")
	}
	if c.Forest.MaxDepth < 1 {
		errs = append(errs, "forest: max_depth must be >= 1")
	}
	if c.Forest.MinSamplesLeaf < 1 {
		errs = append(errs, "forest: min_samples_leaf must be >= 1")
	}
	if c.Forest.Workers < 1 {
		errs = append(errs, "forest: workers must be >= 1")
	}

	// Search
	if c.Search.MaxCandidates < 1 {
		errs = append(errs, "search: max_candidates must be >= 1")
	}
	if c.Search.Workers < 1 {
		errs = append(errs, "search: workers must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
