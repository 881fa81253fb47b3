package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies LOTTOPICK_* environment variable overrides, and
// returns the final Config. An empty path skips the file. The returned Config
// has NOT been validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known LOTTOPICK_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty).
func applyEnvOverrides(cfg *Config) {
	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "LOTTOPICK_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // conventional alias
	setStr(&cfg.Postgres.Host, "LOTTOPICK_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "LOTTOPICK_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "LOTTOPICK_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "LOTTOPICK_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "LOTTOPICK_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "LOTTOPICK_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "LOTTOPICK_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "LOTTOPICK_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "LOTTOPICK_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "LOTTOPICK_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "LOTTOPICK_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "LOTTOPICK_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "LOTTOPICK_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "LOTTOPICK_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "LOTTOPICK_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "LOTTOPICK_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "LOTTOPICK_REDIS_KEY_PREFIX")
	setDuration(&cfg.Redis.ImpactTTL, "LOTTOPICK_REDIS_IMPACT_TTL")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "LOTTOPICK_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "LOTTOPICK_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "LOTTOPICK_S3_REGION")
	setStr(&cfg.S3.Bucket, "LOTTOPICK_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "LOTTOPICK_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "LOTTOPICK_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "LOTTOPICK_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "LOTTOPICK_S3_FORCE_PATH_STYLE")

	// ── Archive ──
	setStr(&cfg.Archive.BaseURL, "LOTTOPICK_ARCHIVE_BASE_URL")
	setDuration(&cfg.Archive.Timeout, "LOTTOPICK_ARCHIVE_TIMEOUT")
	setStr(&cfg.Archive.UserAgent, "LOTTOPICK_ARCHIVE_USER_AGENT")
	setInt(&cfg.Archive.RateLimit, "LOTTOPICK_ARCHIVE_RATE_LIMIT")
	setDuration(&cfg.Archive.RateWindow, "LOTTOPICK_ARCHIVE_RATE_WINDOW")

	// ── Pipeline ──
	setDuration(&cfg.Pipeline.ScrapeInterval, "LOTTOPICK_PIPELINE_SCRAPE_INTERVAL")
	setStr(&cfg.Pipeline.ExportCron, "LOTTOPICK_PIPELINE_EXPORT_CRON")
	setStr(&cfg.Pipeline.ExportPrefix, "LOTTOPICK_PIPELINE_EXPORT_PREFIX")
	setBool(&cfg.Pipeline.WarmCache, "LOTTOPICK_PIPELINE_WARM_CACHE")

	// ── Forest ──
	setInt(&cfg.Forest.Trees, "LOTTOPICK_FOREST_TREES")
	setInt(&cfg.Forest.MaxDepth, "LOTTOPICK_FOREST_MAX_DEPTH")
	setInt(&cfg.Forest.MinSamplesLeaf, "LOTTOPICK_FOREST_MIN_SAMPLES_LEAF")
	setUint64(&cfg.Forest.Seed, "LOTTOPICK_FOREST_SEED")
	setInt(&cfg.Forest.Workers, "LOTTOPICK_FOREST_WORKERS")

	// ── Search ──
	setInt(&cfg.Search.MaxCandidates, "LOTTOPICK_SEARCH_MAX_CANDIDATES")
	setInt(&cfg.Search.Workers, "LOTTOPICK_SEARCH_WORKERS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "LOTTOPICK_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "LOTTOPICK_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "LOTTOPICK_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "LOTTOPICK_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "LOTTOPICK_MODE")
	setStr(&cfg.LogLevel, "LOTTOPICK_LOG_LEVEL")
	setStr(&cfg.Variant, "LOTTOPICK_VARIANT")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
