package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 550, cfg.Forest.Trees)
	assert.Equal(t, uint64(42), cfg.Forest.Seed)
	assert.Equal(t, 13, cfg.Search.MaxCandidates)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lottopick.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "impact"
variant = "eurojackpot"

[postgres]
dsn = "postgres://app:secret@db:5432/lotto"

[redis]
impact_ttl = "2h"

[forest]
trees = 10
seed = 7

[pipeline]
scrape_interval = "15m"
`), 0o600))

	t.Setenv("LOTTOPICK_FOREST_SEED", "99")
	t.Setenv("LOTTOPICK_SEARCH_WORKERS", "3")
	t.Setenv("LOTTOPICK_REDIS_ENABLED", "false")
	t.Setenv("LOTTOPICK_FOREST_TREES", "not-a-number")
	t.Setenv("LOTTOPICK_NOTIFY_EVENTS", " ingest, ,pick ")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "impact", cfg.Mode)
	assert.Equal(t, "eurojackpot", cfg.Variant)
	assert.Equal(t, "postgres://app:secret@db:5432/lotto", cfg.Postgres.DSN)
	assert.Equal(t, 2*time.Hour, cfg.Redis.ImpactTTL.Duration)
	assert.Equal(t, 15*time.Minute, cfg.Pipeline.ScrapeInterval.Duration)
	assert.Equal(t, 10, cfg.Forest.Trees, "unparsable override is ignored")
	assert.Equal(t, uint64(99), cfg.Forest.Seed)
	assert.Equal(t, 3, cfg.Search.Workers)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"ingest", "pick"}, cfg.Notify.Events)
	// Untouched sections keep their defaults.
	assert.Equal(t, 50, cfg.Forest.MaxDepth)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte(`[pipeline]
scrape_interval = "soon"
`), 0o600))
	_, err = Load(path)
	require.Error(t, err)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults().Forest, cfg.Forest)
}

func TestValidate_CollectsProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "trade"
	cfg.Variant = "keno"
	cfg.Forest.Trees = 0
	cfg.Search.MaxCandidates = 0
	cfg.Postgres.PoolMinConns = 20
	cfg.Notify.TelegramToken = "bot-token"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		`unknown mode "trade"`,
		`unknown variant "keno"`,
		"forest: trees",
		"search: max_candidates",
		"pool_min_conns must not exceed",
		"notify: telegram_token and telegram_chat_id",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidate_ModeRequirements(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "export"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3: must be enabled")

	cfg.S3.Enabled = true
	require.NoError(t, cfg.Validate())

	cfg = Defaults()
	cfg.Mode = "scrape"
	cfg.Archive.RateLimit = 0
	cfg.Pipeline.ScrapeInterval.Duration = 0
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive: rate_limit")
	assert.Contains(t, err.Error(), "pipeline: scrape_interval")
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.DSN = "postgres://app:secret@db:5432/lotto?sslmode=require"
	cfg.Postgres.Password = "secret"
	cfg.S3.SecretKey = "s3-secret"
	cfg.Notify.DiscordWebhookURL = "https://discord.example/hook"

	out := RedactedConfig(&cfg)
	assert.Equal(t, "postgres://app:***@db:5432/lotto?sslmode=require", out.Postgres.DSN)
	assert.Equal(t, "***", out.Postgres.Password)
	assert.Equal(t, "***", out.S3.SecretKey)
	assert.Empty(t, out.S3.AccessKey)
	assert.Empty(t, out.Redis.Password)
	assert.Equal(t, "***", out.Notify.DiscordWebhookURL)
	assert.Empty(t, out.Notify.TelegramToken)
	out.Notify.Events[0] = "changed"
	assert.Equal(t, "ingest", cfg.Notify.Events[0])

	// The original is untouched.
	assert.Equal(t, "secret", cfg.Postgres.Password)

	// Key/value DSNs are masked whole.
	cfg.Postgres.DSN = "host=db password=x"
	assert.Equal(t, "***", RedactedConfig(&cfg).Postgres.DSN)
}
