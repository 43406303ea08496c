package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("BOTEST_DEFAULTS_")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8010, cfg.HTTPPort)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Minute, cfg.SummaryCacheTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.SlowQueryThreshold())

	pg := cfg.Postgres()
	assert.Equal(t, "backoffice", pg.DBName)
	assert.Equal(t, time.Hour, pg.MaxConnLifetime)
	assert.Equal(t, []string{"*"}, cfg.CORS().AllowedOrigins)
	assert.Equal(t, 50.0, cfg.CatalogRateLimitRPS)
	assert.Equal(t, 100, cfg.CatalogRateLimitBurst)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("BOTEST_ENV_BACKOFFICE_HTTP_PORT", "9090")
	t.Setenv("BOTEST_ENV_REDIS_ADDR", "cache:6379")
	t.Setenv("BOTEST_ENV_SUMMARY_CACHE_TTL", "30s")
	t.Setenv("BOTEST_ENV_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("BOTEST_ENV_CORS_ALLOWED_ORIGINS", "https://admin.example.com")

	cfg, err := load("BOTEST_ENV_")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "cache:6379", cfg.Redis().Addr)
	assert.Equal(t, 30*time.Second, cfg.SummaryCacheTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"https://admin.example.com"}, cfg.CORS().AllowedOrigins)
	assert.Equal(t, "backoffice", cfg.Tracing("backoffice", "test").ServiceName)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := load("BOTEST_VALIDATE_")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.HTTPPort = 70000 }, "invalid HTTP port"},
		{"no postgres host", func(c *Config) { c.PostgresHost = "" }, "POSTGRES_HOST"},
		{"no redis", func(c *Config) { c.RedisAddr = "" }, "REDIS_ADDR"},
		{"zero ttl", func(c *Config) { c.SummaryCacheTTL = 0 }, "SUMMARY_CACHE_TTL"},
		{"no brokers", func(c *Config) { c.KafkaBrokers = nil }, "KAFKA_BROKERS"},
		{"negative rate limit", func(c *Config) { c.CatalogRateLimitRPS = -1 }, "CATALOG_RATE_LIMIT_RPS"},
		{"rate limit without burst", func(c *Config) { c.CatalogRateLimitBurst = 0 }, "CATALOG_RATE_LIMIT_BURST"},
		{"sample rate", func(c *Config) { c.OTELSampleRate = 1.5 }, "OTEL_SAMPLE_RATE"},
		{"default secret in production", func(c *Config) { c.Environment = "production" }, "explicitly set"},
		{"short secret in production", func(c *Config) {
			c.Environment = "production"
			c.JWTSecret = "short"
		}, "at least 32"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("strong secret in production", func(t *testing.T) {
		cfg := valid()
		cfg.Environment = "production"
		cfg.JWTSecret = strings.Repeat("s", 32)
		assert.NoError(t, cfg.validate())
	})
}
