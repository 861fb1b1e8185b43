package config

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func validConfig() Config {
	return Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Timezone:         "UTC",
		Locale:           "pt-BR",
		CurrencySymbol:   "R$",
		StoreDriver:      StoreMemory,
		SnapshotPath:     "snapshot.json",
		DatabasePath:     "cobranca.db",
		SummaryCacheSize: 10,
		SummaryCacheTTL:  time.Minute,
		FetchConcurrency: 4,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:   "json format in upper case",
			mutate: func(c *Config) { c.LogFormat = "JSON" },
		},
		{
			name:   "zero TTL disables expiry",
			mutate: func(c *Config) { c.SummaryCacheTTL = 0 },
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.LogLevel = "loud" },
			wantErr:     true,
			errorString: "invalid log level 'loud'",
		},
		{
			name:        "invalid log format",
			mutate:      func(c *Config) { c.LogFormat = "xml" },
			wantErr:     true,
			errorString: "invalid log format 'xml'",
		},
		{
			name:        "invalid timezone",
			mutate:      func(c *Config) { c.Timezone = "Mars/Olympus" },
			wantErr:     true,
			errorString: "invalid timezone 'Mars/Olympus'",
		},
		{
			name:        "invalid locale",
			mutate:      func(c *Config) { c.Locale = "not a locale!" },
			wantErr:     true,
			errorString: "invalid locale",
		},
		{
			name:        "empty currency symbol",
			mutate:      func(c *Config) { c.CurrencySymbol = " " },
			wantErr:     true,
			errorString: "currency symbol cannot be empty",
		},
		{
			name:   "sqlite store",
			mutate: func(c *Config) { c.StoreDriver = "SQLite" },
		},
		{
			name:        "unknown store driver",
			mutate:      func(c *Config) { c.StoreDriver = "postgres" },
			wantErr:     true,
			errorString: "invalid store driver 'postgres'",
		},
		{
			name: "sqlite without database path",
			mutate: func(c *Config) {
				c.StoreDriver = StoreSQLite
				c.DatabasePath = ""
			},
			wantErr:     true,
			errorString: "database path cannot be empty",
		},
		{
			name:        "missing snapshot directory",
			mutate:      func(c *Config) { c.SnapshotPath = "/definitely/not/here/snap.json" },
			wantErr:     true,
			errorString: "snapshot directory does not exist",
		},
		{
			name:        "cache size too small",
			mutate:      func(c *Config) { c.SummaryCacheSize = 0 },
			wantErr:     true,
			errorString: "invalid summary cache size 0: must be at least 1",
		},
		{
			name:        "cache TTL too large",
			mutate:      func(c *Config) { c.SummaryCacheTTL = 48 * time.Hour },
			wantErr:     true,
			errorString: "must be at most 24 hours",
		},
		{
			name:        "fetch concurrency zero",
			mutate:      func(c *Config) { c.FetchConcurrency = 0 },
			wantErr:     true,
			errorString: "invalid fetch concurrency 0: must be at least 1",
		},
		{
			name:        "fetch concurrency too high",
			mutate:      func(c *Config) { c.FetchConcurrency = 1000 },
			wantErr:     true,
			errorString: "invalid fetch concurrency 1000: must be at most 64",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorString)
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = "loud"
	cfg.FetchConcurrency = 0
	cfg.SummaryCacheSize = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "configuration validation failed:\n- "))
	assert.Equal(t, 3, strings.Count(err.Error(), "\n- "))
}

func TestConfig_ValidateExistingSnapshotDir(t *testing.T) {
	cfg := validConfig()
	cfg.SnapshotPath = filepath.Join(t.TempDir(), "snap.json")
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, "America/Sao_Paulo", cfg.Timezone)
		assert.Equal(t, "pt-BR", cfg.Locale)
		assert.Equal(t, "R$", cfg.CurrencySymbol)
		assert.Equal(t, 256, cfg.SummaryCacheSize)
		assert.Equal(t, 5*time.Minute, cfg.SummaryCacheTTL)
		assert.Equal(t, 8, cfg.FetchConcurrency)
		assert.Equal(t, StoreMemory, cfg.StoreDriver)
		assert.Equal(t, "./data/cobranca.db", cfg.DatabasePath)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("LOG_FORMAT", "json")
		t.Setenv("TIMEZONE", "UTC")
		t.Setenv("SNAPSHOT_PATH", "/tmp/other.json")
		t.Setenv("SUMMARY_CACHE_SIZE", "32")
		t.Setenv("SUMMARY_CACHE_TTL", "30s")
		t.Setenv("FETCH_CONCURRENCY", "2")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, "UTC", cfg.Timezone)
		assert.Equal(t, "/tmp/other.json", cfg.SnapshotPath)
		assert.Equal(t, 32, cfg.SummaryCacheSize)
		assert.Equal(t, 30*time.Second, cfg.SummaryCacheTTL)
		assert.Equal(t, 2, cfg.FetchConcurrency)
	})

	t.Run("malformed number", func(t *testing.T) {
		t.Setenv("FETCH_CONCURRENCY", "many")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestConfig_Helpers(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, language.MustParse("pt-BR"), cfg.LanguageTag())

	cfg.Timezone = "Nowhere/Land"
	cfg.Locale = "not a locale!"
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, language.BrazilianPortuguese, cfg.LanguageTag())

	cfg.LogLevel = "warn"
	cfg.LogFormat = "JSON"
	lc := cfg.LoggerConfig("report")
	assert.Equal(t, slog.LevelWarn, lc.Level)
	assert.Equal(t, "json", lc.Format)
	assert.Equal(t, "report", lc.Component)
}
