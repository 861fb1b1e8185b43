package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"

	"cobranca/internal/log"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

type Config struct {
	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Locale: the civil date used to classify installments and the
	// currency rendering.
	Timezone       string `env:"TIMEZONE" envDefault:"America/Sao_Paulo"`
	Locale         string `env:"LOCALE" envDefault:"pt-BR"`
	CurrencySymbol string `env:"CURRENCY_SYMBOL" envDefault:"R$"`

	// Data: "memory" seeds an in-memory store from SnapshotPath, "sqlite"
	// opens DatabasePath.
	StoreDriver  string `env:"STORE_DRIVER" envDefault:"memory"`
	SnapshotPath string `env:"SNAPSHOT_PATH" envDefault:"./data/snapshot.json"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/cobranca.db"`

	// Summary cache
	SummaryCacheSize int           `env:"SUMMARY_CACHE_SIZE" envDefault:"256"`
	SummaryCacheTTL  time.Duration `env:"SUMMARY_CACHE_TTL" envDefault:"5m"`

	// Store fan-out when loading installments of every service.
	FetchConcurrency int `env:"FETCH_CONCURRENCY" envDefault:"8"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	validFormats := []string{"text", "json"}
	isValidFormat := false
	for _, f := range validFormats {
		if strings.EqualFold(c.LogFormat, f) {
			isValidFormat = true
			break
		}
	}
	if !isValidFormat {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validFormats))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if _, err := language.Parse(c.Locale); err != nil {
		errors = append(errors, fmt.Sprintf("invalid locale '%s': %v", c.Locale, err))
	}

	if strings.TrimSpace(c.CurrencySymbol) == "" {
		errors = append(errors, "currency symbol cannot be empty")
	}

	switch strings.ToLower(c.StoreDriver) {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.DatabasePath) == "" {
			errors = append(errors, "database path cannot be empty with the sqlite store")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid store driver '%s': must be one of %s, %s", c.StoreDriver, StoreMemory, StoreSQLite))
	}

	// The snapshot itself is optional, but a directory that does not exist
	// is almost always a typo.
	if c.SnapshotPath != "" {
		dir := filepath.Dir(c.SnapshotPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("snapshot directory does not exist: %s", dir))
			}
		}
	}

	if c.SummaryCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid summary cache size %d: must be at least 1", c.SummaryCacheSize))
	} else if c.SummaryCacheSize > 100000 {
		errors = append(errors, fmt.Sprintf("invalid summary cache size %d: must be at most 100000", c.SummaryCacheSize))
	}

	if c.SummaryCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid summary cache TTL %v: must not be negative", c.SummaryCacheTTL))
	} else if c.SummaryCacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid summary cache TTL %v: must be at most 24 hours", c.SummaryCacheTTL))
	}

	if c.FetchConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("invalid fetch concurrency %d: must be at least 1", c.FetchConcurrency))
	} else if c.FetchConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid fetch concurrency %d: must be at most 64", c.FetchConcurrency))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Location returns the configured time zone, UTC if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LanguageTag returns the configured locale, Brazilian Portuguese if it
// cannot be parsed.
func (c *Config) LanguageTag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.BrazilianPortuguese
	}
	return tag
}

// LoggerConfig maps the logging settings onto a log.Config.
func (c *Config) LoggerConfig(component string) log.Config {
	level, _ := log.ParseLevel(c.LogLevel)
	cfg := log.DefaultConfig()
	cfg.Level = level
	cfg.Format = strings.ToLower(c.LogFormat)
	cfg.Component = component
	return cfg
}
