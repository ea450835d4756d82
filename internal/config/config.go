// Package config provides configuration management for sanctions-radar.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/athena-os-2026/sanctions-radar/internal/llm"
	"github.com/athena-os-2026/sanctions-radar/internal/models"
	"github.com/athena-os-2026/sanctions-radar/internal/signals"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// DefaultSignalAPIURL is the signal source used when SIGNAL_API_URL is unset.
const DefaultSignalAPIURL = signals.DefaultBaseURL

// ErrMissingSignalKey is returned by ValidateCollector.
var ErrMissingSignalKey = errors.New("SIGNAL_API_KEY is required")

// Config holds all application configuration.
type Config struct {
	// Signal source
	SignalAPIKey string
	SignalAPIURL string
	QueriesFile  string
	Window       time.Duration

	// Outputs
	EventsFile string
	ReportFile string
	RecordFile string

	// Text generation
	LLMAPIKey      string
	LLMEndpoint    string
	LLMModel       string
	Variant        models.Variant
	TopPerCategory int

	// Outbound HTTP policy, shared by the signal and text-generation clients
	HTTPTimeout   time.Duration
	HTTPRetries   int
	HTTPRetryWait time.Duration

	// Metrics
	MetricsTextfile string

	// MongoDB brief archive (disabled when MongoURI is empty)
	MongoURI string
	MongoDB  string

	// Server
	HTTPAddr string
	Debug    bool
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Try to load .env file
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	cfg := &Config{
		SignalAPIKey: getEnv("SIGNAL_API_KEY", ""),
		SignalAPIURL: getEnv("SIGNAL_API_URL", DefaultSignalAPIURL),
		QueriesFile:  getEnv("QUERIES_FILE", ""),
		Window:       getEnvDuration("WINDOW", models.DefaultWindowLength),

		EventsFile: getEnv("EVENTS_FILE", "data/events.json"),
		ReportFile: getEnv("REPORT_FILE", "public/index.html"),
		RecordFile: getEnv("RECORD_FILE", "data/brief.json"),

		LLMAPIKey:      getEnv("LLM_API_KEY", ""),
		LLMEndpoint:    getEnv("LLM_ENDPOINT", llm.DefaultEndpoint),
		LLMModel:       getEnv("LLM_MODEL", llm.ModelQwenPlus),
		Variant:        models.Variant(getEnv("BRIEF_VARIANT", string(models.VariantExtended))),
		TopPerCategory: getEnvInt("TOP_PER_CATEGORY", 5),

		HTTPTimeout:   getEnvDuration("HTTP_TIMEOUT", 0),
		HTTPRetries:   getEnvInt("HTTP_RETRIES", 0),
		HTTPRetryWait: getEnvDuration("HTTP_RETRY_WAIT", time.Second),

		MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),

		MongoURI: getEnv("MONGO_URI", ""),
		MongoDB:  getEnv("MONGO_DB", "sanctionsradar"),

		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		Debug:    getEnvBool("DEBUG", false),
	}

	if cfg.Window <= 0 {
		return nil, fmt.Errorf("WINDOW must be positive, got %s", cfg.Window)
	}

	return cfg, nil
}

// ValidateCollector checks the settings the collector cannot run without.
func (c *Config) ValidateCollector() error {
	if c.SignalAPIKey == "" {
		return ErrMissingSignalKey
	}
	return nil
}

// ValidateSynthesizer rejects an unknown brief variant. A missing model key
// only warns: every pass then uses fallback content.
func (c *Config) ValidateSynthesizer() error {
	if c.Variant != models.VariantSimple && c.Variant != models.VariantExtended {
		return fmt.Errorf("BRIEF_VARIANT must be %q or %q, got %q", models.VariantSimple, models.VariantExtended, c.Variant)
	}
	if c.LLMAPIKey == "" {
		log.Warn().Msg("LLM_API_KEY not set, brief will use fallback content")
	}
	return nil
}

// SignalPolicy is the outbound policy for the signal client.
func (c *Config) SignalPolicy() signals.Policy {
	return signals.Policy{Timeout: c.HTTPTimeout, Retries: c.HTTPRetries, RetryWait: c.HTTPRetryWait}
}

// LLMPolicy is the outbound policy for the text-generation client.
func (c *Config) LLMPolicy() llm.Policy {
	return llm.Policy{Timeout: c.HTTPTimeout, Retries: c.HTTPRetries, RetryWait: c.HTTPRetryWait}
}

// QuerySet returns the queries from QueriesFile, or the built-in set.
func (c *Config) QuerySet() (models.QuerySet, error) {
	if c.QueriesFile == "" {
		return DefaultQuerySet(), nil
	}
	return LoadQuerySet(c.QueriesFile)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
