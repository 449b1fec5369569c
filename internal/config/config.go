package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all engine configuration.
type Config struct {
	OpenAIAPIKey string `env:"OPENAI_API_KEY" envDefault:"-"`
	OpenAIModel  string `env:"OPENAI_MODEL" envDefault:"gpt-4"`
	NewsAPIKey   string `env:"NEWS_API_KEY" envDefault:"-"`
	DatabaseURL  string `env:"DATABASE_URL" envDefault:"-"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	// Agent-side knobs.
	CacheTTLSeconds    int     `env:"CACHE_TTL_SECONDS" envDefault:"300"`
	CacheSweepSeconds  int     `env:"CACHE_SWEEP_SECONDS" envDefault:"60"`
	RateLimitPerMinute int     `env:"RATE_LIMIT_PER_MINUTE" envDefault:"10"`
	UseNewsSearch      bool    `env:"USE_NEWS_SEARCH" envDefault:"true"`
	MaxNewsArticles    int     `env:"MAX_NEWS_ARTICLES" envDefault:"5"`
	MinEdge            float64 `env:"MIN_EDGE" envDefault:"0.05"`
	MinConfidence      float64 `env:"MIN_CONFIDENCE" envDefault:"0.6"`

	// Request queue knobs.
	QueueMaxConcurrent int `env:"QUEUE_MAX_CONCURRENT" envDefault:"2"`
	QueueDelayMs       int `env:"QUEUE_DELAY_MS" envDefault:"1000"`
	QueueMaxRetries    int `env:"QUEUE_MAX_RETRIES" envDefault:"3"`
	QueueRetryBaseMs   int `env:"QUEUE_RETRY_BASE_MS" envDefault:"2000"`

	// AI filter knobs.
	MinAttractiveness float64 `env:"MIN_ATTRACTIVENESS" envDefault:"0.6"`
	MaxRiskLevel      string  `env:"MAX_RISK_LEVEL" envDefault:"medium"`
	AllowedCategories string  `env:"ALLOWED_CATEGORIES" envDefault:""`
	DeniedCategories  string  `env:"DENIED_CATEGORIES" envDefault:""`

	RequestTimeout int    `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds
	MetricsAddr    string `env:"METRICS_ADDR" envDefault:""`     // empty disables the /metrics listener
}

// Load initializes configuration from environment variables.
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIModel = getEnvWithDefault("OPENAI_MODEL", "gpt-4")
	cfg.NewsAPIKey = os.Getenv("NEWS_API_KEY")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")

	cfg.CacheTTLSeconds = getEnvIntWithDefault("CACHE_TTL_SECONDS", 300)
	cfg.CacheSweepSeconds = getEnvIntWithDefault("CACHE_SWEEP_SECONDS", 60)
	cfg.RateLimitPerMinute = getEnvIntWithDefault("RATE_LIMIT_PER_MINUTE", 10)
	cfg.UseNewsSearch = getEnvBoolWithDefault("USE_NEWS_SEARCH", true)
	cfg.MaxNewsArticles = getEnvIntWithDefault("MAX_NEWS_ARTICLES", 5)
	cfg.MinEdge = getEnvFloatWithDefault("MIN_EDGE", 0.05)
	cfg.MinConfidence = getEnvFloatWithDefault("MIN_CONFIDENCE", 0.6)

	cfg.QueueMaxConcurrent = getEnvIntWithDefault("QUEUE_MAX_CONCURRENT", 2)
	cfg.QueueDelayMs = getEnvIntWithDefault("QUEUE_DELAY_MS", 1000)
	cfg.QueueMaxRetries = getEnvIntWithDefault("QUEUE_MAX_RETRIES", 3)
	cfg.QueueRetryBaseMs = getEnvIntWithDefault("QUEUE_RETRY_BASE_MS", 2000)

	cfg.MinAttractiveness = getEnvFloatWithDefault("MIN_ATTRACTIVENESS", 0.6)
	cfg.MaxRiskLevel = getEnvWithDefault("MAX_RISK_LEVEL", "medium")
	cfg.AllowedCategories = os.Getenv("ALLOWED_CATEGORIES")
	cfg.DeniedCategories = os.Getenv("DENIED_CATEGORIES")

	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	return &cfg, nil
}

// SplitList parses a comma-separated env value into trimmed entries.
func SplitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
