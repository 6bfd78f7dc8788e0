package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/smart-planner/internal/calendar"
)

// Settings storage backends
const (
	SettingsBackendPostgres = "postgres"
	SettingsBackendRedis    = "redis"
)

// Config holds application configuration
type Config struct {
	DatabaseURL      string
	ServerPort       string
	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int
	DefaultTimezone  string
	MaxPinnedGoals   int
	RateLimit        string
	CORSOrigins      []string
	EnableHSTS       bool
	OpenAIKey        string
	AIModel          string
	AIBaseURL        string
	SettingsBackend  string
	DLQRetention     time.Duration
	DLQGCInterval    time.Duration
	WorkerDebugMode  bool
	ServerDebugMode  bool
	OTELEnabled      bool
	OTELEndpoint     string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(lookup func(string) string) (*Config, error) {
	cfg := &Config{
		DatabaseURL:      getEnv(lookup, "DATABASE_URL", ""),
		ServerPort:       getEnv(lookup, "SERVER_PORT", "8080"),
		RedisURL:         getEnv(lookup, "REDIS_URL", ""),
		RabbitMQURL:      getEnv(lookup, "RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt(lookup, "RABBITMQ_PREFETCH", 1),
		DefaultTimezone:  getEnv(lookup, "DEFAULT_TIMEZONE", "UTC"),
		MaxPinnedGoals:   getEnvInt(lookup, "MAX_PINNED_GOALS", 3),
		RateLimit:        getEnv(lookup, "RATE_LIMIT", "20-S"),
		CORSOrigins:      getEnvList(lookup, "CORS_ORIGINS"),
		EnableHSTS:       getEnvBool(lookup, "ENABLE_HSTS", false),
		OpenAIKey:        getEnv(lookup, "OPENAI_API_KEY", ""),
		AIModel:          getEnv(lookup, "AI_MODEL", ""),
		AIBaseURL:        getEnv(lookup, "AI_BASE_URL", ""),
		SettingsBackend:  strings.ToLower(getEnv(lookup, "SETTINGS_BACKEND", SettingsBackendPostgres)),
		DLQRetention:     getEnvDuration(lookup, "DLQ_RETENTION", 7*24*time.Hour),
		DLQGCInterval:    getEnvDuration(lookup, "DLQ_GC_INTERVAL", time.Hour),
		WorkerDebugMode:  getEnvBool(lookup, "WORKER_DEBUG_MODE", false),
		ServerDebugMode:  getEnvBool(lookup, "SERVER_DEBUG_MODE", false),
		OTELEnabled:      getEnvBool(lookup, "OTEL_ENABLED", false),
		OTELEndpoint:     getEnv(lookup, "OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if _, err := calendar.Load(cfg.DefaultTimezone); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TIMEZONE: %w", err)
	}
	if cfg.MaxPinnedGoals < 1 {
		return nil, fmt.Errorf("MAX_PINNED_GOALS must be at least 1, got %d", cfg.MaxPinnedGoals)
	}
	if cfg.RabbitMQPrefetch < 1 {
		cfg.RabbitMQPrefetch = 1
	}
	switch cfg.SettingsBackend {
	case SettingsBackendPostgres:
	case SettingsBackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when SETTINGS_BACKEND is redis")
		}
	default:
		return nil, fmt.Errorf("unknown SETTINGS_BACKEND %q (expected postgres or redis)", cfg.SettingsBackend)
	}

	return cfg, nil
}

// Calendar returns the calendar for DefaultTimezone. Load has already validated the zone.
func (c *Config) Calendar() calendar.Calendar {
	cal, err := calendar.Load(c.DefaultTimezone)
	if err != nil {
		return calendar.UTC()
	}
	return cal
}

// AssistantEnabled reports whether an LLM key is configured.
func (c *Config) AssistantEnabled() bool {
	return c.OpenAIKey != ""
}

func getEnv(lookup func(string) string, key, defaultValue string) string {
	if value := strings.TrimSpace(lookup(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(lookup func(string) string, key string, defaultValue bool) bool {
	if value := lookup(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(lookup func(string) string, key string, defaultValue int) int {
	if value := lookup(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(lookup func(string) string, key string, defaultValue time.Duration) time.Duration {
	if value := lookup(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvList(lookup func(string) string, key string) []string {
	raw := lookup(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
