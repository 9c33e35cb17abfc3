package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	ServerPort  string
	FrontendURL string

	RedisURL          string
	DataRetentionDays int

	AIProvider string
	AIAPIKey   string
	AIModel    string
	AIBaseURL  string

	DailyRequestLimit     int
	MaxHistoryPerUser     int
	FollowUpThresholdHrs  int
	MaxPendingAssignments int

	CreditPacksPath string

	RateLimit       string
	EnableHSTS      bool
	ServerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		DataRetentionDays: getEnvInt("DATA_RETENTION_DAYS", 30),

		AIProvider: getEnv("AI_PROVIDER", "openai"),
		AIAPIKey:   getEnv("OPENROUTER_API_KEY", getEnv("OPENAI_API_KEY", "")),
		AIModel:    getEnv("AI_MODEL", "gpt-4o-mini"),
		AIBaseURL:  getEnv("AI_BASE_URL", ""),

		DailyRequestLimit:     getEnvInt("DAILY_REQUEST_LIMIT", 10),
		MaxHistoryPerUser:     getEnvInt("MAX_HISTORY_PER_USER", 50),
		FollowUpThresholdHrs:  getEnvInt("FOLLOWUP_THRESHOLD_HOURS", 12),
		MaxPendingAssignments: getEnvInt("MAX_PENDING_ASSIGNMENTS", 5),

		CreditPacksPath: getEnv("CREDIT_PACKS_PATH", "configs/credit_packs.yaml"),

		RateLimit:       getEnv("RATE_LIMIT", "5-S"),
		EnableHSTS:      getEnvBool("ENABLE_HSTS", false),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	if cfg.AIAPIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY (or OPENAI_API_KEY) is required")
	}

	if cfg.DailyRequestLimit <= 0 {
		return nil, fmt.Errorf("DAILY_REQUEST_LIMIT must be positive, got %d", cfg.DailyRequestLimit)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
