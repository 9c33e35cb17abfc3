package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.ServerPort)
	}
	if cfg.DailyRequestLimit != 10 {
		t.Errorf("Expected default daily limit 10, got %d", cfg.DailyRequestLimit)
	}
	if cfg.MaxHistoryPerUser != 50 {
		t.Errorf("Expected default history cap 50, got %d", cfg.MaxHistoryPerUser)
	}
	if cfg.FollowUpThresholdHrs != 12 {
		t.Errorf("Expected default follow-up threshold 12h, got %d", cfg.FollowUpThresholdHrs)
	}
	if cfg.DataRetentionDays != 30 {
		t.Errorf("Expected default retention 30 days, got %d", cfg.DataRetentionDays)
	}
	if cfg.AIAPIKey != "test-key" {
		t.Errorf("Expected OPENAI_API_KEY fallback, got %s", cfg.AIAPIKey)
	}
	if cfg.AIProvider != "openai" {
		t.Errorf("Expected default provider openai, got %s", cfg.AIProvider)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "router-key")
	t.Setenv("REDIS_URL", "redis://example:6379/1")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DAILY_REQUEST_LIMIT", "25")
	t.Setenv("SERVER_DEBUG_MODE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerPort != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.ServerPort)
	}
	if cfg.DailyRequestLimit != 25 {
		t.Errorf("Expected daily limit 25, got %d", cfg.DailyRequestLimit)
	}
	if !cfg.ServerDebugMode {
		t.Error("Expected debug mode enabled")
	}
	if cfg.AIAPIKey != "router-key" {
		t.Errorf("Expected OPENROUTER_API_KEY to win, got %s", cfg.AIAPIKey)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	if _, err := Load(); err == nil {
		t.Error("Expected error without any AI API key")
	}
}

func TestLoadRejectsNonPositiveLimit(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("DAILY_REQUEST_LIMIT", "0")

	if _, err := Load(); err == nil {
		t.Error("Expected error for non-positive daily limit")
	}
}
