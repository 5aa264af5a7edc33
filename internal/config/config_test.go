package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	cfg := Load()
	if cfg.MaxConcurrentFetches != 8 {
		t.Errorf("MaxConcurrentFetches = %d, want 8", cfg.MaxConcurrentFetches)
	}
	if cfg.DefaultTTL != 5*time.Minute {
		t.Errorf("DefaultTTL = %v, want 5m", cfg.DefaultTTL)
	}
	if cfg.AutoRefreshTick != time.Second {
		t.Errorf("AutoRefreshTick = %v, want 1s", cfg.AutoRefreshTick)
	}
	if cfg.ShutdownGrace != 5*time.Second {
		t.Errorf("ShutdownGrace = %v, want 5s", cfg.ShutdownGrace)
	}
	if cfg.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %q, want :8000", cfg.HTTPAddr)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		t.Error("expected default CORS origins")
	}
}

func TestLoadOverrides(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	t.Setenv("MAX_CONCURRENT_FETCHES", "4")
	t.Setenv("DEFAULT_TTL_SECONDS", "60")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()
	if cfg.MaxConcurrentFetches != 4 {
		t.Errorf("MaxConcurrentFetches = %d, want 4", cfg.MaxConcurrentFetches)
	}
	if cfg.DefaultTTL != time.Minute {
		t.Errorf("DefaultTTL = %v, want 1m", cfg.DefaultTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadCaches(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	first := Load()
	t.Setenv("MAX_CONCURRENT_FETCHES", "2")
	second := Load()
	if first != second {
		t.Error("Load should return the cached config")
	}
}
