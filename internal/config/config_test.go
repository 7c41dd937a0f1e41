package config

import (
	"testing"
	"time"
)

func TestGetFallback(t *testing.T) {
	t.Setenv("TRAFFIC_TEST_KEY", "")
	if got := Get("TRAFFIC_TEST_KEY", "fallback"); got != "fallback" {
		t.Fatalf("Get = %q, want fallback", got)
	}
	t.Setenv("TRAFFIC_TEST_KEY", " value ")
	if got := Get("TRAFFIC_TEST_KEY", "fallback"); got != "value" {
		t.Fatalf("Get = %q, want value", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"SIM_SCALE", "CACHE_BACKEND", "SIGNAL_BACKEND", "SIGNAL_INTERVAL", "SIM_SEED"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scale != 1 || cfg.CacheBackend != "memory" || cfg.SignalInterval != 300*time.Millisecond {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DensityCoeff != 500 || cfg.VelocityCoeff != 50 {
		t.Fatalf("coefficients = %v/%v, want 500/50", cfg.DensityCoeff, cfg.VelocityCoeff)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SIM_SCALE", "2.5")
	t.Setenv("SIM_SEED", "42")
	t.Setenv("CACHE_BACKEND", "REDIS")
	t.Setenv("TICK_INTERVAL", "5ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scale != 2.5 || cfg.Seed != 42 || cfg.CacheBackend != "redis" || cfg.TickInterval != 5*time.Millisecond {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("SIM_SCALE", "fast")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-numeric scale")
	}

	t.Setenv("SIM_SCALE", "")
	t.Setenv("CACHE_BACKEND", "memcached")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown cache backend")
	}
}
