package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Get returns the environment variable key, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

type Config struct {
	Port        string
	DatabaseURL string
	DBPath      string
	RedisAddr   string

	// memory, redis, sql or none
	CacheBackend string
	RoutingMode  string

	Scale         float64
	Seed          uint64
	DensityCoeff  float64
	VelocityCoeff float64
	SpawnInterval int
	SpawnBatch    int
	MaxVehicles   int
	Ticks         int
	TickInterval  time.Duration

	PresetPath string

	MaskDir        string
	SignalBackend  string // serial, redis or log
	SignalPort     string
	SignalInterval time.Duration
	SensorCmd      string
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var p parser
	cfg := Config{
		Port:        Get("PORT", "8080"),
		DatabaseURL: Get("DATABASE_URL", ""),
		DBPath:      Get("DB_PATH", ""),
		RedisAddr:   Get("REDIS_ADDR", ""),

		CacheBackend: strings.ToLower(Get("CACHE_BACKEND", "memory")),
		RoutingMode:  Get("ROUTING_MODE", "cached"),

		Scale:         p.float("SIM_SCALE", 1),
		Seed:          p.uint("SIM_SEED", 1),
		DensityCoeff:  p.float("DENSITY_COEFF", 500),
		VelocityCoeff: p.float("VELOCITY_COEFF", 50),
		SpawnInterval: p.int("SPAWN_INTERVAL", 100),
		SpawnBatch:    p.int("SPAWN_BATCH", 1),
		MaxVehicles:   p.int("MAX_VEHICLES", 200),
		Ticks:         p.int("SIM_TICKS", 0),
		TickInterval:  p.duration("TICK_INTERVAL", time.Millisecond),

		PresetPath: Get("PRESET_PATH", ""),

		MaskDir:        Get("MASK_DIR", "road-masks"),
		SignalBackend:  strings.ToLower(Get("SIGNAL_BACKEND", "serial")),
		SignalPort:     Get("SIGNAL_PORT", ""),
		SignalInterval: p.duration("SIGNAL_INTERVAL", 300*time.Millisecond),
		SensorCmd:      Get("SENSOR_CMD", ""),
	}
	if p.err != nil {
		return Config{}, fmt.Errorf("load config: %w", p.err)
	}

	switch cfg.CacheBackend {
	case "memory", "redis", "sql", "none":
	default:
		return Config{}, fmt.Errorf("load config: unknown CACHE_BACKEND %q", cfg.CacheBackend)
	}
	switch cfg.SignalBackend {
	case "serial", "redis", "log":
	default:
		return Config{}, fmt.Errorf("load config: unknown SIGNAL_BACKEND %q", cfg.SignalBackend)
	}
	if cfg.Scale <= 0 {
		return Config{}, fmt.Errorf("load config: SIM_SCALE must be positive, got %v", cfg.Scale)
	}

	return cfg, nil
}

// parser keeps the first conversion error so Load can report it once.
type parser struct{ err error }

func (p *parser) float(key string, fallback float64) float64 {
	raw := Get(key, "")
	if raw == "" || p.err != nil {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", key, err)
		return fallback
	}
	return v
}

func (p *parser) int(key string, fallback int) int {
	raw := Get(key, "")
	if raw == "" || p.err != nil {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", key, err)
		return fallback
	}
	return v
}

func (p *parser) uint(key string, fallback uint64) uint64 {
	raw := Get(key, "")
	if raw == "" || p.err != nil {
		return fallback
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", key, err)
		return fallback
	}
	return v
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := Get(key, "")
	if raw == "" || p.err != nil {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", key, err)
		return fallback
	}
	return v
}
