package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// defaultJWTSecret is only accepted in development.
const defaultJWTSecret = "change-me-in-production"

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment  string
	Debug        bool
	HTTPPort     string
	DatabasePath string
	LogDir       string
	JWTSecret    string
	CORSOrigins  []string

	// VotingPeriod is how long a proposal accepts ballots once voting opens.
	VotingPeriod time.Duration
	// ReviewRequired sends new proposals to "submitted" instead of opening voting immediately.
	ReviewRequired bool
	// DeadlineSweep is a cron spec for closing expired votes in the background; empty disables it.
	DeadlineSweep string

	RedisURL             string
	VerificationCacheTTL time.Duration
}

// Load reads env vars and falls back to defaults so the server can boot with zero configuration.
func Load() (Config, error) {
	cfg := Config{
		Environment:    getEnv("TRANSPARENCITY_ENV", "development"),
		Debug:          getEnvBool("TRANSPARENCITY_DEBUG", false),
		HTTPPort:       getEnv("TRANSPARENCITY_HTTP_PORT", "8080"),
		DatabasePath:   getEnv("TRANSPARENCITY_DB_PATH", filepath.Join("data", "transparencity.db")),
		LogDir:         getEnv("TRANSPARENCITY_LOG_DIR", filepath.Join("data", "logs")),
		JWTSecret:      getEnv("TRANSPARENCITY_JWT_SECRET", defaultJWTSecret),
		CORSOrigins:    splitList(getEnv("TRANSPARENCITY_CORS_ORIGINS", "http://localhost:3000,http://localhost:19006")),
		ReviewRequired: getEnvBool("TRANSPARENCITY_REVIEW_REQUIRED", false),
		DeadlineSweep:  getEnv("TRANSPARENCITY_DEADLINE_SWEEP", "@every 1m"),
		RedisURL:       getEnv("TRANSPARENCITY_REDIS_URL", ""),
	}

	if !cfg.IsDevelopment() && (cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret) {
		return Config{}, fmt.Errorf("TRANSPARENCITY_JWT_SECRET must be set when TRANSPARENCITY_ENV is %q", cfg.Environment)
	}

	var err error
	if cfg.VotingPeriod, err = getEnvDuration("TRANSPARENCITY_VOTING_PERIOD", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.VotingPeriod <= 0 {
		return Config{}, fmt.Errorf("TRANSPARENCITY_VOTING_PERIOD must be positive")
	}
	if cfg.VerificationCacheTTL, err = getEnvDuration("TRANSPARENCITY_VERIFICATION_CACHE_TTL", 10*time.Minute); err != nil {
		return Config{}, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server runs with development defaults.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
