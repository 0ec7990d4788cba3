package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPAddr         = ":8080"
	defaultDatabaseURL      = "localservices.db"
	defaultJWTAccessTTL     = "15m"
	defaultSessionTTL       = "168h"
	defaultRevokedRetention = "720h"
	defaultCommissionRate   = "0.15"
	defaultJWTSecret        = "change-me-jwt-secret"
	defaultSessionPepper    = "change-me-session-pepper"
)

type Config struct {
	AppEnv           string
	HTTPAddr         string
	DatabaseURL      string
	JWTSecret        string
	JWTAccessTTL     time.Duration
	SessionTTL       time.Duration
	SessionPepper    string
	RevokedRetention time.Duration
	CommissionRate   float64

	CORSAllowedOrigins []string
	InternalToken      string
	InternalAllowedIPs []string
}

// Load reads configuration from the environment. cmd/* call godotenv first so
// a local .env file feeds the same variables.
func Load() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.SessionPepper = strings.TrimSpace(getEnv("SESSION_TOKEN_PEPPER", defaultSessionPepper))
	cfg.InternalToken = strings.TrimSpace(os.Getenv("INTERNAL_API_TOKEN"))
	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	cfg.InternalAllowedIPs = splitList(os.Getenv("INTERNAL_ALLOWED_IPS"))

	var err error
	cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL)
	if err != nil {
		return nil, err
	}

	cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", defaultSessionTTL)
	if err != nil {
		return nil, err
	}

	cfg.RevokedRetention, err = parseDurationEnv("REVOKED_SESSION_RETENTION", defaultRevokedRetention)
	if err != nil {
		return nil, err
	}

	cfg.CommissionRate, err = parseFloatEnv("COMMISSION_RATE", defaultCommissionRate)
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("config loaded: env=%s addr=%s access_ttl=%s session_ttl=%s", cfg.AppEnv, cfg.HTTPAddr, cfg.JWTAccessTTL, cfg.SessionTTL)

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if cfg.RevokedRetention < 0 {
		return fmt.Errorf("REVOKED_SESSION_RETENTION must be >= 0")
	}
	if cfg.CommissionRate < 0 || cfg.CommissionRate > 1 {
		return fmt.Errorf("COMMISSION_RATE must be between 0 and 1")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.SessionPepper, defaultSessionPepper) {
			return fmt.Errorf("in prod/release SESSION_TOKEN_PEPPER must be set and not default")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseFloatEnv(name, fallback string) (float64, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return f, nil
}

// splitList parses a comma separated env value, dropping empty items.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
