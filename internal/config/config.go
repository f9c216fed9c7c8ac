package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissing marks a fail-fast configuration error: a required environment
// value is absent. Startup must abort; authentication never silently
// bypasses missing configuration.
var ErrMissing = fmt.Errorf("missing required configuration")

// Config contains runtime configuration values.
type Config struct {
	Environment string
	ServiceName string
	HTTPPort    string
	DatabaseURL string

	// Commerce identity provider settings.
	ShopID             string
	OAuthClientID      string
	OAuthClientSecret  string
	RedirectURI        string
	ProviderAPIVersion string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	OAuthStateTTL   time.Duration

	CartAPIBaseURL string

	RateLimitRPM      int
	TelemetryEndpoint string
	TelemetryInsecure bool

	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
}

// Load reads configuration from environment variables with sane defaults.
// In development a .env file is honored when present.
func Load() (Config, error) {
	if getEnv("APP_ENV", "development") == "development" {
		_ = godotenv.Load()
	}

	cfg := Config{
		Environment:          getEnv("APP_ENV", "development"),
		ServiceName:          getEnv("SERVICE_NAME", "impulso-auth"),
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		ShopID:               os.Getenv("SHOP_ID"),
		OAuthClientID:        os.Getenv("OAUTH_CLIENT_ID"),
		OAuthClientSecret:    os.Getenv("OAUTH_CLIENT_SECRET"),
		RedirectURI:          os.Getenv("OAUTH_REDIRECT_URI"),
		ProviderAPIVersion:   getEnv("PROVIDER_API_VERSION", "2025-07"),
		AccessTokenTTL:       getDuration("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL:      getDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		OAuthStateTTL:        getDuration("OAUTH_STATE_TTL", 600*time.Second),
		CartAPIBaseURL:       os.Getenv("CART_API_BASE_URL"),
		RateLimitRPM:         getInt("RATE_LIMIT_RPM", 600),
		TelemetryEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure:    getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods:   getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "DELETE", "OPTIONS"}),
		CORSAllowedHeaders:   getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
		CORSAllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", true),
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.ShopID == "" {
		missing = append(missing, "SHOP_ID")
	}
	if cfg.OAuthClientID == "" {
		missing = append(missing, "OAUTH_CLIENT_ID")
	}
	if cfg.RedirectURI == "" {
		missing = append(missing, "OAUTH_REDIRECT_URI")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with production hardening
// (secure cookies, production logger).
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
