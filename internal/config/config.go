// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	// HTTP server
	Port        string
	StaticPath  string
	CORSOrigins []string

	// Storage: Postgres when DatabaseURL is set, SQLite at DBPath otherwise.
	DatabaseURL string
	DBPath      string

	// Auth
	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Split events. Publishing is disabled when AMQPURL is empty.
	AMQPURL      string
	AMQPExchange string

	MetricsEnabled bool
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored and existing variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load reads configuration from the environment.
func Load() Config {
	cfg := Config{
		Port:         fallback(os.Getenv("PORT"), "8080"),
		StaticPath:   strings.TrimSpace(os.Getenv("STATIC_PATH")),
		CORSOrigins:  parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		DatabaseURL:  strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBPath:       fallback(os.Getenv("DB_PATH"), "./data/spendwise.db"),
		JWTSecret:    strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:    fallback(os.Getenv("JWT_ISSUER"), "spendwise"),
		LogLevel:     strings.ToLower(fallback(os.Getenv("LOG_LEVEL"), "info")),
		LogFormat:    strings.ToLower(fallback(os.Getenv("LOG_FORMAT"), "tint")),
		AMQPURL:      strings.TrimSpace(os.Getenv("AMQP_URL")),
		AMQPExchange: fallback(os.Getenv("AMQP_EXCHANGE"), "spendwise.events"),
	}

	minutes := fallback(os.Getenv("JWT_TTL_MINUTES"), "60")
	if ttlMinutes, err := strconv.Atoi(minutes); err == nil && ttlMinutes > 0 {
		cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute
	} else {
		cfg.JWTTTL = 60 * time.Minute
	}

	cfg.MetricsEnabled = true
	if v, err := strconv.ParseBool(fallback(os.Getenv("METRICS_ENABLED"), "true")); err == nil {
		cfg.MetricsEnabled = v
	}

	return cfg
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}

	if c.DatabaseURL == "" && c.DBPath == "" {
		problems = append(problems, "DB_PATH cannot be empty when DATABASE_URL is not set")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid LOG_LEVEL %q: must be debug, info, warn or error", c.LogLevel))
	}
	switch c.LogFormat {
	case "tint", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid LOG_FORMAT %q: must be tint or json", c.LogFormat))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme %q: must be amqp or amqps", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP_EXCHANGE cannot be empty when AMQP_URL is set")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
