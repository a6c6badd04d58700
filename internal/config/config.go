package config

import (
	"os"
	"strings"
)

// Provider exposes the configuration values the rest of the application
// depends on. Handlers and modules take a Provider rather than reading
// the environment directly, which keeps tests free to supply their own.
type Provider interface {
	GetAddr() string
	GetBaseURL() string
	GetAllowedOrigins() []string
}

// Config holds all configuration for the application, loaded from
// environment variables.
type Config struct {
	Addr           string
	BaseURL        string
	AllowedOrigins []string
}

// New loads configuration from environment variables. Callers that want
// .env support should load it (godotenv) before calling New.
func New() *Config {
	cfg := &Config{
		Addr:    getEnv("APP_ADDR", ":8080"),
		BaseURL: getEnv("APP_BASE_URL", "http://localhost:8080"),
	}

	// Comma-separated origin patterns for WebSocket upgrades. The
	// default allows everything, which suits a link-shared anonymous
	// chat but should be narrowed for real deployments.
	origins := getEnv("WS_ALLOWED_ORIGINS", "*")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c *Config) GetAddr() string             { return c.Addr }
func (c *Config) GetBaseURL() string          { return c.BaseURL }
func (c *Config) GetAllowedOrigins() []string { return c.AllowedOrigins }
