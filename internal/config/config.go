package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Provider endpoints the AI client understands. "none" keeps the engine
// fully deterministic.
const (
	ProviderNone     = "none"
	ProviderOpenAI   = "openai"
	ProviderLMStudio = "lmstudio"
)

type Config struct {
	HTTPAddr string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	// Empty secret disables the bearer-token guard.
	JWTSecret string

	AIProvider string
	AIBaseURL  string
	AIAPIKey   string
	AIModel    string
	AITimeout  time.Duration
}

func Load() *Config {
	port, err := strconv.Atoi(os.Getenv("DB_PORT"))
	if err != nil {
		port = 5432
	}

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	provider := os.Getenv("AI_PROVIDER")
	if provider == "" {
		provider = ProviderNone
	}

	model := os.Getenv("AI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	baseURL := os.Getenv("AI_BASE_URL")
	if baseURL == "" {
		switch provider {
		case ProviderOpenAI:
			baseURL = "https://api.openai.com/v1"
		case ProviderLMStudio:
			baseURL = "http://localhost:1234/v1"
		}
	}

	timeout := 5 * time.Second
	if secs, err := strconv.Atoi(os.Getenv("AI_TIMEOUT_SECONDS")); err == nil && secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}

	return &Config{
		HTTPAddr: addr,

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     port,
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		JWTSecret: os.Getenv("AUTH_JWT_SECRET"),

		AIProvider: provider,
		AIBaseURL:  baseURL,
		AIAPIKey:   os.Getenv("AI_API_KEY"),
		AIModel:    model,
		AITimeout:  timeout,
	}
}

func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

// AIEnabled reports whether an external provider is configured.
func (c *Config) AIEnabled() bool {
	return c.AIProvider != ProviderNone && c.AIBaseURL != ""
}
