// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Telegram TelegramConfig
	Backend  BackendConfig
	Model    ModelConfig
	Agent    AgentConfig
	Log      LogConfig
	Console  ConsoleConfig
}

// TelegramConfig holds bot configuration.
type TelegramConfig struct {
	Token string
	Debug bool
}

// BackendConfig holds OyGul API configuration.
type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

// ModelConfig selects and configures the LLM provider.
type ModelConfig struct {
	Provider        string
	Name            string
	Temperature     float64
	OpenAIKey       string
	OpenAIBaseURL   string
	AnthropicKey    string
	GeminiKey       string
	RouterMode      string
	MaxOutputTokens int
}

// AgentConfig holds runtime limits and the agent catalog.
type AgentConfig struct {
	AppName        string
	Catalog        string
	MaxModelCalls  int
	MaxConcurrency int
	TurnTimeout    time.Duration
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level   string
	Format  string
	Backend string
}

// ConsoleConfig holds the credentials the console can start with.
type ConsoleConfig struct {
	Language    string
	Login       string
	Password    string
	BearerToken string
	MerchantID  string
	BranchID    string
	UserID      string
}

// Providers lists the supported MODEL_PROVIDER values.
var Providers = []string{"openai", "anthropic", "gemini"}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Telegram: TelegramConfig{
			Token: getEnv("TELEGRAM_BOT_TOKEN", ""),
			Debug: getEnvAsBool("TELEGRAM_DEBUG", false),
		},
		Backend: BackendConfig{
			URL:     getEnv("OYGUL_API_URL", "https://dev.api.oy-gul.uz/api"),
			Timeout: getEnvAsDuration("OYGUL_API_TIMEOUT_SECONDS", 10*time.Second),
		},
		Model: ModelConfig{
			Provider:        strings.ToLower(getEnv("MODEL_PROVIDER", "gemini")),
			Name:            getEnv("MODEL_NAME", ""),
			Temperature:     getEnvAsFloat("MODEL_TEMPERATURE", 0.2),
			OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
			AnthropicKey:    getEnv("ANTHROPIC_API_KEY", ""),
			GeminiKey:       getEnv("GEMINI_API_KEY", ""),
			RouterMode:      strings.ToLower(getEnv("ROUTER_MODE", "keyword")),
			MaxOutputTokens: getEnvAsInt("MODEL_MAX_OUTPUT_TOKENS", 2048),
		},
		Agent: AgentConfig{
			AppName:        getEnv("APP_NAME", "erp_agent"),
			Catalog:        getEnv("AGENT_CATALOG", ""),
			MaxModelCalls:  getEnvAsInt("MAX_MODEL_CALLS", 25),
			MaxConcurrency: getEnvAsInt("MAX_CONCURRENT_RUNS", 10),
			TurnTimeout:    getEnvAsDuration("TURN_TIMEOUT_SECONDS", 2*time.Minute),
		},
		Log: LogConfig{
			Level:   getEnv("LOG_LEVEL", "info"),
			Format:  getEnv("LOG_FORMAT", "console"),
			Backend: getEnv("LOG_BACKEND", "zerolog"),
		},
		Console: ConsoleConfig{
			Language:    getEnv("OYGUL_LANGUAGE", "en"),
			Login:       getEnv("OYGUL_LOGIN", ""),
			Password:    getEnv("OYGUL_PASSWORD", ""),
			BearerToken: getEnv("OYGUL_BEARER_TOKEN", ""),
			MerchantID:  getEnv("OYGUL_MERCHANT_ID", ""),
			BranchID:    getEnv("OYGUL_BRANCH_ID", ""),
			UserID:      getEnv("OYGUL_USER_ID", ""),
		},
	}

	return cfg, nil
}

// Validate checks the settings every front end needs.
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case "openai", "anthropic", "gemini":
	default:
		return fmt.Errorf("unknown MODEL_PROVIDER %q (want one of %s)", c.Model.Provider, strings.Join(Providers, ", "))
	}
	if c.Agent.TurnTimeout <= 0 {
		return fmt.Errorf("TURN_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsDuration reads a whole number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
