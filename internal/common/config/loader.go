// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// Enable ENV override like AI_OPENAI_API_KEY
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored if not present.
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideFromEnv(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up looking for go.mod so tests in nested packages
// pick up the same .env as the binary.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "barquery"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8090"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10
	}

	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "auto"
	}
	if cfg.AI.OpenAI.BaseURL == "" {
		cfg.AI.OpenAI.BaseURL = "https://api.openai.com"
	}
	if cfg.AI.OpenAI.Model == "" {
		cfg.AI.OpenAI.Model = "gpt-4-turbo-preview"
	}
	if cfg.AI.OpenAI.MaxTokens == 0 {
		cfg.AI.OpenAI.MaxTokens = 4000
	}
	if cfg.AI.OpenAI.Temperature == 0 {
		// Low temperature keeps analytical answers stable.
		cfg.AI.OpenAI.Temperature = 0.1
	}
	if cfg.AI.Anthropic.BaseURL == "" {
		cfg.AI.Anthropic.BaseURL = "https://api.anthropic.com"
	}
	if cfg.AI.Anthropic.Model == "" {
		cfg.AI.Anthropic.Model = "claude-3-sonnet-20240229"
	}
	if cfg.AI.Anthropic.MaxTokens == 0 {
		cfg.AI.Anthropic.MaxTokens = 4000
	}
	if cfg.AI.Anthropic.Temperature == 0 {
		cfg.AI.Anthropic.Temperature = 0.1
	}
	if cfg.AI.RateLimiting.RequestsPerMinute == 0 {
		cfg.AI.RateLimiting.RequestsPerMinute = 50
	}
	if cfg.AI.RateLimiting.RequestsPerHour == 0 {
		cfg.AI.RateLimiting.RequestsPerHour = 1000
	}
	if cfg.AI.RateLimiting.TokensPerMinute == 0 {
		cfg.AI.RateLimiting.TokensPerMinute = 100000
	}
	if cfg.AI.HealthCheckInterval == 0 {
		cfg.AI.HealthCheckInterval = 300
	}
	if cfg.AI.RequestTimeout == 0 {
		cfg.AI.RequestTimeout = 60
	}

	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 300
	}
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = "localhost:6379"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// overrideFromEnv covers the secrets that are commonly provided only as
// plain environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.AI.OpenAI.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.AI.Anthropic.APIKey = key
	}
	if addr := os.Getenv("REDIS_ADDRESS"); addr != "" {
		cfg.Redis.Address = addr
	}
}
