// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	AI        AIConfig        `mapstructure:"ai"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // seconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // seconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // seconds
}

// AIConfig holds provider selection, per-provider credentials and the
// rate-limit ceilings shared by every provider call in the process.
type AIConfig struct {
	// Provider pins a specific provider ("openai" or "anthropic") or lets
	// the orchestrator choose with "auto".
	Provider     string          `mapstructure:"provider"`
	OpenAI       ProviderConfig  `mapstructure:"openai"`
	Anthropic    ProviderConfig  `mapstructure:"anthropic"`
	RateLimiting RateLimitConfig `mapstructure:"rate_limiting"`
	// HealthCheckInterval is the minimum number of seconds between liveness
	// probes for the same provider.
	HealthCheckInterval int `mapstructure:"health_check_interval"`
	RequestTimeout      int `mapstructure:"request_timeout"` // seconds
}

type ProviderConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// Enabled reports whether the provider has credentials configured.
func (p ProviderConfig) Enabled() bool {
	return p.APIKey != ""
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	RequestsPerHour   int `mapstructure:"requests_per_hour"`
	TokensPerMinute   int `mapstructure:"tokens_per_minute"`
}

type CacheConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	TTLSeconds int  `mapstructure:"ttl_seconds"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func validateConfig(cfg *Config) error {
	switch cfg.AI.Provider {
	case "auto", "openai", "anthropic":
	default:
		return fmt.Errorf("ai.provider must be auto, openai or anthropic, got %q", cfg.AI.Provider)
	}
	if cfg.AI.RateLimiting.RequestsPerMinute <= 0 {
		return fmt.Errorf("ai.rate_limiting.requests_per_minute must be positive")
	}
	if cfg.Cache.Enabled && cfg.Redis.Address == "" {
		return fmt.Errorf("cache.enabled requires redis.address")
	}
	return nil
}
