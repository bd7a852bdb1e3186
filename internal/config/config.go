// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	APIBaseURL   string `mapstructure:"API_BASE_URL"`
	APIToken     string `mapstructure:"API_TOKEN"`
	APITimeoutMS int    `mapstructure:"API_TIMEOUT_MS"`

	// PushSource selects how push events reach the bus: "websocket" or "redis".
	PushSource         string `mapstructure:"PUSH_SOURCE"`
	PushWSURL          string `mapstructure:"PUSH_WS_URL"`
	RedisURL           string `mapstructure:"REDIS_URL"`
	PushChannelPattern string `mapstructure:"PUSH_CHANNEL_PATTERN"`

	UserID       string `mapstructure:"USER_ID"`
	FeedPageSize int    `mapstructure:"FEED_PAGE_SIZE"`

	// ReverifyDelayMS is the delayed re-verification window after a mutating
	// action. It masks backend read-after-write lag and is environment
	// dependent; correctness never relies on it.
	ReverifyDelayMS int `mapstructure:"REVERIFY_DELAY_MS"`

	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint        string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`

	Env string `mapstructure:"APP_ENV"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if errors.As(err, &notFoundErr) {
			log.Println("Config file not found; using environment variables and defaults")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Set default values
	viper.SetDefault("API_BASE_URL", "http://localhost:8375/api")
	viper.SetDefault("API_TOKEN", "")
	viper.SetDefault("API_TIMEOUT_MS", 5000)
	viper.SetDefault("PUSH_SOURCE", "websocket")
	viper.SetDefault("PUSH_WS_URL", "ws://localhost:8375/api/ws")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("PUSH_CHANNEL_PATTERN", "notifications:user:*")
	viper.SetDefault("USER_ID", "")
	viper.SetDefault("FEED_PAGE_SIZE", 50)
	viper.SetDefault("REVERIFY_DELAY_MS", 300)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 0.1)
	viper.SetDefault("APP_ENV", "development")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL must not be empty")
	}
	if c.PushSource != "websocket" && c.PushSource != "redis" {
		return fmt.Errorf("PUSH_SOURCE must be \"websocket\" or \"redis\", got %q", c.PushSource)
	}
	if c.FeedPageSize <= 0 {
		return errors.New("FEED_PAGE_SIZE must be positive")
	}
	if c.ReverifyDelayMS < 0 {
		return errors.New("REVERIFY_DELAY_MS must not be negative")
	}
	return nil
}

// APITimeout returns the authoritative API request timeout.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutMS) * time.Millisecond
}

// ReverifyDelay returns the delayed re-verification window.
func (c *Config) ReverifyDelay() time.Duration {
	return time.Duration(c.ReverifyDelayMS) * time.Millisecond
}
