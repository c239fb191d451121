package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every environment variable, e.g. GOWINKEY_LOG_LEVEL.
const EnvPrefix = "GOWINKEY"

type Config struct {
	LogLevel   string `split_words:"true"`
	// Sources are queried by --system and merged in this order.
	Sources    []string
	Timeout    time.Duration
	// PartialKey is shown masked when no DigitalProductId is available.
	PartialKey string `split_words:"true"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Sources:  []string{"registry", "wmi"},
		Timeout:  30 * time.Second,
	}
}

// Load returns the default configuration overridden by the environment.
func Load() (Config, error) {
	cfg := DefaultConfig()
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment configuration: %w", err)
	}
	if cfg.Timeout <= 0 {
		return Config{}, fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}
	return cfg, nil
}
