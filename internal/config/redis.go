package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// RedisConfig configures the optional playback event publisher. An unset
// REDIS_ADDR is not an error for the bot as a whole; events stay log-only.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

func NewRedisConfigFromEnv() (*RedisConfig, error) {
	var cfg RedisConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is not set")
	}
	return &cfg, nil
}
