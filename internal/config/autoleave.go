package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// AutoLeaveConfig controls the idle-channel sweep.
type AutoLeaveConfig struct {
	// PollInterval is how often active sessions are checked for occupancy.
	PollInterval time.Duration `env:"AUTOLEAVE_POLL_INTERVAL, default=30s"`

	// IdleTimeout is how long a channel must sit empty before the bot
	// leaves. Zero disables auto-leave entirely.
	IdleTimeout time.Duration `env:"AUTOLEAVE_IDLE_TIMEOUT, default=5m"`
}

func NewAutoLeaveConfigFromEnv() (*AutoLeaveConfig, error) {
	var cfg AutoLeaveConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
