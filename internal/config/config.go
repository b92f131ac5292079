package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/seatscore.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:"../web/dist"`

	// Remote sync is off when RemoteURL is empty.
	RemoteURL    string        `env:"REMOTE_URL"`
	RemoteMode   string        `env:"REMOTE_MODE" envDefault:"tournament"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"20s"`

	ScanCooldown time.Duration `env:"SCAN_COOLDOWN" envDefault:"1500ms"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
