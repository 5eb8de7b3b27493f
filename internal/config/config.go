package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Bot      Bot
	Auction  Auction
	Shoper   Shoper
	YouTube  YouTube
	Postgres Postgres
	Servers  Servers
}

type Servers struct {
	ProbeAddress   string `env:"PROBE_ADDRESS" envDefault:":8091"`
	MetricsAddress string `env:"METRICS_ADDRESS" envDefault:":9102"`
	OverlayAddress string `env:"OVERLAY_ADDRESS"` // empty disables the overlay server
}

func (s Servers) OverlayEnabled() bool {
	return s.OverlayAddress != ""
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config

	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	return config, nil
}
