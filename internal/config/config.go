package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string        `env:"ADDR" envDefault:":8080"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL string        `env:"DATABASE_URL"` // empty disables result archiving
	GracePeriod time.Duration `env:"MATCH_GRACE_PERIOD" envDefault:"30s"`
	RoomTick    time.Duration `env:"ROOM_TICK" envDefault:"1s"`
}

// Load reads .env if present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
