package config

import (
	"github.com/caarlos0/env/v10"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port          string `env:"PORT" envDefault:"5050"`
	DatabaseURL   string `env:"DATABASE_URL,required"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	SecureCookies bool   `env:"SECURE_COOKIES" envDefault:"false"`
	SQLLogging    bool   `env:"SQL_LOGGING" envDefault:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
