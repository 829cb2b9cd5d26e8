package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ServerConfig is the runtime configuration of `prognose serve`.
type ServerConfig struct {
	Addr              string        `env:"PROGNOSE_ADDR" envDefault:":8080"`
	MonteCarloTrials  int           `env:"PROGNOSE_MC_TRIALS" envDefault:"1000"`
	MonteCarloWorkers int           `env:"PROGNOSE_MC_WORKERS" envDefault:"0"`
	LogFormat         string        `env:"PROGNOSE_LOG_FORMAT" envDefault:"json"`
	LogLevel          string        `env:"PROGNOSE_LOG_LEVEL" envDefault:"info"`
	RequestTimeout    time.Duration `env:"PROGNOSE_REQUEST_TIMEOUT" envDefault:"30s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadServerConfig reads ServerConfig from the environment and checks its ranges.
func LoadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	if cfg.MonteCarloTrials <= 0 {
		return cfg, fmt.Errorf("%w: PROGNOSE_MC_TRIALS must be positive, got %d", ErrValidation, cfg.MonteCarloTrials)
	}
	if cfg.MonteCarloWorkers < 0 {
		return cfg, fmt.Errorf("%w: PROGNOSE_MC_WORKERS cannot be negative, got %d", ErrValidation, cfg.MonteCarloWorkers)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return cfg, fmt.Errorf("%w: PROGNOSE_LOG_FORMAT must be json or text, got %q", ErrValidation, cfg.LogFormat)
	}
	return cfg, nil
}
