package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "NOCTURNE_"

// parseEnv overlays cfg with NOCTURNE_* variables. Unset variables leave the
// field untouched.
func parseEnv(cfg *Config, environ map[string]string) error {
	opts := env.Options{Prefix: envPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}
