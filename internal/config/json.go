package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/josermendez0896/Nocturne-web/internal/flagx"
	"github.com/josermendez0896/Nocturne-web/internal/timex"
)

// JSONConfig is the file representation of Config. Pointer fields tell an
// absent key from a zero value.
type JSONConfig struct {
	DatabasePath      *string         `json:"database_path"`
	KDF               *string         `json:"kdf"`
	Iterations        *int            `json:"iterations"`
	AuditViewLimit    *int            `json:"audit_view_limit"`
	AuditFailedLogins *bool           `json:"audit_failed_logins"`
	IdleTimeout       *timex.Duration `json:"idle_timeout"`
	LogLevel          *string         `json:"log_level"`
}

// parseJSON overlays cfg with the file named by -c/-config, if any.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	jc.apply(cfg)
	return nil
}

func (jc *JSONConfig) apply(cfg *Config) {
	if jc.DatabasePath != nil {
		cfg.DatabasePath = *jc.DatabasePath
	}
	if jc.KDF != nil {
		cfg.KDF = *jc.KDF
	}
	if jc.Iterations != nil {
		cfg.Iterations = *jc.Iterations
	}
	if jc.AuditViewLimit != nil {
		cfg.AuditViewLimit = *jc.AuditViewLimit
	}
	if jc.AuditFailedLogins != nil {
		cfg.AuditFailedLogins = *jc.AuditFailedLogins
	}
	if jc.IdleTimeout != nil {
		cfg.IdleTimeout = jc.IdleTimeout.Duration
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
}
