package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/josermendez0896/Nocturne-web/internal/common"
	"github.com/josermendez0896/Nocturne-web/internal/cryptox"
	"github.com/josermendez0896/Nocturne-web/internal/logging"
)

// Config holds runtime settings.
//
// KDF and Iterations apply to credentials written from now on; existing
// records keep the parameters they were derived with. AuditFailedLogins
// decides whether rejected logins leave a LOGIN_FAIL entry.
type Config struct {
	DatabasePath      string        `env:"DB_PATH"`
	KDF               string        `env:"KDF"`
	Iterations        int           `env:"ITERATIONS"`
	AuditViewLimit    int           `env:"AUDIT_VIEW_LIMIT"`
	AuditFailedLogins bool          `env:"AUDIT_FAILED_LOGINS"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT"`
	LogLevel          string        `env:"LOG_LEVEL"`
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = filepath.Join("data", "nocturne.db")
	c.KDF = string(cryptox.KDFPBKDF2SHA512)
	c.Iterations = common.DefaultIterations
	c.AuditViewLimit = common.DefaultAuditViewLimit
	c.AuditFailedLogins = true
	c.IdleTimeout = 60 * time.Second
	c.LogLevel = "info"
}

// Validate reports every setting that cannot be used.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database path is empty"))
	}
	if kdf := cryptox.KDF(c.KDF); !kdf.Valid() {
		errs = append(errs, fmt.Errorf("unknown kdf %q", c.KDF))
	} else if err := kdf.CheckCost(c.Iterations); err != nil {
		errs = append(errs, err)
	}
	if c.AuditViewLimit <= 0 {
		errs = append(errs, fmt.Errorf("audit view limit must be positive, got %d", c.AuditViewLimit))
	}
	if c.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("idle timeout must not be negative, got %s", c.IdleTimeout))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
	}
	return nil
}

// LoadConfig builds a Config from defaults, the JSON file, the process
// environment and os.Args, then validates it.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:], nil)
}

// load is LoadConfig with explicit inputs. A nil environ means the process
// environment.
func load(args []string, environ map[string]string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, environ); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	cfg.fitIterations()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fitIterations replaces the PBKDF2 reference count left over from the
// defaults when another algorithm was selected without its own work factor.
func (c *Config) fitIterations() {
	kdf := cryptox.KDF(c.KDF)
	if c.Iterations == common.DefaultIterations && kdf.Valid() {
		c.Iterations = kdf.DefaultIterations()
	}
}
