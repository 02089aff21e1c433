package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/josermendez0896/Nocturne-web/internal/flagx"
)

// parseFlags overlays cfg with -d, -i and -l. Arguments belonging to other
// flag sets are filtered out first.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-d", "-i", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the SQLite database file")
	fs.DurationVar(&cfg.IdleTimeout, "i", cfg.IdleTimeout, "idle time before the session locks (0 disables)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}
	return nil
}
