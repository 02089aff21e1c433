package flagx

import (
	"flag"
	"io"
	"slices"
	"strings"
)

// configFlagNames are the spellings accepted for the JSON config path.
var configFlagNames = []string{"c", "config"}

// FilterArgs keeps only the arguments that belong to allowedFlags, so each
// flag set can parse its own share of the command line. A flag may carry its
// value inline (-config=conf.json) or in the following argument
// (-c conf.json); the following argument is claimed only if it is not a flag.
func FilterArgs(args []string, allowedFlags []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, inline := arg, false
		if isFlag(arg) {
			name, _, inline = strings.Cut(arg, "=")
		}
		if !slices.Contains(allowedFlags, name) {
			continue
		}
		out = append(out, arg)
		if !inline && i+1 < len(args) && !isFlag(args[i+1]) {
			i++
			out = append(out, args[i])
		}
	}
	return out
}

// ConfigFileFlag returns the path given with -c or -config, or "".
// When both appear the last one wins.
func ConfigFileFlag(args []string) string {
	var path string
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	allowed := make([]string, 0, 2*len(configFlagNames))
	for _, n := range configFlagNames {
		fs.StringVar(&path, n, "", "path to JSON config file")
		allowed = append(allowed, "-"+n, "--"+n)
	}
	_ = fs.Parse(FilterArgs(args, allowed))
	return path
}

func isFlag(arg string) bool { return strings.HasPrefix(arg, "-") }
