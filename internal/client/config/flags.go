package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/procura/internal/flagx"
)

var knownFlags = []string{"-a", "-t", "-r", "-d", "-l", "-g"}

// parseFlags populates Config from command-line flags.
//
//	-a string     API base URL
//	-t duration   per-call timeout
//	-r duration   background refresh interval (0 disables)
//	-d string     session database path
//	-l string     log level
//	-g            drop stale list responses
//
// Other flags (-c, -e) are filtered out with flagx.FilterArgs.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("procura", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIURL, "a", cfg.APIURL, "API base URL")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "per-call timeout")
	fs.DurationVar(&cfg.RefreshInterval, "r", cfg.RefreshInterval, "background refresh interval")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "session database path")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.SequenceGuard, "g", cfg.SequenceGuard, "drop stale list responses")

	return fs.Parse(args)
}
