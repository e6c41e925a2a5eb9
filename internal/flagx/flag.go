// Package flagx holds small helpers for components that each parse their own
// subset of the command line.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs keeps only the allowed flags (and their values) from args.
//
// Both "-c conf.json" and "--config=conf.json" forms are recognised. A value
// is consumed only when the next token does not itself start with '-'.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// StringFlag returns the value of the last occurrence of any of the given
// flag names (without the leading dash) in args, or "" when none is present.
// Unknown flags in args are ignored.
func StringFlag(args []string, names ...string) string {
	dashed := make([]string, 0, len(names)*2)
	for _, n := range names {
		dashed = append(dashed, "-"+n, "--"+n)
	}

	var value string
	fs := flag.NewFlagSet("flagx", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, n := range names {
		fs.StringVar(&value, n, "", "")
	}
	_ = fs.Parse(FilterArgs(args, dashed))

	return value
}

// ConfigFile extracts the JSON config path given via -c or -config.
func ConfigFile(args []string) string {
	return StringFlag(args, "c", "config")
}

// EnvFile extracts the dotenv path given via -e or -env.
func EnvFile(args []string) string {
	return StringFlag(args, "e", "env")
}
