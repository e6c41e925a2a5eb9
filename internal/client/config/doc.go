// Package config loads runtime configuration for the procurement CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables PROCURA_*. A dotenv file (-e/-env, or ./.env if
//     it exists) supplies variables the process environment leaves unset.
//  3. Optional JSON file selected with -c or -config.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string     API base URL
//	-t duration   per-call timeout (e.g. 30s)
//	-r duration   background refresh interval, 0 disables
//	-d string     session database path
//	-l string     log level: debug, info, warn, error
//	-g            drop list responses older than the one applied
//
// # JSON schema
//
//	{
//	  "api_url": "http://localhost:8000/api",
//	  "request_timeout": "30s",
//	  "refresh_interval": "1m",
//	  "db_path": "/home/me/.config/procura/session.db",
//	  "log_level": "info",
//	  "auth_scheme": "JWT",
//	  "sequence_guard": false
//	}
//
// The API URL has no default; Load fails when none of the sources sets it.
package config
