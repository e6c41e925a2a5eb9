package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/dmitrijs2005/procura/internal/flagx"
	"github.com/joho/godotenv"
)

const (
	EnvAPIURL          = "PROCURA_API_URL"
	EnvRequestTimeout  = "PROCURA_REQUEST_TIMEOUT"
	EnvRefreshInterval = "PROCURA_REFRESH_INTERVAL"
	EnvDBPath          = "PROCURA_DB_PATH"
	EnvLogLevel        = "PROCURA_LOG_LEVEL"
	EnvAuthScheme      = "PROCURA_AUTH_SCHEME"
	EnvSequenceGuard   = "PROCURA_SEQUENCE_GUARD"
)

const defaultEnvFile = ".env"

// parseEnv overlays Config with environment variables. Values from a dotenv
// file (-e/-env, or ./.env when present) fill in variables the process
// environment does not set.
func parseEnv(cfg *Config, args []string, lookup func(string) (string, bool)) error {
	fileVars, err := readEnvFile(flagx.EnvFile(args))
	if err != nil {
		return err
	}

	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	if v, ok := get(EnvAPIURL); ok {
		cfg.APIURL = v
	}
	if v, ok := get(EnvDBPath); ok {
		cfg.DBPath = v
	}
	if v, ok := get(EnvLogLevel); ok {
		cfg.LogLevel = v
	}
	if v, ok := get(EnvAuthScheme); ok {
		cfg.AuthScheme = v
	}
	if v, ok := get(EnvRequestTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRequestTimeout, err)
		}
		cfg.RequestTimeout = d
	}
	if v, ok := get(EnvRefreshInterval); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRefreshInterval, err)
		}
		cfg.RefreshInterval = d
	}
	if v, ok := get(EnvSequenceGuard); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSequenceGuard, err)
		}
		cfg.SequenceGuard = b
	}
	return nil
}

// readEnvFile reads path, or ./.env when path is empty. A missing default
// file is not an error; a missing explicit one is.
func readEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return vars, nil
}
