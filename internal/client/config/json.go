package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/procura/internal/flagx"
	"github.com/dmitrijs2005/procura/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals use
// timex.Duration so they can be written as "30s" or as nanoseconds. Pointer
// fields distinguish "absent" from "zero".
type JsonConfig struct {
	APIURL          *string         `json:"api_url"`
	RequestTimeout  *timex.Duration `json:"request_timeout"`
	RefreshInterval *timex.Duration `json:"refresh_interval"`
	DBPath          *string         `json:"db_path"`
	LogLevel        *string         `json:"log_level"`
	AuthScheme      *string         `json:"auth_scheme"`
	SequenceGuard   *bool           `json:"sequence_guard"`
}

// parseJson overlays Config with the JSON file named by -c or -config. Only
// fields present in the file are applied.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.APIURL != nil {
		cfg.APIURL = *jc.APIURL
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RefreshInterval != nil {
		cfg.RefreshInterval = jc.RefreshInterval.Duration
	}
	if jc.DBPath != nil {
		cfg.DBPath = *jc.DBPath
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
	if jc.AuthScheme != nil {
		cfg.AuthScheme = *jc.AuthScheme
	}
	if jc.SequenceGuard != nil {
		cfg.SequenceGuard = *jc.SequenceGuard
	}
	return nil
}
