package config

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/procura/internal/common"
	"github.com/dmitrijs2005/procura/internal/logging"
)

// Config holds runtime settings for the procurement CLI.
//
// Fields:
//   - APIURL: base URL of the procurement REST API, e.g. http://localhost:8000/api.
//   - RequestTimeout: per-call HTTP timeout.
//   - RefreshInterval: period of the background quiet refresh; 0 disables it.
//   - DBPath: SQLite file holding the session.
//   - LogLevel: debug, info, warn or error.
//   - AuthScheme: Authorization header scheme expected by the API.
//   - SequenceGuard: drop list responses older than the one already applied.
type Config struct {
	APIURL          string
	RequestTimeout  time.Duration
	RefreshInterval time.Duration
	DBPath          string
	LogLevel        string
	AuthScheme      string
	SequenceGuard   bool
}

// LoadDefaults populates c with sensible defaults. There is no default API
// URL; it must come from the environment, a file or a flag.
func (c *Config) LoadDefaults() {
	c.APIURL = ""
	c.RequestTimeout = 30 * time.Second
	c.RefreshInterval = 0
	c.DBPath = defaultDBPath()
	c.LogLevel = "info"
	c.AuthScheme = common.DefaultAuthScheme
	c.SequenceGuard = false
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "procura.db"
	}
	return filepath.Join(dir, "procura", "session.db")
}

// Validate reports configuration that cannot work.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api url is not configured (set PROCURA_API_URL or use -a)")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("api url must be an absolute http(s) url")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if c.RefreshInterval < 0 {
		return errors.New("refresh interval must not be negative")
	}
	if c.DBPath == "" {
		return errors.New("database path is empty")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// LoadConfig builds a Config from os.Args.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], os.LookupEnv)
}

// Load applies defaults, then the environment (optionally seeded from a
// dotenv file), then a JSON file, then flags. Later sources take precedence.
// The result is validated.
func Load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg, args, lookup); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
