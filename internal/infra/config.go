package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is a browser-like user agent string to avoid bot detection
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config holds every application setting. Values load from the YAML file,
// then environment variables override the sensitive ones.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr            string `yaml:"addr"`
		ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
		WriteTimeoutSec int    `yaml:"write_timeout_sec"`
		IdleTimeoutSec  int    `yaml:"idle_timeout_sec"`
		SessionSecret   string `yaml:"session_secret"`
	} `yaml:"server"`

	API struct {
		BaseURL    string `yaml:"base_url"`
		VsCurrency string `yaml:"vs_currency"`
		Limit      int    `yaml:"limit"`
		TimeoutSec int    `yaml:"timeout_sec"`
	} `yaml:"api"`

	Auth struct {
		Username      string `yaml:"username"`
		Password      string `yaml:"password"`
		SessionTTLMin int    `yaml:"session_ttl_min"`
	} `yaml:"auth"`

	Data struct {
		Dir       string `yaml:"dir"`
		UserFile  string `yaml:"user_file"`
		HistoryDB string `yaml:"history_db"`
		IconDir   string `yaml:"icon_dir"`
	} `yaml:"data"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// DefaultConfig returns the built-in settings. A missing config file is not
// an error; the dashboard runs entirely on these.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "cryptodash"
	cfg.App.Version = "dev"
	cfg.Server.Addr = ":8081"
	cfg.Server.ReadTimeoutSec = 10
	cfg.Server.WriteTimeoutSec = 30
	cfg.Server.IdleTimeoutSec = 120
	cfg.API.BaseURL = "https://api.coingecko.com/api/v3"
	cfg.API.VsCurrency = "usd"
	cfg.API.Limit = 5
	cfg.API.TimeoutSec = 15
	cfg.Auth.Username = "admin@gmail.com"
	cfg.Auth.Password = "123456"
	cfg.Auth.SessionTTLMin = 720
	cfg.Data.Dir = "data"
	cfg.Data.UserFile = "user_added_data.json"
	cfg.Data.HistoryDB = "cryptodash.db"
	cfg.Data.IconDir = "icons"
	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return cfg
}

// LoadConfig reads and parses the config file. A missing file falls back to
// DefaultConfig; a present but malformed file is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server address is required")
	}

	if c.API.BaseURL == "" || (!hasPrefix(c.API.BaseURL, "http://") && !hasPrefix(c.API.BaseURL, "https://")) {
		return fmt.Errorf("invalid API base URL: %s", c.API.BaseURL)
	}
	if c.API.Limit <= 0 {
		return fmt.Errorf("API limit must be positive")
	}
	if c.API.TimeoutSec <= 0 {
		return fmt.Errorf("API timeout must be positive")
	}

	if c.Auth.Username == "" || c.Auth.Password == "" {
		return fmt.Errorf("login credentials are required")
	}

	if c.Data.Dir == "" {
		return fmt.Errorf("data directory is required")
	}

	return nil
}

// APITimeout returns the upstream request timeout.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSec) * time.Second
}

// SessionTTL returns how long a login session stays valid.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Auth.SessionTTLMin) * time.Minute
}

// UserFilePath returns the user-entry JSON file location.
func (c *Config) UserFilePath() string {
	return filepath.Join(c.Data.Dir, c.Data.UserFile)
}

// HistoryDBPath returns the refresh-history sqlite file location.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Data.Dir, c.Data.HistoryDB)
}

// IconDirPath returns the cached-icon directory.
func (c *Config) IconDirPath() string {
	return filepath.Join(c.Data.Dir, c.Data.IconDir)
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv replaces settings with environment values when present.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("CRYPTODASH_USERNAME"); v != "" {
		cfg.Auth.Username = v
	}
	if v := os.Getenv("CRYPTODASH_PASSWORD"); v != "" {
		cfg.Auth.Password = v
	}
	if v := os.Getenv("CRYPTODASH_SESSION_SECRET"); v != "" {
		cfg.Server.SessionSecret = v
	}
	if v := os.Getenv("CRYPTODASH_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CRYPTODASH_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("CRYPTODASH_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
}
