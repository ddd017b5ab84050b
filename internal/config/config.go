// Package config handles the configuration directory, config file and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	// AppName is the application directory name.
	AppName = "todopro"

	// ConfigFile is the optional TOML config filename.
	ConfigFile = "config.toml"

	// TokenFile is the stored session token filename.
	TokenFile = "token.json"

	// DefaultAPIURL is used when no API URL is configured.
	DefaultAPIURL = "http://localhost:5000/"

	// DefaultTimeout bounds every API call.
	DefaultTimeout = 10 * time.Second

	// DefaultUndoWindow is how long a deletion can be undone before it is sent.
	DefaultUndoWindow = 3500 * time.Millisecond
)

// Environment variables read by Load.
const (
	EnvAPIURL     = "TODOPRO_API_URL"
	EnvTimeout    = "TODOPRO_TIMEOUT"
	EnvUndoWindow = "TODOPRO_UNDO_WINDOW"
	EnvLogLevel   = "TODOPRO_LOG_LEVEL"
	EnvPassword   = "TODOPRO_PASSWORD"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// APIURL is the base URL of the remote API, always ending in "/".
	APIURL string

	// Timeout bounds a single API call.
	Timeout time.Duration

	// UndoWindow is the delayed-commit interval for deletions.
	UndoWindow time.Duration

	// LogLevel is one of debug, info, warn, error. Empty means derived from Debug.
	LogLevel string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// fileConfig mirrors config.toml.
type fileConfig struct {
	APIURL     string `toml:"api_url"`
	Timeout    string `toml:"timeout"`
	UndoWindow string `toml:"undo_window"`
	LogLevel   string `toml:"log_level"`
}

// New creates a new Config with defaults and the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/todopro or $HOME/.config/todopro.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{
		Dir:        dir,
		APIURL:     DefaultAPIURL,
		Timeout:    DefaultTimeout,
		UndoWindow: DefaultUndoWindow,
	}, nil
}

// Load creates a Config and applies, in order: config.toml in the config
// directory, a .env file in the working directory, and environment variables.
// Command-line flags are applied by the caller afterwards.
func Load(configDir string) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}

	if err := cfg.loadFile(); err != nil {
		return nil, err
	}

	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.SetAPIURL(cfg.APIURL)
}

func (c *Config) loadFile() error {
	var fc fileConfig
	if _, err := toml.DecodeFile(c.FilePath(), &fc); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading config file %s: %w", c.FilePath(), err)
	}
	return c.apply(fc, "config file")
}

func (c *Config) loadEnv() error {
	return c.apply(fileConfig{
		APIURL:     os.Getenv(EnvAPIURL),
		Timeout:    os.Getenv(EnvTimeout),
		UndoWindow: os.Getenv(EnvUndoWindow),
		LogLevel:   os.Getenv(EnvLogLevel),
	}, "environment")
}

func (c *Config) apply(fc fileConfig, source string) error {
	if fc.APIURL != "" {
		c.APIURL = fc.APIURL
	}
	if fc.Timeout != "" {
		d, err := parsePositiveDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("%s: timeout: %w", source, err)
		}
		c.Timeout = d
	}
	if fc.UndoWindow != "" {
		d, err := parsePositiveDuration(fc.UndoWindow)
		if err != nil {
			return fmt.Errorf("%s: undo_window: %w", source, err)
		}
		c.UndoWindow = d
	}
	if fc.LogLevel != "" {
		c.LogLevel = strings.ToLower(fc.LogLevel)
	}
	return nil
}

// SetAPIURL validates raw and stores it with a trailing slash so relative
// API paths resolve beneath it.
func (c *Config) SetAPIURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API URL: %q", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	c.APIURL = u.String()
	return nil
}

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive: %s", s)
	}
	return d, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// FilePath returns the path to config.toml.
func (c *Config) FilePath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// TokenPath returns the path to the stored session token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}
