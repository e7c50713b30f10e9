// Package config handles application configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	appName        = "drift"
	configFileName = "config.json"
	tokenDirName   = "token"
	envPrefix      = "DRIFT_"
)

// Defaults.
const (
	DefaultDeepLinkScheme  = "drift"
	DefaultCallbackTimeout = 300
	DefaultPortMin         = 19000
	DefaultPortMax         = 20000
	DefaultCaptureHotkey   = "CmdOrCtrl+Shift+S"
	DefaultRecordInterval  = 10
	DefaultLogLevel        = "info"
)

// Config represents the application configuration.
type Config struct {
	// AuthURL is the identity provider page that starts the desktop login.
	// The callback URL is appended as redirect_uri.
	AuthURL        string `json:"auth_url,omitempty"`
	DeepLinkScheme string `json:"deep_link_scheme"`

	CallbackTimeoutSeconds int `json:"callback_timeout_seconds"`
	PortMin                int `json:"port_min"`
	PortMax                int `json:"port_max"`

	// PersistToken keeps the last redeemed token on disk across restarts.
	PersistToken bool `json:"persist_token"`

	CaptureHotkey         string `json:"capture_hotkey"`
	RecordIntervalSeconds int    `json:"record_interval_seconds"`
	LogLevel              string `json:"log_level"`

	path string
}

// Load reads the config from the user config dir, then applies .env and
// DRIFT_* environment overrides. A missing file yields defaults.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit config file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DeepLinkScheme:         DefaultDeepLinkScheme,
		CallbackTimeoutSeconds: DefaultCallbackTimeout,
		PortMin:                DefaultPortMin,
		PortMax:                DefaultPortMax,
		CaptureHotkey:          DefaultCaptureHotkey,
		RecordIntervalSeconds:  DefaultRecordInterval,
		LogLevel:               DefaultLogLevel,
	}
}

// Save persists the configuration to disk.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		p, err := configPath()
		if err != nil {
			return fmt.Errorf("get config path: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.PortMin <= 0 || c.PortMax > 65536 || c.PortMin >= c.PortMax {
		return fmt.Errorf("invalid port range [%d, %d)", c.PortMin, c.PortMax)
	}
	if c.CallbackTimeoutSeconds <= 0 {
		return fmt.Errorf("callback timeout must be positive")
	}
	if c.RecordIntervalSeconds <= 0 {
		return fmt.Errorf("record interval must be positive")
	}
	if strings.ContainsAny(c.DeepLinkScheme, ":/?# ") {
		return fmt.Errorf("invalid deep link scheme %q", c.DeepLinkScheme)
	}
	return nil
}

// CallbackTimeout returns the listener lifetime.
func (c *Config) CallbackTimeout() time.Duration {
	return time.Duration(c.CallbackTimeoutSeconds) * time.Second
}

// RecordInterval returns the CLI capture interval.
func (c *Config) RecordInterval() time.Duration {
	return time.Duration(c.RecordIntervalSeconds) * time.Second
}

// TokenDir is where the persistent token database lives.
func (c *Config) TokenDir() (string, error) {
	dir := filepath.Dir(c.path)
	if c.path == "" {
		p, err := configPath()
		if err != nil {
			return "", err
		}
		dir = filepath.Dir(p)
	}
	return filepath.Join(dir, tokenDirName), nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.DeepLinkScheme == "" {
		c.DeepLinkScheme = d.DeepLinkScheme
	}
	if c.CallbackTimeoutSeconds == 0 {
		c.CallbackTimeoutSeconds = d.CallbackTimeoutSeconds
	}
	if c.PortMin == 0 && c.PortMax == 0 {
		c.PortMin, c.PortMax = d.PortMin, d.PortMax
	}
	if c.RecordIntervalSeconds == 0 {
		c.RecordIntervalSeconds = d.RecordIntervalSeconds
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(envPrefix + "AUTH_URL"); v != "" {
		c.AuthURL = v
	}
	if v := os.Getenv(envPrefix + "DEEP_LINK_SCHEME"); v != "" {
		c.DeepLinkScheme = v
	}
	if v := os.Getenv(envPrefix + "CAPTURE_HOTKEY"); v != "" {
		c.CaptureHotkey = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	ints := map[string]*int{
		"CALLBACK_TIMEOUT":        &c.CallbackTimeoutSeconds,
		"PORT_MIN":                &c.PortMin,
		"PORT_MAX":                &c.PortMax,
		"RECORD_INTERVAL_SECONDS": &c.RecordIntervalSeconds,
	}
	for name, dst := range ints {
		v := os.Getenv(envPrefix + name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s%s: %w", envPrefix, name, err)
		}
		*dst = n
	}

	if v := os.Getenv(envPrefix + "PERSIST_TOKEN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse %sPERSIST_TOKEN: %w", envPrefix, err)
		}
		c.PersistToken = b
	}
	return nil
}

// loadDotEnv reads .env (or $DRIFT_ENV_FILE) into the process environment
// without overriding variables that are already set.
func loadDotEnv() error {
	file := os.Getenv(envPrefix + "ENV_FILE")
	if file == "" {
		file = ".env"
	}
	if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", file, err)
	}
	return nil
}

func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}
