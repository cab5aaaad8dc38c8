package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// Environment overrides
const (
	EnvDatabase  = "STORYBOARD_DB"
	EnvAPIURL    = "STORYBOARD_API_URL"
	EnvThemeFile = "STORYBOARD_THEME_FILE"
)

// Config represents the application configuration
type Config struct {
	DatabasePath string       `yaml:"database_path"`
	LogLevel     string       `yaml:"log_level"`
	Server       ServerConfig `yaml:"server"`
	Client       ClientConfig `yaml:"client"`
	Export       ExportConfig `yaml:"export"`
	KeyMappings  KeyMappings  `yaml:"key_mappings"`
	ColorScheme  ColorScheme  `yaml:"theme"`
}

// ServerConfig configures storyboardd
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	RedisURL        string        `yaml:"redis_url"` // empty disables the story cache
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ClientConfig configures the TUI when it talks to a remote server
type ClientConfig struct {
	APIURL         string        `yaml:"api_url"`
	Author         string        `yaml:"author"`
	SearchDebounce time.Duration `yaml:"search_debounce"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ExportConfig configures the Taiga export
type ExportConfig struct {
	MemberEmailDomain string `yaml:"member_email_domain"`
}

// Defaults returns a fully populated default configuration
func Defaults() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// loadThemeFile loads and merges theme from STORYBOARD_THEME_FILE
func loadThemeFile(config *Config) {
	themeFile := os.Getenv(EnvThemeFile)
	if themeFile == "" {
		return
	}

	themeData, err := os.ReadFile(themeFile)
	if err != nil {
		return
	}

	var themeConfig struct {
		Theme ColorScheme `yaml:"theme"`
	}

	if yaml.Unmarshal(themeData, &themeConfig) == nil {
		config.ColorScheme.MergeFrom(themeConfig.Theme)
	}
}

// Load loads config from the user's config directory.
// Returns default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		config := Defaults()
		config.applyEnv()
		return config, nil
	}
	return LoadFrom(configPath)
}

// LoadFrom loads config from path, falling back to defaults when it is missing
func LoadFrom(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	loadThemeFile(&config)
	config.applyEnv()

	// Fill in any missing values with defaults
	config.applyDefaults()

	return &config, nil
}

// Save writes the config to the user's config directory
func (c *Config) Save() error {
	configPath, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(configPath)
}

// SaveTo writes the config atomically to path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return atomic.WriteFile(path, bytes.NewReader(data))
}

// Path returns the path to the config file
func Path() (string, error) {
	// Try XDG_CONFIG_HOME first
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "storyboard", "config.yaml"), nil
	}

	// Fall back to ~/.config
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".config", "storyboard", "config.yaml"), nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDatabase); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.Client.APIURL = v
	}
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:7420"
	}
	if c.Server.CacheTTL <= 0 {
		c.Server.CacheTTL = 30 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}
	if c.Client.SearchDebounce <= 0 {
		c.Client.SearchDebounce = 300 * time.Millisecond
	}
	if c.Client.RequestTimeout <= 0 {
		c.Client.RequestTimeout = 10 * time.Second
	}
	if c.Export.MemberEmailDomain == "" {
		c.Export.MemberEmailDomain = "storyboard.local"
	}
	c.KeyMappings.applyDefaults()
	c.ColorScheme.ApplyDefaults()
}
