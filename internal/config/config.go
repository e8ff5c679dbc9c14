package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Media    MediaConfig    `toml:"media"`
	Logging  LoggingConfig  `toml:"logging"`
	Security SecurityConfig `toml:"security"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port        string `toml:"port"`
	Host        string `toml:"host"`
	EnableCORS  bool   `toml:"enable_cors"`
	ReadTimeout int    `toml:"read_timeout_seconds"`
}

// DatabaseConfig contains database-related configuration
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// MediaConfig contains video library configuration
type MediaConfig struct {
	VideosDir        string   `toml:"videos_dir"`
	InboxDir         string   `toml:"inbox_dir"`
	SupportedFormats []string `toml:"supported_formats"`
	ThumbnailOffset  int      `toml:"thumbnail_offset_ms"`
	WatchInbox       bool     `toml:"watch_inbox"`
	FFprobePath      string   `toml:"ffprobe_path"`
	FFmpegPath       string   `toml:"ffmpeg_path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// SecurityConfig contains passcode lock configuration. The pepper itself
// is never stored in the config file, only the name of the environment
// variable that holds it.
type SecurityConfig struct {
	PepperEnv      string `toml:"pepper_env"`
	LockIntervalMS int    `toml:"lock_interval_ms"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8090",
			Host:        "127.0.0.1",
			EnableCORS:  true,
			ReadTimeout: 30,
		},
		Database: DatabaseConfig{
			Path: "./reelvault.db",
		},
		Media: MediaConfig{
			VideosDir:        "./videos",
			InboxDir:         "./inbox",
			SupportedFormats: []string{".mp4", ".mov", ".mkv", ".webm", ".m4v", ".avi"},
			ThumbnailOffset:  1000,
			WatchInbox:       true,
			FFprobePath:      "ffprobe",
			FFmpegPath:       "ffmpeg",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
		Security: SecurityConfig{
			PepperEnv:      "REELVAULT_PEPPER",
			LockIntervalMS: 30000,
		},
	}
}

// LoadConfig loads configuration from a TOML file, creating it with
// defaults when it does not exist yet.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := cfg.SaveToFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
		fmt.Printf("Created default configuration file at: %s\n", configPath)
		return cfg, nil
	}

	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves the configuration to a TOML file
func (c *Config) SaveToFile(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	header := `# Reelvault Configuration
# This file contains all configuration options for the reelvault video vault.
# Edit the values below to customize your setup.

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if c.Media.VideosDir == "" {
		return fmt.Errorf("videos directory cannot be empty")
	}
	if len(c.Media.SupportedFormats) == 0 {
		return fmt.Errorf("at least one supported video format must be specified")
	}
	if c.Media.ThumbnailOffset < 0 {
		return fmt.Errorf("thumbnail offset must not be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	if c.Security.LockIntervalMS < 0 {
		return fmt.Errorf("lock interval must not be negative")
	}

	return nil
}

// GetAddress returns the full server address
func (c *Config) GetAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

// IsFormatSupported checks if a video file extension is supported
func (c *Config) IsFormatSupported(ext string) bool {
	ext = strings.ToLower(ext)
	for _, supported := range c.Media.SupportedFormats {
		if supported == ext {
			return true
		}
	}
	return false
}

// Pepper reads the passcode pepper from the configured environment
// variable. An empty pepper is allowed.
func (c *Config) Pepper() string {
	if c.Security.PepperEnv == "" {
		return ""
	}
	return os.Getenv(c.Security.PepperEnv)
}
