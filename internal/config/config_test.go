package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig does not validate: %v", err)
	}
	if cfg.GetAddress() != "127.0.0.1:8090" {
		t.Errorf("GetAddress = %q", cfg.GetAddress())
	}
}

func TestLoadConfigCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Port != "8090" {
		t.Errorf("Port = %q, want default", cfg.Server.Port)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config file was not written: %v", err)
	}

	// Loading again parses the written file.
	again, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig(existing) failed: %v", err)
	}
	if again.Media.ThumbnailOffset != cfg.Media.ThumbnailOffset {
		t.Errorf("round trip changed thumbnail offset: %d vs %d",
			again.Media.ThumbnailOffset, cfg.Media.ThumbnailOffset)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"EmptyPort", func(c *Config) { c.Server.Port = "" }},
		{"EmptyHost", func(c *Config) { c.Server.Host = "" }},
		{"EmptyDatabasePath", func(c *Config) { c.Database.Path = "" }},
		{"EmptyVideosDir", func(c *Config) { c.Media.VideosDir = "" }},
		{"NoFormats", func(c *Config) { c.Media.SupportedFormats = nil }},
		{"NegativeThumbnailOffset", func(c *Config) { c.Media.ThumbnailOffset = -1 }},
		{"BadLogLevel", func(c *Config) { c.Logging.Level = "verbose" }},
		{"BadLogFormat", func(c *Config) { c.Logging.Format = "xml" }},
		{"NegativeLockInterval", func(c *Config) { c.Security.LockIntervalMS = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted an invalid config")
			}
		})
	}
}

func TestIsFormatSupported(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		ext  string
		want bool
	}{
		{".mp4", true},
		{".MP4", true},
		{".mov", true},
		{".mp3", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := cfg.IsFormatSupported(tc.ext); got != tc.want {
			t.Errorf("IsFormatSupported(%q) = %v, want %v", tc.ext, got, tc.want)
		}
	}
}

func TestPepper(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Security.PepperEnv = "REELVAULT_TEST_PEPPER"

	t.Setenv("REELVAULT_TEST_PEPPER", "secret")
	if got := cfg.Pepper(); got != "secret" {
		t.Errorf("Pepper = %q, want %q", got, "secret")
	}

	cfg.Security.PepperEnv = ""
	if got := cfg.Pepper(); got != "" {
		t.Errorf("Pepper with no env configured = %q, want empty", got)
	}
}
