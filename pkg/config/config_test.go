package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Throttle.RequestThreshold != 150 {
		t.Errorf("Expected default request threshold to be 150, got %d", config.Throttle.RequestThreshold)
	}

	if config.Throttle.Wait != 30*time.Second {
		t.Errorf("Expected default wait to be 30s, got %v", config.Throttle.Wait)
	}

	if config.Download.Overwrite {
		t.Error("Expected overwrite to be disabled by default")
	}

	if config.Output.BaseDirectory != "maps" {
		t.Errorf("Expected default base directory to be maps, got %s", config.Output.BaseDirectory)
	}

	if config.Logging.Level != "" {
		t.Errorf("Expected logging to be disabled by default, got level %q", config.Logging.Level)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GFMAPDL_DLCOUNT", "20")
	t.Setenv("GFMAPDL_WAIT", "5")
	t.Setenv("GFMAPDL_OVERWRITE", "true")
	t.Setenv("GFMAPDL_SAVE_DIR", "/tmp/maps")
	t.Setenv("GFMAPDL_LOG_LEVEL", "debug")
	t.Setenv("GFMAPDL_REQUESTS_PER_SECOND", "2.5")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Throttle.RequestThreshold != 20 {
		t.Errorf("Expected request threshold 20, got %d", config.Throttle.RequestThreshold)
	}
	if config.Throttle.Wait != 5*time.Second {
		t.Errorf("Expected wait 5s, got %v", config.Throttle.Wait)
	}
	if !config.Download.Overwrite {
		t.Error("Expected overwrite to be enabled")
	}
	if config.Output.Directory != "/tmp/maps" {
		t.Errorf("Expected save dir /tmp/maps, got %s", config.Output.Directory)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", config.Logging.Level)
	}
	if config.Download.RequestsPerSecond != 2.5 {
		t.Errorf("Expected 2.5 requests per second, got %v", config.Download.RequestsPerSecond)
	}
}

func TestLoadFromEnvInvalidNumber(t *testing.T) {
	t.Setenv("GFMAPDL_DLCOUNT", "many")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err == nil {
		t.Error("Expected error for non-numeric GFMAPDL_DLCOUNT")
	}
}

func TestLoadFromFile(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "config.yaml")

	content := `
throttle:
  request_threshold: 10
  wait: 45s
download:
  overwrite: true
output:
  base_directory: /srv/maps
logging:
  level: info
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to load config file: %v", err)
	}

	if config.Throttle.RequestThreshold != 10 {
		t.Errorf("Expected request threshold 10, got %d", config.Throttle.RequestThreshold)
	}
	if config.Throttle.Wait != 45*time.Second {
		t.Errorf("Expected wait 45s, got %v", config.Throttle.Wait)
	}
	if !config.Download.Overwrite {
		t.Error("Expected overwrite from file")
	}
	if config.Output.BaseDirectory != "/srv/maps" {
		t.Errorf("Expected base directory /srv/maps, got %s", config.Output.BaseDirectory)
	}
	// Untouched keys keep their defaults
	if config.Throttle.Slice != time.Second {
		t.Errorf("Expected default slice of 1s, got %v", config.Throttle.Slice)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	config := DefaultConfig()
	if err := config.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for explicit missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero threshold disables throttle", func(c *Config) { c.Throttle.RequestThreshold = 0 }, false},
		{"negative threshold", func(c *Config) { c.Throttle.RequestThreshold = -1 }, true},
		{"negative wait", func(c *Config) { c.Throttle.Wait = -time.Second }, true},
		{"zero slice", func(c *Config) { c.Throttle.Slice = 0 }, true},
		{"zero timeout", func(c *Config) { c.GameFAQs.Timeout = 0 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"no retry attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, true},
		{"no output", func(c *Config) { c.Output.BaseDirectory = "" }, true},
		{"explicit output only", func(c *Config) {
			c.Output.BaseDirectory = ""
			c.Output.Directory = "here"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"path":      "out",
		"wait":      3,
		"dlcount":   7,
		"overwrite": true,
		"log-level": "warn",
		"timeout":   15,
	})

	if config.Output.Directory != "out" {
		t.Errorf("Expected directory out, got %s", config.Output.Directory)
	}
	if config.Throttle.Wait != 3*time.Second {
		t.Errorf("Expected wait 3s, got %v", config.Throttle.Wait)
	}
	if config.Throttle.RequestThreshold != 7 {
		t.Errorf("Expected threshold 7, got %d", config.Throttle.RequestThreshold)
	}
	if !config.Download.Overwrite {
		t.Error("Expected overwrite to be set")
	}
	if config.Logging.Level != "warn" {
		t.Errorf("Expected log level warn, got %s", config.Logging.Level)
	}
	if config.GameFAQs.Timeout != 15*time.Second {
		t.Errorf("Expected timeout 15s, got %v", config.GameFAQs.Timeout)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gfmapdl.yaml")

	config := DefaultConfig()
	config.Throttle.RequestThreshold = 99
	if err := config.Save(path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded := DefaultConfig()
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}
	if loaded.Throttle.RequestThreshold != 99 {
		t.Errorf("Expected reloaded threshold 99, got %d", loaded.Throttle.RequestThreshold)
	}
}
