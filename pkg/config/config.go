package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable the loader reads
const EnvPrefix = "GFMAPDL_"

// Config holds all configuration options for the map downloader
type Config struct {
	// Remote site settings
	GameFAQs GameFAQsConfig `yaml:"gamefaqs" json:"gamefaqs"`

	// Cooldown after a number of requests
	Throttle ThrottleConfig `yaml:"throttle" json:"throttle"`

	// Download behaviour
	Download DownloadConfig `yaml:"download" json:"download"`

	// Retry of transient transport failures
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Terminal output
	UI UIConfig `yaml:"ui" json:"ui"`
}

// GameFAQsConfig holds settings for talking to the profile site
type GameFAQsConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	AcceptLanguage string        `yaml:"accept_language" json:"accept_language"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
}

// ThrottleConfig controls the pause inserted after every RequestThreshold requests
type ThrottleConfig struct {
	RequestThreshold int           `yaml:"request_threshold" json:"request_threshold"`
	Wait             time.Duration `yaml:"wait" json:"wait"`
	Slice            time.Duration `yaml:"slice" json:"slice"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Overwrite         bool    `yaml:"overwrite" json:"overwrite"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
}

// RetryConfig holds retry settings for transport calls. MaxAttempts of 1 disables retries.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" json:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" json:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" json:"max_backoff"`
	Multiplier     float64       `yaml:"multiplier" json:"multiplier"`
}

// OutputConfig holds output directory configuration.
// Directory overrides the computed <BaseDirectory>/<profile name> path when set.
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	Directory     string `yaml:"directory" json:"directory"`
}

// LoggingConfig holds logging configuration. An empty Level disables logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// UIConfig holds terminal output preferences
type UIConfig struct {
	ProgressEnabled bool `yaml:"progress_enabled" json:"progress_enabled"`
	ColorEnabled    bool `yaml:"color_enabled" json:"color_enabled"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		GameFAQs: GameFAQsConfig{
			BaseURL:        "https://gamefaqs.gamespot.com",
			UserAgent:      "", // random browser identity per run
			AcceptLanguage: "en-US,en;q=0.9",
			Timeout:        60 * time.Second,
		},
		Throttle: ThrottleConfig{
			RequestThreshold: 150,
			Wait:             30 * time.Second,
			Slice:            time.Second,
		},
		Download: DownloadConfig{
			Overwrite:         false,
			RequestsPerSecond: 0, // unlimited
		},
		Retry: RetryConfig{
			MaxAttempts:    1,
			InitialBackoff: 2 * time.Second,
			MaxBackoff:     30 * time.Second,
			Multiplier:     2.0,
		},
		Output: OutputConfig{
			BaseDirectory: "maps",
		},
		Logging: LoggingConfig{
			Level: "",
		},
		UI: UIConfig{
			ProgressEnabled: true,
			ColorEnabled:    true,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv(EnvPrefix + "BASE_URL"); v != "" {
		c.GameFAQs.BaseURL = v
	}
	if v := os.Getenv(EnvPrefix + "USER_AGENT"); v != "" {
		c.GameFAQs.UserAgent = v
	}
	if v := os.Getenv(EnvPrefix + "SAVE_DIR"); v != "" {
		c.Output.Directory = v
	}
	if v := os.Getenv(EnvPrefix + "BASE_DIR"); v != "" {
		c.Output.BaseDirectory = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	if v := os.Getenv(EnvPrefix + "DLCOUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sDLCOUNT: %w", EnvPrefix, err))
		} else {
			c.Throttle.RequestThreshold = n
		}
	}
	if v := os.Getenv(EnvPrefix + "WAIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sWAIT: %w", EnvPrefix, err))
		} else {
			c.Throttle.Wait = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv(EnvPrefix + "OVERWRITE"); v != "" {
		c.Download.Overwrite = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv(EnvPrefix + "REQUESTS_PER_SECOND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sREQUESTS_PER_SECOND: %w", EnvPrefix, err))
		} else {
			c.Download.RequestsPerSecond = f
		}
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".gfmapdl.yaml",
		".gfmapdl.yml",
		filepath.Join(home, ".config", "gfmapdl", "config.yaml"),
		filepath.Join(home, ".gfmapdl.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.GameFAQs.BaseURL == "" {
		errs = append(errs, errors.New("base URL is required"))
	}
	if c.GameFAQs.Timeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Throttle.RequestThreshold < 0 {
		errs = append(errs, errors.New("request threshold cannot be negative"))
	}
	if c.Throttle.Wait < 0 {
		errs = append(errs, errors.New("wait duration cannot be negative"))
	}
	if c.Throttle.Slice <= 0 {
		errs = append(errs, errors.New("wait slice must be positive"))
	}
	if c.Download.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("requests per second cannot be negative"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}
	if c.Output.BaseDirectory == "" && c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true, "critical": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if path, ok := flags["path"].(string); ok && path != "" {
		c.Output.Directory = path
	}
	if wait, ok := flags["wait"].(int); ok && wait >= 0 {
		c.Throttle.Wait = time.Duration(wait) * time.Second
	}
	if count, ok := flags["dlcount"].(int); ok && count >= 0 {
		c.Throttle.RequestThreshold = count
	}
	if overwrite, ok := flags["overwrite"].(bool); ok {
		c.Download.Overwrite = overwrite
	}
	if level, ok := flags["log-level"].(string); ok {
		c.Logging.Level = level
	}
	if timeout, ok := flags["timeout"].(int); ok && timeout > 0 {
		c.GameFAQs.Timeout = time.Duration(timeout) * time.Second
	}
	if progress, ok := flags["progress"].(bool); ok {
		c.UI.ProgressEnabled = progress
	}
	if color, ok := flags["color"].(bool); ok {
		c.UI.ColorEnabled = color
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".gfmapdl.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
