package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppName is used for config, cache and keyring locations
const AppName = "threadscli"

// Config holds all configuration options for the Threads client
type Config struct {
	// Threads credentials and cookie sources
	Threads ThreadsConfig `yaml:"threads" json:"threads"`

	// HTTP client settings
	Client ClientConfig `yaml:"client" json:"client"`

	// Pagination limits
	Pagination PaginationConfig `yaml:"pagination" json:"pagination"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry configuration
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Media download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ThreadsConfig holds explicit credentials and browser cookie preferences.
// Explicit values here are merged under command line flags and take precedence
// over environment variables and browser cookies.
type ThreadsConfig struct {
	SessionID      string        `yaml:"session_id" json:"session_id"`
	CSRFToken      string        `yaml:"csrf_token" json:"csrf_token"`
	UserID         string        `yaml:"user_id" json:"user_id"`
	Browsers       []string      `yaml:"browsers" json:"browsers"`
	ChromeProfile  string        `yaml:"chrome_profile" json:"chrome_profile"`
	FirefoxProfile string        `yaml:"firefox_profile" json:"firefox_profile"`
	CookieFile     string        `yaml:"cookie_file" json:"cookie_file"`
	CookieTimeout  time.Duration `yaml:"cookie_timeout" json:"cookie_timeout"`
	UseKeyring     bool          `yaml:"use_keyring" json:"use_keyring"`
}

// ClientConfig holds HTTP client configuration
type ClientConfig struct {
	BaseURL          string        `yaml:"base_url" json:"base_url"`
	UserAgent        string        `yaml:"user_agent" json:"user_agent"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout"`
	DocIDCachePath   string        `yaml:"doc_id_cache_path" json:"doc_id_cache_path"`
	MaxBundles       int           `yaml:"max_bundles" json:"max_bundles"`
	StaticAssetHosts []string      `yaml:"static_asset_hosts" json:"static_asset_hosts"`
}

// PaginationConfig bounds pagination walks
type PaginationConfig struct {
	MaxPages int `yaml:"max_pages" json:"max_pages"`
	PageSize int `yaml:"page_size" json:"page_size"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// RetryConfig holds retry configuration for transient failures
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" json:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" json:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" json:"max_backoff"`
	Multiplier     float64       `yaml:"multiplier" json:"multiplier"`
}

// OutputConfig controls how records are printed
type OutputConfig struct {
	// Format is one of auto, json, text
	Format string `yaml:"format" json:"format"`
	// Raw includes the untransformed upstream payload in JSON output
	Raw bool `yaml:"raw" json:"raw"`
}

// DownloadConfig controls media downloads
type DownloadConfig struct {
	// OutputDir defaults to a directory named after the profile or post
	OutputDir   string `yaml:"output_dir" json:"output_dir"`
	Concurrency int    `yaml:"concurrency" json:"concurrency"`
	// Metadata writes a JSON sidecar next to every file
	Metadata bool `yaml:"metadata" json:"metadata"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultUserAgent is a current desktop Chrome user agent
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Threads: ThreadsConfig{
			Browsers:      []string{"chrome", "safari", "firefox"},
			CookieTimeout: 5 * time.Second,
			UseKeyring:    true,
		},
		Client: ClientConfig{
			BaseURL:          "https://www.threads.com",
			UserAgent:        DefaultUserAgent,
			Timeout:          30 * time.Second,
			MaxBundles:       30,
			StaticAssetHosts: []string{"static.cdninstagram.com"},
		},
		Pagination: PaginationConfig{
			MaxPages: 1,
			PageSize: 20,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Retry: RetryConfig{
			MaxAttempts:    2,
			InitialBackoff: 1 * time.Second,
			MaxBackoff:     10 * time.Second,
			Multiplier:     2.0,
		},
		Output: OutputConfig{
			Format: "auto",
		},
		Download: DownloadConfig{
			Concurrency: 3,
			Metadata:    true,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// LoadFromEnv loads non-credential settings from THREADSCLI_* environment variables.
// Credential variables are consulted by the credential resolver, not here.
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv("THREADSCLI_BASE_URL"); v != "" {
		c.Client.BaseURL = v
	}
	if v := os.Getenv("THREADSCLI_USER_AGENT"); v != "" {
		c.Client.UserAgent = v
	}
	if v := os.Getenv("THREADSCLI_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("THREADSCLI_TIMEOUT: %w", err))
		} else {
			c.Client.Timeout = d
		}
	}
	if v := os.Getenv("THREADSCLI_MAX_PAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("THREADSCLI_MAX_PAGES: %w", err))
		} else {
			c.Pagination.MaxPages = n
		}
	}
	if v := os.Getenv("THREADSCLI_BROWSERS"); v != "" {
		c.Threads.Browsers = splitList(v)
	}
	if v := os.Getenv("THREADSCLI_OUTPUT"); v != "" {
		c.Output.Format = v
	}
	if v := os.Getenv("THREADSCLI_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
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

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home, _ := os.UserHomeDir()
	locations := []string{
		".threadscli.yaml",
		".threadscli.yml",
	}
	if dir, err := ConfigDir(); err == nil {
		locations = append(locations, filepath.Join(dir, "config.yaml"), filepath.Join(dir, "config.yml"))
	}
	if home != "" {
		locations = append(locations, filepath.Join(home, ".threadscli.yaml"))
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// ConfigDir returns the per-user configuration directory without creating it
func ConfigDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", AppName), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", errors.New("APPDATA environment variable not set")
		}
		return filepath.Join(appData, AppName), nil
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, AppName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName), nil
	}
}

// DocIDCachePath returns the configured doc ID cache path or the default location
func (c *Config) DocIDCachePath() (string, error) {
	if c.Client.DocIDCachePath != "" {
		return c.Client.DocIDCachePath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "doc-ids.json"), nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Client.BaseURL == "" {
		errs = append(errs, errors.New("client base URL is required"))
	}
	if c.Client.Timeout < 0 {
		errs = append(errs, errors.New("client timeout cannot be negative"))
	}
	if c.Client.MaxBundles <= 0 {
		errs = append(errs, errors.New("max bundles must be positive"))
	}
	if c.Pagination.MaxPages < 1 {
		errs = append(errs, errors.New("max pages must be at least 1"))
	}
	if c.Pagination.PageSize < 1 {
		errs = append(errs, errors.New("page size must be at least 1"))
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}
	if c.Download.Concurrency < 1 || c.Download.Concurrency > 10 {
		errs = append(errs, errors.New("download concurrency must be between 1 and 10"))
	}

	validBrowsers := map[string]bool{
		"chrome": true, "chromium": true, "edge": true, "brave": true,
		"vivaldi": true, "opera": true, "firefox": true, "safari": true,
	}
	for _, b := range c.Threads.Browsers {
		if !validBrowsers[strings.ToLower(b)] {
			errs = append(errs, fmt.Errorf("unknown browser %q", b))
		}
	}

	validFormats := map[string]bool{"auto": true, "json": true, "text": true}
	if !validFormats[strings.ToLower(c.Output.Format)] {
		errs = append(errs, fmt.Errorf("invalid output format %q", c.Output.Format))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
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
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Flags carries command line overrides. Zero values mean "not set".
type Flags struct {
	SessionID      string
	CSRFToken      string
	UserID         string
	Browsers       []string
	ChromeProfile  string
	FirefoxProfile string
	CookieFile     string
	Timeout        time.Duration
	MaxPages       int
	Format         string
	Raw            bool
	LogLevel       string
}

// MergeFlags merges command line flags into the configuration
func (c *Config) MergeFlags(f Flags) {
	if f.SessionID != "" {
		c.Threads.SessionID = f.SessionID
	}
	if f.CSRFToken != "" {
		c.Threads.CSRFToken = f.CSRFToken
	}
	if f.UserID != "" {
		c.Threads.UserID = f.UserID
	}
	if len(f.Browsers) > 0 {
		c.Threads.Browsers = f.Browsers
	}
	if f.ChromeProfile != "" {
		c.Threads.ChromeProfile = f.ChromeProfile
	}
	if f.FirefoxProfile != "" {
		c.Threads.FirefoxProfile = f.FirefoxProfile
	}
	if f.CookieFile != "" {
		c.Threads.CookieFile = f.CookieFile
	}
	if f.Timeout > 0 {
		c.Client.Timeout = f.Timeout
	}
	if f.MaxPages > 0 {
		c.Pagination.MaxPages = f.MaxPages
	}
	if f.Format != "" {
		c.Output.Format = f.Format
	}
	if f.Raw {
		c.Output.Raw = true
	}
	if f.LogLevel != "" {
		c.Logging.Level = f.LogLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: flags > environment variables > .env file > config file > defaults
func Load(configPath string, flags Flags) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".threadscli.env"))
	}

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}
