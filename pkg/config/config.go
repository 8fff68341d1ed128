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

// Config holds all configuration options for the feed sync pipeline
type Config struct {
	// Instagram session settings
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// Feed window settings
	Feed FeedConfig `yaml:"feed" json:"feed"`

	// Retry policy
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// API request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Cache and manifest locations
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// InstagramConfig holds Instagram-specific configuration
type InstagramConfig struct {
	// SessionID is the value of a logged-in session's "sessionid" cookie.
	// Empty means anonymous mode.
	SessionID string `yaml:"session_id" json:"session_id"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	// BaseURL overrides the API host, used in tests.
	BaseURL string `yaml:"base_url" json:"base_url"`
}

// FeedConfig holds the sync window settings
type FeedConfig struct {
	// Username is the public profile to sync
	Username string `yaml:"username" json:"username"`
	// MaxPosts is the size of the most-recent window to cache
	MaxPosts int `yaml:"max_posts" json:"max_posts"`
	// PauseBetweenDownloads is the politeness pause between successive
	// media downloads; not required for correctness
	PauseBetweenDownloads time.Duration `yaml:"pause_between_downloads" json:"pause_between_downloads"`
}

// RetryConfig holds the bounded retry policy for upstream requests
type RetryConfig struct {
	// MaxAttempts applies to profile, feed, and media requests alike
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`
	// ProfileRetryDelay is the fixed delay between profile/feed lookup
	// attempts; scaled by attempt count on rate-limit responses
	ProfileRetryDelay time.Duration `yaml:"profile_retry_delay" json:"profile_retry_delay"`
	// DownloadRetryDelay is the fixed delay between media download attempts
	DownloadRetryDelay time.Duration `yaml:"download_retry_delay" json:"download_retry_delay"`
}

// RateLimitConfig holds API request pacing configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// OutputConfig holds cache directory and manifest configuration
type OutputConfig struct {
	// DataDirectory is the root owned exclusively by the pipeline
	DataDirectory string `yaml:"data_directory" json:"data_directory"`
	// ImagesDirName is the media cache subdirectory under DataDirectory
	ImagesDirName string `yaml:"images_dir_name" json:"images_dir_name"`
	// ManifestFileName is the JSON manifest file under DataDirectory
	ManifestFileName string `yaml:"manifest_file_name" json:"manifest_file_name"`
	// MediaURLBase is the path prefix written into manifest media_url
	// entries, as the front-end resolves them
	MediaURLBase string `yaml:"media_url_base" json:"media_url_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// ImagesDir returns the absolute-or-relative path of the media cache directory
func (o *OutputConfig) ImagesDir() string {
	return filepath.Join(o.DataDirectory, o.ImagesDirName)
}

// ManifestPath returns the path of the JSON manifest file
func (o *OutputConfig) ManifestPath() string {
	return filepath.Join(o.DataDirectory, o.ManifestFileName)
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		},
		Feed: FeedConfig{
			MaxPosts:              9,
			PauseBetweenDownloads: time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:        3,
			ProfileRetryDelay:  5 * time.Second,
			DownloadRetryDelay: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Output: OutputConfig{
			DataDirectory:    "./data",
			ImagesDirName:    "ig_images",
			ManifestFileName: "instagram.json",
			MediaURLBase:     "./data/ig_images",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if sessionID := os.Getenv("IGFEEDSYNC_SESSION_ID"); sessionID != "" {
		c.Instagram.SessionID = sessionID
	} else if sessionID := os.Getenv("INSTAGRAM_SESSION_ID"); sessionID != "" {
		// Variable name used by earlier deployments of this tool
		c.Instagram.SessionID = sessionID
	}
	if userAgent := os.Getenv("IGFEEDSYNC_USER_AGENT"); userAgent != "" {
		c.Instagram.UserAgent = userAgent
	}
	if username := os.Getenv("IGFEEDSYNC_USERNAME"); username != "" {
		c.Feed.Username = username
	}
	if maxPosts := os.Getenv("IGFEEDSYNC_MAX_POSTS"); maxPosts != "" {
		if val, err := strconv.Atoi(maxPosts); err == nil && val > 0 {
			c.Feed.MaxPosts = val
		}
	}
	if rpm := os.Getenv("IGFEEDSYNC_REQUESTS_PER_MINUTE"); rpm != "" {
		if val, err := strconv.Atoi(rpm); err == nil && val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if dataDir := os.Getenv("IGFEEDSYNC_DATA_DIR"); dataDir != "" {
		c.Output.DataDirectory = dataDir
	}
	if logLevel := os.Getenv("IGFEEDSYNC_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
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
	locations := []string{
		".igfeedsync.yaml",
		".igfeedsync.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "igfeedsync", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "igfeedsync", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".igfeedsync.yaml"),
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

	if c.Feed.MaxPosts <= 0 {
		errs = append(errs, errors.New("max posts must be positive"))
	}
	if c.Feed.PauseBetweenDownloads < 0 {
		errs = append(errs, errors.New("pause between downloads cannot be negative"))
	}

	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("max retry attempts must be positive"))
	}
	if c.Retry.ProfileRetryDelay < 0 {
		errs = append(errs, errors.New("profile retry delay cannot be negative"))
	}
	if c.Retry.DownloadRetryDelay < 0 {
		errs = append(errs, errors.New("download retry delay cannot be negative"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	if c.Output.DataDirectory == "" {
		errs = append(errs, errors.New("data directory is required"))
	}
	if c.Output.ImagesDirName == "" {
		errs = append(errs, errors.New("images directory name is required"))
	}
	if c.Output.ManifestFileName == "" {
		errs = append(errs, errors.New("manifest file name is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
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

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if username, ok := flags["username"].(string); ok && username != "" {
		c.Feed.Username = username
	}
	if sessionID, ok := flags["session-id"].(string); ok && sessionID != "" {
		c.Instagram.SessionID = sessionID
	}
	if dataDir, ok := flags["data-dir"].(string); ok && dataDir != "" {
		c.Output.DataDirectory = dataDir
	}
	if maxPosts, ok := flags["max-posts"].(int); ok && maxPosts > 0 {
		c.Feed.MaxPosts = maxPosts
	}
	if maxAttempts, ok := flags["max-retries"].(int); ok && maxAttempts > 0 {
		c.Retry.MaxAttempts = maxAttempts
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igfeedsync.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
