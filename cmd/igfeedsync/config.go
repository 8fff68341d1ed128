package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igfeedsync/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igfeedsync configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (IGFEEDSYNC_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as '.igfeedsync.yaml' in the current directory
unless a different path is given with the --config flag.`,
	RunE: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging all sources.

Sensitive values like the session ID are masked.`,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	configPath := configFile
	if configPath == "" {
		configPath = ".igfeedsync.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	exampleConfig := `# igfeedsync configuration file
#
# Environment variables prefixed with IGFEEDSYNC_ override these values,
# for example IGFEEDSYNC_SESSION_ID or IGFEEDSYNC_USERNAME.

# Instagram session settings
instagram:
  # Session ID from the "sessionid" cookie. Leave empty for anonymous
  # access; public profiles work without one but are rate limited harder.
  session_id: ""

  # User agent string (optional, leave empty for default)
  user_agent: ""

# Feed window settings
feed:
  # Public profile to mirror
  username: ""

  # Number of most recent posts to cache
  max_posts: 9

  # Pause between successive media downloads
  pause_between_downloads: 1s

# Retry policy for upstream requests
retry:
  # Maximum attempts per request
  max_attempts: 3

  # Delay between profile lookup attempts; scaled by attempt count
  # when Instagram answers 429
  profile_retry_delay: 5s

  # Delay between media download attempts
  download_retry_delay: 10s

# API request pacing
rate_limit:
  requests_per_minute: 60

# Cache and manifest locations
output:
  # Directory owned exclusively by igfeedsync
  data_directory: "./data"

  # Image cache subdirectory
  images_dir_name: "ig_images"

  # Manifest file name
  manifest_file_name: "instagram.json"

  # Path prefix written into manifest media_url entries
  media_url_base: "./data/ig_images"

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional, stderr only when empty)
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	fmt.Println("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Set feed.username to the profile you want to mirror")
	fmt.Println("2. Optionally store a session with 'igfeedsync auth login'")
	fmt.Println("3. Run 'igfeedsync sync'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	displayCfg := *cfg
	if displayCfg.Instagram.SessionID != "" {
		if len(displayCfg.Instagram.SessionID) > 8 {
			displayCfg.Instagram.SessionID = displayCfg.Instagram.SessionID[:4] + "..." + displayCfg.Instagram.SessionID[len(displayCfg.Instagram.SessionID)-4:]
		} else {
			displayCfg.Instagram.SessionID = "***"
		}
	}

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	fmt.Println("Current configuration:")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (IGFEEDSYNC_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (auto-detected)")
	}
	fmt.Println("4. Default values")
	return nil
}
