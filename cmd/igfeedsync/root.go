package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "igfeedsync",
	Short: "Mirror an Instagram profile's latest posts for a static site",
	Long: `igfeedsync keeps a local mirror of a public Instagram profile's most
recent posts. Each run fetches the current post window, caches the
images under the data directory, and publishes a JSON manifest the
site front-end renders from.

Runs are fail-closed: if the profile cannot be resolved or no media
can be cached, the existing cache and manifest are left untouched so
the site keeps serving the last good feed.

Credentials are optional. Anonymous requests work for public profiles
but are rate limited more aggressively; use 'igfeedsync auth login'
to store a session cookie.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .igfeedsync.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`igfeedsync {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
