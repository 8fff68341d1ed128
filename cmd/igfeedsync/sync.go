package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"igfeedsync/pkg/auth"
	"igfeedsync/pkg/config"
	errs "igfeedsync/pkg/errors"
	"igfeedsync/pkg/feed"
	"igfeedsync/pkg/instagram"
	"igfeedsync/pkg/logger"
)

var (
	// Sync command flags
	syncUsername string
	sessionID    string
	accountName  string
	dataDir      string
	maxPosts     int
	maxRetries   int
	syncEvery    time.Duration
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync [username]",
	Short: "Sync the profile's latest posts into the local cache",
	Long: `Fetch the configured profile's most recent posts, cache their images
locally, and write the feed manifest.

The username can be given as an argument, via the --username flag, the
IGFEEDSYNC_USERNAME environment variable, or the configuration file.

With --every the command keeps running and re-syncs on the given
interval until interrupted.`,
	Example: `  # One-shot sync
  igfeedsync sync someprofile

  # Sync every 30 minutes as a daemon
  igfeedsync sync someprofile --every 30m

  # Use a stored account and a custom data directory
  igfeedsync sync someprofile --account myaccount --data-dir /srv/site/data`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVarP(&syncUsername, "username", "u", "", "profile to sync")
	syncCmd.Flags().StringVar(&sessionID, "session-id", "", "Instagram session ID (overrides stored credentials)")
	syncCmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
	syncCmd.Flags().StringVar(&dataDir, "data-dir", "", "data directory for cache and manifest")
	syncCmd.Flags().IntVar(&maxPosts, "max-posts", 0, "number of recent posts to mirror")
	syncCmd.Flags().IntVar(&maxRetries, "max-retries", 0, "maximum attempts per upstream request")
	syncCmd.Flags().DurationVar(&syncEvery, "every", 0, "re-sync on this interval instead of running once")
}

// Make sync the default command when no subcommand is specified
func init() {
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 && !isKnownCommand(args[0]) {
			// A bare username argument means sync
			return syncCmd.RunE(syncCmd, args)
		}
		return cmd.Help()
	}
	rootCmd.Args = cobra.ArbitraryArgs
}

func isKnownCommand(arg string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == arg || cmd.HasAlias(arg) {
			return true
		}
	}
	return false
}

func runSync(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	flags := make(map[string]interface{})
	if len(args) > 0 {
		flags["username"] = strings.TrimSpace(args[0])
	}
	if syncUsername != "" {
		flags["username"] = strings.TrimSpace(syncUsername)
	}
	if sessionID != "" {
		flags["session-id"] = sessionID
	}
	if dataDir != "" {
		flags["data-dir"] = dataDir
	}
	if maxPosts > 0 {
		flags["max-posts"] = maxPosts
	}
	if maxRetries > 0 {
		flags["max-retries"] = maxRetries
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.Feed.Username == "" {
		return fmt.Errorf("no profile configured: pass a username argument or set feed.username")
	}
	if !instagram.IsValidUsername(cfg.Feed.Username) {
		return fmt.Errorf("invalid username: %q", cfg.Feed.Username)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("igfeedsync starting")

	resolveCredentials(cfg, log)
	verifySession(cfg, log)

	syncer, err := feed.New(cfg)
	if err != nil {
		log.WithError(err).Error("Failed to initialize syncer")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if syncEvery > 0 {
		scheduler, err := feed.NewScheduler(syncer, syncEvery, log)
		if err != nil {
			return err
		}
		return scheduler.Run(ctx)
	}

	result, err := syncer.Run(ctx)
	if err != nil {
		log.WithError(err).WithField("username", cfg.Feed.Username).Error("Sync failed")
		if errs.IsFatal(err) {
			log.Info("Cache and manifest left untouched")
		}
		return err
	}

	fmt.Printf("Synced %d posts (%d downloaded, %d cached, %d failed, %d removed)\n",
		result.Posts, result.Downloaded, result.Skipped, result.Failed, result.Removed)
	return nil
}

// resolveCredentials fills cfg.Instagram.SessionID from the credential
// store chain when neither a flag nor the environment provided one.
// Missing credentials are not an error; the sync runs anonymously.
func resolveCredentials(cfg *config.Config, log logger.Logger) {
	if cfg.Instagram.SessionID != "" {
		return
	}

	credManager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Warn("Credential manager unavailable, running anonymously")
		return
	}

	var account *auth.Account
	if accountName != "" {
		account, err = credManager.Retrieve(accountName)
		if err != nil {
			log.WithField("account", accountName).Warn("Stored account not found, running anonymously")
			return
		}
	} else {
		account, err = credManager.RetrieveDefault()
		if err != nil {
			log.Warn("No stored credentials, running anonymously")
			return
		}
	}

	cfg.Instagram.SessionID = account.SessionID
	if account.UserAgent != "" {
		cfg.Instagram.UserAgent = account.UserAgent
	}
	log.WithField("account", account.Username).Info("Using stored credentials")
}

// verifySession probes the session cookie. An expired session degrades
// to anonymous mode with a warning rather than failing the sync, since
// public profiles remain reachable without one.
func verifySession(cfg *config.Config, log logger.Logger) {
	if cfg.Instagram.SessionID == "" {
		log.Warn("Running anonymously, requests may be rate limited aggressively")
		return
	}

	client := instagram.NewClient(30*time.Second, log)
	if cfg.Instagram.BaseURL != "" {
		client.SetBaseURL(cfg.Instagram.BaseURL)
	}
	client.SetSessionCookie(cfg.Instagram.SessionID)
	if cfg.Instagram.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.Instagram.UserAgent)
	}

	if err := client.VerifySession(); err != nil {
		log.WithError(err).Warn("Session verification failed, falling back to anonymous mode")
		cfg.Instagram.SessionID = ""
	}
}
