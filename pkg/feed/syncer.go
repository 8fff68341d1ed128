package feed

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"igfeedsync/pkg/config"
	errs "igfeedsync/pkg/errors"
	"igfeedsync/pkg/instagram"
	"igfeedsync/pkg/logger"
	"igfeedsync/pkg/ratelimit"
	"igfeedsync/pkg/retry"
	"igfeedsync/pkg/storage"
)

// Record is one post bound for the manifest: the feed's canonical
// shortcode plus where its image lives upstream and locally.
type Record struct {
	Shortcode string
	MediaURL  string
	Permalink string
}

// Client defines the Instagram API operations the syncer needs
type Client interface {
	FetchProfile(username string) (*instagram.ProfileResponse, error)
	FetchFeed(userID string, count int) (*instagram.FeedResponse, error)
	DownloadMedia(mediaURL string) ([]byte, error)
}

// Result summarizes a completed sync run
type Result struct {
	Posts      int
	Downloaded int
	Skipped    int
	Failed     int
	Removed    int
}

// Syncer runs the fetch-cache-publish pipeline for one profile.
type Syncer struct {
	client      Client
	store       *storage.Manager
	rateLimiter ratelimit.Limiter
	config      *config.Config
	logger      logger.Logger
}

// New creates a Syncer from configuration. The storage manager is
// created eagerly so an unusable cache directory fails the run before
// any network traffic.
func New(cfg *config.Config) (*Syncer, error) {
	log := logger.GetLogger()

	client := instagram.NewClient(30*time.Second, log)
	if cfg.Instagram.BaseURL != "" {
		client.SetBaseURL(cfg.Instagram.BaseURL)
	}
	if cfg.Instagram.SessionID != "" {
		client.SetSessionCookie(cfg.Instagram.SessionID)
	}
	if cfg.Instagram.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.Instagram.UserAgent)
	}

	store, err := storage.NewManager(cfg.Output.ImagesDir(), log)
	if err != nil {
		return nil, err
	}

	var rateLimiter ratelimit.Limiter
	if cfg.RateLimit.RequestsPerMinute > 0 {
		rateLimiter = ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)
	} else {
		rateLimiter = ratelimit.Unlimited{}
	}

	return &Syncer{
		client:      client,
		store:       store,
		rateLimiter: rateLimiter,
		config:      cfg,
		logger:      log,
	}, nil
}

// NewWithDependencies creates a Syncer with explicit collaborators,
// used by tests.
func NewWithDependencies(client Client, store *storage.Manager, limiter ratelimit.Limiter, cfg *config.Config, log logger.Logger) *Syncer {
	return &Syncer{
		client:      client,
		store:       store,
		rateLimiter: limiter,
		config:      cfg,
		logger:      log,
	}
}

// Run executes one full sync of the configured profile. A fatal error
// leaves the cache directory and the manifest exactly as they were; a
// nil return means the manifest on disk reflects the posts whose media
// is cached.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	username := s.config.Feed.Username

	s.logger.InfoWithFields("Starting feed sync", map[string]interface{}{
		"username":  username,
		"max_posts": s.config.Feed.MaxPosts,
	})

	records, err := s.fetchWindow(ctx, username)
	if err != nil {
		return nil, err
	}

	result, err := s.fetchMedia(ctx, records)
	if err != nil {
		return nil, err
	}

	// Only posts whose image actually landed on disk survive into the
	// manifest and the keep set
	var entries []storage.ManifestEntry
	keep := make(map[string]bool, len(records))
	for _, record := range records {
		if !s.store.IsCached(record.Shortcode) {
			continue
		}
		keep[record.Shortcode] = true
		entries = append(entries, storage.ManifestEntry{
			Permalink: record.Permalink,
			MediaURL:  s.config.Output.MediaURLBase + "/" + record.Shortcode + ".jpg",
		})
	}

	if len(entries) == 0 {
		return nil, &errs.EmptyResultError{Username: username, Attempted: len(records)}
	}

	result.Removed = s.store.Reconcile(keep)

	manifestPath := s.config.Output.ManifestPath()
	if err := storage.WriteManifest(manifestPath, entries); err != nil {
		return nil, &errs.StorageError{Path: manifestPath, Err: err}
	}

	s.logger.InfoWithFields("Feed sync complete", map[string]interface{}{
		"username":   username,
		"posts":      result.Posts,
		"downloaded": result.Downloaded,
		"skipped":    result.Skipped,
		"failed":     result.Failed,
		"removed":    result.Removed,
	})

	return result, nil
}

// fetchWindow resolves the profile and extracts the most-recent post
// window, falling back to the dedicated feed endpoint when the profile
// response embeds fewer posts than requested.
func (s *Syncer) fetchWindow(ctx context.Context, username string) ([]Record, error) {
	retrier := retry.NewHTTPRetrier(s.config.Retry.MaxAttempts, s.config.Retry.ProfileRetryDelay, s.logger)

	var profile *instagram.ProfileResponse
	err := retrier.Do(ctx, func() error {
		s.rateLimiter.Wait()
		var fetchErr error
		profile, fetchErr = s.client.FetchProfile(username)
		return fetchErr
	})
	if err != nil {
		return nil, &errs.ProfileResolutionError{Username: username, Err: err}
	}
	if profile.Data.User.ID == "" {
		return nil, &errs.ProfileResolutionError{Username: username, Err: fmt.Errorf("profile response has no user")}
	}

	records := s.extractFromProfile(profile)

	if len(records) < s.config.Feed.MaxPosts {
		if fallback := s.fetchFromFeed(ctx, retrier, profile.Data.User.ID); len(fallback) > 0 {
			s.logger.InfoWithFields("Using feed endpoint fallback", map[string]interface{}{
				"username":       username,
				"embedded_posts": len(records),
				"feed_posts":     len(fallback),
			})
			records = fallback
		}
	}

	if len(records) == 0 {
		return nil, &errs.NoPostsError{Username: username}
	}

	if len(records) > s.config.Feed.MaxPosts {
		records = records[:s.config.Feed.MaxPosts]
	}

	return records, nil
}

// extractFromProfile builds records from the posts embedded in the
// profile response. Entries missing a usable shortcode or image URL are
// dropped; duplicate shortcodes keep the last occurrence.
func (s *Syncer) extractFromProfile(profile *instagram.ProfileResponse) []Record {
	edges := profile.Data.User.EdgeOwnerToTimelineMedia.Edges

	byShortcode := make(map[string]int)
	var records []Record
	for _, edge := range edges {
		node := edge.Node
		if !instagram.IsValidShortcode(node.Shortcode) || node.DisplayURL == "" {
			s.logger.DebugWithFields("Dropping malformed post entry", map[string]interface{}{
				"shortcode": node.Shortcode,
			})
			continue
		}

		record := Record{
			Shortcode: node.Shortcode,
			MediaURL:  node.DisplayURL,
			Permalink: instagram.PostPermalink(node.Shortcode),
		}

		if idx, seen := byShortcode[node.Shortcode]; seen {
			records[idx] = record
			continue
		}
		byShortcode[node.Shortcode] = len(records)
		records = append(records, record)
	}

	return records
}

// fetchFromFeed queries the dedicated feed endpoint. Any failure here
// is non-fatal; the embedded profile posts remain usable.
func (s *Syncer) fetchFromFeed(ctx context.Context, retrier *retry.HTTPRetrier, userID string) []Record {
	var feedResp *instagram.FeedResponse
	err := retrier.Do(ctx, func() error {
		s.rateLimiter.Wait()
		var fetchErr error
		feedResp, fetchErr = s.client.FetchFeed(userID, s.config.Feed.MaxPosts)
		return fetchErr
	})
	if err != nil {
		s.logger.WarnWithFields("Feed endpoint fallback failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil
	}

	byShortcode := make(map[string]int)
	var records []Record
	for i := range feedResp.Items {
		item := &feedResp.Items[i]
		imageURL := item.BestImageURL()
		if !instagram.IsValidShortcode(item.Code) || imageURL == "" {
			continue
		}

		record := Record{
			Shortcode: item.Code,
			MediaURL:  imageURL,
			Permalink: instagram.PostPermalink(item.Code),
		}

		if idx, seen := byShortcode[item.Code]; seen {
			records[idx] = record
			continue
		}
		byShortcode[item.Code] = len(records)
		records = append(records, record)
	}

	return records
}

// fetchMedia downloads each record's image unless it is already
// cached. A post whose download exhausts its retries is logged and
// skipped; the run keeps going with the rest of the window.
func (s *Syncer) fetchMedia(ctx context.Context, records []Record) (*Result, error) {
	result := &Result{Posts: len(records)}
	retrier := retry.NewHTTPRetrier(s.config.Retry.MaxAttempts, s.config.Retry.DownloadRetryDelay, s.logger)

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sync cancelled: %w", err)
		}

		if s.store.IsCached(record.Shortcode) {
			result.Skipped++
			s.logger.DebugWithFields("Media already cached", map[string]interface{}{
				"shortcode": record.Shortcode,
			})
			continue
		}

		err := retrier.Do(ctx, func() error {
			s.rateLimiter.Wait()
			data, downloadErr := s.client.DownloadMedia(record.MediaURL)
			if downloadErr != nil {
				return downloadErr
			}
			return s.store.SaveMedia(bytes.NewReader(data), record.Shortcode)
		})
		if err != nil {
			result.Failed++
			s.logger.WarnWithFields("Skipping post after failed download", map[string]interface{}{
				"shortcode": record.Shortcode,
				"error":     err.Error(),
			})
			continue
		}

		result.Downloaded++
		s.logger.InfoWithFields("Cached media", map[string]interface{}{
			"shortcode": record.Shortcode,
		})

		// Politeness pause between successive downloads
		if i < len(records)-1 && s.config.Feed.PauseBetweenDownloads > 0 {
			if err := retry.Wait(ctx, s.config.Feed.PauseBetweenDownloads); err != nil {
				return nil, fmt.Errorf("sync cancelled: %w", err)
			}
		}
	}

	return result, nil
}
