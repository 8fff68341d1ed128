// Package feed implements the profile sync pipeline.
//
// A sync run resolves the configured profile, extracts the most-recent
// post window, downloads each post's image into the local cache unless
// it is already there, reconciles the cache against the window, and
// publishes the manifest JSON consumed by the site front-end.
//
// The pipeline fails closed: profile resolution failure, an empty post
// window, an unusable cache directory, or a run in which not a single
// post's media could be cached all abort without touching the cache or
// the previously published manifest. Individual download failures are
// logged and skipped so one bad post cannot block the other eight.
//
// The Scheduler type wraps a Syncer for daemon use, re-running the
// pipeline on a fixed interval.
package feed
