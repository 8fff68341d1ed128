// Package storage manages the local image cache and the feed manifest.
//
// The storage package handles:
//   - Creating and scanning the image cache directory
//   - Saving media with atomic write operations
//   - Reconciling the cache against the current feed window
//   - Writing the manifest JSON atomically
//
// The Manager type owns the cache directory. It keeps an in-memory set
// of cached shortcodes for fast skip decisions and writes every file
// through a temporary name followed by a rename, so readers never see a
// partially written image or manifest.
//
// Usage:
//
//	manager, err := storage.NewManager("data/ig_images", log)
//	if err != nil {
//	    log.Fatal(err.Error())
//	}
//
//	if !manager.IsCached("shortcode123") {
//	    err = manager.SaveMedia(mediaReader, "shortcode123")
//	}
//
//	// Drop images that fell out of the feed window
//	manager.Reconcile(map[string]bool{"shortcode123": true})
package storage
