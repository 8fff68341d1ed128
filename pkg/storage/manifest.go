package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestEntry is one post in the published feed manifest.
type ManifestEntry struct {
	Permalink string `json:"permalink"`
	MediaURL  string `json:"media_url"`
}

// WriteManifest writes the feed manifest as pretty-printed JSON. The
// content goes to a temporary file in the same directory and is renamed
// into place, so a crash mid-write cannot corrupt the published file.
func WriteManifest(path string, entries []ManifestEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	content, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, content, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename manifest: %w", err)
	}

	return nil
}

// ReadManifest loads a previously written manifest. A missing file is
// not an error; it returns an empty slice.
func ReadManifest(path string) ([]ManifestEntry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []ManifestEntry{}, nil
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var entries []ManifestEntry
	if err := json.Unmarshal(content, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return entries, nil
}
