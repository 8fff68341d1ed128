package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	errs "igfeedsync/pkg/errors"
	"igfeedsync/pkg/logger"
)

// Manager owns the local image cache directory. It tracks which
// shortcodes already have a cached JPEG so downloads can be skipped,
// and reconciles the directory against the current feed window.
type Manager struct {
	imagesDir string
	cached    map[string]bool
	mu        sync.RWMutex
	logger    logger.Logger
}

// NewManager creates a storage manager rooted at imagesDir. The
// directory is created if missing; failure to prepare it is fatal and
// surfaces as a StorageError.
func NewManager(imagesDir string, log logger.Logger) (*Manager, error) {
	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		return nil, &errs.StorageError{Path: imagesDir, Err: err}
	}

	manager := &Manager{
		imagesDir: imagesDir,
		cached:    make(map[string]bool),
		logger:    log,
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, &errs.StorageError{Path: imagesDir, Err: err}
	}

	return manager, nil
}

// scanExistingFiles indexes the already cached JPEGs by shortcode
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.imagesDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".jpg" {
			// Filenames are shortcode.jpg
			shortcode := entry.Name()
			shortcode = shortcode[:len(shortcode)-4]
			m.cached[shortcode] = true
		}
	}

	return nil
}

// IsCached checks if media for the given shortcode is already on disk
func (m *Manager) IsCached(shortcode string) bool {
	m.mu.RLock()
	hit := m.cached[shortcode]
	m.mu.RUnlock()
	if hit {
		return true
	}

	// Double-check file existence in case the file appeared after the
	// initial scan
	if _, err := os.Stat(m.ImagePath(shortcode)); err == nil {
		m.mu.Lock()
		m.cached[shortcode] = true
		m.mu.Unlock()
		return true
	}

	return false
}

// SaveMedia writes media content for a shortcode. The bytes go to a
// temporary file first and are renamed into place, so a partial
// download never leaves a truncated .jpg in the cache.
func (m *Manager) SaveMedia(r io.Reader, shortcode string) error {
	filename := m.ImagePath(shortcode)

	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to save media data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.cached[shortcode] = true
	m.mu.Unlock()

	return nil
}

// ImagePath returns the cache path for a shortcode's JPEG
func (m *Manager) ImagePath(shortcode string) string {
	return filepath.Join(m.imagesDir, shortcode+".jpg")
}

// ImagesDir returns the cache directory path
func (m *Manager) ImagesDir() string {
	return m.imagesDir
}

// CachedShortcodes returns the shortcodes currently cached on disk
func (m *Manager) CachedShortcodes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	codes := make([]string, 0, len(m.cached))
	for code := range m.cached {
		codes = append(codes, code)
	}
	return codes
}

// Reconcile deletes cached JPEGs whose shortcode is not in keep.
// Deletion is best effort: a file that cannot be removed is logged and
// left behind, and never fails the run.
func (m *Manager) Reconcile(keep map[string]bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for shortcode := range m.cached {
		if keep[shortcode] {
			continue
		}

		filename := filepath.Join(m.imagesDir, shortcode+".jpg")
		if err := os.Remove(filename); err != nil && !os.IsNotExist(err) {
			m.logger.WarnWithFields("Failed to remove stale cached image", map[string]interface{}{
				"shortcode": shortcode,
				"path":      filename,
				"error":     err.Error(),
			})
			continue
		}

		delete(m.cached, shortcode)
		removed++
	}

	return removed
}
