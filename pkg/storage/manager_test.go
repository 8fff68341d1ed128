package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	errs "igfeedsync/pkg/errors"
	"igfeedsync/pkg/logger"
)

func TestManager(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(tempDir, logger.NewTestLogger())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if len(manager.CachedShortcodes()) != 0 {
		t.Error("Expected empty cache on fresh directory")
	}

	if manager.IsCached("test123") {
		t.Error("Expected IsCached to return false for missing file")
	}

	testData := []byte("test media data")
	err = manager.SaveMedia(bytes.NewReader(testData), "test123")
	if err != nil {
		t.Fatalf("Failed to save media: %v", err)
	}

	expectedPath := filepath.Join(tempDir, "test123.jpg")
	content, err := os.ReadFile(expectedPath)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if !bytes.Equal(content, testData) {
		t.Error("File content does not match expected data")
	}

	if !manager.IsCached("test123") {
		t.Error("Expected IsCached to return true after save")
	}

	if manager.ImagePath("test123") != expectedPath {
		t.Errorf("Unexpected image path: %s", manager.ImagePath("test123"))
	}
}

func TestManagerScansExistingFiles(t *testing.T) {
	tempDir := t.TempDir()

	for _, name := range []string{"abc.jpg", "def.jpg", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(tempDir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to seed file: %v", err)
		}
	}

	manager, err := NewManager(tempDir, logger.NewTestLogger())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	codes := manager.CachedShortcodes()
	sort.Strings(codes)
	if len(codes) != 2 || codes[0] != "abc" || codes[1] != "def" {
		t.Errorf("Unexpected cached shortcodes: %v", codes)
	}
	if manager.IsCached("notes") {
		t.Error("Non-jpg files should not be indexed")
	}
}

func TestManagerStorageError(t *testing.T) {
	tempDir := t.TempDir()
	blocker := filepath.Join(tempDir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create blocker file: %v", err)
	}

	// A regular file where the cache directory should be makes
	// MkdirAll fail, which must surface as a fatal StorageError.
	_, err := NewManager(filepath.Join(blocker, "images"), logger.NewTestLogger())
	if err == nil {
		t.Fatal("Expected error creating manager under a file")
	}
	if !errs.IsFatal(err) {
		t.Errorf("Expected fatal storage error, got %v", err)
	}
}

func TestManagerNoTempLeftovers(t *testing.T) {
	tempDir := t.TempDir()
	manager, err := NewManager(tempDir, logger.NewTestLogger())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.SaveMedia(bytes.NewReader([]byte("data")), "post1"); err != nil {
		t.Fatalf("Failed to save media: %v", err)
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("Failed to read directory: %v", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Errorf("Temporary file left behind: %s", entry.Name())
		}
	}
}

func TestReconcile(t *testing.T) {
	tempDir := t.TempDir()
	manager, err := NewManager(tempDir, logger.NewTestLogger())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	for _, code := range []string{"keep1", "keep2", "stale1", "stale2"} {
		if err := manager.SaveMedia(bytes.NewReader([]byte(code)), code); err != nil {
			t.Fatalf("Failed to save %s: %v", code, err)
		}
	}

	removed := manager.Reconcile(map[string]bool{"keep1": true, "keep2": true})
	if removed != 2 {
		t.Errorf("Expected 2 removals, got %d", removed)
	}

	for _, code := range []string{"keep1", "keep2"} {
		if _, err := os.Stat(manager.ImagePath(code)); err != nil {
			t.Errorf("Expected %s to survive reconcile: %v", code, err)
		}
	}
	for _, code := range []string{"stale1", "stale2"} {
		if _, err := os.Stat(manager.ImagePath(code)); !os.IsNotExist(err) {
			t.Errorf("Expected %s to be removed", code)
		}
		if manager.IsCached(code) {
			t.Errorf("Expected %s to be dropped from the index", code)
		}
	}
}

func TestReconcileEmptyKeepSet(t *testing.T) {
	tempDir := t.TempDir()
	manager, err := NewManager(tempDir, logger.NewTestLogger())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.SaveMedia(bytes.NewReader([]byte("x")), "only"); err != nil {
		t.Fatalf("Failed to save media: %v", err)
	}

	if removed := manager.Reconcile(map[string]bool{}); removed != 1 {
		t.Errorf("Expected 1 removal, got %d", removed)
	}
	if len(manager.CachedShortcodes()) != 0 {
		t.Error("Expected empty cache after reconciling with empty keep set")
	}
}
