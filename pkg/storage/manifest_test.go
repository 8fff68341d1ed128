package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteManifest(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "instagram.json")

	entries := []ManifestEntry{
		{Permalink: "https://www.instagram.com/p/AAA/", MediaURL: "./data/ig_images/AAA.jpg"},
		{Permalink: "https://www.instagram.com/p/BBB/", MediaURL: "./data/ig_images/BBB.jpg"},
	}

	if err := WriteManifest(path, entries); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read manifest: %v", err)
	}

	// Pretty-printed output with the expected key names
	if !strings.Contains(string(content), "\n  {") {
		t.Error("Expected indented JSON output")
	}
	if !strings.Contains(string(content), `"permalink"`) || !strings.Contains(string(content), `"media_url"`) {
		t.Errorf("Unexpected manifest keys: %s", content)
	}

	var decoded []ManifestEntry
	if err := json.Unmarshal(content, &decoded); err != nil {
		t.Fatalf("Manifest is not valid JSON: %v", err)
	}
	if len(decoded) != 2 || decoded[0] != entries[0] || decoded[1] != entries[1] {
		t.Errorf("Round-trip mismatch: %+v", decoded)
	}
}

func TestWriteManifestReplacesExisting(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "instagram.json")

	if err := WriteManifest(path, []ManifestEntry{{Permalink: "old", MediaURL: "old"}}); err != nil {
		t.Fatalf("Failed to write initial manifest: %v", err)
	}
	if err := WriteManifest(path, []ManifestEntry{{Permalink: "new", MediaURL: "new"}}); err != nil {
		t.Fatalf("Failed to overwrite manifest: %v", err)
	}

	entries, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("Failed to read manifest: %v", err)
	}
	if len(entries) != 1 || entries[0].Permalink != "new" {
		t.Errorf("Expected replaced manifest, got %+v", entries)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temporary manifest file left behind")
	}
}

func TestWriteManifestCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "data", "instagram.json")

	if err := WriteManifest(path, []ManifestEntry{}); err != nil {
		t.Fatalf("Failed to write manifest in nested dir: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Manifest not created: %v", err)
	}
}

func TestReadManifestMissingFile(t *testing.T) {
	entries, err := ReadManifest(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Missing manifest should not be an error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty slice, got %+v", entries)
	}
}
