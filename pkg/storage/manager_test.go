package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManager(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(filepath.Join(tempDir, "out"))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if manager.SavedCount() != 0 {
		t.Error("Expected initial saved count to be 0")
	}

	postDir := "2024-06-14 18f2a9c4 Sportdag"
	if manager.Exists(postDir, "IMG_2041.jpg") {
		t.Error("Expected Exists to return false for a fresh directory")
	}

	testData := []byte("test photo data")
	path, err := manager.SaveFile(bytes.NewReader(testData), postDir, "IMG_2041.jpg")
	if err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}

	expectedPath := filepath.Join(manager.BaseDir(), postDir, "IMG_2041.jpg")
	if path != expectedPath {
		t.Errorf("Expected path %q, got %q", expectedPath, path)
	}

	content, err := os.ReadFile(expectedPath)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if !bytes.Equal(content, testData) {
		t.Error("File content does not match expected data")
	}

	if !manager.Exists(postDir, "IMG_2041.jpg") {
		t.Error("Expected Exists to return true after save")
	}
	if manager.SavedCount() != 1 {
		t.Errorf("Expected saved count to be 1, got %d", manager.SavedCount())
	}

	// No stray temporary file left behind.
	if _, err := os.Stat(expectedPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("Expected temporary file to be gone after rename")
	}
}

func TestManagerDetectsEarlierRuns(t *testing.T) {
	tempDir := t.TempDir()
	postDir := "2024-06-14 18f2a9c4"

	if err := os.MkdirAll(filepath.Join(tempDir, postDir), 0755); err != nil {
		t.Fatalf("Failed to prepare directory: %v", err)
	}
	existing := filepath.Join(tempDir, postDir, "old.jpg")
	if err := os.WriteFile(existing, []byte("earlier run"), 0644); err != nil {
		t.Fatalf("Failed to write existing file: %v", err)
	}

	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if !manager.Exists(postDir, "old.jpg") {
		t.Error("Expected file from an earlier run to be detected")
	}
	if manager.Exists(postDir, "new.jpg") {
		t.Error("Expected missing file to report false")
	}
}

func TestManagerIgnoresEmptyFiles(t *testing.T) {
	tempDir := t.TempDir()
	postDir := "2024-06-14 x"

	if err := os.MkdirAll(filepath.Join(tempDir, postDir), 0755); err != nil {
		t.Fatalf("Failed to prepare directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, postDir, "empty.jpg"), nil, 0644); err != nil {
		t.Fatalf("Failed to write empty file: %v", err)
	}

	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if manager.Exists(postDir, "empty.jpg") {
		t.Error("Expected zero-byte file to be treated as missing")
	}
}
