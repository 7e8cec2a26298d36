package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Manager handles the per-post output layout under a base directory:
// one directory per post, one file per media item inside it.
type Manager struct {
	baseDir string
	saved   map[string]bool
	mu      sync.RWMutex
}

// NewManager creates a storage manager rooted at baseDir
func NewManager(baseDir string) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		baseDir: baseDir,
		saved:   make(map[string]bool),
	}, nil
}

// PostDir ensures the directory for one post exists and returns its
// absolute path
func (m *Manager) PostDir(dirName string) (string, error) {
	dir := filepath.Join(m.baseDir, dirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create post directory: %w", err)
	}
	return dir, nil
}

// Exists reports whether a media file is already present on disk.
// Files left by a previous run count, so re-runs skip finished work.
func (m *Manager) Exists(dirName, filename string) bool {
	path := filepath.Join(m.baseDir, dirName, filename)

	m.mu.RLock()
	cached := m.saved[path]
	m.mu.RUnlock()
	if cached {
		return true
	}

	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		m.mu.Lock()
		m.saved[path] = true
		m.mu.Unlock()
		return true
	}
	return false
}

// SaveFile writes a media file from the given reader. The data goes to
// a temporary file first and is renamed into place, so a crashed
// download never leaves a truncated file under the final name.
func (m *Manager) SaveFile(r io.Reader, dirName, filename string) (string, error) {
	dir, err := m.PostDir(dirName)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, filename)

	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to save media data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved[path] = true
	m.mu.Unlock()

	return path, nil
}

// BaseDir returns the base output directory
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// SavedCount returns the number of files written or seen this run
func (m *Manager) SavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}
