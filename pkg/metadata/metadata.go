// Package metadata backfills capture-date information on downloaded
// media and writes a per-post metadata sidecar.
//
// The platform's CDN strips EXIF data from served media, so the only
// capture date available is the post's notification date. That date is
// written into DateTimeOriginal when exiftool is installed, and always
// onto the file's modification time so photo library imports sort
// correctly either way.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

const exifTimeLayout = "2006:01:02 15:04:05"

var (
	exiftoolOnce sync.Once
	exiftoolPath string
)

// exiftool returns the exiftool binary path, or "" when not installed
func exiftool() string {
	exiftoolOnce.Do(func() {
		if path, err := exec.LookPath("exiftool"); err == nil {
			exiftoolPath = path
		}
	})
	return exiftoolPath
}

// ExiftoolAvailable reports whether EXIF backfill can run
func ExiftoolAvailable() bool {
	return exiftool() != ""
}

// EnsureCapturedDate stamps the capture date onto a downloaded file.
// With exiftool installed the date goes into DateTimeOriginal; the
// file modification time is set in every case, so an exiftool failure
// (some video containers cannot be tagged) still leaves a usable
// date. The returned error reports the exiftool failure when the
// mtime fallback itself succeeded, so callers can log it as a
// warning.
func EnsureCapturedDate(localPath string, date time.Time) error {
	var exifErr error
	if tool := exiftool(); tool != "" {
		cmd := exec.Command(tool,
			"-overwrite_original",
			"-quiet",
			fmt.Sprintf("-DateTimeOriginal=%s", date.Format(exifTimeLayout)),
			localPath,
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			exifErr = fmt.Errorf("exiftool failed on %s: %v: %s", filepath.Base(localPath), err, out)
		}
	}

	if err := os.Chtimes(localPath, date, date); err != nil {
		return fmt.Errorf("failed to set file times: %w", err)
	}
	return exifErr
}

// PostMetadata is the sidecar record written next to a post's media
type PostMetadata struct {
	MessageID    string      `json:"messageId"`
	Date         time.Time   `json:"date"`
	Subject      string      `json:"subject,omitempty"`
	Href         string      `json:"href"`
	DownloadedAt time.Time   `json:"downloadedAt"`
	Media        []MediaItem `json:"media"`
}

// MediaItem records one downloaded carousel item
type MediaItem struct {
	Source   string `json:"source"`
	Filename string `json:"filename"`
	Size     int64  `json:"size,omitempty"`
}

const sidecarName = "metadata.json"

// WritePostMetadata saves the sidecar into a post's output directory
func WritePostMetadata(dir string, meta *PostMetadata) error {
	if meta.DownloadedAt.IsZero() {
		meta.DownloadedAt = time.Now()
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	path := filepath.Join(dir, sidecarName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	return nil
}

// ReadPostMetadata loads the sidecar from a post's output directory
func ReadPostMetadata(dir string) (*PostMetadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, sidecarName))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var meta PostMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &meta, nil
}
