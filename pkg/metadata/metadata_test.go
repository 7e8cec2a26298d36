package metadata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCapturedDateSetsFileTimes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "IMG_2041.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not really a jpeg"), 0644))

	date := time.Date(2024, 6, 14, 9, 30, 0, 0, time.UTC)
	// The payload is not a real JPEG, so exiftool (when installed)
	// reports an error; the mtime must be stamped regardless.
	_ = EnsureCapturedDate(path, date)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(date), "expected mtime %v, got %v", date, info.ModTime())
}

func TestEnsureCapturedDateMissingFile(t *testing.T) {
	err := EnsureCapturedDate(filepath.Join(t.TempDir(), "nope.jpg"), time.Now())
	assert.Error(t, err)
}

func TestPostMetadataRoundTrip(t *testing.T) {
	dir := t.TempDir()

	meta := &PostMetadata{
		MessageID: "18f2a9c4",
		Date:      time.Date(2024, 6, 14, 9, 30, 0, 0, time.UTC),
		Subject:   "Sportdag",
		Href:      "https://app.socialschools.eu/post/123",
		Media: []MediaItem{
			{Source: "https://cdn.example/a.jpg", Filename: "a.jpg", Size: 1234},
			{Source: "https://cdn.example/b.mp4", Filename: "b.mp4"},
		},
	}

	require.NoError(t, WritePostMetadata(dir, meta))
	assert.False(t, meta.DownloadedAt.IsZero())

	loaded, err := ReadPostMetadata(dir)
	require.NoError(t, err)
	assert.Equal(t, "18f2a9c4", loaded.MessageID)
	assert.Equal(t, "Sportdag", loaded.Subject)
	require.Len(t, loaded.Media, 2)
	assert.Equal(t, "a.jpg", loaded.Media[0].Filename)
	assert.Equal(t, int64(1234), loaded.Media[0].Size)
}

func TestReadPostMetadataMissing(t *testing.T) {
	_, err := ReadPostMetadata(t.TempDir())
	assert.Error(t, err)
}
