package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://app.socialschools.eu", cfg.SocialSchools.BaseURL)
	assert.Equal(t, 1, cfg.Download.ConcurrentDownloads)
	assert.Equal(t, 500, cfg.Scrape.MaxCarouselItems)
	assert.NotEmpty(t, cfg.Scrape.NextControlMarkers)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
social_schools:
  base_url: https://app.socialschools.nl
  email: parent@example.com
scrape:
  max_carousel_items: 50
  settle_delay: 100ms
output:
  base_directory: /tmp/photos
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "https://app.socialschools.nl", cfg.SocialSchools.BaseURL)
	assert.Equal(t, "parent@example.com", cfg.SocialSchools.Email)
	assert.Equal(t, 50, cfg.Scrape.MaxCarouselItems)
	assert.Equal(t, 100*time.Millisecond, cfg.Scrape.SettleDelay)
	assert.Equal(t, "/tmp/photos", cfg.Output.BaseDirectory)
	// Untouched sections keep their defaults.
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SSPD_OUTPUT_DIR", "/data/school-photos")
	t.Setenv("SSPD_HEADLESS", "true")
	t.Setenv("SSPD_CONCURRENT_DOWNLOADS", "4")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "/data/school-photos", cfg.Output.BaseDirectory)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 4, cfg.Download.ConcurrentDownloads)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"output":    "./out",
		"headless":  true,
		"log-level": "debug",
	})

	assert.Equal(t, "./out", cfg.Output.BaseDirectory)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scrape.PostMarkerSelector = ""
	cfg.Download.ConcurrentDownloads = 0
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "post marker selector")
	assert.Contains(t, err.Error(), "concurrent downloads")
	assert.Contains(t, err.Error(), "log level")
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.SocialSchools.Email = "parent@example.com"
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "parent@example.com", loaded.SocialSchools.Email)
}
