package posts

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeSubject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"reserved characters", `Groep 4: "B"/C`, "Groep 4   B  C"},
		{"trailing whitespace", "Schoolreisje? ", "Schoolreisje"},
		{"clean subject", "Sportdag groep 5", "Sportdag groep 5"},
		{"control characters", "Foto's\tvan\nvandaag", "Foto's van vandaag"},
		{"empty", "", ""},
		{"only reserved", `***`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeSubject(tt.input)
			assert.Equal(t, tt.expected, result)
			assert.NotContains(t, result, ":")
			assert.NotContains(t, result, "/")
			assert.Equal(t, result, SanitizeSubject(result))
		})
	}
}

func TestDirName(t *testing.T) {
	d := &Descriptor{
		MessageID: "18f2a9c4",
		Date:      time.Date(2024, 6, 14, 9, 30, 0, 0, time.UTC),
		Subject:   `Groep 4: "B"/C`,
	}

	name := d.DirName()
	assert.Equal(t, "2024-06-14 18f2a9c4 Groep 4   B  C", name)
	assert.Equal(t, name, SanitizeSubject(name))
}

func TestDirNameWithoutSubject(t *testing.T) {
	d := &Descriptor{
		MessageID: "18f2a9c4",
		Date:      time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "2024-06-14 18f2a9c4", d.DirName())
}

func TestFileNameForSource(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		index    int
		expected string
	}{
		{"simple", "https://cdn.example/uploads/IMG_2041.jpg", 0, "IMG_2041.jpg"},
		{"query string ignored", "https://cdn.example/a/b/photo.png?w=1200", 2, "photo.png"},
		{"escaped path", "https://cdn.example/foto%20van%20sportdag.jpg", 0, "foto van sportdag.jpg"},
		{"no path", "https://cdn.example/", 4, "media-005"},
		{"unparseable", "://not-a-url", 0, "media-001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FileNameForSource(tt.url, tt.index))
		})
	}
}

func TestParseDate(t *testing.T) {
	for _, input := range []string{
		"2024-06-14T09:30:00Z",
		"2024-06-14T09:30:00+02:00",
		"2024-06-14T09:30:00",
		"2024-06-14 09:30:00",
		"2024-06-14",
	} {
		parsed, err := ParseDate(input)
		require.NoError(t, err, input)
		assert.Equal(t, 2024, parsed.Year())
		assert.Equal(t, time.June, parsed.Month())
		assert.Equal(t, 14, parsed.Day())
	}

	_, err := ParseDate("14-06-2024")
	assert.Error(t, err)
}

func TestCorpusRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "links.json")

	original := []*Descriptor{
		{
			MessageID: "18f2a9c4",
			Date:      time.Date(2024, 6, 14, 9, 30, 0, 0, time.UTC),
			Subject:   "Sportdag",
			Href:      "https://app.socialschools.eu/post/123",
		},
		{
			MessageID: "18f2b011",
			Date:      time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
			Href:      "https://app.socialschools.eu/post/456",
		},
	}

	require.NoError(t, SaveCorpus(path, original))

	loaded, err := LoadCorpus(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "18f2a9c4", loaded[0].MessageID)
	assert.Equal(t, "Sportdag", loaded[0].Subject)
	assert.True(t, loaded[0].Date.Equal(original[0].Date))
	assert.Empty(t, loaded[0].MediaSources)
	assert.Equal(t, "https://app.socialschools.eu/post/456", loaded[1].Href)
}

func TestLoadCorpusBareDateForm(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "links.json")
	content := `[{"messageId":"abc","date":"2024-06-14","subject":"","href":"https://app.socialschools.eu/post/1"}]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	loaded, err := LoadCorpus(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 14, loaded[0].Date.Day())
}

func TestLoadCorpusRejectsIncompleteEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "links.json")
	content := `[{"messageId":"","date":"2024-06-14","href":"https://x"}]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := LoadCorpus(path)
	assert.Error(t, err)
}

func TestLoadCorpusMissingFile(t *testing.T) {
	_, err := LoadCorpus(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
