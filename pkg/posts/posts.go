// Package posts defines the post descriptor record and the persisted
// link corpus it is loaded from, plus the filesystem naming rules for
// per-post output directories.
package posts

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"
	"time"
)

// Descriptor identifies one post and accumulates its discovered media
type Descriptor struct {
	MessageID    string    `json:"messageId"`
	Date         time.Time `json:"date"`
	Subject      string    `json:"subject"`
	Href         string    `json:"href"`
	MediaSources []string  `json:"mediaSources,omitempty"`
}

// rawDescriptor carries the wire form, where the date is an ISO 8601
// string that may or may not include a time component
type rawDescriptor struct {
	MessageID string `json:"messageId"`
	Date      string `json:"date"`
	Subject   string `json:"subject"`
	Href      string `json:"href"`
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate revives an ISO 8601 date string
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}

// LoadCorpus reads a persisted list of candidate posts. Dates are
// parsed into time values and every descriptor starts with an empty
// media list.
func LoadCorpus(filePath string) ([]*Descriptor, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("could not read links file: %w", err)
	}

	var raw []rawDescriptor
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("could not parse links file: %w", err)
	}

	descriptors := make([]*Descriptor, 0, len(raw))
	for i, r := range raw {
		if r.MessageID == "" || r.Href == "" {
			return nil, fmt.Errorf("entry %d is missing messageId or href", i)
		}
		date, err := ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, r.MessageID, err)
		}
		descriptors = append(descriptors, &Descriptor{
			MessageID: r.MessageID,
			Date:      date,
			Subject:   r.Subject,
			Href:      r.Href,
		})
	}
	return descriptors, nil
}

// SaveCorpus writes descriptors to the links file, dates serialized as
// RFC 3339. The write is atomic so an interrupted fetch never corrupts
// an existing corpus.
func SaveCorpus(filePath string, descriptors []*Descriptor) error {
	type wireDescriptor struct {
		MessageID string `json:"messageId"`
		Date      string `json:"date"`
		Subject   string `json:"subject"`
		Href      string `json:"href"`
	}

	wire := make([]wireDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		wire = append(wire, wireDescriptor{
			MessageID: d.MessageID,
			Date:      d.Date.Format(time.RFC3339),
			Subject:   d.Subject,
			Href:      d.Href,
		})
	}

	content, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal links: %w", err)
	}

	tempFile := filePath + ".tmp"
	if err := os.WriteFile(tempFile, content, 0644); err != nil {
		return fmt.Errorf("could not write links file: %w", err)
	}
	return os.Rename(tempFile, filePath)
}

// reservedChars are characters rejected by at least one common
// filesystem, replaced with spaces in directory names
const reservedChars = `<>:"/\|?*`

// SanitizeSubject replaces filesystem-hostile characters with spaces
// and trims trailing whitespace
func SanitizeSubject(subject string) string {
	sanitized := strings.Map(func(r rune) rune {
		if strings.ContainsRune(reservedChars, r) || r < 0x20 {
			return ' '
		}
		return r
	}, subject)
	return strings.TrimRight(sanitized, " \t")
}

// DirName composes the per-post output directory name from the date,
// message id and sanitized subject
func (d *Descriptor) DirName() string {
	name := fmt.Sprintf("%s %s", d.Date.Format("2006-01-02"), d.MessageID)
	if subject := SanitizeSubject(d.Subject); subject != "" {
		name = name + " " + subject
	}
	return strings.TrimRight(name, " ")
}

// FileNameForSource derives a local filename from a media source URL.
// index is the zero-based position within the carousel, used when the
// URL path yields no usable basename.
func FileNameForSource(rawURL string, index int) string {
	fallback := fmt.Sprintf("media-%03d", index+1)

	u, err := url.Parse(rawURL)
	if err != nil {
		return fallback
	}
	base := path.Base(u.Path)
	if base == "" || base == "." || base == "/" {
		return fallback
	}
	if decoded, err := url.PathUnescape(base); err == nil {
		base = decoded
	}
	return SanitizeSubject(base)
}
