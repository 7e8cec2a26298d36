package scraper

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/axtree"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/logger"
)

// feedPage fakes the feed-listing page for the fallback corpus source
type feedPage struct {
	hrefs  []string
	navErr error
}

func (f *feedPage) Navigate(url, waitSelector string, timeout time.Duration) error {
	return f.navErr
}

func (f *feedPage) WaitVisible(selector string, timeout time.Duration) error { return nil }

func (f *feedPage) Snapshot() (*axtree.Node, error) { return nil, errors.New("not used") }

func (f *feedPage) ClickNode(backendID int64) error { return errors.New("not used") }

func (f *feedPage) Evaluate(expr string, out interface{}) error {
	*(out.(*[]string)) = f.hrefs
	return nil
}

func TestFetchFromFeed(t *testing.T) {
	page := &feedPage{hrefs: []string{
		"https://app.socialschools.eu/community/1/post/123",
		"https://app.socialschools.eu/community/1/post/456",
	}}

	descriptors, err := FetchFromFeed(page, "https://app.socialschools.eu/feed", ".feed", time.Second, logger.NewTestLogger())
	require.NoError(t, err)
	require.Len(t, descriptors, 2)

	assert.Equal(t, "https://app.socialschools.eu/community/1/post/123", descriptors[0].Href)
	assert.NotEmpty(t, descriptors[0].MessageID)
	assert.False(t, descriptors[0].Date.IsZero())
	assert.Empty(t, descriptors[0].MediaSources)
}

func TestFetchFromFeedDistinctIDsForSharedBasename(t *testing.T) {
	page := &feedPage{hrefs: []string{
		"https://app.socialschools.eu/groupA/post/123",
		"https://app.socialschools.eu/groupB/post/123",
	}}

	descriptors, err := FetchFromFeed(page, "https://app.socialschools.eu/feed", ".feed", time.Second, logger.NewTestLogger())
	require.NoError(t, err)
	require.Len(t, descriptors, 2)

	assert.NotEqual(t, descriptors[0].MessageID, descriptors[1].MessageID)
	assert.NotEqual(t, descriptors[0].DirName(), descriptors[1].DirName())
}

func TestFetchFromFeedNavigateFailure(t *testing.T) {
	page := &feedPage{navErr: errors.New("timed out")}

	_, err := FetchFromFeed(page, "https://app.socialschools.eu/feed", ".feed", time.Second, logger.NewTestLogger())
	assert.Error(t, err)
}
