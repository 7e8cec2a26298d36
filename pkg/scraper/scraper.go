package scraper

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	"github.com/FooBarWidget/social-schools-photos-downloader/internal/downloader"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/browser"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/carousel"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/config"
	errs "github.com/FooBarWidget/social-schools-photos-downloader/pkg/errors"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/logger"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/metadata"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/posts"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/ratelimit"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/storage"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/ui"
)

// Scraper runs one browser session end-to-end across the whole
// corpus: scrape every post first, then download everything that was
// found. The two phases are separate so a late download failure never
// forces re-scraping.
type Scraper struct {
	cfg     *config.Config
	log     logger.Logger
	session Session
	walker  Walker
	store   *storage.Manager

	// fetcher overrides the cookie-carrying HTTP client, for tests
	fetcher downloader.MediaFetcher

	scrapeFailures   int
	downloadFailures int
	failed           []*errs.PostError
}

// New creates a scraper bound to a live browser session
func New(cfg *config.Config, sess *browser.Session, log logger.Logger) (*Scraper, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	store, err := storage.NewManager(cfg.Output.BaseDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to set up output directory: %w", err)
	}

	return &Scraper{
		cfg:     cfg,
		log:     log,
		session: sess,
		walker:  carousel.NewWalker(sess, cfg.Scrape, nil, log),
		store:   store,
	}, nil
}

// Run walks every descriptor and then downloads every discovered
// media source. Per-post failures are logged and skipped; the
// returned error is reserved for failures outside the per-post
// boundary.
func (s *Scraper) Run(descriptors []*posts.Descriptor) error {
	if len(descriptors) == 0 {
		ui.PrintInfo("Nothing to do", "the link corpus is empty")
		return nil
	}

	s.scrapeAll(descriptors)
	if err := s.downloadAll(descriptors); err != nil {
		return err
	}

	s.printSummary(descriptors)
	return nil
}

// Failures returns the number of per-post failures across both phases
func (s *Scraper) Failures() int {
	return s.scrapeFailures + s.downloadFailures
}

// FailedPosts returns the per-post failures recorded across both
// phases, in occurrence order
func (s *Scraper) FailedPosts() []*errs.PostError {
	return s.failed
}

// recordFailure notes a per-post failure and reports it with the
// post's identity attached
func (s *Scraper) recordFailure(phase string, d *posts.Descriptor, err error) {
	perr := errs.ForPost(d.MessageID, d.Href, err)
	s.failed = append(s.failed, perr)
	logger.LogPostFailure(d.MessageID, d.Href, phase, err)
	ui.PrintError("%v", perr)
}

// scrapeAll walks every post, collecting media sources onto the
// descriptors. One failed post never aborts the rest.
func (s *Scraper) scrapeAll(descriptors []*posts.Descriptor) {
	ui.PrintInfo("Scraping", fmt.Sprintf("%d posts", len(descriptors)))

	mediaFound := 0
	for i, d := range descriptors {
		sources, err := s.walker.Walk(d.Href)
		if err != nil {
			s.scrapeFailures++
			s.recordFailure("scrape", d, err)
			s.captureFailureScreenshot(d)
			continue
		}
		d.MediaSources = sources
		mediaFound += len(sources)
		logger.LogWalkProgress(i+1, len(descriptors), mediaFound)
	}

	ui.PrintInfo("Scrape complete", fmt.Sprintf("%d media items in %d posts", mediaFound, len(descriptors)))
}

// downloadAll persists every collected media source. The browser's
// session cookies authenticate the out-of-band HTTP requests.
func (s *Scraper) downloadAll(descriptors []*posts.Descriptor) error {
	fetcher := s.fetcher
	if fetcher == nil {
		cookieHeader, err := s.session.CookieHeader(s.cfg.SocialSchools.BaseURL)
		if err != nil {
			return fmt.Errorf("could not capture session cookies: %w", err)
		}
		fetcher = downloader.NewClient(
			cookieHeader,
			s.cfg.Download.DownloadTimeout,
			s.cfg.Download.RetryAttempts,
			s.log,
		)
	}

	limiter := ratelimit.NewTokenBucket(s.requestsPerMinute(), time.Minute)
	pool := downloader.NewWorkerPool(s.cfg.Download.ConcurrentDownloads, fetcher, s.store, limiter, s.log)
	pool.Start()
	defer pool.Stop()

	for _, d := range descriptors {
		if len(d.MediaSources) == 0 {
			continue
		}
		if err := s.downloadPost(pool, d); err != nil {
			s.downloadFailures++
			s.recordFailure("download", d, err)
		}
	}
	return nil
}

// downloadPost submits one post's media and waits for its results, so
// posts download one after another while items within a post may run
// concurrently
func (s *Scraper) downloadPost(pool *downloader.WorkerPool, d *posts.Descriptor) error {
	dirName := d.DirName()

	// Submission runs alongside result draining; the pool's queues are
	// bounded, so submitting a large post up front would fill them. The
	// drain waits for exactly as many results as the pool accepted, so
	// a submission that stops early cannot leave the drain waiting.
	type submitOutcome struct {
		count int
		err   error
	}
	submitted := make(chan submitOutcome, 1)
	go func() {
		count := 0
		for i, src := range d.MediaSources {
			job := downloader.Job{
				URL:      src,
				Dir:      dirName,
				Filename: posts.FileNameForSource(src, i),
				PostID:   d.MessageID,
				Taken:    d.Date,
			}
			if err := pool.Submit(job); err != nil {
				submitted <- submitOutcome{count: count, err: err}
				return
			}
			count++
		}
		submitted <- submitOutcome{count: count}
	}()

	byFilename := make(map[string]metadata.MediaItem, len(d.MediaSources))
	var firstErr error
	drained, accepted := 0, -1
	for accepted < 0 || drained < accepted {
		select {
		case outcome := <-submitted:
			accepted = outcome.count
			if outcome.err != nil && firstErr == nil {
				firstErr = outcome.err
			}
			submitted = nil
		case result := <-pool.Results():
			drained++
			logger.LogDownload(d.MessageID, result.Job.URL, result.Success, result.Error)
			if result.Error != nil && firstErr == nil {
				firstErr = result.Error
			}
			if result.Success {
				byFilename[result.Job.Filename] = metadata.MediaItem{
					Source:   result.Job.URL,
					Filename: result.Job.Filename,
					Size:     int64(result.Size),
				}
			}
		}
	}

	if firstErr != nil {
		return firstErr
	}

	// Sidecar entries follow carousel order, not completion order.
	items := make([]metadata.MediaItem, 0, len(byFilename))
	for i, src := range d.MediaSources {
		if item, ok := byFilename[posts.FileNameForSource(src, i)]; ok {
			items = append(items, item)
		}
	}

	dir, err := s.store.PostDir(dirName)
	if err != nil {
		return err
	}
	return metadata.WritePostMetadata(dir, &metadata.PostMetadata{
		MessageID: d.MessageID,
		Date:      d.Date,
		Subject:   d.Subject,
		Href:      d.Href,
		Media:     items,
	})
}

// captureFailureScreenshot saves the page as it looked when a post
// failed, for debugging structural breakage
func (s *Scraper) captureFailureScreenshot(d *posts.Descriptor) {
	if s.cfg.Output.DebugDir == "" || s.session == nil {
		return
	}
	path := filepath.Join(s.cfg.Output.DebugDir, fmt.Sprintf("failure-%s.png", d.MessageID))
	if err := s.session.Screenshot(path); err != nil {
		s.log.WithError(err).Debug("could not capture failure screenshot")
	}
}

func (s *Scraper) requestsPerMinute() int {
	if s.cfg.RateLimit.RequestsPerMinute > 0 {
		return s.cfg.RateLimit.RequestsPerMinute
	}
	return 60
}

func (s *Scraper) printSummary(descriptors []*posts.Descriptor) {
	total := 0
	withMedia := 0
	for _, d := range descriptors {
		total += len(d.MediaSources)
		if len(d.MediaSources) > 0 {
			withMedia++
		}
	}

	ui.PrintSuccess(fmt.Sprintf("Done: %d media items from %d posts (%d posts had photos)",
		total, len(descriptors), withMedia))
	if failures := s.Failures(); failures > 0 {
		ui.PrintWarning("%d post(s) failed, see the log for details", failures)
	}
}

// FetchFromFeed scrapes post links from the feed-listing page. It is
// the fallback corpus source when no email-derived links file exists.
func FetchFromFeed(page carousel.Page, feedURL, markerSelector string, navTimeout time.Duration, log logger.Logger) ([]*posts.Descriptor, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if err := page.Navigate(feedURL, markerSelector, navTimeout); err != nil {
		return nil, errs.New(errs.TypeTimeout, "feed page did not load: %v", err)
	}

	var hrefs []string
	expr := `(function() {
		var anchors = document.querySelectorAll("a[href]");
		var seen = {};
		var out = [];
		for (var i = 0; i < anchors.length; i++) {
			var href = anchors[i].href;
			if (href.indexOf("/post") === -1) { continue; }
			if (seen[href]) { continue; }
			seen[href] = true;
			out.push(href);
		}
		return out;
	})()`
	if err := page.Evaluate(expr, &hrefs); err != nil {
		return nil, errs.Structural("could not enumerate feed links: %v", err)
	}

	now := time.Now()
	descriptors := make([]*posts.Descriptor, 0, len(hrefs))
	for _, href := range hrefs {
		descriptors = append(descriptors, &posts.Descriptor{
			MessageID: feedMessageID(href),
			Date:      now,
			Href:      href,
		})
	}

	log.WithField("count", len(descriptors)).Info("collected post links from feed")
	return descriptors, nil
}

// feedMessageID derives a stable post id from the full href. Distinct
// posts can share a trailing path segment, so the id hashes the whole
// URL rather than using its basename.
func feedMessageID(href string) string {
	sum := sha256.Sum256([]byte(href))
	return "feed-" + hex.EncodeToString(sum[:6])
}
