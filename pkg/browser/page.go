package browser

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	errs "github.com/FooBarWidget/social-schools-photos-downloader/pkg/errors"
)

// Navigate loads url and waits for waitSelector to become visible. A
// deadline hit is a timeout failure for the post being processed.
func (s *Session) Navigate(url, waitSelector string, timeout time.Duration) error {
	s.log.WithFields(map[string]interface{}{
		"url":      url,
		"selector": waitSelector,
	}).Debug("navigating")

	return s.run(timeout, fmt.Sprintf("navigate to %s", url),
		chromedp.Navigate(url),
		chromedp.WaitVisible(waitSelector, chromedp.ByQuery),
	)
}

// WaitVisible waits for selector to become visible
func (s *Session) WaitVisible(selector string, timeout time.Duration) error {
	return s.run(timeout, fmt.Sprintf("wait for %s", selector),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
	)
}

// Evaluate runs a JavaScript expression in the page. out may be nil when
// the result is not needed.
func (s *Session) Evaluate(expr string, out interface{}) error {
	return s.run(0, "evaluate script", chromedp.Evaluate(expr, out))
}

// ClickNode simulates activation of the DOM element behind an
// accessibility node
func (s *Session) ClickNode(backendID int64) error {
	return s.run(0, "click node", chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithBackendNodeID(cdp.BackendNodeID(backendID)).Do(ctx)
		if err != nil {
			return errs.Structural("could not resolve node %d: %v", backendID, err)
		}
		_, exp, err := runtime.CallFunctionOn(`function() { this.click(); }`).
			WithObjectID(obj.ObjectID).
			Do(ctx)
		if err != nil {
			return err
		}
		if exp != nil {
			return errs.Structural("click raised: %s", exp.Text)
		}
		return nil
	}))
}

// CookieHeader returns the session's cookies for urls as a Cookie header
// value. The downloader reuses these for authenticated out-of-band
// requests; it never writes them back.
func (s *Session) CookieHeader(urls ...string) (string, error) {
	var pairs []string
	err := s.run(0, "read cookies", chromedp.ActionFunc(func(ctx context.Context) error {
		params := network.GetCookies()
		if len(urls) > 0 {
			params = params.WithUrls(urls)
		}
		cookies, err := params.Do(ctx)
		if err != nil {
			return err
		}
		for _, c := range cookies {
			pairs = append(pairs, fmt.Sprintf("%s=%s", c.Name, c.Value))
		}
		return nil
	}))
	if err != nil {
		return "", err
	}
	return strings.Join(pairs, "; "), nil
}

// Screenshot captures the current page to path. Used for diagnostics on
// structural failures.
func (s *Session) Screenshot(path string) error {
	var buf []byte
	if err := s.run(0, "capture screenshot", chromedp.CaptureScreenshot(&buf)); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

// Location returns the page's current URL
func (s *Session) Location() (string, error) {
	var location string
	if err := s.run(0, "read location", chromedp.Location(&location)); err != nil {
		return "", err
	}
	return location, nil
}
