// Package carousel walks a post's lightbox viewer and enumerates every
// media source it can reach. The walk drives a live browser page: it
// opens the lightbox from the first media preview button found in the
// accessibility tree, then repeatedly activates the navigate-right
// control until that control reports itself disabled.
package carousel

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/axtree"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/config"
	errs "github.com/FooBarWidget/social-schools-photos-downloader/pkg/errors"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/logger"
)

// Page is the browser capability set the walker needs. A live session
// satisfies it; tests substitute a scripted fake.
type Page interface {
	Navigate(url, waitSelector string, timeout time.Duration) error
	WaitVisible(selector string, timeout time.Duration) error
	Snapshot() (*axtree.Node, error)
	ClickNode(backendID int64) error
	Evaluate(expr string, out interface{}) error
}

// LocatorStrategy finds the navigate-right control inside an open
// lightbox and returns a CSS selector that addresses it. The control
// has no stable class name, so strategies probe rendered markup.
type LocatorStrategy interface {
	FindNext(page Page, lightboxSelector string) (string, error)
}

const (
	defaultMaxItems    = 500
	defaultSettleDelay = 500 * time.Millisecond
)

// Walker enumerates the media sources of one post at a time
type Walker struct {
	page    Page
	locator LocatorStrategy
	cfg     config.ScrapeConfig
	log     logger.Logger
}

// NewWalker creates a walker bound to a page. A nil locator selects
// the icon-marker strategy with the configured markers.
func NewWalker(page Page, cfg config.ScrapeConfig, locator LocatorStrategy, log logger.Logger) *Walker {
	if locator == nil {
		locator = NewIconLocator(cfg.NextControlMarkers)
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Walker{
		page:    page,
		locator: locator,
		cfg:     cfg,
		log:     log,
	}
}

// Walk navigates to a post page and returns every media source URL in
// carousel order. A post without any media preview yields an empty
// slice and no error. The returned slice is freshly allocated on every
// call; the walker keeps no state between posts.
func (w *Walker) Walk(href string) ([]string, error) {
	if err := w.page.Navigate(href, w.cfg.PostMarkerSelector, w.cfg.NavTimeout); err != nil {
		return nil, fmt.Errorf("post page did not load: %w", err)
	}

	root, err := w.page.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("accessibility snapshot failed: %w", err)
	}

	preview := axtree.FindFirst(root, axtree.MediaPreviewButton)
	if preview == nil {
		w.log.WithField("href", href).Info("no media preview found, post has no photos")
		return []string{}, nil
	}

	if err := w.page.ClickNode(preview.BackendDOMNodeID); err != nil {
		return nil, errs.Structural("could not activate media preview %q: %v", preview.Name, err)
	}

	if err := w.page.WaitVisible(w.cfg.LightboxSelector, w.cfg.ElementTimeout); err != nil {
		return nil, errs.Structural("lightbox did not open: %v", err)
	}

	// The navigate-right control must exist even for single-item
	// posts; its absence means the page is malformed.
	nextSelector, err := w.locator.FindNext(w.page, w.cfg.LightboxSelector)
	if err != nil {
		return nil, err
	}

	return w.collect(nextSelector)
}

// collect reads the displayed media source, advances the carousel and
// repeats until the navigate-right control reports disabled.
func (w *Walker) collect(nextSelector string) ([]string, error) {
	maxItems := w.cfg.MaxCarouselItems
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}
	settle := w.cfg.SettleDelay
	if settle <= 0 {
		settle = defaultSettleDelay
	}

	sources := make([]string, 0, 4)
	for {
		if len(sources) >= maxItems {
			return nil, errs.Structural("carousel did not terminate after %d items", maxItems)
		}

		src, err := w.currentMediaSource()
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
		w.log.WithFields(map[string]interface{}{
			"item": len(sources),
			"src":  src,
		}).Debug("collected media source")

		if err := w.clickNext(nextSelector); err != nil {
			return nil, err
		}
		time.Sleep(settle)

		disabled, err := w.nextDisabled(nextSelector)
		if err != nil {
			return nil, err
		}
		if disabled {
			return sources, nil
		}
	}
}

// currentMediaSource resolves the source URL of the media element
// shown in the lightbox. A direct src attribute on the img or video
// element wins; a source element nested under the video is consulted
// only when no direct attribute is present.
func (w *Walker) currentMediaSource() (string, error) {
	src, err := w.directMediaSource()
	if err != nil {
		return "", err
	}
	if src != "" {
		return src, nil
	}

	src, err = w.nestedMediaSource()
	if err != nil {
		return "", err
	}
	if src == "" {
		return "", errs.Structural("media element has neither a direct nor a nested source")
	}
	return src, nil
}

// directMediaSource reads a src attribute carried directly on the
// displayed img or video element
func (w *Walker) directMediaSource() (string, error) {
	expr := fmt.Sprintf(`(function() {
		var lb = document.querySelector(%q);
		if (!lb) { return ""; }
		var img = lb.querySelector("img");
		if (img && img.src) { return img.src; }
		var video = lb.querySelector("video");
		if (video && video.src) { return video.src; }
		return "";
	})()`, w.cfg.LightboxSelector)

	var src string
	if err := w.page.Evaluate(expr, &src); err != nil {
		return "", errs.Structural("could not read media source: %v", err)
	}
	return src, nil
}

// nestedMediaSource reads the source element nested under a video
// element, the form some video embeds use instead of a src attribute
func (w *Walker) nestedMediaSource() (string, error) {
	expr := fmt.Sprintf(`(function() {
		var lb = document.querySelector(%q);
		if (!lb) { return ""; }
		var source = lb.querySelector("video source");
		if (source && source.src) { return source.src; }
		return "";
	})()`, w.cfg.LightboxSelector)

	var src string
	if err := w.page.Evaluate(expr, &src); err != nil {
		return "", errs.Structural("could not read nested media source: %v", err)
	}
	return src, nil
}

// clickNext activates the navigate-right control
func (w *Walker) clickNext(selector string) error {
	expr := fmt.Sprintf(`(function() {
		var btn = document.querySelector(%q);
		if (!btn) { return false; }
		btn.click();
		return true;
	})()`, selector)

	var clicked bool
	if err := w.page.Evaluate(expr, &clicked); err != nil {
		return errs.Structural("could not activate navigate-right control: %v", err)
	}
	if !clicked {
		return errs.Structural("navigate-right control disappeared mid-walk")
	}
	return nil
}

// nextDisabled reads the control's disabled state, the sole natural
// loop terminator
func (w *Walker) nextDisabled(selector string) (bool, error) {
	expr := fmt.Sprintf(`(function() {
		var btn = document.querySelector(%q);
		if (!btn) { return "missing"; }
		if (btn.disabled === true) { return "disabled"; }
		if (btn.getAttribute("aria-disabled") === "true") { return "disabled"; }
		if (btn.classList.contains("disabled")) { return "disabled"; }
		return "enabled";
	})()`, selector)

	var state string
	if err := w.page.Evaluate(expr, &state); err != nil {
		return false, errs.Structural("could not read navigate-right state: %v", err)
	}
	switch state {
	case "disabled":
		return true, nil
	case "enabled":
		return false, nil
	default:
		return false, errs.Structural("navigate-right control disappeared mid-walk")
	}
}

// IconLocator finds the navigate-right control by scanning button
// markup inside the lightbox for a directional-icon marker. The UI's
// class names are generated per build, so text markers in the
// rendered icon markup are the most stable handle available.
type IconLocator struct {
	markers []string
}

// NewIconLocator creates a locator matching any of the given markers
func NewIconLocator(markers []string) *IconLocator {
	return &IconLocator{markers: markers}
}

const nextControlAttr = "data-sspd-next"

// FindNext tags the matching button with a private attribute and
// returns a selector for it, so later reads address the same element.
func (l *IconLocator) FindNext(page Page, lightboxSelector string) (string, error) {
	markersJSON, err := json.Marshal(l.markers)
	if err != nil {
		return "", fmt.Errorf("could not encode markers: %w", err)
	}

	expr := fmt.Sprintf(`(function() {
		var lb = document.querySelector(%q);
		if (!lb) { return false; }
		var markers = %s;
		var buttons = lb.querySelectorAll("button");
		for (var i = 0; i < buttons.length; i++) {
			var html = buttons[i].innerHTML || "";
			for (var j = 0; j < markers.length; j++) {
				if (markers[j] !== "" && html.indexOf(markers[j]) !== -1) {
					buttons[i].setAttribute(%q, "");
					return true;
				}
			}
		}
		return false;
	})()`, lightboxSelector, markersJSON, nextControlAttr)

	var found bool
	if err := page.Evaluate(expr, &found); err != nil {
		return "", errs.Structural("could not probe for navigate-right control: %v", err)
	}
	if !found {
		return "", errs.Structural("no navigate-right control found in lightbox")
	}
	return fmt.Sprintf("button[%s]", nextControlAttr), nil
}
