// Package browser drives a single Chrome session over the Chrome DevTools
// Protocol. The session is exclusively owned by the orchestrator and
// passed by reference into the carousel walker; no concurrent use occurs.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/config"
	errs "github.com/FooBarWidget/social-schools-photos-downloader/pkg/errors"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/logger"
)

// Session wraps one Chrome window
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	cfg         *config.BrowserConfig
	log         logger.Logger
}

// NewSession launches Chrome and opens a window. The profile directory is
// reused across runs so an earlier interactive login can survive.
func NewSession(cfg *config.BrowserConfig, log logger.Logger) (*Session, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	profileDir := cfg.UserDataDir
	if profileDir == "" {
		profileDir = filepath.Join(os.TempDir(), "sspd-chrome-profile")
	}
	if err := os.MkdirAll(profileDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(profileDir),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("window-size", "1280,1024"),
	)
	if !cfg.Headless {
		// undo the three opts in chromedp.Headless() which is included
		// in DefaultExecAllocatorOptions
		opts = append(opts, chromedp.Flag("headless", false))
		opts = append(opts, chromedp.Flag("hide-scrollbars", false))
		opts = append(opts, chromedp.Flag("mute-audio", false))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// Start the browser now so a broken Chrome install fails fast.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	log.WithField("profile_dir", profileDir).Info("browser session started")

	return &Session{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		cfg:         cfg,
		log:         log,
	}, nil
}

// Close releases the browser. Callers are expected to await an explicit
// human acknowledgement before calling this.
func (s *Session) Close() {
	s.cancel()
	s.allocCancel()
}

// run executes actions against the session under a bounded timeout,
// mapping a deadline hit to the timeout failure type.
func (s *Session) run(timeout time.Duration, desc string, actions ...chromedp.Action) error {
	ctx := s.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := chromedp.Run(ctx, actions...); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errs.Timeout("%s exceeded %v", desc, timeout)
		}
		return fmt.Errorf("%s: %w", desc, err)
	}
	return nil
}
