package browser

import (
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/auth"
	errs "github.com/FooBarWidget/social-schools-photos-downloader/pkg/errors"
)

const loginPollInterval = 2 * time.Second

// Login navigates to the login page and waits until the authenticated
// home marker appears. The human completes the login in the visible
// browser window; when stored credentials are available the form is
// prefilled to save typing. Already being logged in (profile reuse)
// satisfies the wait immediately.
func (s *Session) Login(loginURL, homeSelector string, account *auth.Account, timeout time.Duration) error {
	s.log.WithField("url", loginURL).Info("opening login page, waiting for login to complete")

	if err := s.run(0, "open login page", chromedp.Navigate(loginURL)); err != nil {
		return errs.New(errs.TypeAuth, "could not open login page: %v", err)
	}

	if account != nil {
		s.prefillLoginForm(account)
	}

	deadline := time.Now().Add(timeout)
	for {
		var loggedIn bool
		expr := fmt.Sprintf(`!!document.querySelector(%q)`, homeSelector)
		if err := s.Evaluate(expr, &loggedIn); err == nil && loggedIn {
			s.log.Info("login completed")
			return nil
		}
		if time.Now().After(deadline) {
			return errs.New(errs.TypeAuth, "login not completed within %v", timeout)
		}
		time.Sleep(loginPollInterval)
	}
}

// prefillLoginForm types stored credentials into the login form when its
// fields are present. Failures here are harmless; the human can always
// type the credentials by hand.
func (s *Session) prefillLoginForm(account *auth.Account) {
	fields := []struct {
		selector string
		value    string
	}{
		{`input[type="email"], input[name="username"]`, account.Email},
		{`input[type="password"]`, account.Password},
	}

	for _, f := range fields {
		if f.value == "" {
			continue
		}
		var nodes []*cdp.Node
		err := s.run(5*time.Second, "locate login field",
			chromedp.Nodes(f.selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0)),
		)
		if err != nil || len(nodes) == 0 {
			continue
		}
		if err := s.run(5*time.Second, "prefill login field",
			chromedp.SendKeys(f.selector, f.value, chromedp.ByQuery),
		); err != nil {
			s.log.WithError(err).Debug("could not prefill login field")
		}
	}
}
