package downloader

import (
	"fmt"
	"io"
	"net/http"
	"time"

	errs "github.com/FooBarWidget/social-schools-photos-downloader/pkg/errors"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/logger"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/retry"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36"

// Client downloads media out of band, reusing the authenticated
// browser session's cookies. Media URLs on the platform's CDN require
// the same session the browser logged in with.
type Client struct {
	httpClient   *http.Client
	cookieHeader string
	retryCfg     *retry.Config
	log          logger.Logger
}

// NewClient creates a download client carrying the session cookie
// header captured from the live browser
func NewClient(cookieHeader string, timeout time.Duration, retryAttempts int, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.Logger = log
	if retryAttempts > 0 {
		retryCfg.MaxAttempts = retryAttempts
	}

	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		cookieHeader: cookieHeader,
		retryCfg:     retryCfg,
		log:          log,
	}
}

// Download fetches a media resource, retrying transient failures
func (c *Client) Download(url string) ([]byte, error) {
	return retry.DoWithResult(func() ([]byte, error) {
		return c.downloadOnce(url)
	}, c.retryCfg)
}

func (c *Client) downloadOnce(url string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.New(errs.TypeUnknown, "invalid media URL %q: %v", url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	if c.cookieHeader != "" {
		req.Header.Set("Cookie", c.cookieHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.New(errs.TypeNetwork, "request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.New(errs.TypeNetwork, "reading body failed: %v", err)
	}
	if len(data) == 0 {
		return nil, errs.New(errs.TypeServer, "empty response body")
	}
	return data, nil
}

// statusError maps an HTTP status to the error taxonomy, which drives
// the retry decision
func statusError(code int) error {
	var t errs.Type
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		t = errs.TypeAuth
	case code == http.StatusNotFound:
		t = errs.TypeNotFound
	case errs.IsRetryableStatusCode(code):
		t = errs.TypeServer
	default:
		t = errs.TypeUnknown
	}
	e := errs.New(t, "unexpected status %d (%s)", code, http.StatusText(code))
	e.Code = code
	return fmt.Errorf("media fetch: %w", e)
}
