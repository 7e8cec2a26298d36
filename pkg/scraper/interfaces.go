package scraper

// Walker enumerates every media source of one post
type Walker interface {
	Walk(href string) ([]string, error)
}

// Session is the slice of browser capability the orchestrator uses
// directly: screenshots on failure and cookie capture for out-of-band
// downloads. The walker drives the rest of the browser.
type Session interface {
	CookieHeader(urls ...string) (string, error)
	Screenshot(path string) error
}
