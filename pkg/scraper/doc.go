// Package scraper orchestrates one end-to-end run: walk every post in
// the link corpus with the carousel walker, then download every
// discovered media source with the browser session's cookies.
//
// Failures are isolated per post. A post whose page is broken or
// whose downloads fail is logged and skipped; the run continues with
// the next descriptor. Only failures outside that boundary (login,
// cookie capture) abort the run.
package scraper
