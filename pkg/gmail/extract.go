package gmail

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractPostLinks parses an HTML email body and returns every anchor
// href matching the pattern, in document order and deduplicated
func ExtractPostLinks(html string, pattern *regexp.Regexp) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("could not parse HTML: %w", err)
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || !pattern.MatchString(href) || seen[href] {
			return
		}
		seen[href] = true
		links = append(links, href)
	})

	return links, nil
}
