// Package gmail finds Social Schools photo-notification emails and
// extracts the post links they reference. Each notification carries a
// "view photos" link into the web app; those links form the corpus
// the scraper later walks.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
	"sort"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"golang.org/x/oauth2/google"

	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/config"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/logger"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/posts"
)

const gmailUser = "me"

// Fetcher searches the inbox for notification emails
type Fetcher struct {
	svc *gmail.Service
	cfg config.GmailConfig
	log logger.Logger
}

// NewFetcher authenticates against the Gmail API using the configured
// OAuth client credentials and cached token
func NewFetcher(ctx context.Context, cfg config.GmailConfig, log logger.Logger) (*Fetcher, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	credentials, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("could not read OAuth credentials file: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(credentials, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("could not parse OAuth credentials: %w", err)
	}

	client, err := getClient(ctx, oauthConfig, cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not authenticate: %w", err)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("could not create Gmail service: %w", err)
	}

	return &Fetcher{svc: svc, cfg: cfg, log: log}, nil
}

// FetchCandidateLinks searches for notification emails matching the
// configured query and returns one descriptor per discovered post
// link, ordered oldest first
func (f *Fetcher) FetchCandidateLinks(ctx context.Context) ([]*posts.Descriptor, error) {
	pattern, err := regexp.Compile(f.cfg.LinkPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid link pattern %q: %w", f.cfg.LinkPattern, err)
	}

	ids, err := f.listMessageIDs(ctx)
	if err != nil {
		return nil, err
	}
	f.log.WithField("count", len(ids)).Info("found candidate notification emails")

	seen := make(map[string]bool)
	var descriptors []*posts.Descriptor
	for _, id := range ids {
		msg, err := f.svc.Users.Messages.Get(gmailUser, id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("could not fetch message %s: %w", id, err)
		}

		date := time.UnixMilli(msg.InternalDate)
		subject := headerValue(msg.Payload, "Subject")

		html := findHTMLBody(msg.Payload)
		if html == "" {
			f.log.WithField("message_id", id).Debug("no HTML body, skipping")
			continue
		}

		links, err := ExtractPostLinks(html, pattern)
		if err != nil {
			f.log.WithField("message_id", id).WithError(err).Warn("could not parse email body")
			continue
		}

		for _, href := range links {
			if seen[href] {
				continue
			}
			seen[href] = true
			descriptors = append(descriptors, &posts.Descriptor{
				MessageID: id,
				Date:      date,
				Subject:   subject,
				Href:      href,
			})
		}
	}

	sort.SliceStable(descriptors, func(i, j int) bool {
		return descriptors[i].Date.Before(descriptors[j].Date)
	})

	f.log.WithField("count", len(descriptors)).Info("extracted post links")
	return descriptors, nil
}

// listMessageIDs pages through the search results up to the
// configured maximum
func (f *Fetcher) listMessageIDs(ctx context.Context) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		call := f.svc.Users.Messages.List(gmailUser).Q(f.cfg.Query).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("inbox search failed: %w", err)
		}

		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
			if f.cfg.MaxResults > 0 && len(ids) >= int(f.cfg.MaxResults) {
				return ids, nil
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return ids, nil
		}
	}
}

// headerValue reads a header from a message payload
func headerValue(payload *gmail.MessagePart, name string) string {
	if payload == nil {
		return ""
	}
	for _, h := range payload.Headers {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}

// findHTMLBody walks the MIME tree for the first text/html part
func findHTMLBody(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}
	if part.MimeType == "text/html" && part.Body != nil && part.Body.Data != "" {
		decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(part.Body.Data)
		if err != nil {
			return ""
		}
		return string(decoded)
	}
	for _, child := range part.Parts {
		if html := findHTMLBody(child); html != "" {
			return html
		}
	}
	return ""
}
