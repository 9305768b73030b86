package search

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

// Matches href="..." or href='...'
var reHrefAny = regexp.MustCompile(`(?i)\bhref\s*=\s*(?:"([^"]+)"|'([^']+)')`)

// Matches URLs in plain text
var reURLPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// RSS resolves queries through the Google News search feed. Feed items
// link to a Google wrapper URL; the real publisher URL is recovered from
// the item description, the GUID, or the wrapper's query parameters.
type RSS struct {
	Client  *http.Client
	BaseURL string // e.g. "https://news.google.com"
	Logger  *zap.Logger
}

func NewRSS(client *http.Client, baseURL string, logger *zap.Logger) *RSS {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL == "" {
		baseURL = "https://news.google.com"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RSS{Client: client, BaseURL: baseURL, Logger: logger}
}

func (r *RSS) Resolve(ctx context.Context, query string) ([]string, error) {
	u := fmt.Sprintf("%s/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en",
		r.BaseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.1")

	resp, err := r.Client.Do(req)
	if err != nil {
		r.Logger.Warn("rss request failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("news feed returned status %d", resp.StatusCode)
	}

	// gofeed.Parser is not safe for concurrent Parse calls, so each
	// request gets its own.
	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing news feed: %w", err)
	}

	urls := make([]string, 0, MaxResults)
	for _, item := range feed.Items {
		if len(urls) >= MaxResults {
			break
		}
		if dest := publisherURL(item); dest != "" {
			urls = append(urls, dest)
		}
	}

	r.Logger.Debug("rss resolved", zap.String("query", query), zap.Int("urls", len(urls)))
	return urls, nil
}

// publisherURL tries the item description first (it usually carries the
// real article link), then the GUID, then query parameters on the
// wrapper link itself.
func publisherURL(item *gofeed.Item) string {
	if u := urlFromDescription(item.Description); u != "" {
		return u
	}
	if u := urlFromGUID(item.GUID); u != "" {
		return u
	}
	if u := urlFromWrapper(item.Link); u != "" {
		return u
	}
	return ""
}

func urlFromDescription(desc string) string {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return ""
	}

	// Google sometimes double-encodes entities.
	for i := 0; i < 3; i++ {
		unescaped := html.UnescapeString(desc)
		if unescaped == desc {
			break
		}
		desc = unescaped
	}

	for _, m := range reHrefAny.FindAllStringSubmatch(desc, -1) {
		href := strings.TrimSpace(m[1])
		if href == "" && len(m) >= 3 {
			href = strings.TrimSpace(m[2])
		}
		if isPublisherURL(href) {
			return href
		}
	}

	for _, raw := range reURLPattern.FindAllString(desc, -1) {
		raw = strings.TrimRight(raw, `.,;:!?)'"`)
		if isPublisherURL(raw) {
			return raw
		}
	}
	return ""
}

func urlFromGUID(guid string) string {
	guid = strings.TrimSpace(guid)
	if guid == "" {
		return ""
	}
	if isPublisherURL(guid) {
		return guid
	}
	for _, raw := range reURLPattern.FindAllString(guid, -1) {
		raw = strings.TrimRight(raw, `.,;:!?)'"`)
		if isPublisherURL(raw) {
			return raw
		}
	}
	return ""
}

func urlFromWrapper(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return ""
	}
	for _, param := range []string{"url", "u", "link", "q"} {
		if val := parsed.Query().Get(param); isPublisherURL(val) {
			return val
		}
	}
	return ""
}

// isPublisherURL accepts absolute http(s) URLs that are not Google hosts.
func isPublisherURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return false
	}
	if host == "google.com" || strings.HasSuffix(host, ".google.com") {
		return false
	}
	return true
}
