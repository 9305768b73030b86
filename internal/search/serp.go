package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Search result anchors wrap the destination in a redirect parameter:
// /url?q=<real destination>&sa=...
var reRedirectTarget = regexp.MustCompile(`/url\?q=(https?://[^&]+)`)

// SERP scrapes the news vertical of a web search results page and
// recovers destination URLs from the redirect anchors.
type SERP struct {
	Client  *http.Client
	BaseURL string // e.g. "https://www.google.com"
	Logger  *zap.Logger
}

func NewSERP(client *http.Client, baseURL string, logger *zap.Logger) *SERP {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL == "" {
		baseURL = "https://www.google.com"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SERP{Client: client, BaseURL: baseURL, Logger: logger}
}

// Resolve issues one search request restricted to the news vertical.
// Any network-level failure or non-2xx status yields an empty list, as
// does a page with no qualifying anchors. Malformed HTML never raises:
// goquery parses what it can.
func (s *SERP) Resolve(ctx context.Context, query string) ([]string, error) {
	u := fmt.Sprintf("%s/search?q=%s&tbm=nws&lr=lang_en",
		s.BaseURL, url.QueryEscape(query+" news"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.Client.Do(req)
	if err != nil {
		s.Logger.Warn("serp request failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return []string{}, nil
	}

	urls := make([]string, 0, MaxResults)
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok {
			return true
		}
		m := reRedirectTarget.FindStringSubmatch(href)
		if m == nil {
			return true
		}
		dest := m[1]
		if decoded, err := url.QueryUnescape(dest); err == nil {
			dest = decoded
		}
		urls = append(urls, dest)
		return len(urls) < MaxResults
	})

	s.Logger.Debug("serp resolved", zap.String("query", query), zap.Int("urls", len(urls)))
	return urls, nil
}
