// Package scrape fetches a candidate article page and extracts a
// normalized fragment: the page title plus truncated paragraph text.
// Extraction is best-effort; anything unusable is reported as absent,
// never as an error.
package scrape

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"brandwatch/internal/search"
)

// MaxContentLength bounds the extracted body text, in characters.
const MaxContentLength = 500

// maxBodyBytes bounds how much of an arbitrary third-party response we
// are willing to read.
const maxBodyBytes = 2 << 20

// Fragment is the extracted article before classification.
type Fragment struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Fetcher retrieves article pages. MaxAttempts counts the initial try;
// only transport errors are retried, a served non-2xx response is final.
type Fetcher struct {
	Client      *http.Client
	Logger      *zap.Logger
	MaxAttempts int
}

func NewFetcher(client *http.Client, logger *zap.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{Client: client, Logger: logger, MaxAttempts: 2}
}

// Fetch returns the extracted fragment for url, or nil when the page is
// unreachable or yields no usable title/content. The caller drops nil
// results and moves on.
func (f *Fetcher) Fetch(ctx context.Context, url string) *Fragment {
	raw, ok := f.download(ctx, url)
	if !ok {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(decode(raw)))
	if err != nil {
		f.Logger.Debug("unparsable page", zap.String("url", url), zap.Error(err))
		return nil
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	var parts []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		parts = append(parts, p.Text())
	})
	content := truncate(strings.Join(parts, " "), MaxContentLength)

	if title == "" || strings.TrimSpace(content) == "" {
		f.Logger.Debug("page missing title or content", zap.String("url", url))
		return nil
	}

	return &Fragment{URL: url, Title: title, Content: content}
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, bool) {
	attempts := f.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			f.Logger.Debug("bad article url", zap.String("url", url), zap.Error(err))
			return nil, false
		}
		req.Header.Set("User-Agent", search.UserAgent)

		resp, err := f.Client.Do(req)
		if err != nil {
			f.Logger.Debug("article request failed",
				zap.String("url", url), zap.Int("attempt", attempt), zap.Error(err))
			if attempt >= attempts || ctx.Err() != nil {
				return nil, false
			}
			select {
			case <-time.After(500 * time.Millisecond):
			case <-ctx.Done():
				return nil, false
			}
			continue
		}

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()
		if err != nil {
			f.Logger.Debug("article read failed", zap.String("url", url), zap.Error(err))
			return nil, false
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			f.Logger.Debug("article non-success status",
				zap.String("url", url), zap.Int("status", resp.StatusCode))
			return nil, false
		}
		return raw, true
	}
}

// decode interprets the body as UTF-8 when valid, falling back to
// ISO-8859-1 so that every byte still maps to some character.
func decode(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
