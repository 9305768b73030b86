// Package search turns a brand query into a ranked list of candidate
// article URLs. Two providers exist: scraping a web search results page
// and the Google News RSS feed. Both sit behind the same cache wrapper.
package search

import (
	"context"

	"go.uber.org/zap"

	"brandwatch/internal/cache"
)

// MaxResults caps every resolver at the first ten candidates in
// document order.
const MaxResults = 10

// UserAgent is sent on every outbound request. Search engines and some
// publishers reject clients without a browser-looking UA.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0 Safari/537.36"

// Resolver returns candidate article URLs for a query, most relevant
// first. Providers report network failures and non-success statuses as
// errors. Nothing derived from a failed lookup is cached; the pipeline
// treats the error as "no results" and moves on.
type Resolver interface {
	Resolve(ctx context.Context, query string) ([]string, error)
}

// Cached consults the cache store before delegating to an inner
// resolver, and caches what the inner resolver produced. Cache hits are
// returned verbatim with no revalidation.
type Cached struct {
	Store  *cache.Store
	Next   Resolver
	Logger *zap.Logger
}

func NewCached(store *cache.Store, next Resolver, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{Store: store, Next: next, Logger: logger}
}

func (c *Cached) Resolve(ctx context.Context, query string) ([]string, error) {
	key := cache.Key("search", query)

	var urls []string
	if c.Store.Get(key, &urls) {
		c.Logger.Debug("search cache hit", zap.String("query", query), zap.Int("urls", len(urls)))
		return urls, nil
	}

	urls, err := c.Next.Resolve(ctx, query)
	if err != nil {
		// A failed lookup is not worth remembering for a whole TTL.
		c.Logger.Warn("search failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	if len(urls) > MaxResults {
		urls = urls[:MaxResults]
	}
	c.Store.Put(key, urls)
	return urls, nil
}
