// Package report runs the end-to-end brand query: resolve candidate
// URLs, fetch and extract articles, classify their relevance, and cache
// the assembled report.
package report

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"brandwatch/internal/cache"
	"brandwatch/internal/classify"
	"brandwatch/internal/scrape"
	"brandwatch/internal/search"
)

// DefaultConcurrency bounds the parallel article fetches per request.
const DefaultConcurrency = 5

// Article is one classified article in a report.
type Article struct {
	URL       string             `json:"url"`
	Title     string             `json:"title"`
	Content   string             `json:"content"`
	Relevance classify.Relevance `json:"relevance"`
}

// BrandReport is the unit cached and returned to the caller.
type BrandReport struct {
	Brand    string    `json:"brand"`
	Articles []Article `json:"articles"`
}

// Runner composes the resolver, fetcher and classifier into the brand
// query pipeline.
type Runner struct {
	Store       *cache.Store
	Resolver    search.Resolver
	Fetcher     *scrape.Fetcher
	Classifier  *classify.Classifier
	Logger      *zap.Logger
	Concurrency int
}

func NewRunner(store *cache.Store, resolver search.Resolver, fetcher *scrape.Fetcher,
	classifier *classify.Classifier, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Store:       store,
		Resolver:    resolver,
		Fetcher:     fetcher,
		Classifier:  classifier,
		Logger:      logger,
		Concurrency: DefaultConcurrency,
	}
}

// Run produces the report for brand. A cached report within TTL is
// returned verbatim. Failures along the way shrink the article list but
// never fail the request; the worst case is a report with no articles.
func (r *Runner) Run(ctx context.Context, brand string) *BrandReport {
	key := cache.Key("brand-report", brand)

	var cached BrandReport
	if r.Store.Get(key, &cached) {
		r.Logger.Debug("report cache hit", zap.String("brand", brand))
		return &cached
	}

	urls, err := r.Resolver.Resolve(ctx, brand)
	if err != nil {
		// A transient search failure yields an empty report, but unlike
		// a legitimately empty result it is not cached, so the next
		// request retries the search.
		r.Logger.Warn("search failed, reporting no articles",
			zap.String("brand", brand), zap.Error(err))
		return &BrandReport{Brand: brand, Articles: make([]Article, 0)}
	}

	fragments := r.fetchAll(ctx, urls)

	rep := &BrandReport{Brand: brand, Articles: make([]Article, 0, len(fragments))}
	for _, frag := range fragments {
		if frag == nil {
			continue
		}
		rep.Articles = append(rep.Articles, Article{
			URL:       frag.URL,
			Title:     frag.Title,
			Content:   frag.Content,
			Relevance: r.Classifier.Classify(ctx, frag.Content, brand),
		})
	}

	r.Store.Put(key, rep)
	r.Logger.Info("report built",
		zap.String("brand", brand),
		zap.Int("candidates", len(urls)),
		zap.Int("articles", len(rep.Articles)))
	return rep
}

// fetchAll fans the URL list out over a bounded worker pool and puts
// results back in rank order. Dropped URLs leave a nil slot.
func (r *Runner) fetchAll(ctx context.Context, urls []string) []*scrape.Fragment {
	fragments := make([]*scrape.Fragment, len(urls))
	if len(urls) == 0 {
		return fragments
	}

	workers := r.Concurrency
	if workers <= 0 {
		workers = DefaultConcurrency
	}
	if workers > len(urls) {
		workers = len(urls)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fragments[i] = r.Fetcher.Fetch(ctx, urls[i])
			}
		}()
	}
	for i := range urls {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return fragments
}
