package report

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"brandwatch/internal/cache"
	"brandwatch/internal/classify"
	"brandwatch/internal/scrape"
)

type stubResolver struct {
	calls int32
	urls  []string
}

func (s *stubResolver) Resolve(ctx context.Context, query string) ([]string, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.urls, nil
}

// articleServer serves /story/N pages mentioning Acme, /irrelevant pages
// that do not, and 404s everything else.
func articleServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch {
		case r.URL.Path == "/irrelevant":
			fmt.Fprint(w, `<html><head><title>Weather</title></head><body><p>Rain tomorrow.</p></body></html>`)
		case len(r.URL.Path) > 7 && r.URL.Path[:7] == "/story/":
			n := r.URL.Path[7:]
			fmt.Fprintf(w, `<html><head><title>Story %s</title></head><body><p>Acme story number %s.</p></body></html>`, n, n)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRunner(t *testing.T, srv *httptest.Server, resolver *stubResolver) *Runner {
	t.Helper()
	store, err := cache.New(t.TempDir(), time.Hour, zap.NewNop())
	require.NoError(t, err)
	fetcher := scrape.NewFetcher(srv.Client(), zap.NewNop())
	fetcher.MaxAttempts = 1
	classifier := classify.New(classify.NewKeywords(), zap.NewNop())
	return NewRunner(store, resolver, fetcher, classifier, zap.NewNop())
}

func TestRunBuildsOrderedClassifiedReport(t *testing.T) {
	var hits int32
	srv := articleServer(t, &hits)

	resolver := &stubResolver{urls: []string{
		srv.URL + "/story/1",
		srv.URL + "/irrelevant",
		srv.URL + "/story/2",
		srv.URL + "/story/3",
	}}
	r := newRunner(t, srv, resolver)

	rep := r.Run(context.Background(), "Acme")

	require.Len(t, rep.Articles, 4)
	assert.Equal(t, "Acme", rep.Brand)

	// Rank order survives the concurrent fetch.
	assert.Equal(t, "Story 1", rep.Articles[0].Title)
	assert.Equal(t, "Weather", rep.Articles[1].Title)
	assert.Equal(t, "Story 2", rep.Articles[2].Title)
	assert.Equal(t, "Story 3", rep.Articles[3].Title)

	assert.Equal(t, classify.Relevant, rep.Articles[0].Relevance)
	assert.Equal(t, classify.NotRelevant, rep.Articles[1].Relevance)
}

func TestRunDropsFailedFetches(t *testing.T) {
	var hits int32
	srv := articleServer(t, &hits)

	gone := srv.URL + "/gone"
	resolver := &stubResolver{urls: []string{
		srv.URL + "/story/1",
		gone,
		srv.URL + "/story/2",
	}}
	r := newRunner(t, srv, resolver)

	rep := r.Run(context.Background(), "Acme")

	require.Len(t, rep.Articles, 2)
	for _, art := range rep.Articles {
		assert.NotEqual(t, gone, art.URL)
	}
	assert.Equal(t, "Story 1", rep.Articles[0].Title)
	assert.Equal(t, "Story 2", rep.Articles[1].Title)
}

func TestRunSecondCallServedFromCache(t *testing.T) {
	var hits int32
	srv := articleServer(t, &hits)

	resolver := &stubResolver{urls: []string{srv.URL + "/story/1", srv.URL + "/story/2"}}
	r := newRunner(t, srv, resolver)

	first := r.Run(context.Background(), "Acme")
	fetchesAfterFirst := atomic.LoadInt32(&hits)
	resolvesAfterFirst := atomic.LoadInt32(&resolver.calls)

	second := r.Run(context.Background(), "Acme")

	assert.Equal(t, first, second)
	assert.Equal(t, fetchesAfterFirst, atomic.LoadInt32(&hits), "cached run must make no fetches")
	assert.Equal(t, resolvesAfterFirst, atomic.LoadInt32(&resolver.calls), "cached run must not search")

	b1, err := json.Marshal(first)
	require.NoError(t, err)
	b2, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
}

func TestRunEmptySearchYieldsEmptyCachedReport(t *testing.T) {
	var hits int32
	srv := articleServer(t, &hits)

	resolver := &stubResolver{urls: nil}
	r := newRunner(t, srv, resolver)

	rep := r.Run(context.Background(), "Acme")

	assert.Equal(t, "Acme", rep.Brand)
	assert.NotNil(t, rep.Articles)
	assert.Empty(t, rep.Articles)

	b, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.JSONEq(t, `{"brand": "Acme", "articles": []}`, string(b))

	// The empty result is itself cached.
	var cached BrandReport
	assert.True(t, r.Store.Get(cache.Key("brand-report", "Acme"), &cached))
	assert.Equal(t, int32(1), atomic.LoadInt32(&resolver.calls))
	r.Run(context.Background(), "Acme")
	assert.Equal(t, int32(1), atomic.LoadInt32(&resolver.calls))
}

type failingResolver struct {
	calls int32
}

func (f *failingResolver) Resolve(ctx context.Context, query string) ([]string, error) {
	atomic.AddInt32(&f.calls, 1)
	return nil, fmt.Errorf("search returned status 503")
}

func TestRunSearchFailureIsNotCached(t *testing.T) {
	var hits int32
	srv := articleServer(t, &hits)

	store, err := cache.New(t.TempDir(), time.Hour, zap.NewNop())
	require.NoError(t, err)
	resolver := &failingResolver{}
	r := NewRunner(store, resolver,
		scrape.NewFetcher(srv.Client(), zap.NewNop()),
		classify.New(classify.NewKeywords(), zap.NewNop()),
		zap.NewNop())

	rep := r.Run(context.Background(), "Acme")

	// The caller still gets a well-formed empty report.
	assert.Equal(t, "Acme", rep.Brand)
	assert.NotNil(t, rep.Articles)
	assert.Empty(t, rep.Articles)

	// But unlike a legitimately empty search result, the failure is not
	// pinned: nothing is cached and the next run searches again.
	var cached BrandReport
	assert.False(t, store.Get(cache.Key("brand-report", "Acme"), &cached))

	r.Run(context.Background(), "Acme")
	assert.Equal(t, int32(2), atomic.LoadInt32(&resolver.calls))
}

func TestRunManyURLsBoundedWorkers(t *testing.T) {
	var hits int32
	srv := articleServer(t, &hits)

	var urls []string
	for i := 0; i < 20; i++ {
		urls = append(urls, fmt.Sprintf("%s/story/%d", srv.URL, i))
	}
	resolver := &stubResolver{urls: urls}
	r := newRunner(t, srv, resolver)
	r.Concurrency = 3

	rep := r.Run(context.Background(), "Acme")

	require.Len(t, rep.Articles, 20)
	for i, art := range rep.Articles {
		assert.Equal(t, fmt.Sprintf("Story %d", i), art.Title)
	}
}
