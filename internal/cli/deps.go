package cli

import (
	"net/http"

	"go.uber.org/zap"

	"brandwatch/internal/cache"
	"brandwatch/internal/classify"
	"brandwatch/internal/config"
	"brandwatch/internal/report"
	"brandwatch/internal/scrape"
	"brandwatch/internal/search"
)

// deps is everything a command needs, assembled from configuration.
type deps struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *cache.Store
	runner *report.Runner
}

func buildDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}

	store, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, logger)
	if err != nil {
		return nil, err
	}

	searchClient := &http.Client{Timeout: cfg.Search.Timeout}
	var inner search.Resolver
	switch cfg.Search.Provider {
	case "rss":
		inner = search.NewRSS(searchClient, cfg.Search.BaseURL, logger)
	default:
		inner = search.NewSERP(searchClient, cfg.Search.BaseURL, logger)
	}
	resolver := search.NewCached(store, inner, logger)

	fetcher := scrape.NewFetcher(&http.Client{Timeout: cfg.Fetch.Timeout}, logger)

	var scorer classify.Scorer
	switch cfg.Classify.Backend {
	case "zeroshot":
		scorer = classify.NewZeroShot(nil, cfg.Classify.Endpoint, cfg.Classify.Token)
	default:
		scorer = classify.NewKeywords()
	}
	classifier := classify.New(scorer, logger)

	runner := report.NewRunner(store, resolver, fetcher, classifier, logger)
	runner.Concurrency = cfg.Fetch.Concurrency

	return &deps{cfg: cfg, logger: logger, store: store, runner: runner}, nil
}

func (d *deps) close() {
	_ = d.logger.Sync()
}
