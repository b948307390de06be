// Package pipeline sequences the ingestion run: fetch listing, extract
// stubs, fetch and normalize each detail page, upsert into the similarity
// index, and persist the snapshot.
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ViktorIgeland/lkpg-rs/internal/index"
	"github.com/ViktorIgeland/lkpg-rs/internal/metrics"
	"github.com/ViktorIgeland/lkpg-rs/internal/news"
	"github.com/ViktorIgeland/lkpg-rs/internal/normalize"
	"github.com/ViktorIgeland/lkpg-rs/internal/scrape"
)

// Config bounds a run.
type Config struct {
	ListingURL  string
	Concurrency int
}

// Summary reports what a run accomplished.
type Summary struct {
	RunID    string
	Scraped  int
	Ingested int
	Failed   int
}

// Pipeline orchestrates one ingestion run.
type Pipeline struct {
	fetcher   news.Fetcher
	extractor *scrape.Extractor
	indexer   *index.Indexer
	snapshots news.SnapshotStore
	cfg       Config
	logger    *zap.Logger
}

// outcome is the tagged result of processing one stub. Per-article faults
// are carried as values so one bad article cannot short-circuit the batch.
type outcome struct {
	article news.Article
	url     string
	err     error
}

// New constructs a Pipeline. snapshots may be nil to skip persistence.
func New(
	fetcher news.Fetcher,
	extractor *scrape.Extractor,
	indexer *index.Indexer,
	snapshots news.SnapshotStore,
	cfg Config,
	logger *zap.Logger,
) (*Pipeline, error) {
	if _, err := url.Parse(cfg.ListingURL); err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Pipeline{
		fetcher:   fetcher,
		extractor: extractor,
		indexer:   indexer,
		snapshots: snapshots,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Run executes one full ingestion pass. A listing fetch failure is fatal to
// the run; every other failure is scoped to its article.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID))

	base, err := url.Parse(p.cfg.ListingURL)
	if err != nil {
		return Summary{}, fmt.Errorf("parse listing url: %w", err)
	}

	body, err := p.fetcher.Fetch(ctx, base.String())
	if err != nil {
		metrics.IngestRun("failed")
		return Summary{}, fmt.Errorf("fetch listing page: %w", err)
	}

	stubs := p.extractor.ListingStubs(body, base)
	logger.Info("listing scraped", zap.Int("stubs", len(stubs)))
	if len(stubs) == 0 {
		logger.Warn("no article links found on listing page",
			zap.String("url", base.String()),
		)
	}

	if err := p.indexer.EnsureReady(ctx); err != nil {
		metrics.IngestRun("failed")
		return Summary{}, fmt.Errorf("ensure similarity index: %w", err)
	}

	outcomes := p.processAll(ctx, logger, stubs)

	articles := make([]news.Article, 0, len(outcomes))
	failed := 0
	for _, o := range outcomes {
		if o.err != nil {
			failed++
			continue
		}
		articles = append(articles, o.article)
	}
	// Concurrent processing must not leak nondeterministic snapshot order.
	sort.Slice(articles, func(i, j int) bool { return articles[i].URL < articles[j].URL })

	if p.snapshots != nil {
		if err := p.snapshots.Save(ctx, articles); err != nil {
			logger.Error("save snapshot failed", zap.Error(err))
		}
	}

	metrics.IngestRun("completed")
	logger.Info("ingestion run finished",
		zap.Int("scraped", len(stubs)),
		zap.Int("ingested", len(articles)),
		zap.Int("failed", failed),
	)
	return Summary{
		RunID:    runID,
		Scraped:  len(stubs),
		Ingested: len(articles),
		Failed:   failed,
	}, nil
}

// processAll fans stubs out over a bounded worker pool. Parallelism is a
// throughput knob only; outcomes are identical to sequential processing.
func (p *Pipeline) processAll(ctx context.Context, logger *zap.Logger, stubs []news.Stub) []outcome {
	sem := make(chan struct{}, p.cfg.Concurrency)
	results := make(chan outcome, len(stubs))
	var wg sync.WaitGroup

	for _, stub := range stubs {
		// Coarse-grained cancellation: finish nothing new once canceled.
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(stub news.Stub) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results <- p.process(ctx, logger, stub)
		}(stub)
	}

	wg.Wait()
	close(results)

	outcomes := make([]outcome, 0, len(stubs))
	for o := range results {
		outcomes = append(outcomes, o)
	}
	return outcomes
}

// process turns one stub into a normalized, indexed article. A detail-page
// failure degrades to an empty body; only embed/index failures skip the
// article for this run.
func (p *Pipeline) process(ctx context.Context, logger *zap.Logger, stub news.Stub) outcome {
	article := news.Article{
		ID:    news.ArticleID(stub.URL),
		Title: normalize.Text(stub.Title),
		Date:  normalize.Date(stub.DateText),
		URL:   stub.URL,
	}
	if article.Date == "" && stub.DateText != "" {
		logger.Debug("date text not parseable",
			zap.String("url", stub.URL),
			zap.String("date_text", stub.DateText),
		)
	}

	body, err := p.fetcher.Fetch(ctx, stub.URL)
	if err != nil {
		metrics.ArticleFailed("fetch_detail")
		logger.Warn("detail page fetch failed; indexing title only",
			zap.String("url", stub.URL),
			zap.String("step", "fetch_detail"),
			zap.Error(err),
		)
	} else {
		article.Content = normalize.Text(p.extractor.DetailContent(body))
	}

	if err := p.indexer.Upsert(ctx, article); err != nil {
		metrics.ArticleFailed("upsert")
		logger.Warn("article skipped for this run",
			zap.String("url", stub.URL),
			zap.String("step", "upsert"),
			zap.Error(err),
		)
		return outcome{url: stub.URL, err: err}
	}

	metrics.ArticleIngested()
	return outcome{article: article, url: stub.URL}
}
