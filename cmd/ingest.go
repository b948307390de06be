package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ViktorIgeland/lkpg-rs/internal/embed"
	"github.com/ViktorIgeland/lkpg-rs/internal/fetch"
	"github.com/ViktorIgeland/lkpg-rs/internal/index"
	"github.com/ViktorIgeland/lkpg-rs/internal/news"
	"github.com/ViktorIgeland/lkpg-rs/internal/pipeline"
	"github.com/ViktorIgeland/lkpg-rs/internal/scrape"
	"github.com/ViktorIgeland/lkpg-rs/internal/snapshot"
)

// newIngestCmd creates the 'ingest' subcommand. It runs one full pass:
// scrape the news listing, fetch and normalize each article, embed and
// upsert into the similarity index, and write the snapshot.
func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Scrape, embed and index the latest news articles",
		Long: `Fetches the news listing page, extracts the most recent articles,
normalizes their text and dates, embeds them and upserts them into the
vector index. Re-running is safe: articles are keyed by URL, so existing
entries are overwritten rather than duplicated.`,
		RunE: runIngestCommand,
	}
}

func runIngestCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg, logger := a.cfg, a.logger

	fetcher, closeFetcher, err := buildFetcher(a)
	if err != nil {
		return err
	}
	defer closeFetcher()

	embedder := embed.NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Dimensions)
	idx, err := index.NewPinecone(index.PineconeConfig{
		APIKey:    cfg.Pinecone.APIKey,
		IndexName: cfg.Pinecone.IndexName,
		Cloud:     cfg.Pinecone.Cloud,
		Region:    cfg.Pinecone.Region,
	}, logger)
	if err != nil {
		return fmt.Errorf("init vector index: %w", err)
	}

	snapshots, closeSnapshots, err := buildSnapshotStore(cmd, a)
	if err != nil {
		return err
	}
	defer closeSnapshots()

	p, err := pipeline.New(
		fetcher,
		scrape.New(cfg.Scrape.MaxItems),
		index.NewIndexer(embedder, idx, logger),
		snapshots,
		pipeline.Config{
			ListingURL:  cfg.Scrape.ListingURL,
			Concurrency: cfg.Scrape.Concurrency,
		},
		logger,
	)
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	summary, err := p.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("run ingestion: %w", err)
	}
	logger.Info("ingest command finished",
		zap.String("run_id", summary.RunID),
		zap.Int("ingested", summary.Ingested),
		zap.Int("failed", summary.Failed),
	)
	return nil
}

// buildFetcher selects the static HTTP fetcher or, when configured, the
// headless renderer for templates that populate the listing client-side.
func buildFetcher(a *app) (news.Fetcher, func(), error) {
	cfg := a.cfg
	if cfg.Scrape.RenderJS {
		rendered := fetch.NewRendered(cfg.Scrape.UserAgent, cfg.FetchTimeout())
		return rendered, rendered.Close, nil
	}
	client, err := fetch.NewClient(fetch.Config{
		UserAgent: cfg.Scrape.UserAgent,
		Timeout:   cfg.FetchTimeout(),
		Delay:     cfg.FetchDelay(),
		Retry: fetch.NewRetryPolicy(
			cfg.HTTP.MaxRetries,
			cfg.FetchBackoffInitial(),
			cfg.FetchBackoffMax(),
		),
	}, a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init fetcher: %w", err)
	}
	return client, func() {}, nil
}

func buildSnapshotStore(cmd *cobra.Command, a *app) (news.SnapshotStore, func(), error) {
	noop := func() {}
	switch a.cfg.Snapshot.Backend {
	case "local":
		store, err := snapshot.NewLocal(a.cfg.Snapshot.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("init snapshot store: %w", err)
		}
		return store, noop, nil
	case "gcs":
		store, err := snapshot.NewGCS(cmd.Context(), a.cfg.Snapshot.GCSBucket, a.cfg.Snapshot.GCSObject)
		if err != nil {
			return nil, nil, fmt.Errorf("init snapshot store: %w", err)
		}
		return store, func() {
			if cerr := store.Close(); cerr != nil {
				a.logger.Warn("close snapshot store failed", zap.Error(cerr))
			}
		}, nil
	default: // "none", already validated
		return nil, noop, nil
	}
}
