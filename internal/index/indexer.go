package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ViktorIgeland/lkpg-rs/internal/news"
)

// Indexer embeds articles and upserts them into the similarity index under
// their stable url-derived id.
type Indexer struct {
	embedder news.Embedder
	index    news.Index
	logger   *zap.Logger
}

// NewIndexer wires an embedder and an index together.
func NewIndexer(embedder news.Embedder, index news.Index, logger *zap.Logger) *Indexer {
	return &Indexer{embedder: embedder, index: index, logger: logger}
}

// EnsureReady lazily creates the backing index with the embedder's output
// dimensionality.
func (ix *Indexer) EnsureReady(ctx context.Context) error {
	return ix.index.Ensure(ctx, ix.embedder.Dimensions())
}

// Upsert embeds the article text and writes (id, vector, metadata) to the
// index. Calling it twice for the same url overwrites rather than appends.
func (ix *Indexer) Upsert(ctx context.Context, article news.Article) error {
	id := article.ID
	if id == "" {
		id = news.ArticleID(article.URL)
	}

	vector, err := ix.embedder.Embed(ctx, article.EmbeddingText())
	if err != nil {
		return fmt.Errorf("embed article: %w", err)
	}

	if err := ix.index.Upsert(ctx, id, vector, article.Metadata()); err != nil {
		return fmt.Errorf("upsert article: %w", err)
	}

	ix.logger.Debug("article upserted",
		zap.String("id", id),
		zap.String("url", article.URL),
		zap.String("date", article.Date),
	)
	return nil
}
