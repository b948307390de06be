package index

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ViktorIgeland/lkpg-rs/internal/news"
)

// stubEmbedder records inputs and returns a fixed-dimension vector.
type stubEmbedder struct {
	inputs []string
	err    error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.inputs = append(s.inputs, text)
	return []float32{1, 0}, nil
}

func (s *stubEmbedder) Dimensions() int { return 2 }

func TestIndexerUpsertEmbedsTitleAndContent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	emb := &stubEmbedder{}
	mem := NewMemory()
	ix := NewIndexer(emb, mem, zap.NewNop())
	require.NoError(t, ix.EnsureReady(ctx))

	art := news.Article{
		ID:      news.ArticleID("https://www.linkoping.se/nyheter/skolkort/"),
		Title:   "Skolkort",
		Date:    "2024-03-03",
		URL:     "https://www.linkoping.se/nyheter/skolkort/",
		Content: "Alla elever får skolkort.",
	}
	require.NoError(t, ix.Upsert(ctx, art))

	require.Len(t, emb.inputs, 1)
	assert.Equal(t, "Skolkort\n\nAlla elever får skolkort.", emb.inputs[0])

	matches, err := mem.Query(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, art.ID, matches[0].ID)
	assert.Equal(t, "Skolkort", matches[0].Metadata["title"])
	assert.Equal(t, "2024-03-03", matches[0].Metadata["date"])
	assert.Equal(t, art.URL, matches[0].Metadata["url"])
	// The body never goes into index metadata.
	_, hasContent := matches[0].Metadata["content"]
	assert.False(t, hasContent)
}

func TestIndexerUpsertTitleOnlyFallback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	emb := &stubEmbedder{}
	ix := NewIndexer(emb, NewMemory(), zap.NewNop())
	require.NoError(t, ix.EnsureReady(ctx))

	art := news.Article{Title: "Drottninggatan", URL: "https://www.linkoping.se/nyheter/drottninggatan/"}
	require.NoError(t, ix.Upsert(ctx, art))

	require.Len(t, emb.inputs, 1)
	assert.Equal(t, "Drottninggatan", emb.inputs[0])
}

func TestIndexerUpsertIdempotentById(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := NewMemory()
	ix := NewIndexer(&stubEmbedder{}, mem, zap.NewNop())
	require.NoError(t, ix.EnsureReady(ctx))

	art := news.Article{Title: "Skolkort", URL: "https://www.linkoping.se/nyheter/skolkort/"}
	require.NoError(t, ix.Upsert(ctx, art))
	require.NoError(t, ix.Upsert(ctx, art))

	assert.Equal(t, 1, mem.Len())
	assert.Equal(t, []string{news.ArticleID(art.URL)}, mem.IDs())
}

func TestIndexerUpsertPropagatesEmbedderError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := NewMemory()
	ix := NewIndexer(&stubEmbedder{err: errors.New("quota exceeded")}, mem, zap.NewNop())
	require.NoError(t, ix.EnsureReady(ctx))

	err := ix.Upsert(ctx, news.Article{Title: "Skolkort", URL: "https://example.se/x"})
	require.Error(t, err)
	assert.Equal(t, 0, mem.Len())
}
