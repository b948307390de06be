package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ViktorIgeland/lkpg-rs/internal/index"
	"github.com/ViktorIgeland/lkpg-rs/internal/news"
	"github.com/ViktorIgeland/lkpg-rs/internal/scrape"
	"github.com/ViktorIgeland/lkpg-rs/internal/search"
	"github.com/ViktorIgeland/lkpg-rs/internal/snapshot"
)

const listingURL = "https://www.linkoping.se/nyheter/"

const testListing = `
<html><body><ul>
  <li>
    <h2>Skolkort till alla elever</h2>
    <time>3 mars 2024</time>
    <a href="/nyheter/skolkort/">Läs mer</a>
  </li>
  <li>
    <a href="/nyheter/drottninggatan/">Drottninggatan byggs om</a>
    <span>snart</span>
  </li>
</ul></body></html>`

const skolkortDetail = `
<html><body><article>
  <p>Alla elever i kommunen får skolkort.</p>
  <p>Kortet gäller från höstterminen.</p>
</article></body></html>`

const drottninggatanDetail = `
<html><body><main><p>Drottninggatan byggs om i sommar.</p></main></body></html>`

// fakeFetcher serves canned pages and simulates per-URL failures.
type fakeFetcher struct {
	pages map[string]string
	fail  map[string]error
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	if err, ok := f.fail[url]; ok {
		return nil, err
	}
	body, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("no page for %s", url)
	}
	return []byte(body), nil
}

// keywordEmbedder produces deterministic vectors from keyword hits so
// similarity ranking is testable without a real model.
type keywordEmbedder struct{}

func (keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	vec := []float32{0, 0, 0.1}
	if strings.Contains(lower, "skolkort") {
		vec[0] = 1
	}
	if strings.Contains(lower, "drottninggatan") {
		vec[1] = 1
	}
	return vec, nil
}

func (keywordEmbedder) Dimensions() int { return 3 }

func newTestFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: map[string]string{
			listingURL: testListing,
			"https://www.linkoping.se/nyheter/skolkort/":       skolkortDetail,
			"https://www.linkoping.se/nyheter/drottninggatan/": drottninggatanDetail,
		},
		fail: map[string]error{},
	}
}

func newTestPipeline(t *testing.T, fetcher *fakeFetcher, mem *index.Memory, snapshotPath string) *Pipeline {
	t.Helper()
	var snapshots news.SnapshotStore
	if snapshotPath != "" {
		store, err := snapshot.NewLocal(snapshotPath)
		require.NoError(t, err)
		snapshots = store
	}
	p, err := New(
		fetcher,
		scrape.New(5),
		index.NewIndexer(keywordEmbedder{}, mem, zap.NewNop()),
		snapshots,
		Config{ListingURL: listingURL, Concurrency: 2},
		zap.NewNop(),
	)
	require.NoError(t, err)
	return p
}

func TestRunIngestsAndNormalizes(t *testing.T) {
	t.Parallel()

	mem := index.NewMemory()
	snapshotPath := filepath.Join(t.TempDir(), "news.json")
	p := newTestPipeline(t, newTestFetcher(), mem, snapshotPath)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Scraped)
	assert.Equal(t, 2, summary.Ingested)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 2, mem.Len())

	data, err := os.ReadFile(snapshotPath)
	require.NoError(t, err)
	var articles []news.Article
	require.NoError(t, json.Unmarshal(data, &articles))
	require.Len(t, articles, 2)

	byTitle := map[string]news.Article{}
	for _, a := range articles {
		byTitle[a.Title] = a
	}

	skolkort := byTitle["Skolkort till alla elever"]
	assert.Equal(t, "2024-03-03", skolkort.Date)
	assert.Equal(t, news.ArticleID(skolkort.URL), skolkort.ID)
	assert.Contains(t, skolkort.Content, "Alla elever i kommunen får skolkort.")
	assert.Contains(t, skolkort.Content, "Kortet gäller från höstterminen.")

	drottninggatan := byTitle["Drottninggatan byggs om"]
	// "snart" is not a date; the field stays empty rather than guessed.
	assert.Equal(t, "", drottninggatan.Date)
	assert.Equal(t, "Drottninggatan byggs om i sommar.", drottninggatan.Content)

	assert.NotEqual(t, skolkort.ID, drottninggatan.ID)
}

func TestRunIsIdempotentAcrossRuns(t *testing.T) {
	t.Parallel()

	mem := index.NewMemory()
	p := newTestPipeline(t, newTestFetcher(), mem, "")

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	firstIDs := mem.IDs()
	sort.Strings(firstIDs)

	_, err = p.Run(context.Background())
	require.NoError(t, err)
	secondIDs := mem.IDs()
	sort.Strings(secondIDs)

	assert.Equal(t, 2, mem.Len())
	assert.Equal(t, firstIDs, secondIDs)
}

func TestRunSearchFindsTopResult(t *testing.T) {
	t.Parallel()

	mem := index.NewMemory()
	p := newTestPipeline(t, newTestFetcher(), mem, "")
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	svc := search.New(keywordEmbedder{}, mem, 5, 20, zap.NewNop())
	results, err := svc.Search(context.Background(), "Skolkort", 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Skolkort till alla elever", results[0].Title)
	assert.Equal(t, "2024-03-03", results[0].Date)
}

func TestRunToleratesDetailFetchFailure(t *testing.T) {
	t.Parallel()

	fetcher := newTestFetcher()
	fetcher.fail["https://www.linkoping.se/nyheter/skolkort/"] = errors.New("connection refused")

	mem := index.NewMemory()
	p := newTestPipeline(t, fetcher, mem, "")

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	// The unreachable detail page degrades to a title-only article; the
	// other article is unaffected. Neither failure aborts the run.
	assert.Equal(t, 2, summary.Ingested)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 2, mem.Len())

	matches, err := mem.Query(context.Background(), []float32{1, 0, 0.1}, 5)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "Skolkort till alla elever", matches[0].Metadata["title"])
}

func TestRunFailsWhenListingUnreachable(t *testing.T) {
	t.Parallel()

	fetcher := newTestFetcher()
	fetcher.fail[listingURL] = errors.New("dns failure")

	p := newTestPipeline(t, fetcher, index.NewMemory(), "")
	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch listing page")
}

func TestRunEmptyListingYieldsEmptyRun(t *testing.T) {
	t.Parallel()

	fetcher := newTestFetcher()
	fetcher.pages[listingURL] = "<html><body><p>inga nyheter idag</p></body></html>"

	mem := index.NewMemory()
	snapshotPath := filepath.Join(t.TempDir(), "news.json")
	p := newTestPipeline(t, fetcher, mem, snapshotPath)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Scraped)
	assert.Equal(t, 0, mem.Len())

	data, err := os.ReadFile(snapshotPath)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}
