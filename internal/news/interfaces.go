package news

import "context"

// Fetcher retrieves the raw body of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Embedder maps text to a fixed-dimensionality dense vector. The same
// Embedder must be used at ingestion and query time.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Index is a similarity index supporting idempotent upserts by id and
// nearest-neighbor queries.
type Index interface {
	// Ensure creates the backing index with the given dimensionality if it
	// does not exist yet, and blocks until it is ready to accept writes.
	Ensure(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error
	Query(ctx context.Context, vector []float32, k int) ([]Match, error)
}

// SnapshotStore persists the full article set of a run, overwriting the
// previous snapshot. Snapshots are for inspection; nothing reads them back.
type SnapshotStore interface {
	Save(ctx context.Context, articles []Article) error
}
