// Package search implements the query-time service: embed the query with
// the same model used at ingestion, rank nearest neighbors, return metadata.
package search

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ViktorIgeland/lkpg-rs/internal/news"
)

// ErrEmptyQuery is returned for blank query text. It is a client error and
// must be rejected before any provider call is made.
var ErrEmptyQuery = errors.New("query must not be empty")

// ErrUnavailable hides provider failures from callers; details are logged,
// never surfaced.
var ErrUnavailable = errors.New("search is temporarily unavailable")

// Service answers free-text queries against the similarity index.
type Service struct {
	embedder news.Embedder
	index    news.Index
	defaultK int
	maxK     int
	logger   *zap.Logger
}

// New constructs a Service. The embedder must be the same one used during
// ingestion; mixing embedding spaces silently breaks ranking.
func New(embedder news.Embedder, index news.Index, defaultK, maxK int, logger *zap.Logger) *Service {
	if defaultK <= 0 {
		defaultK = 5
	}
	if maxK < defaultK {
		maxK = defaultK
	}
	return &Service{
		embedder: embedder,
		index:    index,
		defaultK: defaultK,
		maxK:     maxK,
		logger:   logger,
	}
}

// Search returns up to k articles ranked by descending similarity to the
// query text. k <= 0 selects the default; k is clamped to the configured
// maximum. An empty index yields an empty slice, not an error.
func (s *Service) Search(ctx context.Context, query string, k int) ([]news.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		k = s.defaultK
	}
	if k > s.maxK {
		k = s.maxK
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Error("query embedding failed", zap.Error(err))
		return nil, ErrUnavailable
	}

	matches, err := s.index.Query(ctx, vector, k)
	if err != nil {
		s.logger.Error("index query failed", zap.Error(err))
		return nil, ErrUnavailable
	}

	results := make([]news.SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, news.SearchResult{
			Title: m.Metadata["title"],
			Date:  m.Metadata["date"],
			URL:   m.Metadata["url"],
			Score: m.Score,
		})
	}
	// The index contract already orders by score; enforce it anyway so a
	// misbehaving backend cannot leak unordered results to callers.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}
