package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ViktorIgeland/lkpg-rs/internal/news"
)

// Memory is an in-memory news.Index for tests and local development.
// Upserts by the same id overwrite, and queries rank by cosine similarity,
// mirroring the serverless index's semantics.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	items     map[string]memoryItem
}

type memoryItem struct {
	vector   []float32
	metadata map[string]string
}

// NewMemory creates an empty in-memory index.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]memoryItem)}
}

// Ensure records the dimensionality; creation is instantaneous here.
func (m *Memory) Ensure(_ context.Context, dimension int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dimension != 0 && m.dimension != dimension {
		return fmt.Errorf("index already has dimension %d", m.dimension)
	}
	m.dimension = dimension
	return nil
}

// Upsert stores the vector and metadata under id, overwriting any prior
// entry.
func (m *Memory) Upsert(_ context.Context, id string, vector []float32, metadata map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dimension == 0 {
		return fmt.Errorf("index not ready; call Ensure first")
	}
	if len(vector) != m.dimension {
		return fmt.Errorf("vector has %d dimensions, index expects %d", len(vector), m.dimension)
	}
	vec := make([]float32, len(vector))
	copy(vec, vector)
	md := make(map[string]string, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	m.items[id] = memoryItem{vector: vec, metadata: md}
	return nil
}

// Query returns up to k entries ordered by descending cosine similarity.
func (m *Memory) Query(_ context.Context, vector []float32, k int) ([]news.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]news.Match, 0, len(m.items))
	for id, item := range m.items {
		metadata := make(map[string]string, len(item.metadata))
		for key, val := range item.metadata {
			metadata[key] = val
		}
		matches = append(matches, news.Match{
			ID:       id,
			Score:    cosineSimilarity(vector, item.vector),
			Metadata: metadata,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Len reports the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// IDs returns the stored ids in no particular order.
func (m *Memory) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	return ids
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
