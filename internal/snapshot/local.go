// Package snapshot persists the normalized article set of each run as a
// JSON document, for inspection and debugging. The pipeline never reads
// snapshots back.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ViktorIgeland/lkpg-rs/internal/news"
)

// Local writes the snapshot to a file on the local filesystem.
type Local struct {
	path string
}

// NewLocal creates a local snapshot store writing to path.
func NewLocal(path string) (*Local, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	return &Local{path: path}, nil
}

// Save overwrites the snapshot file with the given article set.
func (s *Local) Save(_ context.Context, articles []news.Article) error {
	if articles == nil {
		articles = []news.Article{}
	}
	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
