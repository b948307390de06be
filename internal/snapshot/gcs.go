package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/storage"

	"github.com/ViktorIgeland/lkpg-rs/internal/news"
)

// GCS writes the snapshot to a Google Cloud Storage object, for deployments
// where the ingestion job runs on ephemeral machines.
type GCS struct {
	client *storage.Client
	bucket string
	object string
}

// NewGCS creates a snapshot store writing to gs://bucket/object using
// ambient application credentials.
func NewGCS(ctx context.Context, bucket, object string) (*GCS, error) {
	if bucket == "" {
		return nil, fmt.Errorf("snapshot bucket is required")
	}
	if object == "" {
		object = "news.json"
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("new storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket, object: object}, nil
}

// Save overwrites the snapshot object with the given article set.
func (s *GCS) Save(ctx context.Context, articles []news.Article) error {
	if articles == nil {
		articles = []news.Article{}
	}
	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	w := s.client.Bucket(s.bucket).Object(s.object).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write snapshot object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close snapshot object: %w", err)
	}
	return nil
}

// Close releases the underlying storage client.
func (s *GCS) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close storage client: %w", err)
	}
	return nil
}
