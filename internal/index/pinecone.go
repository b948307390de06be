// Package index provides similarity index implementations and the upsert
// path that ties articles, embeddings and the index together.
package index

import (
	"context"
	"fmt"
	"time"

	"github.com/pinecone-io/go-pinecone/v2/pinecone"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ViktorIgeland/lkpg-rs/internal/news"
)

const readinessPollInterval = 2 * time.Second

// PineconeConfig identifies the serverless index and its placement.
type PineconeConfig struct {
	APIKey    string
	IndexName string
	Cloud     string
	Region    string
}

// Pinecone implements news.Index on a Pinecone serverless index with
// cosine similarity.
type Pinecone struct {
	client *pinecone.Client
	cfg    PineconeConfig
	logger *zap.Logger
	conn   *pinecone.IndexConnection
}

// NewPinecone constructs the client; the index itself is created lazily by
// Ensure.
func NewPinecone(cfg PineconeConfig, logger *zap.Logger) (*Pinecone, error) {
	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("new pinecone client: %w", err)
	}
	return &Pinecone{client: client, cfg: cfg, logger: logger}, nil
}

// Ensure creates the index with the embedder's dimensionality if it does
// not exist, waits until it is ready, and opens the data-plane connection.
func (p *Pinecone) Ensure(ctx context.Context, dimension int) error {
	idx, err := p.client.DescribeIndex(ctx, p.cfg.IndexName)
	if err != nil {
		p.logger.Info("creating similarity index",
			zap.String("index", p.cfg.IndexName),
			zap.Int("dimension", dimension),
		)
		dim := int32(dimension)
		metric := pinecone.Cosine
		idx, err = p.client.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
			Name:      p.cfg.IndexName,
			Dimension: dim,
			Metric:    metric,
			Cloud:     pinecone.Cloud(p.cfg.Cloud),
			Region:    p.cfg.Region,
		})
		if err != nil {
			return fmt.Errorf("create index %s: %w", p.cfg.IndexName, err)
		}
	}

	for idx.Status == nil || !idx.Status.Ready {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readinessPollInterval):
		}
		idx, err = p.client.DescribeIndex(ctx, p.cfg.IndexName)
		if err != nil {
			return fmt.Errorf("describe index %s: %w", p.cfg.IndexName, err)
		}
	}

	conn, err := p.client.Index(pinecone.NewIndexConnParams{Host: idx.Host})
	if err != nil {
		return fmt.Errorf("connect to index %s: %w", p.cfg.IndexName, err)
	}
	p.conn = conn
	return nil
}

// Upsert writes the vector and metadata under id, overwriting any prior
// entry with the same id.
func (p *Pinecone) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error {
	if p.conn == nil {
		return fmt.Errorf("index %s not ready; call Ensure first", p.cfg.IndexName)
	}
	fields := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		fields[k] = v
	}
	md, err := structpb.NewStruct(fields)
	if err != nil {
		return fmt.Errorf("build metadata: %w", err)
	}
	values := vector
	_, err = p.conn.UpsertVectors(ctx, []*pinecone.Vector{{
		Id:       id,
		Values:   values,
		Metadata: md,
	}})
	if err != nil {
		return fmt.Errorf("upsert vector %s: %w", id, err)
	}
	return nil
}

// Query returns the k nearest neighbors with their stored metadata.
func (p *Pinecone) Query(ctx context.Context, vector []float32, k int) ([]news.Match, error) {
	if p.conn == nil {
		return nil, fmt.Errorf("index %s not ready; call Ensure first", p.cfg.IndexName)
	}
	res, err := p.conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(k),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("query index %s: %w", p.cfg.IndexName, err)
	}

	matches := make([]news.Match, 0, len(res.Matches))
	for _, m := range res.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		metadata := make(map[string]string)
		if m.Vector.Metadata != nil {
			for key, val := range m.Vector.Metadata.GetFields() {
				metadata[key] = val.GetStringValue()
			}
		}
		matches = append(matches, news.Match{
			ID:       m.Vector.Id,
			Score:    m.Score,
			Metadata: metadata,
		})
	}
	return matches, nil
}
