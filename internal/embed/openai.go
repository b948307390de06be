// Package embed maps text to dense vectors via the OpenAI embeddings API.
package embed

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI implements news.Embedder against the OpenAI embeddings endpoint.
// The same instance is shared by ingestion and the query service so both
// sides live in the same embedding space.
type OpenAI struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// NewOpenAI builds an embedder for the given model. dimensions must match
// the model's output dimensionality (1536 for text-embedding-3-small).
func NewOpenAI(apiKey, model string, dimensions int) *OpenAI {
	return &OpenAI{
		client:     openai.NewClient(apiKey),
		model:      openai.EmbeddingModel(model),
		dimensions: dimensions,
	}
}

// Embed returns the embedding vector for the given text.
func (e *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding response contained no data")
	}
	vec := resp.Data[0].Embedding
	if len(vec) != e.dimensions {
		return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(vec), e.dimensions)
	}
	return vec, nil
}

// Dimensions reports the vector dimensionality of the configured model.
func (e *OpenAI) Dimensions() int {
	return e.dimensions
}
