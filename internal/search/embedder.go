package search

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// VectorDimension is the embedding width stored in the chunks table.
// gemini-embedding-001 emits 3072 dimensions by default and supports
// truncation to 768 via OutputDimensionality; the pgvector schema in
// db/migrations uses vector(768).
const VectorDimension int32 = 768

// Embedder turns text into a fixed-width embedding vector.
// Interface is defined here, by the consumer; production code uses
// GeminiEmbedder and tests substitute a fake.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// embedCaller is the slice of *genai.Models the embedder needs.
type embedCaller interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// GeminiEmbedder generates embeddings through the Gemini API.
type GeminiEmbedder struct {
	models embedCaller
	model  string
}

// NewGeminiEmbedder creates an embedder for the given model name.
// models is typically client.Models from a *genai.Client.
func NewGeminiEmbedder(models embedCaller, model string) (*GeminiEmbedder, error) {
	if models == nil {
		return nil, fmt.Errorf("genai models client is required")
	}
	if model == "" {
		return nil, fmt.Errorf("embedder model name is required")
	}
	return &GeminiEmbedder{models: models, model: model}, nil
}

// Embed generates a VectorDimension-wide embedding for text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.models.EmbedContent(ctx, e.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{OutputDimensionality: genai.Ptr(VectorDimension)},
	)
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return resp.Embeddings[0].Values, nil
}
