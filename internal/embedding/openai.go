package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIModel embeds text through an OpenAI-compatible embeddings endpoint.
type OpenAIModel struct {
	client     *openai.Client
	model      string
	dimensions int
}

// NewOpenAIModel creates a client for the endpoint. baseURL may be empty for the default API.
func NewOpenAIModel(apiKey, baseURL, model string, dimensions int) (*OpenAIModel, error) {
	if apiKey == "" {
		return nil, errors.New("openai: API key is not set")
	}
	if model == "" {
		return nil, errors.New("openai: model name is not set")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIModel{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		dimensions: dimensions,
	}, nil
}

// Embed requests the embedding of text.
func (m *OpenAIModel) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := m.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(m.model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, NewInvalidEmbeddingError("openai returned no embedding")
	}
	return resp.Data[0].Embedding, nil
}

// Dimensions returns the configured embedding dimension.
func (m *OpenAIModel) Dimensions() int {
	return m.dimensions
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (m *OpenAIModel) Close() error {
	return nil
}
