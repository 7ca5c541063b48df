package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/kotae/internal/config"
	"go.uber.org/zap"
)

// ModelType names an embedding backend.
type ModelType string

const (
	// ModelTypeONNX runs a local sentence-transformer. Requires CGO and onnxruntime.
	ModelTypeONNX ModelType = "onnx"
	// ModelTypeOpenAI calls an OpenAI-compatible embeddings endpoint.
	ModelTypeOpenAI ModelType = "openai"
	// ModelTypeHash uses the offline feature-hashing model.
	ModelTypeHash ModelType = "hash"
)

// NewLoader returns a Loader for the backend named in cfg.Provider.
// Nothing is loaded until the Loader is called.
func NewLoader(cfg *config.EmbeddingConfig) (Loader, error) {
	switch ModelType(cfg.Provider) {
	case ModelTypeONNX, "":
		return func(ctx context.Context) (Model, error) {
			var tokenizer Tokenizer = &SimpleTokenizer{}
			if cfg.VocabPath != "" {
				wp, err := LoadWordPieceTokenizer(cfg.VocabPath)
				if err != nil {
					return nil, err
				}
				tokenizer = wp
			}
			return NewONNXModel(ONNXOptions{
				ModelPath:         cfg.ModelPath,
				SharedLibraryPath: cfg.SharedLibraryPath,
				OutputName:        cfg.OutputName,
				Pooled:            isPooledOutput(cfg.OutputName),
				Dimensions:        cfg.Dimensions,
				MaxTokens:         cfg.MaxTokens,
				Tokenizer:         tokenizer,
			})
		}, nil
	case ModelTypeOpenAI:
		return func(ctx context.Context) (Model, error) {
			return NewOpenAIModel(cfg.OpenAI.APIKey(), cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.Dimensions)
		}, nil
	case ModelTypeHash:
		return func(ctx context.Context) (Model, error) {
			return NewHashModel(cfg.Dimensions), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: onnx, openai, hash)", cfg.Provider)
	}
}

// NewProviderFromConfig builds a Provider for cfg.
func NewProviderFromConfig(cfg *config.EmbeddingConfig, logger *zap.Logger) (*Provider, error) {
	loader, err := NewLoader(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return NewProvider(loader,
		WithLogger(logger.With(zap.String("provider", cfg.Provider))),
		WithDimensions(cfg.Dimensions),
		WithCacheSize(cfg.CacheSize),
		WithTimeout(time.Duration(cfg.TimeoutSecs)*time.Second),
	), nil
}

func isPooledOutput(name string) bool {
	switch name {
	case "sentence_embedding", "pooler_output", "output":
		return true
	}
	return false
}
