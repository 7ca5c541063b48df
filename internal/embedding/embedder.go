// Package embedding turns text into fixed-dimension, L2-normalized vectors.
//
// A Provider owns one Model. The model is loaded lazily on first use, at most
// once even under concurrent callers, and is read-only afterwards.
package embedding

import "context"

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Model is a loaded embedding backend. Implementations mean-pool token
// representations into one vector of Dimensions() values.
type Model interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Close() error
}

// Loader initializes a Model. It is called by a Provider on first use.
type Loader func(ctx context.Context) (Model, error)
