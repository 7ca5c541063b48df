package embedding

import (
	"context"
	"fmt"
)

// HashModel is a deterministic bag-of-words model. Each token is hashed to a
// signed one-hot vector and the token vectors are mean-pooled. Texts that
// share words get similar vectors; no model files are needed.
type HashModel struct {
	dimensions int
}

// NewHashModel returns a hash model producing vectors of the given dimensions.
func NewHashModel(dimensions int) *HashModel {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashModel{dimensions: dimensions}
}

// Embed returns the mean of the token vectors of text.
func (m *HashModel) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tokens := Tokens(text)
	emb := make([]float32, m.dimensions)
	if len(tokens) == 0 {
		return emb, nil
	}
	for _, tok := range tokens {
		h := HashString(tok)
		sign := float32(1)
		if HashString("#"+tok)%2 == 1 {
			sign = -1
		}
		emb[h%m.dimensions] += sign
	}
	n := float32(len(tokens))
	for i := range emb {
		emb[i] /= n
	}
	return emb, nil
}

// Dimensions returns the embedding dimension.
func (m *HashModel) Dimensions() int {
	return m.dimensions
}

// Close is a no-op for HashModel.
func (m *HashModel) Close() error {
	return nil
}

func (m *HashModel) String() string {
	return fmt.Sprintf("hash(%d)", m.dimensions)
}
