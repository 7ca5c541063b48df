package indexer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns a vector derived from the text length. It can be told
// to fail on texts containing a marker or to sleep a random amount per call.
type fakeEmbedder struct {
	dims     int
	failOn   string
	failWith error
	jitter   time.Duration
	dimsFor  func(text string) int

	mu    sync.Mutex
	calls []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	if f.jitter > 0 {
		time.Sleep(time.Duration(rand.Int63n(int64(f.jitter))))
	}
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, f.failWith
	}
	dims := f.dims
	if f.dimsFor != nil {
		dims = f.dimsFor(text)
	}
	vec := make([]float32, dims)
	vec[0] = float32(len(text))
	return vec, nil
}

func (f *fakeEmbedder) Dimensions() int { return f.dims }

func sentence(n int) string {
	return fmt.Sprintf("Sentence number %03d is long enough to survive the chunker threshold", n)
}

func document(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = sentence(i + 1)
	}
	return strings.Join(parts, ". ")
}

func TestBuilder_Scenario(t *testing.T) {
	b := NewBuilder(embedding.NewHashModel(16), 1)
	corpus, err := b.Build(context.Background(),
		"Alpha is a protocol. Beta is a format. Gamma handles retries and backoff with bounded attempts.")
	require.NoError(t, err)
	require.Equal(t, 1, corpus.Len())
	assert.Equal(t, 1, corpus.Records[0].ID)
	assert.Equal(t, "Gamma handles retries and backoff with bounded attempts.", corpus.Records[0].Text)
	assert.Len(t, corpus.Records[0].Embedding, 16)
}

func TestBuilder_OrderUnderConcurrency(t *testing.T) {
	const n = 40
	emb := &fakeEmbedder{dims: 4, jitter: 3 * time.Millisecond}
	corpus, err := NewBuilder(emb, 8).Build(context.Background(), document(n))
	require.NoError(t, err)
	require.Equal(t, n, corpus.Len())
	for i, rec := range corpus.Records {
		assert.Equal(t, i+1, rec.ID)
		assert.Equal(t, sentence(i+1), strings.TrimSuffix(rec.Text, "."))
		assert.Equal(t, float32(len(rec.Text)), rec.Embedding[0])
	}
}

func TestBuilder_SequentialByDefault(t *testing.T) {
	emb := &fakeEmbedder{dims: 4}
	_, err := NewBuilder(emb, 0).Build(context.Background(), document(5))
	require.NoError(t, err)
	require.Len(t, emb.calls, 5)
	for i, text := range emb.calls {
		assert.True(t, strings.HasPrefix(text, sentence(i+1)), "call %d out of order: %q", i, text)
	}
}

func TestBuilder_FailureDiscardsCorpus(t *testing.T) {
	emb := &fakeEmbedder{
		dims:     4,
		failOn:   "number 007",
		failWith: &embedding.ModelUnavailableError{Op: "inference", Err: context.DeadlineExceeded},
	}
	corpus, err := NewBuilder(emb, 4).Build(context.Background(), document(10))
	require.Error(t, err)
	assert.Nil(t, corpus)

	assert.ErrorIs(t, err, ErrEmbeddingProvider)
	assert.ErrorIs(t, err, embedding.ErrModelUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var bErr *EmbeddingProviderError
	require.True(t, errors.As(err, &bErr))
	assert.Equal(t, 7, bErr.Position)
}

func TestBuilder_EmptyInputPassesThrough(t *testing.T) {
	emb := &fakeEmbedder{dims: 4, failOn: "number 001", failWith: embedding.ErrEmptyInput}
	_, err := NewBuilder(emb, 1).Build(context.Background(), document(2))
	assert.ErrorIs(t, err, ErrEmbeddingProvider)
	assert.ErrorIs(t, err, embedding.ErrEmptyInput)
}

func TestBuilder_StopsAfterFailure(t *testing.T) {
	var calls atomic.Int32
	emb := &countingEmbedder{calls: &calls, failAt: 2}
	_, err := NewBuilder(emb, 1).Build(context.Background(), document(10))
	require.ErrorIs(t, err, ErrEmbeddingProvider)
	assert.Less(t, calls.Load(), int32(10))
}

type countingEmbedder struct {
	calls  *atomic.Int32
	failAt int32
}

func (c *countingEmbedder) Embed(ctx context.Context, _ string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.calls.Add(1) == c.failAt {
		return nil, errors.New("boom")
	}
	return []float32{1, 0}, nil
}

func (c *countingEmbedder) Dimensions() int { return 2 }

func TestBuilder_EmptyCorpus(t *testing.T) {
	emb := &fakeEmbedder{dims: 4}
	for _, text := range []string{"", "   ", "Too short. Also short.\n\nStill short."} {
		corpus, err := NewBuilder(emb, 2).Build(context.Background(), text)
		require.NoError(t, err)
		require.NotNil(t, corpus)
		assert.Equal(t, 0, corpus.Len())
		assert.NotNil(t, corpus.Records)
	}
	assert.Empty(t, emb.calls)
}

func TestBuilder_DimensionDisagreement(t *testing.T) {
	emb := &fakeEmbedder{dims: 4, dimsFor: func(text string) int {
		if strings.Contains(text, "number 003") {
			return 5
		}
		return 4
	}}
	_, err := NewBuilder(emb, 1).Build(context.Background(), document(4))
	require.ErrorIs(t, err, ErrEmbeddingProvider)
	assert.ErrorIs(t, err, embedding.ErrInvalidEmbedding)

	var bErr *EmbeddingProviderError
	require.ErrorAs(t, err, &bErr)
	assert.Equal(t, 3, bErr.Position)
}

func TestBuilder_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuilder(embedding.NewHashModel(8), 1).Build(ctx, document(3))
	assert.ErrorIs(t, err, ErrEmbeddingProvider)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuilder_WithProvider(t *testing.T) {
	p := embedding.NewProvider(func(context.Context) (embedding.Model, error) {
		return embedding.NewHashModel(32), nil
	})
	t.Cleanup(func() { _ = p.Close() })

	corpus, err := NewBuilder(p, 4).Build(context.Background(), document(6))
	require.NoError(t, err)
	require.Equal(t, 6, corpus.Len())
	assert.Equal(t, 32, corpus.Dimensions())
	for _, rec := range corpus.Records {
		assert.NoError(t, embedding.Validate(rec.Embedding, 32))
	}
}
