package indexer

import (
	"context"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"golang.org/x/sync/errgroup"
)

// Builder chunks document text and embeds every unit into a corpus.
type Builder struct {
	chunker     *Chunker
	embedder    embedding.Embedder
	concurrency int
}

// NewBuilder returns a builder embedding with embedder. concurrency bounds the
// number of embedding calls in flight; values below 1 mean one at a time.
func NewBuilder(embedder embedding.Embedder, concurrency int) *Builder {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Builder{
		chunker:     NewChunker(),
		embedder:    embedder,
		concurrency: concurrency,
	}
}

// Build returns the corpus for text with records in document order.
//
// If any unit fails to embed the whole build fails with *EmbeddingProviderError
// and no corpus is returned. Text with no surviving units yields an empty corpus.
func (b *Builder) Build(ctx context.Context, text string) (*models.Corpus, error) {
	units := b.chunker.Chunk(text)
	records := make([]models.CorpusRecord, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, unit := range units {
		g.Go(func() error {
			vec, err := b.embedder.Embed(gctx, unit.Text)
			if err != nil {
				return &EmbeddingProviderError{Position: unit.Position, Err: err}
			}
			records[i] = models.CorpusRecord{ID: unit.Position, Text: unit.Text, Embedding: vec}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := 1; i < len(records); i++ {
		if got, want := len(records[i].Embedding), len(records[0].Embedding); got != want {
			return nil, &EmbeddingProviderError{
				Position: records[i].ID,
				Err:      embedding.NewInvalidEmbeddingError("dimension %d, want %d", got, want),
			}
		}
	}
	return &models.Corpus{Records: records}, nil
}
