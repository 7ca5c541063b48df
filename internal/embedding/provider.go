package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds model loading plus inference for one Embed call.
const DefaultTimeout = 30 * time.Second

// Provider embeds text with a lazily loaded Model.
//
// The model is loaded on the first Embed call. Concurrent callers share one
// load; a failed load is not remembered, so a later call loads again.
type Provider struct {
	loader     Loader
	dimensions int
	timeout    time.Duration
	cache      *EmbeddingCache
	logger     *zap.Logger

	group singleflight.Group
	mu    sync.RWMutex
	model Model
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithTimeout bounds each Embed call. Zero or negative disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.timeout = d }
}

// WithCacheSize memoizes up to n embeddings by text. Zero disables caching.
func WithCacheSize(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.cache = NewEmbeddingCache(n)
		} else {
			p.cache = nil
		}
	}
}

// WithDimensions declares the expected vector dimension. Model output of any
// other length is rejected. When unset, the loaded model's dimension is used.
func WithDimensions(d int) Option {
	return func(p *Provider) { p.dimensions = d }
}

// NewProvider returns a provider that loads its model with loader on first use.
func NewProvider(loader Loader, opts ...Option) *Provider {
	p := &Provider{
		loader:  loader,
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Embed returns the L2-normalized embedding of text.
//
// Errors: ErrEmptyInput for blank text, *ModelUnavailableError when the model
// cannot be loaded, fails, or the call times out, and *InvalidEmbeddingError
// when the model output is empty, non-finite, or of the wrong dimension.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	if p.cache != nil {
		if cached, ok := p.cache.Get(text); ok {
			return cached, nil
		}
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	model, err := p.loadModel(ctx)
	if err != nil {
		return nil, err
	}

	vec, err := p.infer(ctx, model, text)
	if err != nil {
		return nil, err
	}

	want := p.dimensions
	if want <= 0 {
		want = model.Dimensions()
	}
	if err := Validate(vec, want); err != nil {
		return nil, err
	}
	NormalizeL2Slice(vec)

	if p.cache != nil {
		p.cache.Set(text, vec)
	}
	return vec, nil
}

// Dimensions returns the declared dimension, or the loaded model's dimension,
// or 0 when neither is known yet.
func (p *Provider) Dimensions() int {
	if p.dimensions > 0 {
		return p.dimensions
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.model != nil {
		return p.model.Dimensions()
	}
	return 0
}

// Loaded reports whether the model has been initialized.
func (p *Provider) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model != nil
}

// Warmup loads the model without embedding anything.
func (p *Provider) Warmup(ctx context.Context) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	_, err := p.loadModel(ctx)
	return err
}

// Close releases the loaded model. A later Embed loads it again.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model == nil {
		return nil
	}
	err := p.model.Close()
	p.model = nil
	return err
}

func (p *Provider) loadModel(ctx context.Context) (Model, error) {
	p.mu.RLock()
	m := p.model
	p.mu.RUnlock()
	if m != nil {
		return m, nil
	}
	if p.loader == nil {
		return nil, newModelUnavailable("load", errors.New("no model loader configured"))
	}

	// The load is shared, so it must not be cut short by whichever caller
	// happened to start it.
	loadCtx := context.WithoutCancel(ctx)
	ch := p.group.DoChan("model", func() (any, error) {
		p.mu.RLock()
		existing := p.model
		p.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		start := time.Now()
		p.logger.Info("loading embedding model")
		loaded, err := p.loader(loadCtx)
		if err != nil {
			p.logger.Warn("embedding model load failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
			return nil, err
		}
		if loaded == nil {
			return nil, errors.New("loader returned no model")
		}

		p.mu.Lock()
		p.model = loaded
		p.mu.Unlock()
		p.logger.Info("embedding model loaded",
			zap.Int("dimensions", loaded.Dimensions()),
			zap.Duration("elapsed", time.Since(start)))
		return loaded, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, newModelUnavailable("load", res.Err)
		}
		return res.Val.(Model), nil
	case <-ctx.Done():
		return nil, newModelUnavailable("load", ctx.Err())
	}
}

type inference struct {
	vec []float32
	err error
}

func (p *Provider) infer(ctx context.Context, m Model, text string) ([]float32, error) {
	ch := make(chan inference, 1)
	go func() {
		vec, err := m.Embed(ctx, text)
		ch <- inference{vec: vec, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			if errors.Is(res.err, ErrInvalidEmbedding) || errors.Is(res.err, ErrEmptyInput) {
				return nil, res.err
			}
			return nil, newModelUnavailable("embed", res.err)
		}
		return res.vec, nil
	case <-ctx.Done():
		return nil, newModelUnavailable("embed", ctx.Err())
	}
}

// Validate checks that vec is non-empty, has dims values (when dims > 0) and
// holds only finite numbers.
func Validate(vec []float32, dims int) error {
	if len(vec) == 0 {
		return NewInvalidEmbeddingError("empty vector")
	}
	if dims > 0 && len(vec) != dims {
		return NewInvalidEmbeddingError("dimension %d, want %d", len(vec), dims)
	}
	for i, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return NewInvalidEmbeddingError("non-finite value %v at index %d", v, i)
		}
	}
	return nil
}

// NormalizeL2Slice normalizes the slice in place to unit L2 norm.
// A zero vector is left unchanged.
func NormalizeL2Slice(x []float32) {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := 1.0 / math.Sqrt(sum)
	for i := range x {
		x[i] = float32(float64(x[i]) * norm)
	}
}

// MeanPool averages rows of a [tokens x dims] matrix, counting only tokens whose mask is set.
func MeanPool(hidden []float32, mask []int64, dims int) ([]float32, error) {
	if dims <= 0 || len(hidden)%dims != 0 {
		return nil, fmt.Errorf("hidden state of %d values is not a multiple of %d", len(hidden), dims)
	}
	tokens := len(hidden) / dims
	out := make([]float64, dims)
	var count float64
	for t := 0; t < tokens && t < len(mask); t++ {
		if mask[t] == 0 {
			continue
		}
		row := hidden[t*dims : (t+1)*dims]
		for i, v := range row {
			out[i] += float64(v)
		}
		count++
	}
	vec := make([]float32, dims)
	if count == 0 {
		return vec, nil
	}
	for i := range out {
		vec[i] = float32(out[i] / count)
	}
	return vec, nil
}
