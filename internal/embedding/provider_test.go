package embedding

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubModel returns a fixed vector, or the result of fn when set.
type stubModel struct {
	dims   int
	fn     func(ctx context.Context, text string) ([]float32, error)
	calls  atomic.Int32
	closed atomic.Bool
}

func (m *stubModel) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	if m.fn != nil {
		return m.fn(ctx, text)
	}
	v := make([]float32, m.dims)
	v[0] = 3
	v[1] = 4
	return v, nil
}

func (m *stubModel) Dimensions() int { return m.dims }
func (m *stubModel) Close() error    { m.closed.Store(true); return nil }

func staticLoader(m Model) Loader {
	return func(context.Context) (Model, error) { return m, nil }
}

func TestProvider_EmbedNormalizes(t *testing.T) {
	p := NewProvider(staticLoader(&stubModel{dims: 4}))

	vec, err := p.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, vec, 4)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)
	assert.Equal(t, 4, p.Dimensions())
	assert.True(t, p.Loaded())
}

func TestProvider_EmptyInput(t *testing.T) {
	loads := 0
	p := NewProvider(func(context.Context) (Model, error) {
		loads++
		return &stubModel{dims: 2}, nil
	})
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := p.Embed(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}
	assert.Zero(t, loads, "blank input must not trigger model load")
}

func TestProvider_SingleFlightLoad(t *testing.T) {
	var loads atomic.Int32
	release := make(chan struct{})
	p := NewProvider(func(context.Context) (Model, error) {
		loads.Add(1)
		<-release
		return &stubModel{dims: 3}, nil
	})

	const callers = 16
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Embed(context.Background(), "text")
			errs <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), loads.Load())
}

func TestProvider_FailedLoadIsRetried(t *testing.T) {
	attempts := 0
	p := NewProvider(func(context.Context) (Model, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("model file missing")
		}
		return &stubModel{dims: 2}, nil
	})

	_, err := p.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelUnavailable)
	var mu *ModelUnavailableError
	require.ErrorAs(t, err, &mu)
	assert.Equal(t, "load", mu.Op)
	assert.False(t, p.Loaded())

	_, err = p.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestProvider_NoLoader(t *testing.T) {
	_, err := NewProvider(nil).Embed(context.Background(), "text")
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestProvider_InferenceFailure(t *testing.T) {
	cause := errors.New("session crashed")
	m := &stubModel{dims: 2, fn: func(context.Context, string) ([]float32, error) { return nil, cause }}
	_, err := NewProvider(staticLoader(m)).Embed(context.Background(), "text")

	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.ErrorIs(t, err, cause)
}

func TestProvider_Timeout(t *testing.T) {
	m := &stubModel{dims: 2, fn: func(ctx context.Context, _ string) ([]float32, error) {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return []float32{1, 0}, nil
	}}
	p := NewProvider(staticLoader(m), WithTimeout(20*time.Millisecond))

	_, err := p.Embed(context.Background(), "text")
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProvider_LoadTimeoutDoesNotAbortSharedLoad(t *testing.T) {
	release := make(chan struct{})
	var loads atomic.Int32
	p := NewProvider(func(ctx context.Context) (Model, error) {
		loads.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return &stubModel{dims: 2}, nil
	}, WithTimeout(20*time.Millisecond))

	_, err := p.Embed(context.Background(), "text")
	require.ErrorIs(t, err, ErrModelUnavailable)

	close(release)
	require.Eventually(t, p.Loaded, time.Second, 5*time.Millisecond)
	_, err = p.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, int32(1), loads.Load())
}

func TestProvider_InvalidEmbedding(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	tests := []struct {
		name string
		out  []float32
	}{
		{"nan", []float32{1, nan, 0}},
		{"inf", []float32{inf, 0, 0}},
		{"empty", []float32{}},
		{"wrong dimension", []float32{1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.out
			m := &stubModel{dims: 3, fn: func(context.Context, string) ([]float32, error) { return out, nil }}
			_, err := NewProvider(staticLoader(m)).Embed(context.Background(), "text")
			assert.ErrorIs(t, err, ErrInvalidEmbedding)
			assert.NotErrorIs(t, err, ErrModelUnavailable)
		})
	}
}

func TestProvider_DeclaredDimensions(t *testing.T) {
	p := NewProvider(staticLoader(&stubModel{dims: 4}), WithDimensions(8))
	assert.Equal(t, 8, p.Dimensions())

	_, err := p.Embed(context.Background(), "text")
	var invalid *InvalidEmbeddingError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "dimension 4, want 8")
}

func TestProvider_ZeroVectorPassesThrough(t *testing.T) {
	m := &stubModel{dims: 3, fn: func(context.Context, string) ([]float32, error) { return []float32{0, 0, 0}, nil }}
	vec, err := NewProvider(staticLoader(m)).Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0}, vec)
}

func TestProvider_Cache(t *testing.T) {
	m := &stubModel{dims: 2}
	p := NewProvider(staticLoader(m), WithCacheSize(10))

	first, err := p.Embed(context.Background(), "same")
	require.NoError(t, err)
	first[0] = 42

	second, err := p.Embed(context.Background(), "same")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, second[0], 1e-6)
	assert.Equal(t, int32(1), m.calls.Load())
}

func TestProvider_CloseReleasesModel(t *testing.T) {
	m := &stubModel{dims: 2}
	p := NewProvider(staticLoader(m))
	require.NoError(t, p.Warmup(context.Background()))
	require.True(t, p.Loaded())

	require.NoError(t, p.Close())
	assert.True(t, m.closed.Load())
	assert.False(t, p.Loaded())
}

func TestMeanPool(t *testing.T) {
	hidden := []float32{
		1, 2,
		3, 4,
		100, 100,
	}
	vec, err := MeanPool(hidden, []int64{1, 1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 3}, vec)

	_, err = MeanPool([]float32{1, 2, 3}, []int64{1}, 2)
	assert.Error(t, err)
}

func TestNormalizeL2Slice(t *testing.T) {
	v := []float32{3, 4}
	NormalizeL2Slice(v)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	zero := []float32{0, 0}
	NormalizeL2Slice(zero)
	assert.Equal(t, []float32{0, 0}, zero)
}

func BenchmarkProvider_EmbedHashModel(b *testing.B) {
	p := NewProvider(staticLoader(NewHashModel(384)), WithCacheSize(0))
	defer p.Close()
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = p.Embed(ctx, "benchmark query text for embedding")
	}
}
