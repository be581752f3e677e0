package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/shiori/internal/vector"
)

type scriptedProvider struct {
	mu     sync.Mutex
	dims   int
	errs   []error
	result vector.Vector
	calls  int
	texts  []string
}

func (p *scriptedProvider) Embed(_ context.Context, text string) (vector.Vector, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.texts = append(p.texts, text)
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return p.result.Clone(), nil
}

func (p *scriptedProvider) Dimensions() int { return p.dims }
func (p *scriptedProvider) Close() error    { return nil }

func newTestGateway(p *scriptedProvider, opts ...GatewayOption) (*Gateway, *[]time.Duration) {
	g := NewGateway(p, opts...)
	var delays []time.Duration
	g.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return ctx.Err()
	}
	return g, &delays
}

func TestGateway_EmptyTextNeverReachesProvider(t *testing.T) {
	p := &scriptedProvider{dims: 3, result: vector.Vector{1, 0, 0}}
	g, _ := newTestGateway(p)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := g.Embed(context.Background(), text)
		require.ErrorIs(t, err, ErrEmptyText)
	}
	assert.Zero(t, p.calls)
}

func TestGateway_TrimsText(t *testing.T) {
	p := &scriptedProvider{dims: 3, result: vector.Vector{1, 0, 0}}
	g, _ := newTestGateway(p)

	v, err := g.Embed(context.Background(), "  hello world \n")
	require.NoError(t, err)
	assert.Equal(t, vector.Vector{1, 0, 0}, v)
	assert.Equal(t, []string{"hello world"}, p.texts)
}

func TestGateway_RetriesRetryableThenSucceeds(t *testing.T) {
	p := &scriptedProvider{
		dims:   2,
		result: vector.Vector{0.6, 0.8},
		errs: []error{
			fmt.Errorf("%w: 429", ErrRateLimited),
			fmt.Errorf("%w: 503", ErrTransient),
		},
	}
	g, delays := newTestGateway(p, WithRetry(3, 100*time.Millisecond, time.Second))

	v, err := g.Embed(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, vector.Vector{0.6, 0.8}, v)
	assert.Equal(t, 3, p.calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *delays)
}

func TestGateway_ExhaustionIsUnavailable(t *testing.T) {
	transient := fmt.Errorf("%w: connection refused", ErrTransient)
	p := &scriptedProvider{dims: 2, errs: []error{transient, transient, transient}}
	g, delays := newTestGateway(p, WithRetry(2, 10*time.Millisecond, 15*time.Millisecond))

	_, err := g.Embed(context.Background(), "query")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, ErrTransient)
	assert.True(t, IsUnavailable(err))
	assert.False(t, IsUnconfigured(err))
	assert.Equal(t, 3, p.calls)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 15 * time.Millisecond}, *delays)
}

func TestGateway_AuthenticationNotRetried(t *testing.T) {
	p := &scriptedProvider{dims: 2, errs: []error{fmt.Errorf("%w: 401", ErrAuthentication)}}
	g, delays := newTestGateway(p)

	_, err := g.Embed(context.Background(), "query")
	require.ErrorIs(t, err, ErrAuthentication)
	assert.True(t, IsUnconfigured(err))
	assert.True(t, IsUnavailable(err))
	assert.Equal(t, 1, p.calls)
	assert.Empty(t, *delays)
}

func TestGateway_ProviderErrorNotRetried(t *testing.T) {
	p := &scriptedProvider{dims: 2, errs: []error{fmt.Errorf("%w: 400 bad request", ErrProvider)}}
	g, _ := newTestGateway(p)

	_, err := g.Embed(context.Background(), "query")
	require.ErrorIs(t, err, ErrProvider)
	assert.False(t, IsUnavailable(err))
	assert.Equal(t, 1, p.calls)
}

func TestGateway_RejectsInvalidVectors(t *testing.T) {
	tests := []struct {
		name   string
		result vector.Vector
	}{
		{"empty", vector.Vector{}},
		{"wrong dimension", vector.Vector{1, 2, 3}},
		{"nan", vector.Vector{float32(math.NaN()), 1}},
		{"inf", vector.Vector{float32(math.Inf(1)), 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &scriptedProvider{dims: 2, result: tt.result}
			g, _ := newTestGateway(p)

			_, err := g.Embed(context.Background(), "query")
			require.ErrorIs(t, err, ErrProvider)
			assert.Equal(t, 1, p.calls)
		})
	}
}

func TestGateway_WithDimensionsOverridesProvider(t *testing.T) {
	p := &scriptedProvider{dims: 0, result: vector.Vector{1, 2, 3}}
	g, _ := newTestGateway(p, WithDimensions(2))

	_, err := g.Embed(context.Background(), "query")
	require.ErrorIs(t, err, ErrProvider)
	assert.True(t, errors.Is(err, vector.ErrDimensionMismatch))
	assert.Equal(t, 2, g.Dimensions())
}

func TestGateway_CancelledDuringBackoff(t *testing.T) {
	p := &scriptedProvider{dims: 2, errs: []error{fmt.Errorf("%w: 500", ErrTransient)}}
	g := NewGateway(p, WithRetry(3, time.Hour, time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.Embed(ctx, "query")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, p.calls)
}

func TestGateway_RateLimiterHonoursContext(t *testing.T) {
	p := &scriptedProvider{dims: 2, result: vector.Vector{1, 0}}
	g, _ := newTestGateway(p, WithRateLimit(0.001, 1))

	_, err := g.Embed(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = g.Embed(ctx, "second")
	require.Error(t, err)
	assert.Equal(t, 1, p.calls)
}

func TestGateway_Backoff(t *testing.T) {
	g := NewGateway(&scriptedProvider{}, WithRetry(10, time.Second, 5*time.Second))

	assert.Equal(t, time.Second, g.backoff(0))
	assert.Equal(t, 2*time.Second, g.backoff(1))
	assert.Equal(t, 4*time.Second, g.backoff(2))
	assert.Equal(t, 5*time.Second, g.backoff(3))
	assert.Equal(t, 5*time.Second, g.backoff(60))
}

func TestKind(t *testing.T) {
	assert.Equal(t, "none", Kind(nil))
	assert.Equal(t, "empty_text", Kind(ErrEmptyText))
	assert.Equal(t, "authentication", Kind(fmt.Errorf("x: %w", ErrAuthentication)))
	assert.Equal(t, "unavailable", Kind(fmt.Errorf("%w: %w", ErrUnavailable, ErrRateLimited)))
	assert.Equal(t, "rate_limited", Kind(ErrRateLimited))
	assert.Equal(t, "transient", Kind(ErrTransient))
	assert.Equal(t, "provider", Kind(ErrProvider))
	assert.Equal(t, "unknown", Kind(errors.New("boom")))
}
