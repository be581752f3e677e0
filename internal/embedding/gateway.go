package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperjump/shiori/internal/vector"
)

// Default retry policy.
const (
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultMaxBackoff     = 8 * time.Second
)

// Gateway is the single entry point for producing embeddings. It wraps a provider with
// empty-text rejection, client-side rate limiting, bounded retry with exponential backoff,
// and response validation. It holds no per-request state and is safe for concurrent use.
type Gateway struct {
	provider       Embedder
	dimensions     int
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	limiter        *rate.Limiter
	logger         *zap.Logger
	sleep          func(ctx context.Context, d time.Duration) error
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) GatewayOption {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithRetry sets the retry policy. maxRetries is the number of attempts after the first.
func WithRetry(maxRetries int, initialBackoff, maxBackoff time.Duration) GatewayOption {
	return func(g *Gateway) {
		if maxRetries >= 0 {
			g.maxRetries = maxRetries
		}
		if initialBackoff > 0 {
			g.initialBackoff = initialBackoff
		}
		if maxBackoff > 0 {
			g.maxBackoff = maxBackoff
		}
	}
}

// WithRateLimit caps outgoing provider requests. rps <= 0 disables the limit.
func WithRateLimit(rps float64, burst int) GatewayOption {
	return func(g *Gateway) {
		if rps <= 0 {
			g.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithDimensions makes the gateway reject responses whose length differs from dims.
func WithDimensions(dims int) GatewayOption {
	return func(g *Gateway) {
		g.dimensions = dims
	}
}

// NewGateway wraps provider.
func NewGateway(provider Embedder, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		provider:       provider,
		dimensions:     provider.Dimensions(),
		maxRetries:     DefaultMaxRetries,
		initialBackoff: DefaultInitialBackoff,
		maxBackoff:     DefaultMaxBackoff,
		limiter:        rate.NewLimiter(rate.Inf, 1),
		logger:         zap.NewNop(),
		sleep:          sleepContext,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Embed returns the embedding of text.
//
// Empty text fails with ErrEmptyText without contacting the provider. Authentication and
// provider errors are returned immediately. Rate-limit and transient failures are retried;
// once retries run out the error matches both ErrUnavailable and the last underlying cause.
func (g *Gateway) Embed(ctx context.Context, text string) (vector.Vector, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	var lastErr error
	attempts := g.maxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := g.backoff(attempt - 1)
			g.logger.Warn("retrying embedding request",
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", attempts),
				zap.Duration("backoff", delay),
				zap.String("kind", Kind(lastErr)),
				zap.Error(lastErr))
			if err := g.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}

		v, err := g.provider.Embed(ctx, text)
		if err == nil {
			if err := g.validate(v); err != nil {
				g.logger.Error("embedding provider returned invalid vector", zap.Error(err))
				return nil, err
			}
			return v, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !Retryable(err) {
			return nil, err
		}
		lastErr = err
	}

	g.logger.Error("embedding provider unavailable",
		zap.Int("attempts", attempts),
		zap.String("kind", Kind(lastErr)),
		zap.Error(lastErr))
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrUnavailable, attempts, lastErr)
}

// Dimensions returns the expected embedding dimension, 0 when unknown.
func (g *Gateway) Dimensions() int {
	return g.dimensions
}

// Close releases the underlying provider.
func (g *Gateway) Close() error {
	return g.provider.Close()
}

func (g *Gateway) validate(v vector.Vector) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: empty embedding", ErrProvider)
	}
	if g.dimensions > 0 && len(v) != g.dimensions {
		return fmt.Errorf("%w: %w", ErrProvider, &vector.DimensionMismatchError{Left: g.dimensions, Right: len(v)})
	}
	if !vector.Finite(v) {
		return fmt.Errorf("%w: embedding contains NaN or Inf", ErrProvider)
	}
	return nil
}

// backoff returns the delay before retry n (0-based): initial * 2^n, capped at max.
func (g *Gateway) backoff(n int) time.Duration {
	d := g.initialBackoff
	for i := 0; i < n; i++ {
		d *= 2
		if d >= g.maxBackoff || d <= 0 {
			return g.maxBackoff
		}
	}
	if d > g.maxBackoff {
		return g.maxBackoff
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
