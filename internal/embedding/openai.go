package embedding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/hyperjump/shiori/internal/vector"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "text-embedding-ada-002"

// OpenAIConfig configures an OpenAIEmbedder.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Timeout    time.Duration
}

// OpenAIEmbedder calls the OpenAI embeddings endpoint (or any compatible server).
// It performs exactly one HTTP request per Embed call; retries belong to the Gateway.
type OpenAIEmbedder struct {
	client     openai.Client
	model      string
	dimensions int
	configured bool
}

// NewOpenAIEmbedder creates a provider. A missing API key is not an error here: every Embed
// call then fails with ErrAuthentication so callers can report the service as unconfigured.
func NewOpenAIEmbedder(cfg OpenAIConfig) *OpenAIEmbedder {
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &OpenAIEmbedder{
		client:     openai.NewClient(opts...),
		model:      model,
		dimensions: cfg.Dimensions,
		configured: strings.TrimSpace(cfg.APIKey) != "",
	}
}

// Embed requests the embedding for text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) (vector.Vector, error) {
	if !e.configured {
		return nil, fmt.Errorf("%w: no API key configured", ErrAuthentication)
	}
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: response contained no embedding", ErrProvider)
	}
	return vector.FromFloat64(resp.Data[0].Embedding), nil
}

// Dimensions returns the configured embedding dimension (0 when unknown).
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Model returns the model name sent with each request.
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (e *OpenAIEmbedder) Close() error {
	return nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", kindForStatus(apiErr.StatusCode), err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return fmt.Errorf("%w: %w", ErrProvider, err)
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrAuthentication
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status == http.StatusRequestTimeout || status >= 500:
		return ErrTransient
	default:
		return ErrProvider
	}
}
