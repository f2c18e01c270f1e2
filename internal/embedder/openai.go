// Package embedder provides embedding providers and their decorators. The
// one transport implementation speaks the OpenAI-compatible embeddings API,
// which covers hosted providers and local llama.cpp servers alike; decorators
// add caching and observability around it.
package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/raglite/internal/metrics"
)

// ErrProviderError marks upstream embedding API failures.
var ErrProviderError = errors.New("embedding provider error")

// Result is one embedding with the token usage the provider reported.
type Result struct {
	Vector       []float32
	PromptTokens int
	TotalTokens  int
}

// Provider encodes text into a vector.
type Provider interface {
	Embed(ctx context.Context, text string) (Result, error)
}

// OpenAI is an embedding provider speaking the OpenAI-compatible API.
type OpenAI struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	backend    string
	logger     *zap.Logger
}

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Backend    string
	Logger     *zap.Logger
}

// NewOpenAI creates an OpenAI-compatible embedding provider.
func NewOpenAI(cfg *Config) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAI{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		backend:    cfg.Backend,
		logger:     cfg.Logger,
	}
}

// Embed returns the vector and usage with transport-level metrics.
func (e *OpenAI) Embed(ctx context.Context, text string) (Result, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()

	resp, err := e.client.CreateEmbeddings(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.backend, string(e.model), "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.backend, string(e.model), "api_error").Inc()
		return Result{}, parseAPIError(err)
	}

	if len(resp.Data) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.backend, string(e.model), "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.backend, string(e.model), "empty_response").Inc()
		return Result{}, fmt.Errorf("empty embedding response: %w", ErrProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.backend, string(e.model), "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.backend, string(e.model)).Observe(duration.Seconds())

	totalTokens := resp.Usage.TotalTokens
	promptTokens := resp.Usage.PromptTokens
	if totalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(e.backend, string(e.model), "prompt").Add(float64(promptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(e.backend, string(e.model), "total").Add(float64(totalTokens))
	}

	e.logger.Debug("Embedding request completed",
		zap.String("backend", e.backend),
		zap.String("model", string(e.model)),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(resp.Data[0].Embedding)),
		zap.Int("total_tokens", totalTokens),
	)

	return Result{
		Vector:       resp.Data[0].Embedding,
		PromptTokens: promptTokens,
		TotalTokens:  totalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *OpenAI) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with ErrProviderError for correct 502 mapping.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("embedding API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, ErrProviderError)
		}
		return fmt.Errorf("embedding API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), ErrProviderError)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, ErrProviderError)
	}

	return fmt.Errorf("embedding request failed: %w", ErrProviderError)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
