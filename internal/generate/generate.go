// Package generate renders retrieved chunk spans into a grounded prompt and
// produces an answer through the OpenAI-compatible chat completions API.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	raglite "github.com/kailas-cloud/raglite"
	"github.com/kailas-cloud/raglite/internal/metrics"
)

// ErrGenerationFailed marks a request that failed on every attempt.
var ErrGenerationFailed = errors.New("generation failed")

// chatClient is the consumer interface over the chat completions API.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Generator produces grounded answers from a query and its retrieved spans.
type Generator struct {
	client       chatClient
	model        string
	maxTries     int
	systemPrompt string
	template     string
	logger       *zap.Logger
}

// Config holds the generator settings. Client overrides the API client in
// tests; when nil one is built from APIKey and BaseURL.
type Config struct {
	Client              chatClient
	APIKey              string
	BaseURL             string
	Model               string
	MaxTries            int
	SystemPrompt        string
	InstructionTemplate string
	Logger              *zap.Logger
}

// New creates a generator.
func New(cfg *Config) *Generator {
	client := cfg.Client
	if client == nil {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		client = openai.NewClientWithConfig(clientCfg)
	}

	maxTries := cfg.MaxTries
	if maxTries < 1 {
		maxTries = 1
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		client:       client,
		model:        cfg.Model,
		maxTries:     maxTries,
		systemPrompt: cfg.SystemPrompt,
		template:     cfg.InstructionTemplate,
		logger:       logger,
	}
}

// Answer renders the instruction from the retrieved spans and requests a
// completion, retrying up to the configured bound.
func (g *Generator) Answer(ctx context.Context, query string, spans []raglite.ChunkSpan) (string, error) {
	instruction := RenderInstruction(g.template, query, spans)

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if g.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: g.systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: instruction,
	})

	req := openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: messages,
	}

	var lastErr error
	for attempt := 1; attempt <= g.maxTries; attempt++ {
		if attempt > 1 {
			metrics.GenerationRetriesTotal.WithLabelValues(g.model).Inc()
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %w", ErrGenerationFailed, ctx.Err())
			case <-time.After(backoff(attempt)):
			}
		}

		start := time.Now()
		resp, err := g.client.CreateChatCompletion(ctx, req)
		duration := time.Since(start)

		if err != nil {
			lastErr = err
			metrics.GenerationRequestsTotal.WithLabelValues(g.model, "error").Inc()
			g.logger.Warn("Generation attempt failed",
				zap.String("model", g.model),
				zap.Int("attempt", attempt),
				zap.Int("max_tries", g.maxTries),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = errors.New("empty completion response")
			metrics.GenerationRequestsTotal.WithLabelValues(g.model, "error").Inc()
			continue
		}

		metrics.GenerationRequestsTotal.WithLabelValues(g.model, "success").Inc()
		metrics.GenerationRequestDuration.WithLabelValues(g.model).Observe(duration.Seconds())
		if resp.Usage.TotalTokens > 0 {
			metrics.GenerationTokensTotal.WithLabelValues(g.model, "prompt").Add(float64(resp.Usage.PromptTokens))
			metrics.GenerationTokensTotal.WithLabelValues(g.model, "completion").Add(float64(resp.Usage.CompletionTokens))
		}

		g.logger.Debug("Generation completed",
			zap.String("model", g.model),
			zap.Int("attempt", attempt),
			zap.Duration("duration", duration),
			zap.Int("total_tokens", resp.Usage.TotalTokens),
		)

		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("%w after %d tries: %w", ErrGenerationFailed, g.maxTries, lastErr)
}

// RenderInstruction substitutes the retrieved context and the user prompt
// into the instruction template.
func RenderInstruction(template, query string, spans []raglite.ChunkSpan) string {
	texts := make([]string, len(spans))
	for i, s := range spans {
		texts[i] = s.Text()
	}
	contextText := strings.Join(texts, "\n\n")

	out := strings.ReplaceAll(template, raglite.PlaceholderContext, contextText)
	return strings.ReplaceAll(out, raglite.PlaceholderUserPrompt, query)
}

func backoff(attempt int) time.Duration {
	return time.Duration(attempt-1) * 250 * time.Millisecond
}
