// Package rerank provides a reranker backed by the OpenAI-compatible chat
// completions API. One request ranks the whole candidate set: the model sees
// the numbered chunks and answers with the indices ordered by relevance.
package rerank

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	raglite "github.com/kailas-cloud/raglite"
)

// ErrRerankFailed marks an upstream reranking failure.
var ErrRerankFailed = errors.New("rerank failed")

const rankingPrompt = `Rank the numbered passages below by relevance to the query, most relevant first.
Answer with the passage numbers only, comma-separated, nothing else.

Query: %s

%s`

// chatClient is the consumer interface over the chat completions API.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// LLM reranks chunks through a chat model.
type LLM struct {
	client chatClient
	model  string
	logger *zap.Logger
}

// Config holds the reranker settings. Client overrides the API client in
// tests; when nil one is built from APIKey and BaseURL.
type Config struct {
	Client  chatClient
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// New creates an LLM reranker.
func New(cfg *Config) *LLM {
	client := cfg.Client
	if client == nil {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		client = openai.NewClientWithConfig(clientCfg)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LLM{client: client, model: cfg.Model, logger: logger}
}

// Rerank implements raglite.Reranker. Scores are rewritten to reflect the
// returned order; indices the model omits keep their original relative order
// at the tail.
func (l *LLM) Rerank(ctx context.Context, query string, chunks []raglite.Chunk) ([]raglite.Chunk, error) {
	if len(chunks) < 2 {
		return chunks, nil
	}

	var b strings.Builder
	for i, c := range chunks {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, c.Body)
	}

	start := time.Now()
	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: l.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(rankingPrompt, query, b.String()),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRerankFailed, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion response", ErrRerankFailed)
	}

	order := parseRanking(resp.Choices[0].Message.Content, len(chunks))

	l.logger.Debug("Rerank completed",
		zap.String("model", l.model),
		zap.Int("candidates", len(chunks)),
		zap.Duration("duration", time.Since(start)),
	)

	out := make([]raglite.Chunk, len(order))
	for rank, idx := range order {
		c := chunks[idx]
		c.Score = 1 - float64(rank)/float64(len(order))
		out[rank] = c
	}
	return out, nil
}

// parseRanking extracts 1-based indices from the model answer, dropping
// duplicates and out-of-range values and appending omitted indices in their
// original order.
func parseRanking(answer string, n int) []int {
	seen := make(map[int]bool, n)
	order := make([]int, 0, n)

	for _, field := range strings.FieldsFunc(answer, func(r rune) bool {
		return r < '0' || r > '9'
	}) {
		v, err := strconv.Atoi(field)
		if err != nil || v < 1 || v > n || seen[v] {
			continue
		}
		seen[v] = true
		order = append(order, v-1)
	}

	for i := 0; i < n; i++ {
		if !seen[i+1] {
			order = append(order, i)
		}
	}
	return order
}
