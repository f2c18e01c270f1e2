// Package rag runs the configured retrieval pipeline and turns its spans
// into grounded answers.
package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	raglite "github.com/kailas-cloud/raglite"
	"github.com/kailas-cloud/raglite/internal/metrics"
)

// ErrEmptyQuery is returned for a blank query.
var ErrEmptyQuery = errors.New("query is required")

// Answerer generates an answer grounded in retrieved spans.
type Answerer interface {
	Answer(ctx context.Context, query string, spans []raglite.ChunkSpan) (string, error)
}

// Service serves retrieval and question answering over one configuration.
type Service struct {
	cfg       *raglite.Config
	generator Answerer
	logger    *zap.Logger
}

// New creates a RAG service. generator may be nil when only Search is used.
func New(cfg *raglite.Config, generator Answerer, logger *zap.Logger) *Service {
	return &Service{cfg: cfg, generator: generator, logger: logger}
}

// Search runs the retrieval pipeline for a query.
func (s *Service) Search(ctx context.Context, query string) ([]raglite.ChunkSpan, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	start := time.Now()
	spans, err := s.cfg.Retrieval()(ctx, query, s.cfg)
	duration := time.Since(start)

	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues("pipeline", "error").Inc()
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	metrics.RetrievalRequestsTotal.WithLabelValues("pipeline", "success").Inc()
	metrics.RetrievalDuration.WithLabelValues("pipeline").Observe(duration.Seconds())
	metrics.RetrievalCandidates.WithLabelValues("pipeline").Observe(float64(len(spans)))

	s.logger.Debug("Retrieval completed",
		zap.Int("spans", len(spans)),
		zap.Duration("duration", duration),
	)
	return spans, nil
}

// Answer retrieves context for the query and generates a grounded answer.
// The spans that grounded the answer are returned alongside it.
func (s *Service) Answer(ctx context.Context, query string) (string, []raglite.ChunkSpan, error) {
	if s.generator == nil {
		return "", nil, errors.New("no generator configured")
	}

	spans, err := s.Search(ctx, query)
	if err != nil {
		return "", nil, err
	}

	answer, err := s.generator.Answer(ctx, query, spans)
	if err != nil {
		return "", nil, fmt.Errorf("generate answer: %w", err)
	}
	return answer, spans, nil
}
