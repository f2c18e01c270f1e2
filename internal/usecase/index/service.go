// Package index turns documents into stored, searchable chunks: split by
// the configured chunk size, embed with sentence-window context, persist.
package index

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	raglite "github.com/kailas-cloud/raglite"
	"github.com/kailas-cloud/raglite/internal/chunks"
	"github.com/kailas-cloud/raglite/internal/search"
)

// ErrEmptyDocument is returned for a document with no indexable content.
var ErrEmptyDocument = errors.New("document has no content")

// Service indexes documents into the chunk store.
type Service struct {
	repo   Repository
	cfg    *raglite.Config
	logger *zap.Logger
}

// New creates an indexing service.
func New(repo Repository, cfg *raglite.Config, logger *zap.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, logger: logger}
}

// Index splits, embeds, and stores a document. Returns the chunk count.
// Re-indexing a document overwrites its chunks in place.
func (s *Service) Index(ctx context.Context, documentID, content string) (int, error) {
	if documentID == "" {
		return 0, fmt.Errorf("%w: document id is required", ErrEmptyDocument)
	}

	bodies := chunks.Split(content, s.cfg.ChunkMaxSize())
	if len(bodies) == 0 {
		return 0, ErrEmptyDocument
	}

	resolver := s.cfg.Resolver()
	if resolver == nil {
		return 0, raglite.ErrNoModelResolver
	}
	embedder, err := resolver.ResolveEmbedder(ctx, s.cfg.Embedder())
	if err != nil {
		return 0, fmt.Errorf("resolve embedder %q: %w", s.cfg.Embedder(), err)
	}

	records := make([]chunks.Record, len(bodies))
	for i, body := range bodies {
		vec, err := embedder.Embed(ctx, windowText(bodies, i, s.cfg.EmbedderSentenceWindowSize()))
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d of %s: %w", i, documentID, err)
		}
		if s.cfg.EmbedderNormalize() {
			search.Normalize(vec)
		}
		records[i] = chunks.Record{
			DocumentID: documentID,
			Seq:        i,
			Body:       body,
			Vector:     vec,
		}
	}

	if err := s.repo.EnsureIndex(ctx, len(records[0].Vector), ftMetric(s.cfg.VectorSearchIndexMetric())); err != nil {
		return 0, err
	}
	if err := s.repo.Add(ctx, records); err != nil {
		return 0, err
	}

	s.logger.Info("Document indexed",
		zap.String("document_id", documentID),
		zap.Int("chunks", len(records)),
		zap.Int("dimensions", len(records[0].Vector)),
	)
	return len(records), nil
}

// windowText builds the embedding input for chunk i: the chunk plus enough
// neighboring chunks to fill the configured window. A window of 1 embeds the
// chunk alone.
func windowText(bodies []string, i, window int) string {
	if window <= 1 {
		return bodies[i]
	}

	before := (window - 1) / 2
	after := window / 2

	from := i - before
	if from < 0 {
		from = 0
	}
	to := i + after
	if to > len(bodies)-1 {
		to = len(bodies) - 1
	}

	return strings.Join(bodies[from:to+1], " ")
}

// ftMetric maps the configured metric to the FT index distance function.
func ftMetric(m raglite.Metric) string {
	if m == raglite.MetricDot {
		return "IP"
	}
	return "COSINE"
}
