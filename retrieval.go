package raglite

import "context"

// SearchFunc proposes up to maxChunks candidate chunks for a query.
type SearchFunc func(ctx context.Context, query string, cfg *Config, maxChunks int) ([]Chunk, error)

// BoundSearch is a SearchFunc with its candidate limit already bound.
type BoundSearch func(ctx context.Context, query string, cfg *Config) ([]Chunk, error)

// FusionFunc fuses the candidates of several subsearches into one ranked
// set of at most maxChunks chunks.
type FusionFunc func(ctx context.Context, query string, cfg *Config, subsearches []BoundSearch, maxChunks int) ([]Chunk, error)

// RerankFunc reorders fused candidates by relevance to the query.
type RerankFunc func(ctx context.Context, query string, chunks []Chunk, cfg *Config) ([]Chunk, error)

// SpanFunc runs search and rerank, keeps at most maxSpans hits, and expands
// each retained hit into a span with the neighboring chunks pulled in.
type SpanFunc func(ctx context.Context, query string, cfg *Config, search BoundSearch, rerank RerankFunc, maxSpans int, neighbors NeighborOffsets) ([]ChunkSpan, error)

// RetrievalMethod is a complete retrieval pipeline: query in, ranked chunk
// spans out. Callers invoke it uniformly no matter how many stages are
// chained inside, and may substitute any conforming value for the default.
type RetrievalMethod func(ctx context.Context, query string, cfg *Config) ([]ChunkSpan, error)

// NeighborOffsets is the window of adjacent chunks pulled around every
// retained hit, relative to its ordinal. {-1, 1} takes the immediately
// preceding and following chunk.
type NeighborOffsets struct {
	Before int
	After  int
}

// Primitives are the search collaborators the composer binds into the
// default pipeline.
type Primitives struct {
	Keyword SearchFunc
	Vector  SearchFunc
	Hybrid  FusionFunc
	Rerank  RerankFunc
	Spans   SpanFunc
}

// Default pipeline bounds. Each subsearch proposes up to 20 candidates and
// fusion truncates the union to 20, so reranker cost stays bounded
// regardless of subsearch count. At most 5 spans reach generation.
const (
	defaultSubsearchChunks = 20
	defaultFusedChunks     = 20
	defaultMaxChunkSpans   = 5
)

var defaultNeighbors = NeighborOffsets{Before: -1, After: 1}

// NewRetrieval composes the default multi-stage pipeline from the given
// primitives: keyword + vector search, RRF fusion, rerank, span expansion.
// Composition performs no I/O and cannot fail; any collaborator failure
// surfaces when the returned method is invoked and is forwarded unmodified.
func NewRetrieval(p Primitives) RetrievalMethod {
	search := func(ctx context.Context, query string, cfg *Config) ([]Chunk, error) {
		return p.Hybrid(ctx, query, cfg, []BoundSearch{
			bindSearch(p.Keyword, defaultSubsearchChunks),
			bindSearch(p.Vector, defaultSubsearchChunks),
		}, defaultFusedChunks)
	}
	return func(ctx context.Context, query string, cfg *Config) ([]ChunkSpan, error) {
		return p.Spans(ctx, query, cfg, search, p.Rerank, defaultMaxChunkSpans, defaultNeighbors)
	}
}

func bindSearch(s SearchFunc, maxChunks int) BoundSearch {
	return func(ctx context.Context, query string, cfg *Config) ([]Chunk, error) {
		return s(ctx, query, cfg, maxChunks)
	}
}
