package raglite

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kailas-cloud/raglite/internal/chunks"
	"github.com/kailas-cloud/raglite/internal/db"
	"github.com/kailas-cloud/raglite/internal/search"
)

// ErrNoModelResolver is returned by the default vector search primitive
// when the configuration carries no model resolver.
var ErrNoModelResolver = errors.New("no model resolver configured")

// engines memoizes one open store per database URL so that concurrent
// pipelines over the same configuration share a connection. Opening is
// deferred to first pipeline invocation: constructing a Config never
// blocks on I/O.
var engines sync.Map // dbURL -> *engine

type engine struct {
	once  sync.Once
	store db.Store
	err   error
}

func storeFor(cfg *Config) (db.Store, error) {
	v, _ := engines.LoadOrStore(cfg.dbURL, &engine{})
	e := v.(*engine)
	e.once.Do(func() {
		e.store, e.err = db.Open(cfg.dbURL)
	})
	if e.err != nil {
		return nil, fmt.Errorf("open chunk store: %w", e.err)
	}
	return e.store, nil
}

// defaultPrimitives binds the built-in collaborators: BM25 keyword search,
// KNN vector search, RRF fusion, language-dispatched reranking, and
// neighbor span expansion, all over the store named by the configuration's
// database URL.
func defaultPrimitives() Primitives {
	return Primitives{
		Keyword: keywordSearch,
		Vector:  vectorSearch,
		Hybrid:  hybridSearch,
		Rerank:  rerankChunks,
		Spans:   retrieveSpans,
	}
}

func keywordSearch(ctx context.Context, query string, cfg *Config, maxChunks int) ([]Chunk, error) {
	store, err := storeFor(cfg)
	if err != nil {
		return nil, err
	}
	hits, err := search.Keyword(ctx, store, query, maxChunks)
	if err != nil {
		return nil, err
	}
	return chunksFromHits(hits), nil
}

func vectorSearch(ctx context.Context, query string, cfg *Config, maxChunks int) ([]Chunk, error) {
	if cfg.resolver == nil {
		return nil, ErrNoModelResolver
	}
	embedder, err := cfg.resolver.ResolveEmbedder(ctx, cfg.embedder)
	if err != nil {
		return nil, fmt.Errorf("resolve embedder %q: %w", cfg.embedder, err)
	}

	vec, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if cfg.embedderNormalize {
		vec = search.Normalize(vec)
	}

	store, err := storeFor(cfg)
	if err != nil {
		return nil, err
	}
	hits, err := search.Vector(ctx, store, store, vec, search.VectorOptions{
		Limit:           maxChunks,
		UseQueryAdapter: cfg.vectorSearchQueryAdapter,
	})
	if err != nil {
		return nil, err
	}
	return chunksFromHits(hits), nil
}

func hybridSearch(ctx context.Context, query string, cfg *Config, subsearches []BoundSearch, maxChunks int) ([]Chunk, error) {
	rankings := make([][]Chunk, 0, len(subsearches))
	for _, sub := range subsearches {
		ranking, err := sub(ctx, query, cfg)
		if err != nil {
			return nil, err
		}
		rankings = append(rankings, ranking)
	}
	return fuseRRF(rankings, maxChunks), nil
}

// rerankChunks dispatches the configured rerankers over the fused
// candidates. Language-tagged specs group chunks by detected language,
// rerank each group with its matching reranker, and merge the groups back
// by score.
func rerankChunks(ctx context.Context, query string, candidates []Chunk, cfg *Config) ([]Chunk, error) {
	spec := cfg.reranker
	if spec.IsZero() || len(candidates) == 0 {
		return candidates, nil
	}

	if r, ok := spec.Single(); ok {
		reranked, err := r.Rerank(ctx, query, candidates)
		if err != nil {
			return nil, fmt.Errorf("rerank: %w", err)
		}
		return reranked, nil
	}

	groups := make(map[string][]Chunk)
	var langs []string
	for _, c := range candidates {
		lang := search.LanguageTag(c.Body)
		if _, ok := groups[lang]; !ok {
			langs = append(langs, lang)
		}
		groups[lang] = append(groups[lang], c)
	}

	merged := make([]Chunk, 0, len(candidates))
	for _, lang := range langs {
		r, ok := spec.Select(lang)
		if !ok {
			merged = append(merged, groups[lang]...)
			continue
		}
		reranked, err := r.Rerank(ctx, query, groups[lang])
		if err != nil {
			return nil, fmt.Errorf("rerank %s chunks: %w", lang, err)
		}
		merged = append(merged, reranked...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	return merged, nil
}

func retrieveSpans(ctx context.Context, query string, cfg *Config, searchFn BoundSearch, rerank RerankFunc, maxSpans int, neighbors NeighborOffsets) ([]ChunkSpan, error) {
	candidates, err := searchFn(ctx, query, cfg)
	if err != nil {
		return nil, err
	}

	ranked, err := rerank(ctx, query, candidates, cfg)
	if err != nil {
		return nil, err
	}

	store, err := storeFor(cfg)
	if err != nil {
		return nil, err
	}
	spans, err := search.AssembleSpans(ctx, chunks.New(store), hitsFromChunks(ranked), maxSpans, neighbors.Before, neighbors.After)
	if err != nil {
		return nil, err
	}
	return chunkSpansFromSpans(spans), nil
}

func chunksFromHits(hits []search.Hit) []Chunk {
	out := make([]Chunk, len(hits))
	for i, h := range hits {
		out[i] = Chunk{ID: h.ID, DocumentID: h.DocumentID, Seq: h.Seq, Body: h.Body, Score: h.Score}
	}
	return out
}

func hitsFromChunks(cs []Chunk) []search.Hit {
	out := make([]search.Hit, len(cs))
	for i, c := range cs {
		out[i] = search.Hit{ID: c.ID, DocumentID: c.DocumentID, Seq: c.Seq, Body: c.Body, Score: c.Score}
	}
	return out
}

func chunkSpansFromSpans(spans []search.Span) []ChunkSpan {
	out := make([]ChunkSpan, len(spans))
	for i, s := range spans {
		span := ChunkSpan{DocumentID: s.DocumentID, From: s.From, To: s.To, Score: s.Score}
		for j, body := range s.Bodies {
			span.Chunks = append(span.Chunks, Chunk{
				ID:         fmt.Sprintf("%s:%d", s.DocumentID, s.Seqs[j]),
				DocumentID: s.DocumentID,
				Seq:        s.Seqs[j],
				Body:       body,
			})
		}
		out[i] = span
	}
	return out
}
