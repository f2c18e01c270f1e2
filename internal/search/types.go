// Package search implements the retrieval primitives over the chunk store:
// BM25 keyword search, KNN vector search with an optional stored query
// adapter, and chunk-span assembly around retained hits.
package search

// Hit is a single chunk-level search hit.
type Hit struct {
	ID         string
	DocumentID string
	Seq        int
	Body       string
	Score      float64
}

// Span is a contiguous ordinal range of chunks within one document.
type Span struct {
	DocumentID string
	From       int
	To         int
	Bodies     []string
	Seqs       []int
	Score      float64
}
