package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/raglite/internal/chunks"
	"github.com/kailas-cloud/raglite/internal/db"
)

// Keyword runs a BM25 keyword search and returns up to limit hits in rank
// order.
func Keyword(ctx context.Context, searcher db.Searcher, query string, limit int) ([]Hit, error) {
	res, err := searcher.SearchBM25(ctx, &db.TextQuery{
		Index:        chunks.IndexName,
		Query:        query,
		TopK:         limit,
		ReturnFields: []string{db.FieldBody, db.FieldDocument, db.FieldSeq},
	})
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	return hitsFromEntries(res.Entries, nil), nil
}

// hitsFromEntries converts FT.SEARCH entries to hits. score overrides the
// entry score when non-nil (the KNN path derives it from the distance).
func hitsFromEntries(entries []db.SearchEntry, score func(db.SearchEntry) float64) []Hit {
	hits := make([]Hit, 0, len(entries))
	for _, e := range entries {
		h := Hit{
			ID:         strings.TrimPrefix(e.Key, chunks.ChunkPrefix),
			DocumentID: e.Fields[db.FieldDocument],
			Body:       e.Fields[db.FieldBody],
			Score:      e.Score,
		}
		if seq, err := strconv.Atoi(e.Fields[db.FieldSeq]); err == nil {
			h.Seq = seq
		}
		if score != nil {
			h.Score = score(e)
		}
		hits = append(hits, h)
	}
	return hits
}
