package search

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/raglite/internal/chunks"
	"github.com/kailas-cloud/raglite/internal/db"
)

// VectorOptions configures a vector search.
type VectorOptions struct {
	Limit int
	// UseQueryAdapter applies the stored learned query transform before the
	// similarity search, when one has been trained.
	UseQueryAdapter bool
}

// Vector runs a KNN similarity search for the query vector and returns up
// to Limit hits in rank order. kv serves the stored query adapter and may
// be nil when the adapter is disabled.
func Vector(ctx context.Context, searcher db.Searcher, kv db.KVStore, vec []float32, opts VectorOptions) ([]Hit, error) {
	if opts.UseQueryAdapter && kv != nil {
		adapted, err := applyStoredAdapter(ctx, kv, vec)
		if err != nil {
			return nil, err
		}
		vec = adapted
	}

	res, err := searcher.SearchKNN(ctx, &db.KNNQuery{
		Index:        chunks.IndexName,
		Vector:       vec,
		K:            opts.Limit,
		ReturnFields: []string{db.FieldBody, db.FieldDocument, db.FieldSeq},
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	return hitsFromEntries(res.Entries, func(e db.SearchEntry) float64 {
		// FT.SEARCH returns a distance; flip it so larger is better.
		d, err := strconv.ParseFloat(e.Fields[db.FieldDistance], 64)
		if err != nil {
			return 0
		}
		return 1 - d
	}), nil
}
