package search

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/kailas-cloud/raglite/internal/chunks"
	"github.com/kailas-cloud/raglite/internal/db"
)

// AdapterKey stores the learned query transform: a row-major dim x dim
// float32 matrix trained offline against relevance feedback. The core only
// applies it; training is a separate concern.
const AdapterKey = chunks.KeyPrefix + "query_adapter"

// applyStoredAdapter multiplies the query vector by the stored transform.
// A missing adapter is not an error: the vector passes through unchanged
// until one has been trained.
func applyStoredAdapter(ctx context.Context, kv db.KVStore, vec []float32) ([]float32, error) {
	blob, err := kv.Get(ctx, AdapterKey)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return vec, nil
		}
		return nil, fmt.Errorf("load query adapter: %w", err)
	}

	dim := len(vec)
	if len(blob) != 4*dim*dim {
		return nil, fmt.Errorf("query adapter size %d does not match dimension %d", len(blob), dim)
	}

	out := make([]float32, dim)
	for i := 0; i < dim; i++ {
		var sum float32
		row := blob[i*dim*4 : (i+1)*dim*4]
		for j, v := range vec {
			sum += math.Float32frombits(binary.LittleEndian.Uint32(row[j*4:])) * v
		}
		out[i] = sum
	}
	return out, nil
}
