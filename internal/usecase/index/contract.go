package index

import (
	"context"

	"github.com/kailas-cloud/raglite/internal/chunks"
)

// Repository defines the storage contract for chunk indexing.
type Repository interface {
	EnsureIndex(ctx context.Context, dimensions int, metric string) error
	Add(ctx context.Context, records []chunks.Record) error
}
