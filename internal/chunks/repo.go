// Package chunks persists document chunks and serves the ordinal-neighbor
// lookups that span expansion needs.
package chunks

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/kailas-cloud/raglite/internal/db"
)

// Key layout of the chunk store.
const (
	KeyPrefix   = "raglite:"
	ChunkPrefix = KeyPrefix + "chunk:"
	IndexName   = KeyPrefix + "chunks:idx"
)

// Record is one stored chunk. Seq is the chunk's ordinal within its
// document, assigned by the (external) chunking collaborator.
type Record struct {
	DocumentID string
	Seq        int
	Body       string
	Vector     []float32
}

// ID returns the record's stable chunk identifier.
func (r Record) ID() string {
	return fmt.Sprintf("%s:%d", r.DocumentID, r.Seq)
}

// store is the consumer interface for chunk persistence.
type store interface {
	db.HashStore
	db.IndexManager
}

// Repo stores chunks as hashes keyed by document id and ordinal.
type Repo struct {
	store store
}

// New creates a chunk repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Key returns the storage key for a document ordinal.
func Key(documentID string, seq int) string {
	return fmt.Sprintf("%s%s:%d", ChunkPrefix, documentID, seq)
}

// EnsureIndex creates the chunk FT index if it does not exist yet.
// metric is the FT distance function (COSINE or IP).
func (r *Repo) EnsureIndex(ctx context.Context, dimensions int, metric string) error {
	err := r.store.CreateIndex(ctx, &db.IndexDefinition{
		Name:       IndexName,
		Prefix:     ChunkPrefix,
		Dimensions: dimensions,
		Metric:     metric,
	})
	if err != nil && err != db.ErrIndexExists {
		return fmt.Errorf("ensure chunk index: %w", err)
	}
	return nil
}

// Add persists records in one pipelined write.
func (r *Repo) Add(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(records))
	for i, rec := range records {
		items[i] = db.HashSetItem{
			Key: Key(rec.DocumentID, rec.Seq),
			Fields: map[string]string{
				db.FieldDocument: rec.DocumentID,
				db.FieldSeq:      strconv.Itoa(rec.Seq),
				db.FieldBody:     rec.Body,
				db.FieldVector:   encodeVector(rec.Vector),
			},
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("add chunks: %w", err)
	}
	return nil
}

// Range fetches the chunks of a document with ordinals in [from, to],
// in ordinal order. Ordinals below zero are clamped; ordinals past the end
// of the document simply yield nothing.
func (r *Repo) Range(ctx context.Context, documentID string, from, to int) ([]Record, error) {
	if from < 0 {
		from = 0
	}
	if to < from {
		return nil, nil
	}

	keys := make([]string, 0, to-from+1)
	for seq := from; seq <= to; seq++ {
		keys = append(keys, Key(documentID, seq))
	}

	fieldMaps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("range chunks %s[%d..%d]: %w", documentID, from, to, err)
	}

	records := make([]Record, 0, len(fieldMaps))
	for i, fields := range fieldMaps {
		if len(fields) == 0 {
			continue // past the end of the document
		}
		records = append(records, recordFromFields(documentID, from+i, fields))
	}
	return records, nil
}

func recordFromFields(documentID string, seq int, fields map[string]string) Record {
	rec := Record{DocumentID: documentID, Seq: seq, Body: fields[db.FieldBody]}
	if s, err := strconv.Atoi(fields[db.FieldSeq]); err == nil {
		rec.Seq = s
	}
	if blob, ok := fields[db.FieldVector]; ok {
		rec.Vector = decodeVector(blob)
	}
	return rec
}

func encodeVector(vec []float32) string {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return string(buf)
}

func decodeVector(blob string) []float32 {
	if len(blob) < 4 {
		return nil
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32([]byte(blob[i*4 : i*4+4])))
	}
	return vec
}
