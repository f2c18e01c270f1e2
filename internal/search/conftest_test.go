package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/raglite/internal/chunks"
	"github.com/kailas-cloud/raglite/internal/db"
)

// fakeSearcher returns canned FT.SEARCH results and records queries.
type fakeSearcher struct {
	knnQueries  []*db.KNNQuery
	textQueries []*db.TextQuery
	knnResult   *db.SearchResult
	textResult  *db.SearchResult
	err         error
}

func (f *fakeSearcher) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	f.knnQueries = append(f.knnQueries, q)
	if f.err != nil {
		return nil, f.err
	}
	if f.knnResult == nil {
		return &db.SearchResult{}, nil
	}
	return f.knnResult, nil
}

func (f *fakeSearcher) SearchBM25(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	f.textQueries = append(f.textQueries, q)
	if f.err != nil {
		return nil, f.err
	}
	if f.textResult == nil {
		return &db.SearchResult{}, nil
	}
	return f.textResult, nil
}

// fakeKV serves the query adapter blob.
type fakeKV struct {
	values map[string][]byte
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := f.values[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value []byte) error {
	if f.values == nil {
		f.values = make(map[string][]byte)
	}
	f.values[key] = value
	return nil
}

func (f *fakeKV) SetWithTTL(ctx context.Context, key string, value []byte, _ time.Duration) error {
	return f.Set(ctx, key, value)
}

// fakeRanger serves documents as dense ordinal chunk lists.
type fakeRanger struct {
	docs   map[string][]string // documentID -> bodies by ordinal
	ranges [][3]any            // recorded (doc, from, to)
}

func (f *fakeRanger) Range(_ context.Context, documentID string, from, to int) ([]chunks.Record, error) {
	f.ranges = append(f.ranges, [3]any{documentID, from, to})
	bodies := f.docs[documentID]
	var out []chunks.Record
	for seq := from; seq <= to && seq < len(bodies); seq++ {
		if seq < 0 {
			continue
		}
		out = append(out, chunks.Record{DocumentID: documentID, Seq: seq, Body: bodies[seq]})
	}
	return out, nil
}
