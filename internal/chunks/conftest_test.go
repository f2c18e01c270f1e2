package chunks

import (
	"context"

	"github.com/kailas-cloud/raglite/internal/db"
)

// fakeStore records writes and serves hashes from memory.
type fakeStore struct {
	hashes  map[string]map[string]string
	created []*db.IndexDefinition
	exists  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{hashes: make(map[string]map[string]string)}
}

func (f *fakeStore) HSet(_ context.Context, key string, fields map[string]string) error {
	f.hashes[key] = fields
	return nil
}

func (f *fakeStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	for _, item := range items {
		f.hashes[item.Key] = item.Fields
	}
	return nil
}

func (f *fakeStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	return f.hashes[key], nil
}

func (f *fakeStore) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, key := range keys {
		out[i] = f.hashes[key]
	}
	return out, nil
}

func (f *fakeStore) Del(_ context.Context, key string) error {
	delete(f.hashes, key)
	return nil
}

func (f *fakeStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if f.exists {
		return db.ErrIndexExists
	}
	f.created = append(f.created, def)
	return nil
}

func (f *fakeStore) IndexExists(_ context.Context, _ string) (bool, error) {
	return f.exists, nil
}
