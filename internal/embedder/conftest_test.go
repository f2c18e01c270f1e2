package embedder

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/raglite/internal/db"
)

type mockProvider struct {
	result Result
	err    error
	calls  int
}

func (m *mockProvider) Embed(_ context.Context, _ string) (Result, error) {
	m.calls++
	return m.result, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func newTestCached(t *testing.T, inner *mockProvider) (*Cached, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	c := NewCached(inner, "test-model", ms, nil, zap.NewNop())
	return c, ms
}
