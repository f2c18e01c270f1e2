// Package resolver maps model identifiers to loadable embedding backends.
// An identifier's backend tag selects the configured provider endpoint; the
// rest of the identifier names the model on that endpoint. Resolved
// embedders are memoized so repeated pipeline invocations share one client.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	raglite "github.com/kailas-cloud/raglite"
	"github.com/kailas-cloud/raglite/internal/embedder"
	"github.com/kailas-cloud/raglite/internal/metrics"
)

// ErrUnknownBackend is returned when an identifier names a backend tag with
// no configured endpoint. Explicitly supplied identifiers must fail loudly,
// never fall back to a default.
var ErrUnknownBackend = errors.New("unknown embedding backend")

// Backend holds the endpoint settings for one backend tag.
type Backend struct {
	APIKey  string
	BaseURL string
}

// cacheStore is the key-value surface needed for the embedding cache.
type cacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Resolver builds and memoizes embedders from model identifiers.
type Resolver struct {
	backends map[string]Backend
	store    cacheStore
	logger   *zap.Logger

	mu        sync.Mutex
	embedders map[string]raglite.Embedder
}

// Config holds the resolver settings. Store is optional: when nil, resolved
// embedders run uncached.
type Config struct {
	Backends map[string]Backend
	Store    cacheStore
	Logger   *zap.Logger
}

// New creates a model resolver.
func New(cfg Config) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		backends:  cfg.Backends,
		store:     cfg.Store,
		logger:    logger,
		embedders: make(map[string]raglite.Embedder),
	}
}

// ResolveEmbedder implements raglite.ModelResolver.
func (r *Resolver) ResolveEmbedder(_ context.Context, id string) (raglite.Embedder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.embedders[id]; ok {
		return e, nil
	}

	tag := raglite.BackendTag(id)
	backend, ok := r.backends[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q (identifier %q)", ErrUnknownBackend, tag, id)
	}

	model := modelName(id, tag)
	if model == "" {
		return nil, fmt.Errorf("%w: identifier %q names no model", ErrUnknownBackend, id)
	}

	var provider embedder.Provider = embedder.NewOpenAI(&embedder.Config{
		APIKey:  backend.APIKey,
		BaseURL: backend.BaseURL,
		Model:   model,
		Backend: tag,
		Logger:  r.logger,
	})
	if r.store != nil {
		provider = embedder.NewCached(provider, id, r.store, metrics.EmbeddingCacheTotal, r.logger)
	}

	e := vectorOnly{provider}
	r.embedders[id] = e

	r.logger.Info("Resolved embedder",
		zap.String("backend", tag),
		zap.String("model", model),
		zap.Bool("cached", r.store != nil),
	)
	return e, nil
}

// modelName strips the backend tag prefix and the trailing @context-size.
func modelName(id, tag string) string {
	model := strings.TrimPrefix(id, tag)
	model = strings.TrimPrefix(model, "/")
	if i := strings.LastIndexByte(model, '@'); i >= 0 && raglite.ContextSize(id) > 0 {
		model = model[:i]
	}
	return model
}

// vectorOnly adapts a Provider to the raglite.Embedder surface, dropping
// token usage.
type vectorOnly struct {
	provider embedder.Provider
}

func (v vectorOnly) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := v.provider.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("resolve embed: %w", err)
	}
	return res.Vector, nil
}
