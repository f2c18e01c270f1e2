package raglite

import (
	"context"
	"strconv"
	"strings"
)

// Model identifiers follow <backend>/<repository-path>/<file-glob>@<context-size>.
// The config reads only the backend tag (for the late-chunking rule) and the
// trailing context size; everything in between is opaque to this package and
// validated by the model-resolution collaborator.

// BackendTag returns the identifier's leading backend tag, up to the first
// slash. An identifier without a slash is returned whole.
func BackendTag(id string) string {
	tag, _, _ := strings.Cut(id, "/")
	return tag
}

// ContextSize returns the positive integer after the last '@', or 0 when the
// suffix is absent or malformed.
func ContextSize(id string) int {
	i := strings.LastIndexByte(id, '@')
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// Embedder encodes text into a vector. Implementations are resolved from
// model identifiers by a ModelResolver.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ModelResolver resolves a model identifier string to a loadable backend.
// Resolution failures for explicitly supplied identifiers must surface as
// errors, never be silently replaced with defaults.
type ModelResolver interface {
	ResolveEmbedder(ctx context.Context, id string) (Embedder, error)
}
