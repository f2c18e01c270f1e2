package raglite

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/raglite/internal/hardware"
)

// ErrInvalidConfig wraps every construction-time validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultDBURL is the default chunk store. The scheme selects the storage
// driver; the URL is otherwise passed through to the store unexamined.
const DefaultDBURL = "valkey://127.0.0.1:6379"

// Placeholders the generation collaborator substitutes into the RAG
// instruction template.
const (
	PlaceholderContext    = "{context}"
	PlaceholderUserPrompt = "{user_prompt}"
)

// DefaultRAGInstructionTemplate grounds the answer in the retrieved context.
const DefaultRAGInstructionTemplate = `You have access to the following context retrieved for the user's request:

` + PlaceholderContext + `

Answer the request below using only the context above. If the context does not contain the answer, say so.

` + PlaceholderUserPrompt

// Config fully parametrizes a RAG pipeline: which model generates answers,
// which embedder indexes content, which rerankers refine candidates, and
// how the retrieval method is assembled. A Config is immutable after New
// returns and safe to share, read-only, across concurrent call sites.
type Config struct {
	dbURL                      string
	llm                        string
	llmMaxTries                int
	embedder                   string
	embedderNormalize          bool
	embedderSentenceWindowSize int
	chunkMaxSize               int
	vectorSearchIndexMetric    Metric
	vectorSearchQueryAdapter   bool
	reranker                   RerankerSpec
	retrieval                  RetrievalMethod
	systemPrompt               string
	ragInstructionTemplate     string

	// lateChunkingPrefixes is the configuration-provided rule recognizing
	// embedder backends that late-chunk internally.
	lateChunkingPrefixes []string
	resolver             ModelResolver
}

// Option configures a Config under construction.
type Option func(*Config)

// WithDBURL sets the chunk store connection URL.
func WithDBURL(url string) Option {
	return func(c *Config) { c.dbURL = url }
}

// WithLLM sets the generation model identifier.
func WithLLM(id string) Option {
	return func(c *Config) { c.llm = id }
}

// WithLLMMaxTries bounds the generation collaborator's retry attempts.
func WithLLMMaxTries(n int) Option {
	return func(c *Config) { c.llmMaxTries = n }
}

// WithEmbedder sets the embedding model identifier.
func WithEmbedder(id string) Option {
	return func(c *Config) { c.embedder = id }
}

// WithEmbedderNormalize controls L2 normalization of embedding vectors
// before storage and comparison.
func WithEmbedderNormalize(on bool) Option {
	return func(c *Config) { c.embedderNormalize = on }
}

// WithSentenceWindowSize sets how many sentences of surrounding context are
// windowed into each embedding. Forced to 1 for late-chunking embedders.
func WithSentenceWindowSize(n int) Option {
	return func(c *Config) { c.embedderSentenceWindowSize = n }
}

// WithChunkMaxSize sets the upper bound, in characters, the chunking
// collaborator enforces per chunk.
func WithChunkMaxSize(n int) Option {
	return func(c *Config) { c.chunkMaxSize = n }
}

// WithVectorSearchMetric sets the distance function of the vector index.
func WithVectorSearchMetric(m Metric) Option {
	return func(c *Config) { c.vectorSearchIndexMetric = m }
}

// WithQueryAdapter enables or disables the learned query-transform step.
func WithQueryAdapter(on bool) Option {
	return func(c *Config) { c.vectorSearchQueryAdapter = on }
}

// WithReranker applies one reranker to every candidate regardless of
// language.
func WithReranker(r Reranker) Option {
	return func(c *Config) { c.reranker = SingleReranker(r) }
}

// WithLanguageRerankers dispatches reranking on detected chunk language
// through an ordered (tag, reranker) priority list.
func WithLanguageRerankers(pairs ...TaggedReranker) Option {
	return func(c *Config) { c.reranker = LanguageTaggedRerankers(pairs...) }
}

// WithRetrieval substitutes the composed default pipeline with any
// conforming retrieval method.
func WithRetrieval(m RetrievalMethod) Option {
	return func(c *Config) { c.retrieval = m }
}

// WithSystemPrompt sets the system prompt passed through, unmodified, to
// generation.
func WithSystemPrompt(p string) Option {
	return func(c *Config) { c.systemPrompt = p }
}

// WithRAGInstructionTemplate replaces the instruction template. It must
// contain the {context} and {user_prompt} placeholders.
func WithRAGInstructionTemplate(t string) Option {
	return func(c *Config) { c.ragInstructionTemplate = t }
}

// WithLateChunkingPrefixes replaces the identifier prefixes recognized as
// late-chunking embedder backends.
func WithLateChunkingPrefixes(prefixes ...string) Option {
	return func(c *Config) { c.lateChunkingPrefixes = slices.Clone(prefixes) }
}

// WithModelResolver injects the model-resolution collaborator used by the
// default vector search primitive.
func WithModelResolver(r ModelResolver) Option {
	return func(c *Config) { c.resolver = r }
}

// New constructs a Config in two phases: build the raw fields from
// hardware-adaptive defaults and the given options, then run a single
// deterministic normalize pass and validate. Construction performs no I/O:
// model weights and database connections are acquired by the collaborators
// on first use.
func New(opts ...Option) (*Config, error) {
	gpu := hardware.GPUOffloadSupported()

	cfg := &Config{
		dbURL:                      DefaultDBURL,
		llm:                        DefaultLLM(gpu),
		llmMaxTries:                4,
		embedder:                   DefaultEmbedder(gpu, hardware.CPUCount()),
		embedderNormalize:          true,
		embedderSentenceWindowSize: 3,
		chunkMaxSize:               1440,
		vectorSearchIndexMetric:    MetricCosine,
		vectorSearchQueryAdapter:   true,
		ragInstructionTemplate:     DefaultRAGInstructionTemplate,
		lateChunkingPrefixes:       []string{"llama-cpp-python"},
	}
	for _, o := range opts {
		o(cfg)
	}

	cfg.normalize()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.retrieval == nil {
		cfg.retrieval = NewRetrieval(defaultPrimitives())
	}
	return cfg, nil
}

// normalize applies the one forced override: sentence windowing and late
// chunking are mutually exclusive ways to inject surrounding context into
// an embedding, and applying both would double-count context and skew
// similarity scores. A late-chunking embedder therefore forces the window
// down to a single sentence, even over an explicitly supplied value.
func (c *Config) normalize() {
	for _, prefix := range c.lateChunkingPrefixes {
		if strings.HasPrefix(c.embedder, prefix) {
			c.embedderSentenceWindowSize = 1
			return
		}
	}
}

func (c *Config) validate() error {
	if c.dbURL == "" {
		return fmt.Errorf("%w: db url is required", ErrInvalidConfig)
	}
	if c.llmMaxTries < 1 {
		return fmt.Errorf("%w: llm max tries must be at least 1, got %d", ErrInvalidConfig, c.llmMaxTries)
	}
	if c.chunkMaxSize < 1 {
		return fmt.Errorf("%w: chunk max size must be positive, got %d", ErrInvalidConfig, c.chunkMaxSize)
	}
	if c.embedderSentenceWindowSize < 1 {
		return fmt.Errorf("%w: sentence window size must be positive, got %d", ErrInvalidConfig, c.embedderSentenceWindowSize)
	}
	if !c.vectorSearchIndexMetric.IsValid() {
		return fmt.Errorf("%w: unsupported vector search metric %q", ErrInvalidConfig, c.vectorSearchIndexMetric)
	}
	for _, ph := range []string{PlaceholderContext, PlaceholderUserPrompt} {
		if !strings.Contains(c.ragInstructionTemplate, ph) {
			return fmt.Errorf("%w: rag instruction template is missing %s", ErrInvalidConfig, ph)
		}
	}
	return nil
}

// DBURL returns the chunk store connection URL.
func (c *Config) DBURL() string { return c.dbURL }

// LLM returns the generation model identifier.
func (c *Config) LLM() string { return c.llm }

// LLMMaxTries returns the generation retry bound.
func (c *Config) LLMMaxTries() int { return c.llmMaxTries }

// Embedder returns the embedding model identifier.
func (c *Config) Embedder() string { return c.embedder }

// EmbedderNormalize reports whether embedding vectors are L2-normalized.
func (c *Config) EmbedderNormalize() bool { return c.embedderNormalize }

// EmbedderSentenceWindowSize returns the sentence window size after
// normalization.
func (c *Config) EmbedderSentenceWindowSize() int { return c.embedderSentenceWindowSize }

// ChunkMaxSize returns the per-chunk character bound.
func (c *Config) ChunkMaxSize() int { return c.chunkMaxSize }

// VectorSearchIndexMetric returns the vector index distance function.
func (c *Config) VectorSearchIndexMetric() Metric { return c.vectorSearchIndexMetric }

// VectorSearchQueryAdapter reports whether the learned query transform is
// enabled.
func (c *Config) VectorSearchQueryAdapter() bool { return c.vectorSearchQueryAdapter }

// Reranker returns the reranking configuration.
func (c *Config) Reranker() RerankerSpec { return c.reranker }

// Retrieval returns the retrieval pipeline.
func (c *Config) Retrieval() RetrievalMethod { return c.retrieval }

// SystemPrompt returns the system prompt, empty when unset.
func (c *Config) SystemPrompt() string { return c.systemPrompt }

// RAGInstructionTemplate returns the generation instruction template.
func (c *Config) RAGInstructionTemplate() string { return c.ragInstructionTemplate }

// LateChunkingPrefixes returns the identifier prefixes recognized as
// late-chunking backends.
func (c *Config) LateChunkingPrefixes() []string { return slices.Clone(c.lateChunkingPrefixes) }

// Resolver returns the injected model resolver, nil when unset.
func (c *Config) Resolver() ModelResolver { return c.resolver }

// Equal reports cache equivalence of two configurations. The reranker is
// deliberately excluded: structurally distinct but behaviorally
// interchangeable reranker instances must not defeat per-configuration
// memoization. The retrieval method and resolver are function and
// interface values without useful value identity and are likewise not
// compared.
func (c *Config) Equal(o *Config) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.dbURL == o.dbURL &&
		c.llm == o.llm &&
		c.llmMaxTries == o.llmMaxTries &&
		c.embedder == o.embedder &&
		c.embedderNormalize == o.embedderNormalize &&
		c.embedderSentenceWindowSize == o.embedderSentenceWindowSize &&
		c.chunkMaxSize == o.chunkMaxSize &&
		c.vectorSearchIndexMetric == o.vectorSearchIndexMetric &&
		c.vectorSearchQueryAdapter == o.vectorSearchQueryAdapter &&
		c.systemPrompt == o.systemPrompt &&
		c.ragInstructionTemplate == o.ragInstructionTemplate &&
		slices.Equal(c.lateChunkingPrefixes, o.lateChunkingPrefixes)
}

// Fingerprint hashes the compared fields into a stable 64-bit key for
// memoizing expensive per-configuration work such as model loading. Two
// configurations that are Equal have the same fingerprint.
func (c *Config) Fingerprint() uint64 {
	d := xxhash.New()
	for _, f := range []string{
		c.dbURL,
		c.llm,
		strconv.Itoa(c.llmMaxTries),
		c.embedder,
		strconv.FormatBool(c.embedderNormalize),
		strconv.Itoa(c.embedderSentenceWindowSize),
		strconv.Itoa(c.chunkMaxSize),
		string(c.vectorSearchIndexMetric),
		strconv.FormatBool(c.vectorSearchQueryAdapter),
		c.systemPrompt,
		c.ragInstructionTemplate,
		strings.Join(c.lateChunkingPrefixes, ","),
	} {
		_, _ = d.WriteString(f)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}
