package raglite

import "context"

// Reranker reorders a candidate set of chunks by relevance to a query.
// Returned chunks carry updated scores.
type Reranker interface {
	Rerank(ctx context.Context, query string, chunks []Chunk) ([]Chunk, error)
}

// TagOther is the fallback entry in a language-tagged reranker list: it
// matches any chunk language that no specific tag covers.
const TagOther = "other"

// TaggedReranker pairs a language tag ("en", "de", TagOther, ...) with a
// reranker.
type TaggedReranker struct {
	Tag      string
	Reranker Reranker
}

// RerankerSpec is the reranking configuration: absent, a single reranker
// applied to every chunk, or an ordered list of language-tagged rerankers
// used as a priority list for language-based dispatch.
type RerankerSpec struct {
	single Reranker
	tagged []TaggedReranker
}

// NoReranker returns the absent spec: candidates keep their fused order.
func NoReranker() RerankerSpec {
	return RerankerSpec{}
}

// SingleReranker wraps one reranker applied regardless of chunk language.
func SingleReranker(r Reranker) RerankerSpec {
	return RerankerSpec{single: r}
}

// LanguageTaggedRerankers builds a spec dispatching on detected chunk
// language. Order matters: earlier entries win on equal tags.
func LanguageTaggedRerankers(pairs ...TaggedReranker) RerankerSpec {
	return RerankerSpec{tagged: pairs}
}

// IsZero reports whether no reranker is configured.
func (s RerankerSpec) IsZero() bool {
	return s.single == nil && len(s.tagged) == 0
}

// Single returns the unconditional reranker, if the spec holds one.
func (s RerankerSpec) Single() (Reranker, bool) {
	return s.single, s.single != nil
}

// Tagged returns the language-tagged list, if the spec holds one.
func (s RerankerSpec) Tagged() ([]TaggedReranker, bool) {
	return s.tagged, len(s.tagged) > 0
}

// Select picks the reranker for a detected language tag: first exact tag
// match, then a TagOther entry, then the first entry. For a single-reranker
// spec the language is ignored.
func (s RerankerSpec) Select(lang string) (Reranker, bool) {
	if s.single != nil {
		return s.single, true
	}
	if len(s.tagged) == 0 {
		return nil, false
	}
	for _, p := range s.tagged {
		if p.Tag == lang {
			return p.Reranker, true
		}
	}
	for _, p := range s.tagged {
		if p.Tag == TagOther {
			return p.Reranker, true
		}
	}
	return s.tagged[0].Reranker, true
}
