package raglite

import "strings"

// Chunk is a contiguous slice of a source document, the unit indexed for
// search. Seq is the chunk's ordinal position within its document; span
// expansion uses it to pull adjacent chunks.
type Chunk struct {
	ID         string
	DocumentID string
	Seq        int
	Body       string
	Score      float64
}

// ChunkSpan is one or more adjacent chunks merged for added context, the
// unit handed to generation. From and To are inclusive ordinals within the
// document.
type ChunkSpan struct {
	DocumentID string
	From       int
	To         int
	Chunks     []Chunk
	Score      float64
}

// Text returns the concatenated chunk bodies of the span.
func (s ChunkSpan) Text() string {
	if len(s.Chunks) == 1 {
		return s.Chunks[0].Body
	}
	var b strings.Builder
	for i, c := range s.Chunks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(c.Body)
	}
	return b.String()
}
