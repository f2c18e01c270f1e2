package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/raglite/internal/chunks"
)

// Ranger fetches a document's chunks by ordinal range.
type Ranger interface {
	Range(ctx context.Context, documentID string, from, to int) ([]chunks.Record, error)
}

// AssembleSpans expands hits into chunk spans: every hit pulls the window
// [Seq+before, Seq+after] of neighboring chunks, windows of the same
// document that touch are merged, and at most maxSpans spans are kept.
// Hits must arrive in rank order; spans come back in the order of their
// best-ranked contributing hit.
func AssembleSpans(ctx context.Context, ranger Ranger, hits []Hit, maxSpans, before, after int) ([]Span, error) {
	type window struct {
		doc      string
		from, to int
		score    float64
	}

	var windows []window
	for _, h := range hits {
		w := window{doc: h.DocumentID, from: h.Seq + before, to: h.Seq + after, score: h.Score}
		if w.from < 0 {
			w.from = 0
		}

		merged := false
		for i := range windows {
			if windows[i].doc != w.doc {
				continue
			}
			// Overlapping or adjacent windows collapse into one span.
			if w.from <= windows[i].to+1 && windows[i].from <= w.to+1 {
				if w.from < windows[i].from {
					windows[i].from = w.from
				}
				if w.to > windows[i].to {
					windows[i].to = w.to
				}
				if w.score > windows[i].score {
					windows[i].score = w.score
				}
				merged = true
				break
			}
		}
		if merged {
			continue
		}
		if len(windows) == maxSpans {
			continue
		}
		windows = append(windows, w)
	}

	spans := make([]Span, 0, len(windows))
	for _, w := range windows {
		records, err := ranger.Range(ctx, w.doc, w.from, w.to)
		if err != nil {
			return nil, fmt.Errorf("expand span %s[%d..%d]: %w", w.doc, w.from, w.to, err)
		}
		if len(records) == 0 {
			continue
		}

		span := Span{
			DocumentID: w.doc,
			From:       records[0].Seq,
			To:         records[len(records)-1].Seq,
			Score:      w.score,
		}
		for _, rec := range records {
			span.Bodies = append(span.Bodies, rec.Body)
			span.Seqs = append(span.Seqs, rec.Seq)
		}
		spans = append(spans, span)
	}
	return spans, nil
}
