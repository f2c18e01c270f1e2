package raglite

import "sort"

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack
// et al. 2009).
const rrfK = 60

// fuseRRF merges the rankings of several subsearches via Reciprocal Rank
// Fusion: score(c) = sum of 1/(k + rank_i(c)) over every ranking where the
// chunk appears. The fused set is truncated to maxChunks, bounding
// downstream reranker cost regardless of subsearch count.
func fuseRRF(rankings [][]Chunk, maxChunks int) []Chunk {
	type scored struct {
		chunk Chunk
		score float64
		order int
	}

	merged := make(map[string]*scored)
	order := 0

	for _, ranking := range rankings {
		for rank, c := range ranking {
			s := 1.0 / float64(rrfK+rank+1)
			if existing, ok := merged[c.ID]; ok {
				existing.score += s
				continue
			}
			merged[c.ID] = &scored{chunk: c, score: s, order: order}
			order++
		}
	}

	fused := make([]*scored, 0, len(merged))
	for _, s := range merged {
		fused = append(fused, s)
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		return fused[i].order < fused[j].order // stable tie-break on first appearance
	})

	if len(fused) > maxChunks {
		fused = fused[:maxChunks]
	}

	out := make([]Chunk, len(fused))
	for i, s := range fused {
		c := s.chunk
		c.Score = s.score
		out[i] = c
	}
	return out
}
