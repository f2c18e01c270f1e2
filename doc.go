// Package raglite configures a retrieval-augmented generation pipeline.
//
// The central type is Config: an immutable aggregate naming the generation
// model, the embedding model, the rerankers, and the retrieval method that
// turns a query into ranked chunk spans. Defaults adapt to the hardware the
// process runs on; the default retrieval method is composed from keyword and
// vector search fused via RRF, reranked, and expanded with neighboring
// chunks. Every stage is replaceable by any value satisfying the contracts
// in this package.
package raglite
