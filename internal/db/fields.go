package db

// Chunk hash field names shared by the write path and the FT index schema.
const (
	FieldBody     = "__body"
	FieldDocument = "__doc"
	FieldSeq      = "__seq"
	FieldVector   = "__vector"
	// FieldDistance is the KNN distance alias returned by FT.SEARCH, not a
	// stored field.
	FieldDistance = "__distance"
)
