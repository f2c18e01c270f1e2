package chunks

import (
	"context"
	"testing"

	"github.com/kailas-cloud/raglite/internal/db"
)

func TestAdd_StoresFields(t *testing.T) {
	store := newFakeStore()
	repo := New(store)

	err := repo.Add(context.Background(), []Record{
		{DocumentID: "doc-1", Seq: 0, Body: "first", Vector: []float32{0.5, 0.25}},
		{DocumentID: "doc-1", Seq: 1, Body: "second", Vector: []float32{1, 0}},
	})
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	fields, ok := store.hashes[Key("doc-1", 0)]
	if !ok {
		t.Fatalf("chunk key %q not written", Key("doc-1", 0))
	}
	if fields[db.FieldBody] != "first" {
		t.Errorf("body = %q, want %q", fields[db.FieldBody], "first")
	}
	if fields[db.FieldDocument] != "doc-1" {
		t.Errorf("doc = %q, want %q", fields[db.FieldDocument], "doc-1")
	}
	if fields[db.FieldSeq] != "0" {
		t.Errorf("seq = %q, want %q", fields[db.FieldSeq], "0")
	}
	if len(fields[db.FieldVector]) != 8 {
		t.Errorf("vector blob length = %d, want 8", len(fields[db.FieldVector]))
	}
}

func TestRange_ClampsAndSkipsMissing(t *testing.T) {
	store := newFakeStore()
	repo := New(store)

	records := []Record{
		{DocumentID: "doc-1", Seq: 0, Body: "a"},
		{DocumentID: "doc-1", Seq: 1, Body: "b"},
		{DocumentID: "doc-1", Seq: 2, Body: "c"},
	}
	if err := repo.Add(context.Background(), records); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	// From below zero is clamped, to past the end is skipped.
	got, err := repo.Range(context.Background(), "doc-1", -1, 5)
	if err != nil {
		t.Fatalf("Range() error: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("Range() returned %d records, want 3", len(got))
	}
	for i, rec := range got {
		if rec.Seq != i {
			t.Errorf("record %d has seq %d", i, rec.Seq)
		}
	}
	if got[2].Body != "c" {
		t.Errorf("last body = %q, want %q", got[2].Body, "c")
	}
}

func TestRange_EmptyWindow(t *testing.T) {
	repo := New(newFakeStore())

	got, err := repo.Range(context.Background(), "doc-1", 3, 2)
	if err != nil {
		t.Fatalf("Range() error: %v", err)
	}
	if got != nil {
		t.Errorf("Range() = %v, want nil", got)
	}
}

func TestEnsureIndex_Idempotent(t *testing.T) {
	store := newFakeStore()
	repo := New(store)

	if err := repo.EnsureIndex(context.Background(), 1024, "COSINE"); err != nil {
		t.Fatalf("EnsureIndex() error: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("CreateIndex called %d times, want 1", len(store.created))
	}
	def := store.created[0]
	if def.Name != IndexName || def.Prefix != ChunkPrefix {
		t.Errorf("index def = %+v", def)
	}
	if def.Dimensions != 1024 || def.Metric != "COSINE" {
		t.Errorf("index def = %+v", def)
	}

	// Second call against an existing index is not an error.
	store.exists = true
	if err := repo.EnsureIndex(context.Background(), 1024, "COSINE"); err != nil {
		t.Errorf("EnsureIndex() on existing index: %v", err)
	}
}

func TestRecordVectorRoundTrip(t *testing.T) {
	store := newFakeStore()
	repo := New(store)

	vec := []float32{0.125, -2, 3.5}
	if err := repo.Add(context.Background(), []Record{{DocumentID: "d", Seq: 0, Body: "x", Vector: vec}}); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	got, err := repo.Range(context.Background(), "d", 0, 0)
	if err != nil {
		t.Fatalf("Range() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Range() returned %d records", len(got))
	}
	if len(got[0].Vector) != 3 {
		t.Fatalf("vector length = %d, want 3", len(got[0].Vector))
	}
	for i := range vec {
		if got[0].Vector[i] != vec[i] {
			t.Errorf("vector[%d] = %f, want %f", i, got[0].Vector[i], vec[i])
		}
	}
}
