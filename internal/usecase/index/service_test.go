package index

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	raglite "github.com/kailas-cloud/raglite"
	"github.com/kailas-cloud/raglite/internal/chunks"
)

type fakeRepo struct {
	indexDims   int
	indexMetric string
	added       []chunks.Record
	addErr      error
}

func (f *fakeRepo) EnsureIndex(_ context.Context, dimensions int, metric string) error {
	f.indexDims = dimensions
	f.indexMetric = metric
	return nil
}

func (f *fakeRepo) Add(_ context.Context, records []chunks.Record) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, records...)
	return nil
}

type fakeEmbedder struct {
	inputs []string
	vec    []float32
	err    error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.inputs = append(f.inputs, text)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float32, len(f.vec))
	copy(out, f.vec)
	return out, nil
}

type fakeResolver struct {
	embedder *fakeEmbedder
	err      error
}

func (f *fakeResolver) ResolveEmbedder(_ context.Context, _ string) (raglite.Embedder, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.embedder, nil
}

func newTestService(t *testing.T, emb *fakeEmbedder, opts ...raglite.Option) (*Service, *fakeRepo) {
	t.Helper()
	repo := &fakeRepo{}
	opts = append([]raglite.Option{
		raglite.WithModelResolver(&fakeResolver{embedder: emb}),
	}, opts...)
	cfg, err := raglite.New(opts...)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return New(repo, cfg, zap.NewNop()), repo
}

func TestIndex_SplitsEmbedsAndStores(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{3, 4}}
	svc, repo := newTestService(t, emb, raglite.WithChunkMaxSize(30))

	n, err := svc.Index(context.Background(), "doc-1", "First sentence here. Second sentence here. Third sentence here.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(repo.added) {
		t.Fatalf("returned %d, stored %d", n, len(repo.added))
	}
	if n < 2 {
		t.Fatalf("expected multiple chunks, got %d", n)
	}

	for i, rec := range repo.added {
		if rec.DocumentID != "doc-1" {
			t.Errorf("record %d document = %q", i, rec.DocumentID)
		}
		if rec.Seq != i {
			t.Errorf("record %d seq = %d", i, rec.Seq)
		}
		if len(rec.Vector) != 2 {
			t.Errorf("record %d vector length = %d", i, len(rec.Vector))
		}
	}

	if repo.indexDims != 2 {
		t.Errorf("index dimensions = %d", repo.indexDims)
	}
	if repo.indexMetric != "COSINE" {
		t.Errorf("index metric = %q", repo.indexMetric)
	}
}

func TestIndex_NormalizesVectors(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{3, 4}}
	svc, repo := newTestService(t, emb, raglite.WithChunkMaxSize(100))

	if _, err := svc.Index(context.Background(), "doc-1", "One short sentence."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := repo.added[0].Vector
	if got[0] != 0.6 || got[1] != 0.8 {
		t.Errorf("vector not normalized: %v", got)
	}
}

func TestIndex_DotMetric(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{1, 0}}
	svc, repo := newTestService(t, emb,
		raglite.WithVectorSearchMetric(raglite.MetricDot),
		raglite.WithEmbedderNormalize(false),
	)

	if _, err := svc.Index(context.Background(), "doc-1", "One short sentence."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.indexMetric != "IP" {
		t.Errorf("index metric = %q, want IP", repo.indexMetric)
	}
}

func TestIndex_EmptyDocument(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{1}}
	svc, _ := newTestService(t, emb)

	if _, err := svc.Index(context.Background(), "doc-1", "   "); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("empty content: %v", err)
	}
	if _, err := svc.Index(context.Background(), "", "content"); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("empty id: %v", err)
	}
}

func TestIndex_NoResolver(t *testing.T) {
	repo := &fakeRepo{}
	cfg, err := raglite.New()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	svc := New(repo, cfg, zap.NewNop())

	if _, err := svc.Index(context.Background(), "doc-1", "content"); !errors.Is(err, raglite.ErrNoModelResolver) {
		t.Errorf("expected ErrNoModelResolver, got %v", err)
	}
}

func TestIndex_EmbedError(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("provider down")}
	svc, repo := newTestService(t, emb)

	_, err := svc.Index(context.Background(), "doc-1", "content here")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(repo.added) != 0 {
		t.Errorf("no records should be stored on embed failure")
	}
}

func TestWindowText(t *testing.T) {
	bodies := []string{"a", "b", "c", "d"}

	cases := []struct {
		name   string
		i      int
		window int
		want   string
	}{
		{"window one is the chunk alone", 1, 1, "b"},
		{"window three pulls both neighbors", 1, 3, "a b c"},
		{"clamped at the start", 0, 3, "a b"},
		{"clamped at the end", 3, 3, "c d"},
		{"even window leans forward", 1, 2, "b c"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := windowText(bodies, tc.i, tc.window); got != tc.want {
				t.Errorf("windowText(%d, %d) = %q, want %q", tc.i, tc.window, got, tc.want)
			}
		})
	}
}

func TestIndex_WindowedEmbeddingInput(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{1, 0}}
	// Non-late-chunking embedder keeps the default window of 3.
	svc, _ := newTestService(t, emb,
		raglite.WithEmbedder("openai/text-embedding-3-small@8191"),
		raglite.WithChunkMaxSize(30),
	)

	if _, err := svc.Index(context.Background(), "doc-1", "First sentence here. Second sentence here. Third sentence here."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(emb.inputs) < 2 {
		t.Fatalf("expected one embedding per chunk, got %d", len(emb.inputs))
	}
	// The middle chunk's input must include its neighbors.
	if !strings.Contains(emb.inputs[1], "First sentence here.") {
		t.Errorf("input %q missing left neighbor", emb.inputs[1])
	}
}
