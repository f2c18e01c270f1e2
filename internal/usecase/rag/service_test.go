package rag

import (
	"context"
	"errors"
	"os"
	"testing"

	"go.uber.org/zap"

	raglite "github.com/kailas-cloud/raglite"
	"github.com/kailas-cloud/raglite/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterRetrievalMetrics()
	os.Exit(m.Run())
}

type fakeAnswerer struct {
	answer string
	err    error
	spans  []raglite.ChunkSpan
}

func (f *fakeAnswerer) Answer(_ context.Context, _ string, spans []raglite.ChunkSpan) (string, error) {
	f.spans = spans
	return f.answer, f.err
}

func testSpans() []raglite.ChunkSpan {
	return []raglite.ChunkSpan{
		{DocumentID: "doc", From: 0, To: 1, Chunks: []raglite.Chunk{{Body: "a"}, {Body: "b"}}, Score: 0.9},
	}
}

func newTestService(t *testing.T, gen Answerer, retrieval raglite.RetrievalMethod) *Service {
	t.Helper()
	cfg, err := raglite.New(raglite.WithRetrieval(retrieval))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return New(cfg, gen, zap.NewNop())
}

func TestSearch_RunsPipeline(t *testing.T) {
	var gotQuery string
	svc := newTestService(t, nil, func(_ context.Context, query string, _ *raglite.Config) ([]raglite.ChunkSpan, error) {
		gotQuery = query
		return testSpans(), nil
	})

	spans, err := svc.Search(context.Background(), "what is rrf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "what is rrf" {
		t.Errorf("pipeline query = %q", gotQuery)
	}
	if len(spans) != 1 || spans[0].DocumentID != "doc" {
		t.Errorf("spans = %v", spans)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc := newTestService(t, nil, func(context.Context, string, *raglite.Config) ([]raglite.ChunkSpan, error) {
		t.Fatal("pipeline must not run for an empty query")
		return nil, nil
	})

	_, err := svc.Search(context.Background(), "")
	if !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestSearch_PipelineErrorForwarded(t *testing.T) {
	wantErr := errors.New("store unavailable")
	svc := newTestService(t, nil, func(context.Context, string, *raglite.Config) ([]raglite.ChunkSpan, error) {
		return nil, wantErr
	})

	_, err := svc.Search(context.Background(), "q")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected pipeline error, got %v", err)
	}
}

func TestAnswer_GroundsInRetrievedSpans(t *testing.T) {
	gen := &fakeAnswerer{answer: "grounded"}
	svc := newTestService(t, gen, func(context.Context, string, *raglite.Config) ([]raglite.ChunkSpan, error) {
		return testSpans(), nil
	})

	answer, spans, err := svc.Answer(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "grounded" {
		t.Errorf("answer = %q", answer)
	}
	if len(spans) != 1 {
		t.Errorf("spans = %v", spans)
	}
	if len(gen.spans) != 1 {
		t.Error("generator did not receive the retrieved spans")
	}
}

func TestAnswer_NoGenerator(t *testing.T) {
	svc := newTestService(t, nil, func(context.Context, string, *raglite.Config) ([]raglite.ChunkSpan, error) {
		return nil, nil
	})

	if _, _, err := svc.Answer(context.Background(), "q"); err == nil {
		t.Fatal("expected error without a generator")
	}
}

func TestAnswer_GeneratorErrorForwarded(t *testing.T) {
	wantErr := errors.New("model offline")
	gen := &fakeAnswerer{err: wantErr}
	svc := newTestService(t, gen, func(context.Context, string, *raglite.Config) ([]raglite.ChunkSpan, error) {
		return testSpans(), nil
	})

	_, _, err := svc.Answer(context.Background(), "q")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected generator error, got %v", err)
	}
}
