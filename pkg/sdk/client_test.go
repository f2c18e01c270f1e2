package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIndexDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/documents" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["id"] != "doc-1" || body["content"] != "Some text." {
			t.Errorf("body = %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(IndexResult{ID: "doc-1", Chunks: 2})
	}))
	defer srv.Close()

	client := New(srv.URL)
	res, err := client.IndexDocument(context.Background(), "doc-1", "Some text.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID != "doc-1" || res.Chunks != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"spans": []Span{{DocumentID: "doc-1", From: 0, To: 1, Text: "first\nsecond", Score: 0.8}},
			"total": 1,
		})
	}))
	defer srv.Close()

	client := New(srv.URL)
	spans, err := client.Search(context.Background(), "first")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(spans) != 1 || spans[0].DocumentID != "doc-1" {
		t.Errorf("spans = %+v", spans)
	}
}

func TestAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(AnswerResult{Answer: "42", Spans: []Span{{Text: "forty-two"}}})
	}))
	defer srv.Close()

	client := New(srv.URL)
	res, err := client.Answer(context.Background(), "the question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Answer != "42" || len(res.Spans) != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestAPIKey_SentAsBearer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(srv.URL, WithAPIKey("secret"))
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("authorization = %q", gotAuth)
	}
}

func TestAPIError_Decoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"code": "empty_query", "message": "query is empty"})
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.Search(context.Background(), "")
	if !errors.Is(err, ErrAPIError) {
		t.Fatalf("expected ErrAPIError, got %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Code != "empty_query" {
		t.Errorf("api error = %+v", apiErr)
	}
}

func TestPing_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "degraded"})
	}))
	defer srv.Close()

	client := New(srv.URL)
	err := client.Ping(context.Background())
	if !errors.Is(err, ErrAPIError) {
		t.Fatalf("expected ErrAPIError, got %v", err)
	}
}
