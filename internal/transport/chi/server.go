// Package chi is the HTTP transport for raglited.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	raglite "github.com/kailas-cloud/raglite"
	"github.com/kailas-cloud/raglite/internal/embedder"
	"github.com/kailas-cloud/raglite/internal/generate"
	"github.com/kailas-cloud/raglite/internal/rerank"
	indexuc "github.com/kailas-cloud/raglite/internal/usecase/index"
	raguc "github.com/kailas-cloud/raglite/internal/usecase/rag"
)

// Indexer stores documents as searchable chunks.
type Indexer interface {
	Index(ctx context.Context, documentID, content string) (int, error)
}

// Retriever serves retrieval and question answering.
type Retriever interface {
	Search(ctx context.Context, query string) ([]raglite.ChunkSpan, error)
	Answer(ctx context.Context, query string) (string, []raglite.ChunkSpan, error)
}

// Pinger checks chunk store connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server is the raglited HTTP API.
type Server struct {
	index         Indexer
	rag           Retriever
	store         Pinger
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(index Indexer, rag Retriever, store Pinger, logger *zap.Logger) *Server {
	s := &Server{
		index:  index,
		rag:    rag,
		store:  store,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(indexuc.ErrEmptyDocument, http.StatusBadRequest, "empty_document"),
		sentinelHandler(raguc.ErrEmptyQuery, http.StatusBadRequest, "empty_query"),
		sentinelHandler(embedder.ErrProviderError, http.StatusBadGateway, "embedding_provider_error"),
		sentinelHandler(generate.ErrGenerationFailed, http.StatusBadGateway, "generation_failed"),
		sentinelHandler(rerank.ErrRerankFailed, http.StatusBadGateway, "rerank_failed"),
		sentinelHandler(raglite.ErrNoModelResolver, http.StatusServiceUnavailable, "no_model_resolver"),
	}
	return s
}

// Routes registers the API on a router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/documents", s.IndexDocument)
		r.Post("/search", s.Search)
		r.Post("/answer", s.Answer)
	})
}

// IndexDocumentRequest is the POST /documents body.
type IndexDocumentRequest struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// IndexDocumentResponse reports the stored chunk count.
type IndexDocumentResponse struct {
	ID     string `json:"id"`
	Chunks int    `json:"chunks"`
}

// QueryRequest is the body of POST /search and POST /answer.
type QueryRequest struct {
	Query string `json:"query"`
}

// SpanItem is one retrieved chunk span.
type SpanItem struct {
	DocumentID string  `json:"document_id"`
	From       int     `json:"from"`
	To         int     `json:"to"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// SearchResponse lists retrieved spans.
type SearchResponse struct {
	Spans []SpanItem `json:"spans"`
	Total int        `json:"total"`
}

// AnswerResponse carries a grounded answer and its supporting spans.
type AnswerResponse struct {
	Answer string     `json:"answer"`
	Spans  []SpanItem `json:"spans"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IndexDocument handles POST /api/v1/documents.
func (s *Server) IndexDocument(w http.ResponseWriter, r *http.Request) {
	var req IndexDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "Document id is required")
		return
	}

	n, err := s.index.Index(r.Context(), req.ID, req.Content)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, IndexDocumentResponse{ID: req.ID, Chunks: n})
}

// Search handles POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	spans, err := s.rag.Search(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := spanItems(spans)
	writeJSON(w, http.StatusOK, SearchResponse{Spans: items, Total: len(items)})
}

// Answer handles POST /api/v1/answer.
func (s *Server) Answer(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	answer, spans, err := s.rag.Answer(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AnswerResponse{Answer: answer, Spans: spanItems(spans)})
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			s.logger.Warn("Health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func spanItems(spans []raglite.ChunkSpan) []SpanItem {
	items := make([]SpanItem, len(spans))
	for i, sp := range spans {
		items[i] = SpanItem{
			DocumentID: sp.DocumentID,
			From:       sp.From,
			To:         sp.To,
			Text:       sp.Text(),
			Score:      sp.Score,
		}
	}
	return items
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}

	s.logger.Error("Unhandled domain error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
