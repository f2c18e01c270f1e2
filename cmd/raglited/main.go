package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	raglite "github.com/kailas-cloud/raglite"
	"github.com/kailas-cloud/raglite/internal/chunks"
	"github.com/kailas-cloud/raglite/internal/config"
	"github.com/kailas-cloud/raglite/internal/db"
	"github.com/kailas-cloud/raglite/internal/generate"
	logpkg "github.com/kailas-cloud/raglite/internal/logger"
	"github.com/kailas-cloud/raglite/internal/metrics"
	"github.com/kailas-cloud/raglite/internal/rerank"
	"github.com/kailas-cloud/raglite/internal/resolver"
	chiTransport "github.com/kailas-cloud/raglite/internal/transport/chi"
	indexuc "github.com/kailas-cloud/raglite/internal/usecase/index"
	raguc "github.com/kailas-cloud/raglite/internal/usecase/rag"
	"github.com/kailas-cloud/raglite/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting raglited API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_url", cfg.Database.URL),
	)

	store, err := db.Open(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to open chunk store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Chunk store not ready", zap.Error(err))
	}
	logger.Info("Connected to chunk store")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()
	metrics.RegisterGenerationMetrics()

	backends := make(map[string]resolver.Backend, len(cfg.Backends))
	for tag, b := range cfg.Backends {
		backends[tag] = resolver.Backend{APIKey: b.APIKey, BaseURL: b.BaseURL}
	}
	res := resolver.New(resolver.Config{
		Backends: backends,
		Store:    store,
		Logger:   logger,
	})

	pipeline, err := buildPipeline(cfg, res, logger)
	if err != nil {
		logger.Fatal("Failed to build pipeline configuration", zap.Error(err))
	}
	logger.Info("Pipeline configured",
		zap.String("llm", pipeline.LLM()),
		zap.String("embedder", pipeline.Embedder()),
		zap.Int("sentence_window_size", pipeline.EmbedderSentenceWindowSize()),
		zap.String("metric", string(pipeline.VectorSearchIndexMetric())),
		zap.Uint64("fingerprint", pipeline.Fingerprint()),
	)

	llmBackend := cfg.Backends[raglite.BackendTag(pipeline.LLM())]
	generator := generate.New(&generate.Config{
		APIKey:              llmBackend.APIKey,
		BaseURL:             llmBackend.BaseURL,
		Model:               modelName(pipeline.LLM()),
		MaxTries:            pipeline.LLMMaxTries(),
		SystemPrompt:        pipeline.SystemPrompt(),
		InstructionTemplate: pipeline.RAGInstructionTemplate(),
		Logger:              logger,
	})

	indexSvc := indexuc.New(chunks.New(store), pipeline, logger)
	ragSvc := raguc.New(pipeline, generator, logger)

	server := chiTransport.NewServer(indexSvc, ragSvc, store, logger)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	logger.Info("Server stopped")
}

// buildPipeline maps the service configuration onto pipeline options. Empty
// fields keep the hardware-adaptive defaults.
func buildPipeline(cfg config.Config, res raglite.ModelResolver, logger *zap.Logger) (*raglite.Config, error) {
	opts := []raglite.Option{
		raglite.WithDBURL(cfg.Database.URL),
		raglite.WithModelResolver(res),
	}

	if cfg.Models.LLM != "" {
		opts = append(opts, raglite.WithLLM(cfg.Models.LLM))
	}
	if cfg.Models.LLMMaxTries > 0 {
		opts = append(opts, raglite.WithLLMMaxTries(cfg.Models.LLMMaxTries))
	}
	if cfg.Models.Embedder != "" {
		opts = append(opts, raglite.WithEmbedder(cfg.Models.Embedder))
	}
	if cfg.Models.EmbedderNormalize != nil {
		opts = append(opts, raglite.WithEmbedderNormalize(*cfg.Models.EmbedderNormalize))
	}
	if cfg.Models.SentenceWindowSize > 0 {
		opts = append(opts, raglite.WithSentenceWindowSize(cfg.Models.SentenceWindowSize))
	}
	if len(cfg.Models.LateChunkingPrefixes) > 0 {
		opts = append(opts, raglite.WithLateChunkingPrefixes(cfg.Models.LateChunkingPrefixes...))
	}
	if cfg.Search.ChunkMaxSize > 0 {
		opts = append(opts, raglite.WithChunkMaxSize(cfg.Search.ChunkMaxSize))
	}
	if cfg.Search.Metric != "" {
		opts = append(opts, raglite.WithVectorSearchMetric(raglite.Metric(cfg.Search.Metric)))
	}
	if cfg.Search.QueryAdapter != nil {
		opts = append(opts, raglite.WithQueryAdapter(*cfg.Search.QueryAdapter))
	}
	if cfg.Prompts.System != "" {
		opts = append(opts, raglite.WithSystemPrompt(cfg.Prompts.System))
	}
	if cfg.Prompts.RAGInstructionFile != "" {
		tmpl, err := os.ReadFile(cfg.Prompts.RAGInstructionFile)
		if err != nil {
			return nil, fmt.Errorf("read rag instruction template: %w", err)
		}
		opts = append(opts, raglite.WithRAGInstructionTemplate(string(tmpl)))
	}

	if id := cfg.Models.Reranker; id != "" {
		backend := cfg.Backends[raglite.BackendTag(id)]
		reranker := rerank.New(&rerank.Config{
			APIKey:  backend.APIKey,
			BaseURL: backend.BaseURL,
			Model:   modelName(id),
			Logger:  logger,
		})
		opts = append(opts, raglite.WithReranker(reranker))
	}

	return raglite.New(opts...)
}

// modelName strips the backend tag prefix and the trailing @context-size
// from a model identifier, leaving the name the API expects.
func modelName(id string) string {
	tag := raglite.BackendTag(id)
	model := strings.TrimPrefix(id, tag+"/")
	if i := strings.LastIndexByte(model, '@'); i >= 0 && raglite.ContextSize(id) > 0 {
		model = model[:i]
	}
	return model
}
