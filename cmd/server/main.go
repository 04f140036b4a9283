package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nahidhasan/banglarag/internal/api"
	"github.com/nahidhasan/banglarag/internal/chat"
	"github.com/nahidhasan/banglarag/internal/config"
	"github.com/nahidhasan/banglarag/internal/evaluate"
	"github.com/nahidhasan/banglarag/internal/language"
	"github.com/nahidhasan/banglarag/internal/llm"
	"github.com/nahidhasan/banglarag/internal/memory"
	"github.com/nahidhasan/banglarag/internal/pipeline"
	"github.com/nahidhasan/banglarag/internal/retrieval"
	"github.com/nahidhasan/banglarag/internal/vectorstore"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients and stores.
	client := llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ChatModel, cfg.EmbedModel)
	store := vectorstore.NewStore()
	mem := memory.NewStore(cfg.MemoryCapacity)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, client, store, log)
	orch.Start(ctx)

	// Initialize retrieval and chat.
	scorerCfg := retrieval.ScorerConfig{
		Weights: retrieval.ScoreWeights{
			Vector:  cfg.VectorWeight,
			Keyword: cfg.KeywordWeight,
			TFIDF:   cfg.TFIDFWeight,
		},
		MaxResults: cfg.MaxResults,
		Thresholds: map[language.Language]float64{
			language.Bengali: cfg.BengaliThreshold,
			language.Mixed:   cfg.BengaliThreshold,
			language.English: cfg.EnglishThreshold,
		},
	}
	retriever := retrieval.NewRetriever(client, store, cfg.TopK, scorerCfg)

	evalCfg := evaluate.DefaultConfig()
	evalCfg.RelevanceThreshold = cfg.RelevanceThreshold
	evaluator := evaluate.New(client, evalCfg, log)

	chatSvc := chat.New(client, retriever, mem, evaluator, chat.Config{
		HistoryTurns:    cfg.HistoryTurns,
		MaxAnswerTokens: cfg.MaxAnswerTokens,
		Temperature:     cfg.Temperature,
	}, log)

	// Initialize HTTP server.
	srv := api.NewServer(orch, chatSvc, retriever, store, mem, client, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		client.Close()
	}()

	log.Info("starting banglarag", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
