package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tzhao11/lectern/internal/adapter/extractor"
	"github.com/tzhao11/lectern/internal/adapter/fetch"
	"github.com/tzhao11/lectern/internal/adapter/llm"
	"github.com/tzhao11/lectern/internal/adapter/study"
	"github.com/tzhao11/lectern/internal/adapter/summarizer"
	"github.com/tzhao11/lectern/internal/cache"
	"github.com/tzhao11/lectern/internal/config"
	"github.com/tzhao11/lectern/internal/logging"
	"github.com/tzhao11/lectern/internal/pipeline"
	"github.com/tzhao11/lectern/internal/policy"
	store "github.com/tzhao11/lectern/internal/repository"
	"github.com/tzhao11/lectern/internal/service"
	transport "github.com/tzhao11/lectern/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting lectern",
		zap.Int("http_port", cfg.HTTPPort),
		zap.String("database", cfg.DatabaseURL),
		zap.String("llm_base_url", cfg.LLMBaseURL))

	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to initialize store", zap.Error(err))
	}
	defer db.Close()

	// Adapters. Without an API key the completion backend is mocked, which
	// keeps local development working end to end.
	var completions llm.CompletionClient
	if cfg.LLMAPIKey == "" {
		logger.Warn("no LLM API key configured, using mock completions")
		completions = &llm.MockClient{}
	} else {
		completions = llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout())
	}

	fetcher := fetch.NewYouTubeFetcher(cfg.FetchTimeout())
	notes := summarizer.New(completions, cfg.SummaryModel)
	concepts := extractor.New(completions, cfg.ExtractModel)
	studyGen := study.New(completions, cfg.ExtractModel)

	executor := pipeline.NewExecutor(fetcher, notes, concepts, logger)
	gate := cache.NewGate(db)

	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		logger.Fatal("failed to initialize policy engine", zap.Error(err))
	}

	svc := service.New(db, executor, studyGen, gate, policyEngine, cfg, logger)
	server := transport.NewServer(svc)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()
	logger.Info("API started", zap.Int("port", cfg.HTTPPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to shutdown gracefully", zap.Error(err))
	}
	logger.Info("stopped")
}
