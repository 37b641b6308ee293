package main

import (
	"context"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ai-interviewer/internal/config"
	"ai-interviewer/internal/evaluation"
	"ai-interviewer/internal/progress"
	"ai-interviewer/internal/record"
	"ai-interviewer/internal/server"
	"ai-interviewer/internal/session"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	records, err := record.NewFileStore(filepath.Join(cfg.DataDir, "interviews"))
	if err != nil {
		log.Fatalf("failed to init record store: %v", err)
	}

	store, err := newProgressStore(cfg)
	if err != nil {
		log.Fatalf("failed to init progress store: %v", err)
	}

	factory := &evaluation.Factory{
		GoogleAPIKey:     cfg.GoogleAPIKey,
		GeminiModel:      cfg.GeminiModel,
		OpenAIAPIKey:     cfg.OpenAIAPIKey,
		OpenAIBaseURL:    cfg.OpenAIBaseURL,
		OpenAIModel:      cfg.OpenAIModel,
		YandexOAuthToken: cfg.YandexOAuthToken,
		YandexFolderID:   cfg.YandexFolderID,
	}
	evaluator, err := factory.CreateEvaluator(cfg.EvaluatorProvider)
	if err != nil {
		log.Fatalf("failed to create evaluator: %v", err)
	}

	if sweepable, ok := store.(progress.Sweepable); ok {
		sweeper := progress.NewSweeper(sweepable)
		if err := sweeper.Start(); err != nil {
			log.Printf("failed to start progress sweeper: %v", err)
		} else {
			defer sweeper.Stop()
		}
	}

	manager := session.NewManager(records, store, evaluator)
	srv := server.New(manager, records, evaluator, cfg.HTTPPort)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("http server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Printf("failed to shut down cleanly: %v", err)
	}
}

func newProgressStore(cfg *config.Config) (progress.Store, error) {
	switch cfg.ProgressBackend {
	case "redis":
		store := progress.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case "memory":
		return progress.NewMemoryStore(), nil
	default:
		return progress.NewFileStore(filepath.Join(cfg.DataDir, "progress"))
	}
}
