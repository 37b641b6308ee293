package main

import (
	"context"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ai-interviewer/internal/auth"
	"ai-interviewer/internal/config"
	"ai-interviewer/internal/evaluation"
	"ai-interviewer/internal/progress"
	"ai-interviewer/internal/questions"
	"ai-interviewer/internal/record"
	"ai-interviewer/internal/session"
	"ai-interviewer/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is required")
	}

	pack, err := questions.LoadPack(cfg.QuestionPackPath)
	if err != nil {
		log.Fatalf("failed to load question pack: %v", err)
	}

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

	allowRepo, err := auth.NewFileRepository(filepath.Join(cfg.DataDir, "allowlist.json"))
	if err != nil {
		log.Fatalf("failed to init allowlist repository: %v", err)
	}
	allow, err := auth.New(allowRepo, cfg.AllowedUserIDs, cfg.AdminUserID)
	if err != nil {
		log.Fatalf("failed to init allowlist: %v", err)
	}

	bot, err := telegram.New(cfg.TelegramBotToken, manager, records, pack, allow)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("interview bot started with pack %q (%d questions)", pack.JobTitle, len(pack.Questions))
	bot.Start(ctx)
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
