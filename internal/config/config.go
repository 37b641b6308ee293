package config

import (
	"log"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	HTTPPort int    `env:"HTTP_PORT" envDefault:"8080"`
	DataDir  string `env:"DATA_DIR" envDefault:"data"`

	// Evaluator settings
	EvaluatorProvider string `env:"EVALUATOR_PROVIDER" envDefault:"gemini"`
	GoogleAPIKey      string `env:"GOOGLE_API_KEY"`
	GeminiModel       string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash-exp"`
	OpenAIAPIKey      string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL     string `env:"OPENAI_BASE_URL"`
	OpenAIModel       string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken  string `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID    string `env:"YANDEX_FOLDER_ID"`

	// Progress snapshots
	ProgressBackend string `env:"PROGRESS_BACKEND" envDefault:"file"`
	RedisAddr       string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB"`

	// Telegram bot
	TelegramBotToken string  `env:"TELEGRAM_BOT_TOKEN"`
	QuestionPackPath string  `env:"QUESTION_PACK_PATH" envDefault:"packs/frontend.yaml"`
	AllowedUserIDs   []int64 `env:"ALLOWED_USER_IDS" envSeparator:","`
	AdminUserID      int64   `env:"ADMIN_USER_ID"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
