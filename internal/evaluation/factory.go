package evaluation

import (
	"fmt"
	"strings"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderYandex = "yandex"
)

// Factory creates evaluators with consistent logic.
type Factory struct {
	GoogleAPIKey     string
	GeminiModel      string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	YandexOAuthToken string
	YandexFolderID   string
}

func (f *Factory) CreateEvaluator(provider string) (Evaluator, error) {
	switch strings.ToLower(provider) {
	case ProviderGemini:
		return NewGemini(f.GoogleAPIKey, f.GeminiModel), nil
	case ProviderOpenAI:
		return NewOpenAI(f.OpenAIAPIKey, f.OpenAIBaseURL, f.OpenAIModel), nil
	case ProviderYandex:
		return NewYandex(f.YandexOAuthToken, f.YandexFolderID)
	default:
		return nil, fmt.Errorf("unknown evaluator provider: %s", provider)
	}
}
