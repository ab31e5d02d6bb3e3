package generator

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/learnloop/backend/internal/config"
)

// New builds the ContentGenerator selected by cfg.Provider. Real providers
// are wrapped in a ResilientGenerator; the mock is returned bare.
func New(cfg config.GeneratorConfig, log *zap.Logger) (ContentGenerator, error) {
	var (
		llm   LLMClient
		model string
	)

	switch cfg.Provider {
	case config.ProviderMock:
		return NewLLMGenerator(NewMockClient(), "mock", log), nil
	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for provider %q", cfg.Provider)
		}
		llm, model = NewAPIClient(cfg.AnthropicAPIKey, cfg.AnthropicModel), cfg.AnthropicModel
	case config.ProviderOpenAI:
		client, err := NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, err
		}
		llm, model = client, cfg.OpenAIModel
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Provider)
	}

	log.Info("content generator configured",
		zap.String("provider", cfg.Provider),
		zap.String("model", model),
	)
	return NewResilientGenerator(NewLLMGenerator(llm, model, log), cfg.Provider, DefaultResilientConfig(), log), nil
}
