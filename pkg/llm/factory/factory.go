package factory

import (
	"fmt"

	"chat-relay-be/internal/config"
	"chat-relay-be/internal/pkg/logger"
	"chat-relay-be/pkg/llm"
	"chat-relay-be/pkg/llm/azure"
)

// NewLLMProvider builds the completion client named by the configuration.
// Azure and plain OpenAI endpoints accept the same request shape.
func NewLLMProvider(cfg config.ProviderConfig, log logger.ILogger) (llm.LLMProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("provider base url is empty")
	}

	switch cfg.Name {
	case "", "azure", "openai":
		return azure.NewAzureProvider(cfg.Name, cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout, log), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Name)
	}
}
