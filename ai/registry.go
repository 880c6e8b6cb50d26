package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/deras16/ChatDb-vertexai/config"
)

// SupportedProviders lists available provider names for display.
var SupportedProviders = []string{"openai", "anthropic", "gemini", "vertex", "ollama", "placeholder"}

// NewProvider creates an AI provider from the application config.
func NewProvider(ctx context.Context, cfg config.AIConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key not set. Set OPENAI_API_KEY, add it to ~/.chatdb/config.json or run `chatdb auth set openai`")
		}
		return NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL), nil

	case "anthropic":
		if cfg.Anthropic.APIKey == "" {
			return nil, fmt.Errorf("Anthropic API key not set. Set ANTHROPIC_API_KEY, add it to ~/.chatdb/config.json or run `chatdb auth set anthropic`")
		}
		return NewAnthropic(cfg.Anthropic.APIKey, cfg.Anthropic.Model), nil

	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("Gemini API key not set. Set GEMINI_API_KEY, add it to ~/.chatdb/config.json or run `chatdb auth set gemini`")
		}
		return NewGemini(cfg.Gemini.APIKey, cfg.Gemini.Model), nil

	case "vertex":
		return NewVertex(ctx, cfg.Vertex.ProjectID, cfg.Vertex.Location, cfg.Vertex.Model, cfg.Vertex.CredentialsPath)

	case "ollama":
		return NewOllama(cfg.Ollama.Host, cfg.Ollama.Model), nil

	case "placeholder", "":
		return NewPlaceholder(), nil

	default:
		return nil, fmt.Errorf("unknown AI provider %q. Supported: %s", cfg.Provider, strings.Join(SupportedProviders, ", "))
	}
}
