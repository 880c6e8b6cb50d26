// AI provider configuration.
//
// API keys can be set in the config file, via environment variables
// (OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY) or stored in the
// OS keychain with `chatdb auth set`.
package config

// AIConfig holds the AI provider selection and credentials.
type AIConfig struct {
	Provider  string          `json:"provider" yaml:"provider"` // "openai", "anthropic", "gemini", "vertex", "ollama", "placeholder"
	OpenAI    OpenAIConfig    `json:"openai" yaml:"openai"`
	Anthropic AnthropicConfig `json:"anthropic" yaml:"anthropic"`
	Gemini    GeminiConfig    `json:"gemini" yaml:"gemini"`
	Vertex    VertexConfig    `json:"vertex" yaml:"vertex"`
	Ollama    OllamaConfig    `json:"ollama" yaml:"ollama"`
}

// OpenAIConfig holds OpenAI-specific settings.
// BaseURL allows OpenAI-compatible gateways.
type OpenAIConfig struct {
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Model   string `json:"model" yaml:"model"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// AnthropicConfig holds Anthropic-specific settings.
type AnthropicConfig struct {
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Model  string `json:"model" yaml:"model"`
}

// GeminiConfig holds Google Gemini (API key) settings.
type GeminiConfig struct {
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Model  string `json:"model" yaml:"model"`
}

// VertexConfig holds Vertex AI settings. Authentication uses a
// service-account credentials file; when ProjectID or CredentialsPath
// are empty the warehouse values are reused.
type VertexConfig struct {
	ProjectID       string `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	Location        string `json:"location" yaml:"location"`
	Model           string `json:"model" yaml:"model"`
	CredentialsPath string `json:"credentials_path,omitempty" yaml:"credentials_path,omitempty"`
}

// OllamaConfig holds Ollama-specific settings.
type OllamaConfig struct {
	Host  string `json:"host" yaml:"host"`
	Model string `json:"model" yaml:"model"`
}

// DefaultAIConfig returns sensible defaults.
func DefaultAIConfig() AIConfig {
	return AIConfig{
		Provider: "placeholder",
		OpenAI: OpenAIConfig{
			Model:   "gpt-4o",
			BaseURL: "https://api.openai.com",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-sonnet-4-20250514",
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.0-flash",
		},
		Vertex: VertexConfig{
			Location: "us-central1",
			Model:    "gemini-1.5-pro-001",
		},
		Ollama: OllamaConfig{
			Host:  "http://localhost:11434",
			Model: "llama3.2",
		},
	}
}
