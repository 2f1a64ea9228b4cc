package llm

import (
	"fmt"
	"os"
)

// Options selects and configures a provider.
type Options struct {
	Provider  string
	Model     string
	BaseURL   string
	RateLimit int // requests per minute, 0 disables
}

// NewProvider creates the provider named by opts.Provider. API keys come from
// the conventional environment variables.
func NewProvider(opts Options) (Provider, error) {
	var p Provider
	switch opts.Provider {
	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		p = NewAnthropicProvider(apiKey, opts.Model, opts.BaseURL)

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		p = NewOpenAIProvider(apiKey, opts.Model, opts.BaseURL)

	case "ollama":
		host := opts.BaseURL
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		if host == "" {
			host = "http://localhost:11434"
		}
		p = NewOllamaProvider(host, opts.Model)

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", opts.Provider)
	}

	return NewRateLimitedProvider(p, opts.RateLimit), nil
}
