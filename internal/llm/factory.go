package llm

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"emailwise/backend/internal/llm/providers"
)

var defaultModels = map[string]string{
	"openai": "gpt-4o",
	"claude": "claude-3-5-sonnet-latest",
	"cohere": "command",
}

type Factory struct {
	mu        sync.Mutex
	log       zerolog.Logger
	instances map[string]Provider
}

func NewFactory(log zerolog.Logger) *Factory {
	return &Factory{log: log, instances: map[string]Provider{}}
}

// CreateProvider returns a breaker-guarded client for the configured vendor,
// or an unavailable provider when the credential is missing or the vendor is
// unknown.
func (f *Factory) CreateProvider(config *ProviderConfig) Provider {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := NormalizeProviderName(config.ProviderName)
	if config.ModelName == "" {
		config.ModelName = defaultModels[name]
	}
	key := name + ":" + config.ModelName + ":" + config.BaseURL
	if config.APIKey == "" {
		return providers.NewUnavailable(name)
	}
	if provider, ok := f.instances[key]; ok {
		return provider
	}

	var provider Provider
	switch name {
	case "claude":
		provider = providers.NewClaudeProvider(config)
	case "openai":
		provider = providers.NewOpenAIProvider(config)
	case "cohere":
		provider = providers.NewCohereProvider(config)
	default:
		f.log.Warn().Str("provider", config.ProviderName).Msg("unsupported llm provider, running in local mode")
		return providers.NewUnavailable(name)
	}
	provider = NewGuardedProvider(provider, f.log)
	f.instances[key] = provider
	return provider
}

func NormalizeProviderName(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "openai", "azure_openai", "azureopenai":
		return "openai"
	case "claude", "anthropic":
		return "claude"
	case "cohere":
		return "cohere"
	default:
		return strings.ToLower(strings.TrimSpace(name))
	}
}
