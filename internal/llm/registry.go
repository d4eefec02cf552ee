package llm

import (
	"context"
	"finai-backend/internal/config"
	"fmt"
	"log"
	"sort"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// ModelFactory builds a chat model from configuration.
type ModelFactory func(ctx context.Context, cfg config.LLMConfig) (model.BaseChatModel, error)

// Registry holds the mapping between provider names and their model factories.
type Registry struct {
	factories map[string]ModelFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ModelFactory)}
}

// DefaultRegistry knows every provider selectable through LLM_PROVIDER.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(config.ProviderOpenAI, NewOpenAIModel)
	r.Register(config.ProviderArk, NewArkModel)
	return r
}

// Register adds a factory to the registry.
func (r *Registry) Register(name string, factory ModelFactory) {
	if _, exists := r.factories[name]; exists {
		log.Printf("WARN [ProviderRegistry] Provider '%s' is already registered. Overwriting.", name)
	}
	r.factories[name] = factory
	log.Printf("[ProviderRegistry] Registered model provider: %s", name)
}

// Get retrieves a factory by provider name.
func (r *Registry) Get(name string) (ModelFactory, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("no model provider registered for %q (known: %v)", name, r.Names())
	}
	return factory, nil
}

// Names lists registered providers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build resolves cfg.Provider and wraps the resulting model as a Provider.
func (r *Registry) Build(ctx context.Context, cfg config.LLMConfig) (*EinoProvider, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("model provider %q is missing credentials or model name", cfg.Provider)
	}
	factory, err := r.Get(cfg.Provider)
	if err != nil {
		return nil, err
	}
	m, err := factory(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build %s chat model: %w", cfg.Provider, err)
	}
	log.Printf("[ProviderRegistry] Chat model ready: provider=%s model=%s", cfg.Provider, cfg.Model)
	return NewEinoProvider(m), nil
}

// NewOpenAIModel targets any OpenAI-compatible endpoint; the default base URL is Gemini's.
func NewOpenAIModel(ctx context.Context, cfg config.LLMConfig) (model.BaseChatModel, error) {
	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
}

// NewArkModel builds a Volcengine Ark model from an API key or an AK/SK pair.
func NewArkModel(ctx context.Context, cfg config.LLMConfig) (model.BaseChatModel, error) {
	arkCfg := &ark.ChatModelConfig{
		Region:      cfg.Region,
		APIKey:      cfg.APIKey,
		AccessKey:   cfg.AccessKey,
		SecretKey:   cfg.SecretKey,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
	// The OpenAI-compatible default base URL does not apply to Ark.
	if cfg.BaseURL != "" && cfg.BaseURL != config.DefaultOpenAIBaseURL {
		arkCfg.BaseURL = cfg.BaseURL
	}
	return ark.NewChatModel(ctx, arkCfg)
}
