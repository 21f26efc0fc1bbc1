package services

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/core/ports/driven"
	"github.com/custodia-labs/topicmap/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMBaseURL    = "llm.base_url"
	keyLLMAPIKey     = "llm.api_key"
	keyLanguage      = "pipeline.language"
	keyBatchSize     = "pipeline.batch_size"
	keyWorkers       = "pipeline.workers"
	keySeed          = "pipeline.seed"
	keyNClusters     = "topics.n_clusters"
	keyReduction     = "reduction.method"
	keyPerplexity    = "reduction.perplexity"
)

// defaultOllamaURL is used when Ollama is selected without a base URL.
const defaultOllamaURL = "http://localhost:11434"

// apiKeyEnv maps cloud providers to the environment variable that supplies
// their key when none is stored.
var apiKeyEnv = map[domain.AIProvider]string{
	domain.AIProviderOpenAI:    "OPENAI_API_KEY",
	domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
	domain.AIProviderGemini:    "GEMINI_API_KEY",
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
// aiValidator may be nil, in which case Validate skips connectivity checks.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
// Unset or invalid values fall back to defaults. Empty API keys are filled
// from the provider's environment variable.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.configStore.GetString(keyLLMModel),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Pipeline: domain.PipelineSettings{
			Language:   s.getString(keyLanguage, defaults.Pipeline.Language),
			NClusters:  s.getInt(keyNClusters, defaults.Pipeline.NClusters),
			Reduction:  s.getReduction(defaults.Pipeline.Reduction),
			Perplexity: s.getFloat(keyPerplexity, defaults.Pipeline.Perplexity),
			Seed:       s.getSeed(),
			BatchSize:  s.getInt(keyBatchSize, defaults.Pipeline.BatchSize),
			Workers:    s.getInt(keyWorkers, defaults.Pipeline.Workers),
		},
	}

	// A stored model only applies to the provider it was chosen for; an
	// unset model takes the provider's default.
	settings.Embedding.Model = s.getString(keyEmbedModel,
		domain.DefaultEmbeddingModels()[settings.Embedding.Provider])
	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}

	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = envAPIKey(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = envAPIKey(settings.LLM.Provider)
	}

	return settings, nil
}

// Save persists application settings.
// API keys that only come from the environment are not written to disk.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if settings == nil {
		return fmt.Errorf("%w: nil settings", domain.ErrInvalidInput)
	}

	// Save embedding settings
	if err := s.configStore.Set(keyEmbedProvider, settings.Embedding.Provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, settings.Embedding.Model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	if err := s.configStore.Set(keyEmbedBaseURL, settings.Embedding.BaseURL); err != nil {
		return fmt.Errorf("save embedding base_url: %w", err)
	}
	if key := settings.Embedding.APIKey; key != "" && key != envAPIKey(settings.Embedding.Provider) {
		if err := s.configStore.Set(keyEmbedAPIKey, key); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}

	// Save LLM settings
	if err := s.configStore.Set(keyLLMProvider, settings.LLM.Provider.String()); err != nil {
		return fmt.Errorf("save llm provider: %w", err)
	}
	if err := s.configStore.Set(keyLLMModel, settings.LLM.Model); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}
	if err := s.configStore.Set(keyLLMBaseURL, settings.LLM.BaseURL); err != nil {
		return fmt.Errorf("save llm base_url: %w", err)
	}
	if key := settings.LLM.APIKey; key != "" && key != envAPIKey(settings.LLM.Provider) {
		if err := s.configStore.Set(keyLLMAPIKey, key); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	return s.savePipeline(settings.Pipeline)
}

func (s *SettingsService) savePipeline(p domain.PipelineSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyLanguage, p.Language},
		{keyNClusters, p.NClusters},
		{keyReduction, string(p.Reduction)},
		{keyPerplexity, p.Perplexity},
		{keyBatchSize, p.BatchSize},
		{keyWorkers, p.Workers},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// A nil seed removes the key so fitting stays non-deterministic.
	var seed any
	if p.Seed != nil {
		seed = *p.Seed
	}
	if err := s.configStore.Set(keySeed, seed); err != nil {
		return fmt.Errorf("save %s: %w", keySeed, err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}

	if apiKey == "" {
		apiKey = envAPIKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s (or set %s)",
			domain.ErrInvalidInput, provider, apiKeyEnv[provider])
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !slices.Contains(domain.AllLLMProviders(), provider) {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}

	if apiKey == "" {
		apiKey = envAPIKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s (or set %s)",
			domain.ErrInvalidInput, provider, apiKeyEnv[provider])
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetPipeline updates the fitting defaults.
func (s *SettingsService) SetPipeline(pipeline domain.PipelineSettings) error {
	if err := validatePipeline(pipeline); err != nil {
		return err
	}
	return s.savePipeline(pipeline)
}

// Validate checks that the configured providers are usable.
// The LLM is optional; an unset LLM provider is valid.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if err := validatePipeline(settings.Pipeline); err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q is not configured",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}
	if settings.LLM.Provider != "" && !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: LLM provider %q is not configured",
			domain.ErrLLMUnavailable, settings.LLM.Provider)
	}

	if s.aiValidator == nil {
		return nil
	}
	var errs []error
	if err := s.aiValidator.ValidateEmbedding(&settings.Embedding); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err))
	}
	if err := s.aiValidator.ValidateLLM(&settings.LLM); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err))
	}
	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func validatePipeline(p domain.PipelineSettings) error {
	switch {
	case p.NClusters < 1:
		return fmt.Errorf("%w: topics.n_clusters must be positive, got %d", domain.ErrInvalidInput, p.NClusters)
	case !p.Reduction.IsValid():
		return fmt.Errorf("%w: unknown reduction method %q", domain.ErrInvalidInput, p.Reduction)
	case p.Perplexity <= 0:
		return fmt.Errorf("%w: reduction.perplexity must be positive", domain.ErrInvalidInput)
	case p.BatchSize < 1:
		return fmt.Errorf("%w: pipeline.batch_size must be positive, got %d", domain.ErrInvalidInput, p.BatchSize)
	case p.Workers < 1:
		return fmt.Errorf("%w: pipeline.workers must be positive, got %d", domain.ErrInvalidInput, p.Workers)
	case p.Language == "":
		return fmt.Errorf("%w: pipeline.language is empty", domain.ErrInvalidInput)
	}
	return nil
}

func envAPIKey(provider domain.AIProvider) string {
	name, ok := apiKeyEnv[provider]
	if !ok {
		return ""
	}
	return os.Getenv(name)
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a custom Ollama URL and clears it for every other provider.
func baseURLFor(provider domain.AIProvider, current string) string {
	if provider != domain.AIProviderOllama {
		return ""
	}
	if current == "" {
		return defaultOllamaURL
	}
	return current
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val := s.configStore.GetFloat(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getSeed() *int64 {
	if _, exists := s.configStore.Get(keySeed); !exists {
		return nil
	}
	seed := int64(s.configStore.GetInt(keySeed))
	return &seed
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getReduction(defaultVal domain.ReductionMethod) domain.ReductionMethod {
	method := domain.ReductionMethod(s.configStore.GetString(keyReduction))
	if !method.IsValid() {
		return defaultVal
	}
	return method
}
