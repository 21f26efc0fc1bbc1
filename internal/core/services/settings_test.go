package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/topicmap/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/topicmap/internal/core/domain"
)

// mockAIValidator records validation calls and returns configured errors.
type mockAIValidator struct {
	embeddingErr error
	llmErr       error
	embedCalls   int
	llmCalls     int
}

func (m *mockAIValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error {
	m.embedCalls++
	return m.embeddingErr
}

func (m *mockAIValidator) ValidateLLM(_ *domain.LLMSettings) error {
	m.llmCalls++
	return m.llmErr
}

// failingConfigStore fails every Set call.
type failingConfigStore struct {
	*memory.ConfigStore
}

func (f failingConfigStore) Set(string, any) error { return errors.New("disk full") }

// clearAPIKeyEnv makes tests independent of keys exported in the shell.
func clearAPIKeyEnv(t *testing.T) {
	t.Helper()
	for _, name := range apiKeyEnv {
		t.Setenv(name, "")
	}
}

func TestNewSettingsService(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)
	require.NotNil(t, service)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	clearAPIKeyEnv(t)
	service := NewSettingsService(memory.NewConfigStore(), nil)

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults, *settings)
	assert.Nil(t, settings.Pipeline.Seed)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	clearAPIKeyEnv(t)
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "openai")
	_ = store.Set("embedding.model", "text-embedding-3-large")
	_ = store.Set("embedding.api_key", "sk-embed")
	_ = store.Set("llm.provider", "anthropic")
	_ = store.Set("llm.api_key", "sk-ant")
	_ = store.Set("pipeline.language", "french")
	_ = store.Set("pipeline.batch_size", int64(8))
	_ = store.Set("pipeline.workers", 2)
	_ = store.Set("pipeline.seed", int64(42))
	_ = store.Set("topics.n_clusters", int64(12))
	_ = store.Set("reduction.method", "pca")
	_ = store.Set("reduction.perplexity", 15.5)

	settings, err := NewSettingsService(store, nil).Get()
	require.NoError(t, err)

	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, "sk-embed", settings.Embedding.APIKey)
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, domain.DefaultLLMModels()[domain.AIProviderAnthropic], settings.LLM.Model)
	assert.Equal(t, "french", settings.Pipeline.Language)
	assert.Equal(t, 8, settings.Pipeline.BatchSize)
	assert.Equal(t, 2, settings.Pipeline.Workers)
	require.NotNil(t, settings.Pipeline.Seed)
	assert.Equal(t, int64(42), *settings.Pipeline.Seed)
	assert.Equal(t, 12, settings.Pipeline.NClusters)
	assert.Equal(t, domain.ReductionPCA, settings.Pipeline.Reduction)
	assert.InDelta(t, 15.5, settings.Pipeline.Perplexity, 1e-12)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "invalid_provider")
	_ = store.Set("reduction.method", "umap")

	settings, err := NewSettingsService(store, nil).Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.Pipeline.Reduction, settings.Pipeline.Reduction)
}

func TestSettingsService_Get_DefaultModelFollowsProvider(t *testing.T) {
	clearAPIKeyEnv(t)
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "ollama")

	settings, err := NewSettingsService(store, nil).Get()
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
}

func TestSettingsService_Get_APIKeyFromEnvironment(t *testing.T) {
	clearAPIKeyEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("GEMINI_API_KEY", "gm-env")

	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "openai")
	_ = store.Set("llm.provider", "gemini")

	settings, err := NewSettingsService(store, nil).Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-env", settings.Embedding.APIKey)
	assert.Equal(t, "gm-env", settings.LLM.APIKey)

	// A stored key wins over the environment.
	_ = store.Set("embedding.api_key", "sk-stored")
	settings, err = NewSettingsService(store, nil).Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-stored", settings.Embedding.APIKey)
}

func TestSettingsService_Save(t *testing.T) {
	clearAPIKeyEnv(t)
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)
	seed := int64(7)

	settings := domain.DefaultAppSettings()
	settings.Embedding = domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    "text-embedding-3-small",
		APIKey:   "sk-test",
	}
	settings.LLM = domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		Model:    "llama3.2",
		BaseURL:  "http://gpu:11434",
	}
	settings.Pipeline.Seed = &seed
	settings.Pipeline.NClusters = 9

	require.NoError(t, service.Save(&settings))

	assert.Equal(t, "openai", store.GetString("embedding.provider"))
	assert.Equal(t, "sk-test", store.GetString("embedding.api_key"))
	assert.Equal(t, "http://gpu:11434", store.GetString("llm.base_url"))
	assert.Equal(t, 9, store.GetInt("topics.n_clusters"))
	assert.Equal(t, 7, store.GetInt("pipeline.seed"))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *got)
}

func TestSettingsService_Save_NilSeedRemovesKey(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("pipeline.seed", int64(3))
	service := NewSettingsService(store, nil)

	settings := domain.DefaultAppSettings()
	require.NoError(t, service.Save(&settings))

	_, exists := store.Get("pipeline.seed")
	assert.False(t, exists)
}

func TestSettingsService_Save_EnvironmentKeyNotPersisted(t *testing.T) {
	clearAPIKeyEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	settings := domain.DefaultAppSettings()
	settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "sk-env"}
	require.NoError(t, service.Save(&settings))

	_, exists := store.Get("embedding.api_key")
	assert.False(t, exists)
}

func TestSettingsService_Save_Errors(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)
	assert.ErrorIs(t, service.Save(nil), domain.ErrInvalidInput)

	failing := NewSettingsService(failingConfigStore{memory.NewConfigStore()}, nil)
	settings := domain.DefaultAppSettings()
	err := failing.Save(&settings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save embedding provider")
	assert.Contains(t, err.Error(), "disk full")
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	clearAPIKeyEnv(t)

	tests := []struct {
		name        string
		provider    domain.AIProvider
		model       string
		apiKey      string
		wantModel   string
		wantBaseURL string
	}{
		{"lsa default model", domain.AIProviderLSA, "", "", "lsa-128", ""},
		{"ollama gets local url", domain.AIProviderOllama, "", "", "nomic-embed-text", "http://localhost:11434"},
		{"openai explicit model", domain.AIProviderOpenAI, "text-embedding-3-large", "sk", "text-embedding-3-large", ""},
		{"gemini default model", domain.AIProviderGemini, "", "gm", "text-embedding-004", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			service := NewSettingsService(store, nil)

			require.NoError(t, service.SetEmbeddingProvider(tt.provider, tt.model, tt.apiKey))

			settings, err := service.Get()
			require.NoError(t, err)
			assert.Equal(t, tt.provider, settings.Embedding.Provider)
			assert.Equal(t, tt.wantModel, settings.Embedding.Model)
			assert.Equal(t, tt.wantBaseURL, settings.Embedding.BaseURL)
			assert.Equal(t, tt.apiKey, settings.Embedding.APIKey)
		})
	}
}

func TestSettingsService_SetEmbeddingProvider_PreservesOllamaURL(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.base_url", "http://gpu:11434")
	service := NewSettingsService(store, nil)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))
	assert.Equal(t, "http://gpu:11434", store.GetString("embedding.base_url"))

	// Switching to a cloud provider clears it.
	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "sk"))
	assert.Empty(t, store.GetString("embedding.base_url"))
}

func TestSettingsService_SetEmbeddingProvider_Errors(t *testing.T) {
	clearAPIKeyEnv(t)
	service := NewSettingsService(memory.NewConfigStore(), nil)

	err := service.SetEmbeddingProvider("invalid", "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = service.SetEmbeddingProvider(domain.AIProviderAnthropic, "", "sk")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "does not support embeddings")

	err = service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestSettingsService_SetEmbeddingProvider_KeyFromEnvironment(t *testing.T) {
	clearAPIKeyEnv(t)
	t.Setenv("GEMINI_API_KEY", "gm-env")
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderGemini, "", ""))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "gm-env", settings.Embedding.APIKey)
	_, exists := store.Get("embedding.api_key")
	assert.False(t, exists)
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	clearAPIKeyEnv(t)
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	require.NoError(t, service.SetLLMProvider(domain.AIProviderAnthropic, "", "sk-ant"))
	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, "claude-3-5-sonnet-latest", settings.LLM.Model)
	assert.Empty(t, settings.LLM.BaseURL)

	require.NoError(t, service.SetLLMProvider(domain.AIProviderOllama, "mistral", ""))
	settings, err = service.Get()
	require.NoError(t, err)
	assert.Equal(t, "mistral", settings.LLM.Model)
	assert.Equal(t, "http://localhost:11434", settings.LLM.BaseURL)
}

func TestSettingsService_SetLLMProvider_Errors(t *testing.T) {
	clearAPIKeyEnv(t)
	service := NewSettingsService(memory.NewConfigStore(), nil)

	assert.ErrorIs(t, service.SetLLMProvider("invalid", "", ""), domain.ErrInvalidInput)
	assert.ErrorIs(t, service.SetLLMProvider(domain.AIProviderLSA, "", ""), domain.ErrInvalidInput)
	assert.ErrorIs(t, service.SetLLMProvider(domain.AIProviderOpenAI, "", ""), domain.ErrInvalidInput)
}

func TestSettingsService_SetPipeline(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)
	seed := int64(11)

	pipeline := domain.DefaultAppSettings().Pipeline
	pipeline.NClusters = 20
	pipeline.Reduction = domain.ReductionPCA
	pipeline.Seed = &seed

	require.NoError(t, service.SetPipeline(pipeline))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, pipeline, settings.Pipeline)
	// Provider keys are untouched.
	_, exists := store.Get("embedding.provider")
	assert.False(t, exists)
}

func TestSettingsService_SetPipeline_Invalid(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)
	base := domain.DefaultAppSettings().Pipeline

	tests := []struct {
		name   string
		mutate func(*domain.PipelineSettings)
	}{
		{"zero clusters", func(p *domain.PipelineSettings) { p.NClusters = 0 }},
		{"unknown reduction", func(p *domain.PipelineSettings) { p.Reduction = "umap" }},
		{"zero perplexity", func(p *domain.PipelineSettings) { p.Perplexity = 0 }},
		{"zero batch size", func(p *domain.PipelineSettings) { p.BatchSize = 0 }},
		{"zero workers", func(p *domain.PipelineSettings) { p.Workers = 0 }},
		{"empty language", func(p *domain.PipelineSettings) { p.Language = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			assert.ErrorIs(t, service.SetPipeline(p), domain.ErrInvalidInput)
		})
	}
}

func TestSettingsService_Validate_Defaults(t *testing.T) {
	validator := &mockAIValidator{}
	service := NewSettingsService(memory.NewConfigStore(), validator)

	require.NoError(t, service.Validate())
	assert.Equal(t, 1, validator.embedCalls)
	assert.Equal(t, 1, validator.llmCalls)
}

func TestSettingsService_Validate_WithoutValidator(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)
	assert.NoError(t, service.Validate())
}

func TestSettingsService_Validate_UnconfiguredProviders(t *testing.T) {
	clearAPIKeyEnv(t)

	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "openai")
	err := NewSettingsService(store, nil).Validate()
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	store = memory.NewConfigStore()
	_ = store.Set("llm.provider", "anthropic")
	err = NewSettingsService(store, nil).Validate()
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestSettingsService_Validate_ValidatorErrors(t *testing.T) {
	validator := &mockAIValidator{
		embeddingErr: domain.ErrProviderUnavailable,
		llmErr:       domain.ErrRateLimited,
	}
	service := NewSettingsService(memory.NewConfigStore(), validator)

	err := service.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestSettingsService_Validate_InvalidPipeline(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("pipeline.workers", -1)

	err := NewSettingsService(store, nil).Validate()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)
	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}
