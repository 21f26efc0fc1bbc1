// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/topicmap/internal/adapters/driven/embedding/cache"
	geminiembed "github.com/custodia-labs/topicmap/internal/adapters/driven/embedding/gemini"
	"github.com/custodia-labs/topicmap/internal/adapters/driven/embedding/lsa"
	ollamaembed "github.com/custodia-labs/topicmap/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/topicmap/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/topicmap/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/topicmap/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/topicmap/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/topicmap/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/topicmap/internal/adapters/driven/resilient"
	"github.com/custodia-labs/topicmap/internal/adapters/driven/vectorindex/chromem"
	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/core/ports/driven"
	"github.com/custodia-labs/topicmap/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	VectorIndex      driven.VectorIndex
	Warnings         []string // Non-fatal issues that caused fallback.
	FellBack         bool     // True if embeddings fell back to in-process LSA.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Initialise builds every AI service from settings. It never fails: an
// unreachable embedding provider falls back to LSA and an unreachable LLM
// is left nil, each with a warning.
func Initialise(ctx context.Context, settings *domain.AppSettings) *InitResult {
	result := &InitResult{}
	language := settings.Pipeline.Language

	embedder, err := CreateAndValidateEmbeddingService(ctx, &settings.Embedding, language)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}
	if embedder == nil {
		if err == nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%v: %q is not configured", domain.ErrEmbeddingUnavailable, settings.Embedding.Provider))
		}
		result.FellBack = true
		embedder = wrapEmbedding(newLSA(&settings.Embedding, language), domain.AIProviderLSA)
	}
	result.EmbeddingService = embedder

	llm, err := CreateAndValidateLLMService(ctx, &settings.LLM)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}
	result.LLMService = llm

	index, err := chromem.NewIndex(embedder)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%v: semantic search disabled", err))
	} else {
		result.VectorIndex = index
	}

	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}
	return result
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(
	ctx context.Context,
	settings *domain.EmbeddingSettings,
	language string,
) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateEmbeddingService(ctx, settings, language)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'topicmap settings' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: %s unreachable (%w). Run 'topicmap settings' to fix",
			domain.ErrEmbeddingUnavailable, settings.Provider, err)
	}

	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns nil without error when no LLM is configured.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'topicmap settings' to fix",
			domain.ErrLLMUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: %s unreachable (%w). Run 'topicmap settings' to fix",
			domain.ErrLLMUnavailable, settings.Provider, err)
	}

	return svc, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	svc, err := CreateEmbeddingService(ctx, settings, domain.DefaultLanguage)
	if err != nil {
		return err
	}
	defer svc.Close()
	return svc.Ping(ctx)
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return err
	}
	defer svc.Close()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the embedding service for settings, wrapped
// with the provider's resilience policy and an embedding cache.
func CreateEmbeddingService(
	ctx context.Context,
	settings *domain.EmbeddingSettings,
	language string,
) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("embedding provider %q is not configured", settings.Provider)
	}

	var svc driven.EmbeddingService
	switch settings.Provider {
	case domain.AIProviderLSA:
		svc = newLSA(settings, language)

	case domain.AIProviderOllama:
		svc = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOpenAI:
		s, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		svc = s

	case domain.AIProviderGemini:
		s, err := geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		svc = s

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}

	return wrapEmbedding(svc, settings.Provider), nil
}

// CreateLLMService creates the LLM service for settings, wrapped with the
// provider's resilience policy.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("LLM provider %q is not configured", settings.Provider)
	}

	var (
		svc driven.LLMService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOpenAI:
		svc, err = openaillm.NewLLMService(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		svc, err = anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGemini:
		svc, err = geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	return resilient.WrapLLM(svc, resilient.PolicyFor(settings.Provider)), nil
}

// wrapEmbedding applies retry then caching. Cache hits skip the limiter.
func wrapEmbedding(svc driven.EmbeddingService, provider domain.AIProvider) driven.EmbeddingService {
	return cache.Wrap(
		resilient.WrapEmbedding(svc, resilient.PolicyFor(provider)),
		cache.DefaultSize, cache.DefaultTTL,
	)
}

// newLSA creates an unfitted LSA embedder; the dimension is read from a
// model name such as "lsa-256".
func newLSA(settings *domain.EmbeddingSettings, language string) *lsa.EmbeddingService {
	dims := domain.EmbeddingDimensions()[settings.Model]
	if dims == 0 {
		if n, err := strconv.Atoi(strings.TrimPrefix(settings.Model, "lsa-")); err == nil && n > 0 {
			dims = n
		}
	}
	return lsa.NewEmbeddingService(lsa.Config{Dimensions: dims, Language: language})
}
