package resilient

import (
	"context"

	"github.com/custodia-labs/topicmap/internal/core/ports/driven"
)

// Ensure wrappers implement the interfaces.
var (
	_ driven.EmbeddingService = (*EmbeddingService)(nil)
	_ driven.CorpusAware      = (*EmbeddingService)(nil)
	_ driven.LLMService       = (*LLMService)(nil)
)

// EmbeddingService applies a policy to every embedding call.
type EmbeddingService struct {
	next driven.EmbeddingService
	exec *executor
}

// WrapEmbedding wraps next with policy p.
func WrapEmbedding(next driven.EmbeddingService, p Policy) *EmbeddingService {
	return &EmbeddingService{next: next, exec: newExecutor("embedding "+next.ModelName(), p)}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := s.exec.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.next.Embed(ctx, text)
		return err
	})
	return out, err
}

// EmbedBatch generates embeddings for multiple texts, in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := s.exec.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.next.EmbedBatch(ctx, texts)
		return err
	})
	return out, err
}

// Prepare forwards to corpus-aware embedders without retrying.
func (s *EmbeddingService) Prepare(ctx context.Context, corpus []string) error {
	if ca, ok := s.next.(driven.CorpusAware); ok {
		return ca.Prepare(ctx, corpus)
	}
	return nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int { return s.next.Dimensions() }

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string { return s.next.ModelName() }

// Ping validates the wrapped service once.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

// Close releases resources.
func (s *EmbeddingService) Close() error { return s.next.Close() }

// LLMService applies a policy to every generation call.
type LLMService struct {
	next driven.LLMService
	exec *executor
}

// WrapLLM wraps next with policy p.
func WrapLLM(next driven.LLMService, p Policy) *LLMService {
	return &LLMService{next: next, exec: newExecutor("llm "+next.ModelName(), p)}
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var out string
	err := s.exec.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.next.Generate(ctx, prompt, opts)
		return err
	})
	return out, err
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string { return s.next.ModelName() }

// Ping validates the wrapped service once.
func (s *LLMService) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

// Close releases resources.
func (s *LLMService) Close() error { return s.next.Close() }
