// Package lsa provides an in-process embedding service based on latent
// semantic analysis. It must be fitted on the corpus before use and needs no
// external service.
package lsa

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/james-bowman/nlp"
	"gonum.org/v1/gonum/mat"

	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/core/ports/driven"
	"github.com/custodia-labs/topicmap/internal/logger"
	"github.com/custodia-labs/topicmap/internal/terms"
)

// Ensure EmbeddingService implements the interfaces.
var (
	_ driven.EmbeddingService = (*EmbeddingService)(nil)
	_ driven.CorpusAware      = (*EmbeddingService)(nil)
)

// DefaultDimensions is the number of latent dimensions kept.
const DefaultDimensions = 128

// Config holds configuration for the LSA embedding service.
type Config struct {
	// Dimensions is the output vector size (default: 128).
	// Fewer latent dimensions are fitted when the corpus is small; the
	// remainder is zero-padded.
	Dimensions int

	// Language selects the stopword list.
	Language string
}

// EmbeddingService embeds text by projecting TF-IDF vectors onto the
// leading singular vectors of the corpus term-document matrix.
type EmbeddingService struct {
	dimensions int
	stops      []string

	mu       sync.RWMutex
	pipeline *nlp.Pipeline
	latent   int
}

// NewEmbeddingService creates an unfitted LSA embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.Language == "" {
		cfg.Language = domain.DefaultLanguage
	}
	return &EmbeddingService{
		dimensions: cfg.Dimensions,
		stops:      stopList(cfg.Language),
	}
}

func stopList(language string) []string {
	set := terms.Stopwords(language)
	out := make([]string, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	return out
}

// Prepare fits the vocabulary, IDF weights and SVD on corpus. Calling it
// again refits from scratch.
func (s *EmbeddingService) Prepare(ctx context.Context, corpus []string) error {
	if len(corpus) == 0 {
		return domain.ErrEmptyCorpus
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	vectoriser := nlp.NewCountVectoriser(s.stops...)
	vectoriser.Fit(corpus...)
	vocab := len(vectoriser.Vocabulary)
	if vocab == 0 {
		return fmt.Errorf("%w: corpus has no indexable words", domain.ErrInvalidInput)
	}
	k := min(s.dimensions, len(corpus), vocab)

	pipeline := nlp.NewPipeline(vectoriser, nlp.NewTfidfTransformer(), nlp.NewTruncatedSVD(k))
	if _, err := pipeline.FitTransform(corpus...); err != nil {
		return fmt.Errorf("fit lsa: %w", err)
	}

	s.mu.Lock()
	s.pipeline = pipeline
	s.latent = k
	s.mu.Unlock()

	logger.Debug("LSA fitted: %d documents, %d words, %d latent dimensions", len(corpus), vocab, k)
	return nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch projects texts into the fitted latent space. Texts sharing no
// word with the corpus vocabulary map to the zero vector.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	pipeline, k := s.pipeline, s.latent
	s.mu.RUnlock()
	if pipeline == nil {
		return nil, fmt.Errorf("lsa: %w", domain.ErrNotFitted)
	}

	lowered := make([]string, len(texts))
	for i, t := range texts {
		lowered[i] = strings.ToLower(t)
	}
	m, err := pipeline.Transform(lowered...)
	if err != nil {
		return nil, fmt.Errorf("lsa transform: %w", err)
	}
	return columns(m, k, s.dimensions, len(texts)), nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return fmt.Sprintf("lsa-%d", s.dimensions)
}

// Ping always succeeds; the model runs in-process.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

// columns reads the k x n latent matrix into n zero-padded vectors.
func columns(m mat.Matrix, k, dims, n int) [][]float32 {
	out := make([][]float32, n)
	for j := 0; j < n; j++ {
		v := make([]float32, dims)
		for i := 0; i < k; i++ {
			v[i] = float32(m.At(i, j))
		}
		out[j] = v
	}
	return out
}
