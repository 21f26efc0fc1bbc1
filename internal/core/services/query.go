package services

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/custodia-labs/topicmap/internal/bourdieu"
	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/core/ports/driven"
	"github.com/custodia-labs/topicmap/internal/logger"
	"github.com/custodia-labs/topicmap/internal/naming"
)

// answerMaxTokens bounds generated answers.
const answerMaxTokens = 512

// Ask answers query from the topDoc documents closest to it. A non-positive
// topDoc uses domain.DefaultAnswerTopDoc.
func (s *ModelingService) Ask(ctx context.Context, query string, topDoc int) (*domain.Answer, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if topDoc <= 0 {
		topDoc = domain.DefaultAnswerTopDoc
	}

	hits, err := s.Search(ctx, query, topDoc)
	if err != nil {
		return nil, err
	}
	logger.Section("Answer")

	excerpts := make([]string, len(hits))
	for i, h := range hits {
		excerpts[i] = fmt.Sprintf("[%s] %s", h.DocumentID, naming.Excerpt(h.Content))
	}
	language := s.cfg.Terms.Language
	if language == "" {
		language = domain.DefaultLanguage
	}
	prompt := strings.NewReplacer(
		"{{query}}", query,
		"{{documents}}", strings.Join(excerpts, "\n\n"),
		"{{language}}", language,
	).Replace(naming.Template(s.prompts, driven.PromptAnswerQuery))

	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{MaxTokens: answerMaxTokens})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	logger.Debug("Answered %q from %d documents", query, len(hits))
	return &domain.Answer{Query: query, Text: strings.TrimSpace(text), Sources: hits}, nil
}

// Dimensions ranks queries by how strongly the corpus expresses them. Each
// query's k hit similarities are min-max scaled to [0, 1] and averaged; the
// lowest mean gets rank 1. Repeated queries are scored once. A non-positive
// k uses domain.DefaultDimensionTopDoc.
func (s *ModelingService) Dimensions(ctx context.Context, queries []string, k int) ([]domain.DimensionScore, error) {
	if k <= 0 {
		k = domain.DefaultDimensionTopDoc
	}
	var unique []string
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
		}
		if !slices.Contains(unique, q) {
			unique = append(unique, q)
		}
	}
	if len(unique) == 0 {
		return nil, fmt.Errorf("%w: no queries", domain.ErrInvalidInput)
	}
	logger.Section("Dimensions")

	out := make([]domain.DimensionScore, 0, len(unique))
	for _, q := range unique {
		hits, err := s.Search(ctx, q, k)
		if err != nil {
			return nil, fmt.Errorf("dimension %q: %w", q, err)
		}
		scores := make([]float64, len(hits))
		for i, h := range hits {
			scores[i] = h.Score
		}
		out = append(out, domain.DimensionScore{Query: q, MeanScore: meanScaled(scores)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MeanScore < out[j].MeanScore
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// meanScaled min-max scales scores to [0, 1] and returns their mean.
// Constant scores all scale to 0.
func meanScaled(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	lo, hi := slices.Min(scores), slices.Max(scores)
	if hi == lo {
		return 0
	}
	var sum float64
	for _, v := range scores {
		sum += (v - lo) / (hi - lo)
	}
	return sum / float64(len(scores))
}

// QueryShare reports the documents whose cosine similarity to query is at
// least minScore.
func (s *ModelingService) QueryShare(ctx context.Context, query string, minScore float64) (*domain.QueryShare, error) {
	m, err := s.current()
	if err != nil {
		return nil, err
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if math.IsNaN(minScore) || minScore < -1 || minScore > 1 {
		return nil, fmt.Errorf("%w: min score must be within [-1, 1]", domain.ErrInvalidInput)
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", domain.ErrEmbeddingFailed, err)
	}

	share := &domain.QueryShare{Query: query, MinScore: minScore, Total: len(m.Documents), DocumentIDs: []string{}}
	for _, d := range m.Documents {
		if len(d.Embedding) != len(vector) {
			return nil, fmt.Errorf("%w: query has %d dimensions, document %q has %d",
				domain.ErrInvalidInput, len(vector), d.ID, len(d.Embedding))
		}
		if bourdieu.Similarity(vector, d.Embedding) >= minScore {
			share.DocumentIDs = append(share.DocumentIDs, d.ID)
		}
	}
	share.Matching = len(share.DocumentIDs)
	if share.Total > 0 {
		share.Percent = 100 * float64(share.Matching) / float64(share.Total)
	}
	logger.Debug("%d of %d documents match %q at %.2f", share.Matching, share.Total, query, minScore)
	return share, nil
}

// ProjectContinuum scores the corpus along one axis running from the left
// words to the right words. The model is left unchanged.
func (s *ModelingService) ProjectContinuum(
	ctx context.Context,
	continuum domain.Continuum,
) (*domain.ContinuumProjection, error) {
	m, err := s.current()
	if err != nil {
		return nil, err
	}
	result, err := bourdieu.NewProjector(s.embedder, nil).ProjectContinuum(ctx, m.Documents, continuum)
	if err != nil {
		return nil, fmt.Errorf("continuum projection: %w", err)
	}
	return result, nil
}
