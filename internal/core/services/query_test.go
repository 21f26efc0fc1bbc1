package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/core/ports/driven"
)

// stubPromptStore serves fixed templates.
type stubPromptStore struct {
	prompts map[string]string
}

func (s *stubPromptStore) Load(name string) (string, error) {
	if p, ok := s.prompts[name]; ok {
		return p, nil
	}
	return "", errors.New("missing")
}

func (s *stubPromptStore) Reload() {}

func TestModelingService_Ask(t *testing.T) {
	f := fitted(t)
	f.llm.answer = "  Cats and dogs share houses.  "

	answer, err := f.svc.Ask(context.Background(), " cats ", 0)
	require.NoError(t, err)
	assert.Equal(t, "cats", answer.Query)
	assert.Equal(t, "Cats and dogs share houses.", answer.Text)
	require.Len(t, answer.Sources, domain.DefaultAnswerTopDoc)
	for _, h := range answer.Sources {
		assert.Contains(t, []string{"p1", "p2", "p3"}, h.DocumentID)
	}

	require.Len(t, f.llm.prompts, 1)
	prompt := f.llm.prompts[0]
	assert.Contains(t, prompt, "Question: cats")
	assert.Contains(t, prompt, "["+answer.Sources[0].DocumentID+"]")
	assert.Contains(t, prompt, domain.DefaultLanguage)
	assert.NotContains(t, prompt, "{{")
}

func TestModelingService_Ask_CustomPrompt(t *testing.T) {
	f := fitted(t)
	f.svc.SetPromptStore(&stubPromptStore{prompts: map[string]string{
		driven.PromptAnswerQuery: "{{query}} from {{documents}}",
	}})

	_, err := f.svc.Ask(context.Background(), "war", 1)
	require.NoError(t, err)
	assert.Regexp(t, `^war from \[w\d\] `, f.llm.prompts[0])
}

func TestModelingService_Ask_Errors(t *testing.T) {
	ctx := context.Background()
	f := fitted(t)

	_, err := f.svc.Ask(ctx, "   ", 2)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	f.llm.err = domain.ErrRateLimited
	_, err = f.svc.Ask(ctx, "war", 2)
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	noLLM := NewModelingService(newKeywordEmbedder(), nil, &mockVectorIndex{embedder: newKeywordEmbedder()}, nil, testConfig())
	require.NoError(t, noLLM.Fit(ctx, corpusTexts, corpusIDs))
	_, err = noLLM.Ask(ctx, "war", 2)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)

	noIndex := NewModelingService(newKeywordEmbedder(), &mockLLMService{}, nil, nil, testConfig())
	require.NoError(t, noIndex.Fit(ctx, corpusTexts, corpusIDs))
	_, err = noIndex.Ask(ctx, "war", 2)
	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)
}

func TestModelingService_Dimensions(t *testing.T) {
	f := fitted(t)

	dims, err := f.svc.Dimensions(context.Background(), []string{"war", " cats ", "war"}, 0)
	require.NoError(t, err)
	require.Len(t, dims, 2)

	// The three pet documents are equally close to "cats", so they all
	// scale to 0. For "war" one document stands out from two equal ones.
	assert.Equal(t, "cats", dims[0].Query)
	assert.Equal(t, 1, dims[0].Rank)
	assert.Zero(t, dims[0].MeanScore)
	assert.Equal(t, "war", dims[1].Query)
	assert.Equal(t, 2, dims[1].Rank)
	assert.InDelta(t, 1.0/3, dims[1].MeanScore, 1e-9)
}

func TestModelingService_Dimensions_Errors(t *testing.T) {
	f := fitted(t)

	_, err := f.svc.Dimensions(context.Background(), nil, 3)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.Dimensions(context.Background(), []string{"war", " "}, 3)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	svc := NewModelingService(newKeywordEmbedder(), nil, nil, nil, testConfig())
	require.NoError(t, svc.Fit(context.Background(), corpusTexts, corpusIDs))
	_, err = svc.Dimensions(context.Background(), []string{"war"}, 3)
	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)
	assert.Contains(t, err.Error(), `dimension "war"`)
}

func TestMeanScaled(t *testing.T) {
	assert.InDelta(t, 0.5, meanScaled([]float64{1, 2, 3}), 1e-12)
	assert.InDelta(t, 0.75, meanScaled([]float64{0.9, 0.9, 0.9, 0.1}), 1e-12)
	assert.Zero(t, meanScaled([]float64{0.4, 0.4}))
	assert.Zero(t, meanScaled(nil))
}

func TestModelingService_QueryShare(t *testing.T) {
	f := fitted(t)

	share, err := f.svc.QueryShare(context.Background(), "war", domain.DefaultQueryMinScore)
	require.NoError(t, err)
	assert.Equal(t, "war", share.Query)
	assert.Equal(t, []string{"w1"}, share.DocumentIDs)
	assert.Equal(t, 1, share.Matching)
	assert.Equal(t, 6, share.Total)
	assert.InDelta(t, 100.0/6, share.Percent, 1e-9)

	share, err = f.svc.QueryShare(context.Background(), "war", 0.5)
	require.NoError(t, err)
	assert.Equal(t, []string{"w1", "w2", "w3"}, share.DocumentIDs)
	assert.InDelta(t, 50.0, share.Percent, 1e-9)

	share, err = f.svc.QueryShare(context.Background(), "war", 1)
	require.NoError(t, err)
	assert.Empty(t, share.DocumentIDs)
	assert.Zero(t, share.Percent)
}

func TestModelingService_QueryShare_Errors(t *testing.T) {
	f := fitted(t)

	_, err := f.svc.QueryShare(context.Background(), " ", 0.8)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.QueryShare(context.Background(), "war", 1.5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestModelingService_ProjectContinuum(t *testing.T) {
	f := withTopics(t)
	before := f.svc.Model()
	c, err := domain.NewContinuum(domain.ContinuumOne, []string{"cat"}, []string{"war"})
	require.NoError(t, err)

	res, err := f.svc.ProjectContinuum(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, res.Scores, len(corpusTexts))
	for _, s := range res.Scores {
		if s.DocumentID[0] == 'w' {
			assert.Greater(t, s.Score, 0.0, s.DocumentID)
		} else {
			assert.Less(t, s.Score, 0.0, s.DocumentID)
		}
	}
	assert.Equal(t, before, f.svc.Model())
}

func TestModelingService_ProjectContinuum_EmptyPole(t *testing.T) {
	f := fitted(t)

	_, err := f.svc.ProjectContinuum(context.Background(), domain.Continuum{ID: "c", LeftWords: []string{"war"}})
	assert.ErrorIs(t, err, domain.ErrEmptyAxis)
}
