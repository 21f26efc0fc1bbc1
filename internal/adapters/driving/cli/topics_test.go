package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

func TestTopicsCmd_ShowsStoredTopics(t *testing.T) {
	m := &mockModeler{model: fittedModel()}
	defer setupWithModeler(m)()

	out, err := execute(t, "topics")

	require.NoError(t, err)
	assert.Zero(t, m.topicCalls)
	assert.Zero(t, m.saves)
	assert.Contains(t, out, "Model m1: 2 topics")
	assert.Contains(t, out, "war | army")
	assert.Contains(t, out, "Pets")
}

func TestTopicsCmd_Recluster(t *testing.T) {
	m := &mockModeler{model: fittedModel()}
	defer setupWithModeler(m)()

	out, err := execute(t, "topics", "-k", "3", "--depth", "5")

	require.NoError(t, err)
	assert.Equal(t, 1, m.topicCalls)
	assert.Equal(t, 3, m.topicParams.NClusters)
	assert.Equal(t, 5, m.rankParams.Depth)
	assert.Equal(t, 1, m.saves)
	assert.Contains(t, out, "3 topics")
}

func TestTopicsCmd_ClustersWhenModelHasNoTopics(t *testing.T) {
	model := fittedModel()
	model.Topics = nil
	m := &mockModeler{model: model}
	defer setupWithModeler(m)()

	_, err := execute(t, "topics")

	require.NoError(t, err)
	assert.Equal(t, 1, m.topicCalls)
	assert.Equal(t, domain.DefaultNClusters, m.topicParams.NClusters)
}

func TestTopicsCmd_SeedTriggersRecluster(t *testing.T) {
	m := &mockModeler{model: fittedModel()}
	defer setupWithModeler(m)()

	_, err := execute(t, "topics", "--seed", "42")

	require.NoError(t, err)
	require.NotNil(t, m.topicParams.Seed)
	assert.Equal(t, int64(42), *m.topicParams.Seed)
}

func TestNameCmd_Results(t *testing.T) {
	m := &mockModeler{
		model: fittedModel(),
		nameResults: []domain.TopicNameResult{
			{TopicID: "bt-0", Name: "Armed conflict", Generated: true},
			{TopicID: "bt-1", Name: "cat | dog", Err: domain.ErrProviderUnavailable},
		},
	}
	defer setupWithModeler(m)()

	out, err := execute(t, "name", "--use-doc", "--context", "news", "--top-doc", "2", "--top-terms", "4")

	require.NoError(t, err)
	assert.Equal(t, domain.TopicGenParams{
		Language: domain.DefaultLanguage,
		TopDoc:   2,
		TopTerms: 4,
		UseDoc:   true,
		Context:  "news",
	}, m.genParams)
	assert.Equal(t, 1, m.saves)
	assert.Contains(t, out, "bt-0: Armed conflict")
	assert.Contains(t, out, `bt-1: kept "cat | dog"`)
	assert.Contains(t, out, "Named 1 of 2 topics")
}

func TestNameCmd_LanguageFlag(t *testing.T) {
	m := &mockModeler{model: fittedModel()}
	defer setupWithModeler(m)()

	_, err := execute(t, "name", "--language", "french")

	require.NoError(t, err)
	assert.Equal(t, "french", m.genParams.Language)
}

func TestNameCmd_Error(t *testing.T) {
	m := &mockModeler{model: fittedModel(), nameErr: domain.ErrLLMUnavailable}
	defer setupWithModeler(m)()

	_, err := execute(t, "name")

	require.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Zero(t, m.saves)
}
