package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

func writeCorpus(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFitCmd_Use(t *testing.T) {
	assert.Equal(t, "fit <corpus>", fitCmd.Use)
}

func TestFitCmd_RequiresArg(t *testing.T) {
	defer setupTestServices()()

	_, err := execute(t, "fit")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestFitCmd_TextCorpus(t *testing.T) {
	m := &mockModeler{}
	defer setupWithModeler(m)()
	path := writeCorpus(t, "corpus.txt", "war and army\npeace treaty\ncats and dogs\n")

	out, err := execute(t, "fit", path)

	require.NoError(t, err)
	assert.Equal(t, []string{"war and army", "peace treaty", "cats and dogs"}, m.fitTexts)
	assert.Nil(t, m.fitIDs)
	assert.Equal(t, domain.DefaultNClusters, m.topicParams.NClusters)
	assert.Nil(t, m.topicParams.Seed)
	assert.Equal(t, domain.DefaultRankingDepth, m.rankParams.Depth)
	assert.Equal(t, 1, m.saves)
	assert.Contains(t, out, "Model m1: 3 documents, 1 terms, 5 topics")
	assert.Contains(t, out, "bt-4")
}

func TestFitCmd_Flags(t *testing.T) {
	m := &mockModeler{}
	defer setupWithModeler(m)()
	path := writeCorpus(t, "corpus.jsonl", `{"id":"x","text":"one"}`+"\n"+`{"id":"y","text":"two"}`)

	_, err := execute(t, "fit", "-k", "2", "--seed", "7", "--depth", "3", path)

	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, m.fitIDs)
	assert.Equal(t, 2, m.topicParams.NClusters)
	require.NotNil(t, m.topicParams.Seed)
	assert.Equal(t, int64(7), *m.topicParams.Seed)
	assert.Equal(t, 3, m.rankParams.Depth)
}

func TestFitCmd_FormatOverride(t *testing.T) {
	m := &mockModeler{}
	defer setupWithModeler(m)()
	path := writeCorpus(t, "corpus.data", "text,id\nhello,1\n")

	_, err := execute(t, "fit", "--format", "csv", "--no-topics", path)

	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, m.fitTexts)
	assert.Equal(t, []string{"1"}, m.fitIDs)
}

func TestFitCmd_Stdin(t *testing.T) {
	m := &mockModeler{}
	defer setupWithModeler(m)()

	_, err := executeWithInput(t, "alpha\nbeta\n", "fit", "--no-topics", "-")

	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, m.fitTexts)
}

func TestFitCmd_NoTopics(t *testing.T) {
	m := &mockModeler{}
	defer setupWithModeler(m)()
	path := writeCorpus(t, "corpus.txt", "one\ntwo\n")

	out, err := execute(t, "fit", "--no-topics", path)

	require.NoError(t, err)
	assert.Zero(t, m.topicCalls)
	assert.Equal(t, 1, m.saves)
	assert.Contains(t, out, "0 topics")
}

func TestFitCmd_Name(t *testing.T) {
	m := &mockModeler{nameResults: []domain.TopicNameResult{{TopicID: "bt-0", Name: "War", Generated: true}}}
	defer setupWithModeler(m)()
	path := writeCorpus(t, "corpus.txt", "one\ntwo\n")

	_, err := execute(t, "fit", "--name", "--context", "news articles", path)

	require.NoError(t, err)
	assert.Equal(t, 1, m.nameCalls)
	assert.Equal(t, "news articles", m.genParams.Context)
	assert.Equal(t, domain.DefaultLanguage, m.genParams.Language)
}

func TestFitCmd_NameFailureIsWarning(t *testing.T) {
	m := &mockModeler{nameErr: domain.ErrLLMUnavailable}
	defer setupWithModeler(m)()
	path := writeCorpus(t, "corpus.txt", "one\ntwo\n")

	out, err := execute(t, "fit", "--name", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: topic naming skipped")
	assert.Equal(t, 1, m.saves)
}

func TestFitCmd_FitError(t *testing.T) {
	m := &mockModeler{fitErr: domain.ErrEmptyCorpus}
	defer setupWithModeler(m)()
	path := writeCorpus(t, "corpus.txt", "one\n")

	_, err := execute(t, "fit", path)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmptyCorpus))
	assert.Zero(t, m.saves)
}

func TestFitCmd_MissingFile(t *testing.T) {
	defer setupWithModeler(&mockModeler{})()

	_, err := execute(t, "fit", filepath.Join(t.TempDir(), "missing.txt"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "open corpus")
}

func TestFitCmd_ErrorsWithoutServices(t *testing.T) {
	old := modeler
	modeler = nil
	defer func() { modeler = old }()

	_, err := execute(t, "fit", "corpus.txt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestFitCmd_UsesStoredDefaults(t *testing.T) {
	m := &mockModeler{}
	defer setupWithModeler(m)()
	seed := int64(11)
	require.NoError(t, settingsService.SetPipeline(domain.PipelineSettings{
		Language:   "french",
		NClusters:  3,
		Reduction:  domain.ReductionPCA,
		Perplexity: 30,
		Seed:       &seed,
		BatchSize:  8,
		Workers:    2,
	}))
	path := writeCorpus(t, "corpus.txt", "one\ntwo\n")

	_, err := execute(t, "fit", path)

	require.NoError(t, err)
	assert.Equal(t, 3, m.topicParams.NClusters)
	require.NotNil(t, m.topicParams.Seed)
	assert.Equal(t, int64(11), *m.topicParams.Seed)
}

func TestFitCmd_Directory(t *testing.T) {
	m := &mockModeler{}
	defer setupWithModeler(m)()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "war.txt"), []byte("war and army"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pets", "cats.md"), []byte("# Cats\n\ncats and dogs"), 0o600))

	_, err := execute(t, "fit", "--no-topics", dir)

	require.NoError(t, err)
	assert.Equal(t, []string{"pets/cats.md", "war.txt"}, m.fitIDs)
	assert.Equal(t, []string{"Cats\n\ncats and dogs", "war and army"}, m.fitTexts)
}

func TestFitCmd_DirectoryWithoutLoader(t *testing.T) {
	defer setupWithModeler(&mockModeler{})()
	old := corpusLoader
	corpusLoader = nil
	defer func() { corpusLoader = old }()

	_, err := execute(t, "fit", t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "corpus loader not configured")
}
