package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

func TestCoherenceCmd(t *testing.T) {
	m := &mockModeler{model: fittedModel()}
	defer setupWithModeler(m)()

	out, err := execute(t, "coherence", "--top-n", "5")

	require.NoError(t, err)
	assert.Equal(t, 5, m.coherenceTopN)
	assert.Contains(t, out, "-1.500")
	assert.Contains(t, out, "Mean coherence: -1.000")
}

func TestRepartitionCmd(t *testing.T) {
	defer setupTestServices()()

	out, err := execute(t, "repartition")

	require.NoError(t, err)
	assert.Contains(t, out, "cat | dog")
	assert.Contains(t, out, "75.0")
	assert.Less(t, strings.Index(out, "bt-1"), strings.Index(out, "bt-0"))
}

func TestExportCmd_Stdout(t *testing.T) {
	m := &mockModeler{model: fittedModel()}
	defer setupWithModeler(m)()

	out, err := execute(t, "export")

	require.NoError(t, err)
	assert.False(t, m.exportBourdieu)
	assert.Contains(t, out, `{"documents":[],"topics":[]}`)
}

func TestExportCmd_File(t *testing.T) {
	m := &mockModeler{model: fittedModel()}
	defer setupWithModeler(m)()
	path := filepath.Join(t.TempDir(), "bourdieu.json")

	out, err := execute(t, "export", "--bourdieu", "-o", path)

	require.NoError(t, err)
	assert.True(t, m.exportBourdieu)
	assert.Contains(t, out, "Exported to "+path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"documents":[],"topics":[]}`, string(data))
}

func TestModelsCmd_List(t *testing.T) {
	m := &mockModeler{models: []domain.ModelSummary{
		{ID: "m2", CreatedAt: time.Now(), DocumentCount: 120, TopicCount: 8},
		{ID: "m1", CreatedAt: time.Now().Add(-time.Hour), DocumentCount: 40, TopicCount: 5},
	}}
	defer setupWithModeler(m)()

	out, err := execute(t, "models", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "m2")
	assert.Contains(t, out, "120")
	assert.Less(t, strings.Index(out, "m2"), strings.Index(out, "m1"))
}

func TestModelsCmd_ListEmpty(t *testing.T) {
	defer setupWithModeler(&mockModeler{})()

	out, err := execute(t, "models")

	require.NoError(t, err)
	assert.Contains(t, out, "No saved models.")
}

func TestModelsCmd_Delete(t *testing.T) {
	m := &mockModeler{models: []domain.ModelSummary{{ID: "m1"}}}
	defer setupWithModeler(m)()

	out, err := execute(t, "models", "delete", "m1")

	require.NoError(t, err)
	assert.Equal(t, "m1", m.deleted)
	assert.Contains(t, out, "Deleted model m1")
}

func TestModelsCmd_DeleteUnknown(t *testing.T) {
	defer setupWithModeler(&mockModeler{})()

	_, err := execute(t, "models", "delete", "nope")

	require.ErrorIs(t, err, domain.ErrNotFound)
}
