package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

func TestContinuumCmd_Defaults(t *testing.T) {
	m := &mockModeler{model: fittedModel()}
	defer setupWithModeler(m)()

	out, err := execute(t, "continuum")

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultContinuum().LeftWords, m.continuum.LeftWords)
	assert.Equal(t, domain.DefaultContinuum().RightWords, m.continuum.RightWords)
	assert.Contains(t, out, "[negative bad] <-> [positive]")
	assert.Less(t, strings.Index(out, "d1"), strings.Index(out, "d0"))
	assert.Less(t, strings.Index(out, "d0"), strings.Index(out, "d2"))
}

func TestContinuumCmd_Top(t *testing.T) {
	m := &mockModeler{model: fittedModel()}
	defer setupWithModeler(m)()

	out, err := execute(t, "continuum", "--left", "war,army", "--right", "peace", "-n", "1")

	require.NoError(t, err)
	assert.Equal(t, []string{"war", "army"}, m.continuum.LeftWords)
	assert.Equal(t, []string{"peace"}, m.continuum.RightWords)
	assert.Contains(t, out, "-0.700")
	assert.Contains(t, out, "0.900")
	assert.NotContains(t, out, "d0")
}

func TestContinuumCmd_EmptyPole(t *testing.T) {
	m := &mockModeler{model: fittedModel()}
	defer setupWithModeler(m)()

	_, err := execute(t, "continuum", "--left", " ")

	assert.ErrorIs(t, err, domain.ErrEmptyAxis)
	assert.Empty(t, m.continuum.LeftWords)
}
