package lsa

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

var corpus = []string{
	"The army marched to war across the border.",
	"Soldiers and the army fought a long war.",
	"War broke out and the army advanced.",
	"The treaty brought peace between the nations.",
	"Diplomats signed a peace treaty at dawn.",
	"Peace talks continued after the treaty.",
}

func cosine(a, b []float32) float64 {
	x := make([]float64, len(a))
	y := make([]float64, len(b))
	for i := range a {
		x[i], y[i] = float64(a[i]), float64(b[i])
	}
	return floats.Dot(x, y) / (floats.Norm(x, 2) * floats.Norm(y, 2))
}

func TestEmbed_RequiresPrepare(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	_, err := svc.Embed(context.Background(), "war")
	assert.ErrorIs(t, err, domain.ErrNotFitted)
}

func TestPrepare_Errors(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	assert.ErrorIs(t, svc.Prepare(context.Background(), nil), domain.ErrEmptyCorpus)
	assert.ErrorIs(t, svc.Prepare(context.Background(), []string{"the and of"}), domain.ErrInvalidInput)
}

func TestEmbedBatch_ShapeAndDeterminism(t *testing.T) {
	svc := NewEmbeddingService(Config{Dimensions: 16})
	require.NoError(t, svc.Prepare(context.Background(), corpus))
	assert.Equal(t, "lsa-16", svc.ModelName())
	assert.Equal(t, 16, svc.Dimensions())

	a, err := svc.EmbedBatch(context.Background(), corpus)
	require.NoError(t, err)
	require.Len(t, a, len(corpus))
	for _, v := range a {
		assert.Len(t, v, 16)
	}

	b, err := svc.EmbedBatch(context.Background(), corpus)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other := NewEmbeddingService(Config{Dimensions: 16})
	require.NoError(t, other.Prepare(context.Background(), corpus))
	c, err := other.EmbedBatch(context.Background(), corpus)
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

func TestEmbedBatch_SemanticNeighbours(t *testing.T) {
	svc := NewEmbeddingService(Config{Dimensions: 4})
	require.NoError(t, svc.Prepare(context.Background(), corpus))

	vecs, err := svc.EmbedBatch(context.Background(), []string{"army war", "war army soldiers", "peace treaty"})
	require.NoError(t, err)

	assert.Greater(t, cosine(vecs[0], vecs[1]), cosine(vecs[0], vecs[2]))
}

func TestEmbed_UnknownWordsAreZero(t *testing.T) {
	svc := NewEmbeddingService(Config{Dimensions: 4})
	require.NoError(t, svc.Prepare(context.Background(), corpus))

	v, err := svc.Embed(context.Background(), "zebra")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 4), v)
}
