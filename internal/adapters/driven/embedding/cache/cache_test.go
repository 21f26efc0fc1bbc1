package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEmbeddingService struct {
	calls    [][]string
	err      error
	prepared int
}

func (m *mockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls = append(m.calls, texts)
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int              { return 1 }
func (m *mockEmbeddingService) ModelName() string            { return "mock" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

type corpusAwareMock struct {
	mockEmbeddingService
}

func (m *corpusAwareMock) Prepare(_ context.Context, _ []string) error {
	m.prepared++
	return nil
}

func TestEmbedBatch_OnlyMissesReachService(t *testing.T) {
	next := &mockEmbeddingService{}
	svc := Wrap(next, 0, 0)

	first, err := svc.EmbedBatch(context.Background(), []string{"a", "bb"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}}, first)

	second, err := svc.EmbedBatch(context.Background(), []string{"bb", "ccc", "a"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{2}, {3}, {1}}, second)

	require.Len(t, next.calls, 2)
	assert.Equal(t, []string{"ccc"}, next.calls[1])
	assert.Equal(t, 3, svc.Len())

	_, err = svc.Embed(context.Background(), "a")
	require.NoError(t, err)
	assert.Len(t, next.calls, 2)
}

func TestEmbedBatch_ReturnsCopies(t *testing.T) {
	svc := Wrap(&mockEmbeddingService{}, 10, time.Minute)

	v, err := svc.Embed(context.Background(), "abc")
	require.NoError(t, err)
	v[0] = 99

	again, err := svc.Embed(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3}, again)
}

func TestEmbedBatch_ErrorsAreNotCached(t *testing.T) {
	next := &mockEmbeddingService{err: errors.New("down")}
	svc := Wrap(next, 10, time.Minute)

	_, err := svc.Embed(context.Background(), "a")
	assert.Error(t, err)
	assert.Zero(t, svc.Len())
}

func TestPrepare_PurgesAndForwards(t *testing.T) {
	next := &corpusAwareMock{}
	svc := Wrap(next, 10, time.Minute)

	_, err := svc.Embed(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, 1, svc.Len())

	require.NoError(t, svc.Prepare(context.Background(), []string{"a"}))
	assert.Equal(t, 1, next.prepared)
	assert.Zero(t, svc.Len())

	plain := Wrap(&mockEmbeddingService{}, 10, time.Minute)
	assert.NoError(t, plain.Prepare(context.Background(), nil))
}
