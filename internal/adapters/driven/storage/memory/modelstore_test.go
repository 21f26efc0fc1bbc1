package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

func newModel(id string, created time.Time) *domain.Model {
	return &domain.Model{
		ID:        id,
		CreatedAt: created,
		Documents: []domain.Document{{ID: "d1", Content: "peace talks", TopicID: "bt-0"}},
		Topics:    []domain.Topic{{ID: "bt-0", Name: "peace | talks", Size: 1}},
	}
}

func TestModelStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := NewModelStore()
	m := newModel("m1", time.Now())

	require.NoError(t, store.SaveModel(ctx, m))
	m.Documents[0].Content = "mutated"

	got, err := store.LoadModel(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "peace talks", got.Documents[0].Content)

	got.Topics[0].Name = "mutated"
	again, err := store.LoadModel(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "peace | talks", again.Topics[0].Name)
}

func TestModelStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := NewModelStore()

	_, err := store.LoadModel(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.LatestModel(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.DeleteModel(ctx, "missing"), domain.ErrNotFound)
	assert.ErrorIs(t, store.SaveModel(ctx, &domain.Model{}), domain.ErrInvalidInput)
}

func TestModelStore_LatestAndList(t *testing.T) {
	ctx := context.Background()
	store := NewModelStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveModel(ctx, newModel("old", base)))
	require.NoError(t, store.SaveModel(ctx, newModel("new", base.Add(time.Hour))))

	latest, err := store.LatestModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", latest.ID)

	list, err := store.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, 1, list[0].DocumentCount)
	assert.Equal(t, 1, list[0].TopicCount)

	require.NoError(t, store.DeleteModel(ctx, "new"))
	latest, err = store.LatestModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, "old", latest.ID)
}
