package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// fittedModel builds a small model with main and Bourdieu topics.
func fittedModel(id string, created time.Time) *domain.Model {
	query := domain.DefaultBourdieuQuery()
	return &domain.Model{
		ID:             id,
		Language:       "english",
		CreatedAt:      created,
		EmbeddingModel: "lsa-128",
		Terms: []domain.Term{
			{ID: "peace", Text: "Peace", Tag: domain.TagNGram, Count: 3, DocCount: 2, NGrams: 1},
			{ID: "united nations", Text: "United Nations", Tag: domain.TagEntity, Count: 2, DocCount: 2, NGrams: 2},
		},
		Documents: []domain.Document{
			{
				ID: "d1", Content: "Peace talks at the United Nations.",
				TermIDs: []string{"peace", "united nations"}, Embedding: []float32{0.5, -0.25, 1},
				X: 1.5, Y: -2, TopicID: "bt-0",
				TopicRanking: &domain.TopicRanking{TopicID: "bt-0", Rank: 1, Score: 2},
			},
			{
				ID: "d2", Content: "The United Nations voted for peace.",
				TermIDs: []string{"united nations", "peace"}, Embedding: []float32{0.4, -0.2, 0.9},
				X: 1.2, Y: -1.8, TopicID: "bt-0",
				TopicRanking: &domain.TopicRanking{TopicID: "bt-0", Rank: 2, Score: 1},
			},
		},
		Topics: []domain.Topic{{
			ID: "bt-0", Name: "peace | united nations", GeneratedName: "Diplomacy",
			XCentroid: 1.35, YCentroid: -1.9, Size: 2, Percent: 100,
			TermIDs:   []string{"peace", "united nations"},
			Hull:      domain.ConvexHull{XCoordinates: []float64{1.5, 1.2, 1.5}, YCoordinates: []float64{-2, -1.8, -2}},
			TopDocIDs: []string{"d1", "d2"},
		}},
		Bourdieu: &domain.BourdieuResult{
			Query: query,
			Documents: []domain.Document{
				{ID: "d1", X: 0.6, Y: -0.1, TopicID: "bt-0",
					TopicRanking: &domain.TopicRanking{TopicID: "bt-0", Rank: 1, Score: 2}},
				{ID: "d2", X: 0.1, Y: 0.05},
			},
			Topics: []domain.Topic{{
				ID: "bt-0", Name: "peace", XCentroid: 0.6, YCentroid: -0.1, Size: 1, Percent: 100,
				TermIDs: []string{"peace"}, TopDocIDs: []string{"d1"}, Quadrant: domain.QuadrantBottomRight,
			}},
			Quadrants: []domain.QuadrantShare{
				{Quadrant: domain.QuadrantBottomRight, Count: 1, Percent: 50},
				{Quadrant: domain.QuadrantCenter, Count: 1, Percent: 50},
			},
		},
	}
}

func TestNewStore_Success(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "models.db"), store.Path())
	assert.FileExists(t, store.Path())
	assert.NoError(t, store.db.Ping())
}

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Migrations(t *testing.T) {
	store := setupTestStore(t)

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	for _, table := range []string{"models", "terms", "documents", "topics", "bourdieu_documents", "bourdieu_quadrants"} {
		var n int
		require.NoError(t, store.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&n))
		assert.Equal(t, 1, n, "table %s should exist", table)
	}
}

func TestNewStore_ReopenDoesNotReapplyMigrations(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.ModelStore().SaveModel(context.Background(), fittedModel("m1", time.Now())))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	var applied int
	require.NoError(t, reopened.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, 1, applied)

	_, err = reopened.ModelStore().LoadModel(context.Background(), "m1")
	assert.NoError(t, err)
}

func TestModelStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ms := setupTestStore(t).ModelStore()
	created := time.Date(2026, 3, 1, 12, 0, 0, 123, time.UTC)
	want := fittedModel("m1", created)

	require.NoError(t, ms.SaveModel(ctx, want))
	got, err := ms.LoadModel(ctx, "m1")
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Language, got.Language)
	assert.Equal(t, want.EmbeddingModel, got.EmbeddingModel)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, want.Terms, got.Terms)
	assert.Equal(t, want.Documents, got.Documents)
	assert.Equal(t, want.Topics, got.Topics)
}

func TestModelStore_RoundTripBourdieu(t *testing.T) {
	ctx := context.Background()
	ms := setupTestStore(t).ModelStore()
	want := fittedModel("m1", time.Now())

	require.NoError(t, ms.SaveModel(ctx, want))
	got, err := ms.LoadModel(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, got.Bourdieu)

	b := got.Bourdieu
	assert.Equal(t, want.Bourdieu.Query, b.Query)
	assert.Equal(t, want.Bourdieu.Quadrants, b.Quadrants)
	require.Len(t, b.Topics, 1)
	assert.Equal(t, domain.QuadrantBottomRight, b.Topics[0].Quadrant)
	assert.Empty(t, b.Topics[0].Hull.XCoordinates)

	require.Len(t, b.Documents, 2)
	d1 := b.Documents[0]
	assert.Equal(t, "Peace talks at the United Nations.", d1.Content)
	assert.Equal(t, []string{"peace", "united nations"}, d1.TermIDs)
	assert.InDelta(t, 0.6, d1.X, 1e-12)
	x, ok := d1.Dimension(domain.ContinuumX)
	require.True(t, ok)
	assert.InDelta(t, 0.6, x, 1e-12)
	require.NotNil(t, d1.TopicRanking)
	assert.Equal(t, 1, d1.TopicRanking.Rank)

	d2 := b.Documents[1]
	assert.Empty(t, d2.TopicID)
	assert.Nil(t, d2.TopicRanking)

	// Main documents keep their own coordinates.
	assert.InDelta(t, 1.5, got.Documents[0].X, 1e-12)
}

func TestModelStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	ms := setupTestStore(t).ModelStore()
	m := fittedModel("m1", time.Now())
	require.NoError(t, ms.SaveModel(ctx, m))

	m.Topics[0].GeneratedName = "Renamed"
	m.Bourdieu = nil
	require.NoError(t, ms.SaveModel(ctx, m))

	got, err := ms.LoadModel(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Topics[0].GeneratedName)
	assert.Nil(t, got.Bourdieu)
	assert.Len(t, got.Documents, 2)
}

func TestModelStore_LatestListDelete(t *testing.T) {
	ctx := context.Background()
	ms := setupTestStore(t).ModelStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, ms.SaveModel(ctx, fittedModel("old", base)))
	require.NoError(t, ms.SaveModel(ctx, fittedModel("new", base.Add(time.Minute))))

	latest, err := ms.LatestModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", latest.ID)

	list, err := ms.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, 2, list[0].DocumentCount)
	assert.Equal(t, 1, list[0].TopicCount)

	require.NoError(t, ms.DeleteModel(ctx, "new"))
	_, err = ms.LoadModel(ctx, "new")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Children are removed with the model.
	store := ms.(*modelStore).store
	var n int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM documents WHERE model_id = ?", "new").Scan(&n))
	assert.Zero(t, n)

	assert.ErrorIs(t, ms.DeleteModel(ctx, "new"), domain.ErrNotFound)
}

func TestModelStore_Errors(t *testing.T) {
	ctx := context.Background()
	ms := setupTestStore(t).ModelStore()

	_, err := ms.LoadModel(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = ms.LatestModel(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, ms.SaveModel(ctx, &domain.Model{}), domain.ErrInvalidInput)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, ms.SaveModel(cancelled, fittedModel("m1", time.Now())))
}

func TestModelStore_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	ms := setupTestStore(t).ModelStore()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = ms.SaveModel(ctx, fittedModel(string(rune('a'+i)), time.Now()))
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	list, err := ms.ListModels(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(errs))
}

func TestFloat32Roundtrip(t *testing.T) {
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice([]byte{}))
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, float32SliceToBytes([]float32{1.0}))

	original := []float32{0.1, 0.2, 0.3, -0.5, 100.5, -200.75}
	assert.Equal(t, original, bytesToFloat32Slice(float32SliceToBytes(original)))
}
