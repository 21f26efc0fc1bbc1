package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("embedding.provider", "lsa"))
	require.NoError(t, store.Set("embedding.provider", "ollama"))

	val, ok := store.Get("embedding.provider")
	assert.True(t, ok)
	assert.Equal(t, "ollama", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("topics.n_clusters", 6))
	require.NoError(t, store.Set("pipeline.seed", int64(42)))
	require.NoError(t, store.Set("reduction.perplexity", 15.5))
	require.NoError(t, store.Set("llm.enabled", true))
	require.NoError(t, store.Set("pipeline.stop", []any{"a", 1, "b"}))

	assert.Equal(t, 6, store.GetInt("topics.n_clusters"))
	assert.Equal(t, 42, store.GetInt("pipeline.seed"))
	assert.Equal(t, 15, store.GetInt("reduction.perplexity"))
	assert.InDelta(t, 15.5, store.GetFloat("reduction.perplexity"), 1e-9)
	assert.InDelta(t, 6.0, store.GetFloat("topics.n_clusters"), 1e-9)
	assert.True(t, store.GetBool("llm.enabled"))
	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("pipeline.stop"))

	assert.Empty(t, store.GetString("topics.n_clusters"))
	assert.Zero(t, store.GetFloat("llm.enabled"))
	assert.False(t, store.GetBool("missing"))
	assert.Nil(t, store.GetStringSlice("llm.enabled"))
}

func TestConfigStore_SetNilRemoves(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("pipeline.seed", 1))
	require.NoError(t, store.Set("pipeline.seed", nil))

	_, ok := store.Get("pipeline.seed")
	assert.False(t, ok)
}

func TestConfigStore_NoOpPersistence(t *testing.T) {
	store := NewConfigStore()
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set("k", i)
			_ = store.GetInt("k")
		}()
	}
	wg.Wait()
	_, ok := store.Get("k")
	assert.True(t, ok)
}
