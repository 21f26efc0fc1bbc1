// Package chromem provides an in-memory vector index using chromem-go.
package chromem

import (
	"context"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/core/ports/driven"
	"github.com/custodia-labs/topicmap/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

const collectionName = "documents"

// Index stores document vectors and answers text queries by embedding them
// with the same service used for the corpus.
type Index struct {
	embedder driven.EmbeddingService

	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
}

// NewIndex creates an empty index. The embedder is used for query text only;
// document vectors are supplied by the caller.
func NewIndex(embedder driven.EmbeddingService) (*Index, error) {
	if embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	idx := &Index{embedder: embedder}
	if err := idx.reset(); err != nil {
		return nil, err
	}
	return idx, nil
}

// embedFunc adapts the embedder to chromem's single-text signature.
func (i *Index) embedFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return i.embedder.Embed(ctx, text)
	}
}

func (i *Index) reset() error {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, nil, i.embedFunc())
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	i.mu.Lock()
	i.db, i.collection = db, col
	i.mu.Unlock()
	return nil
}

// Add inserts a document vector. Zero vectors carry no direction and are
// skipped.
func (i *Index) Add(ctx context.Context, docID, content string, embedding []float32) error {
	if isZero(embedding) {
		logger.Debug("Skipping zero vector for document %s", docID)
		return nil
	}
	i.mu.RLock()
	col := i.collection
	i.mu.RUnlock()

	doc := chromem.Document{
		ID:        docID,
		Content:   content,
		Embedding: append([]float32(nil), embedding...),
	}
	if err := col.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("index document %s: %w", docID, err)
	}
	return nil
}

// Search embeds query and returns at most k hits, most similar first.
func (i *Index) Search(ctx context.Context, query string, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", domain.ErrInvalidInput)
	}
	i.mu.RLock()
	col := i.collection
	i.mu.RUnlock()

	// chromem-go requires nResults <= collection size.
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	k = min(k, count)

	qv, err := i.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", domain.ErrEmbeddingFailed, err)
	}
	if isZero(qv) {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, qv, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}
	hits := make([]driven.VectorHit, len(results))
	for j, r := range results {
		hits[j] = driven.VectorHit{
			DocID:      r.ID,
			Content:    r.Content,
			Similarity: float64(r.Similarity),
		}
	}
	return hits, nil
}

// Count returns the number of indexed documents.
func (i *Index) Count() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.collection.Count()
}

// Reset drops every indexed document.
func (i *Index) Reset(_ context.Context) error {
	return i.reset()
}

// Close releases resources.
func (i *Index) Close() error {
	return nil
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
