package driven

import "context"

// VectorIndex provides semantic similarity search over fitted documents.
type VectorIndex interface {
	// Add inserts a document vector with its text.
	Add(ctx context.Context, docID, content string, embedding []float32) error

	// Search finds the k documents nearest to the query text.
	Search(ctx context.Context, query string, k int) ([]VectorHit, error)

	// Count returns the number of indexed documents.
	Count() int

	// Reset drops every indexed document.
	Reset(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// DocID is the matched document.
	DocID string

	// Content is the stored text.
	Content string

	// Similarity is the cosine similarity score.
	Similarity float64
}
