package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent pipeline failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyCorpus indicates an operation received no documents.
	ErrEmptyCorpus = fmt.Errorf("%w: empty corpus", ErrInvalidInput)

	// ErrEmptyAxis indicates a Bourdieu axis word list is empty.
	ErrEmptyAxis = fmt.Errorf("%w: empty axis word list", ErrInvalidInput)

	// ErrDegenerateAxis indicates both poles of an axis embed to the same point,
	// leaving no direction to project on.
	ErrDegenerateAxis = fmt.Errorf("%w: axis vector has zero norm", ErrInvalidInput)

	// ErrUnsupportedFormat indicates no normaliser handles a document's MIME type.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrNotFitted indicates an operation needs a fitted corpus first.
	ErrNotFitted = errors.New("model not fitted")

	// ErrInvariantViolation indicates the pipeline produced inconsistent state.
	// This is a defect, never a user input problem.
	ErrInvariantViolation = errors.New("invariant violation")

	// Provider Errors.

	// ErrEmbeddingFailed indicates the embedding provider failed for a batch.
	// The run is aborted; see EmbeddingError for the batch bounds.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Generative topic naming is disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	// Semantic search is disabled.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderUnavailable indicates a transient provider outage (5xx, refused connection).
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// EmbeddingError identifies the batch that failed during corpus embedding.
type EmbeddingError struct {
	// Batch is the zero-based batch number.
	Batch int

	// Start and End bound the document indexes of the batch (End exclusive).
	Start int
	End   int

	// Err is the provider error.
	Err error
}

// Error implements error.
func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding batch %d (documents %d-%d): %v", e.Batch, e.Start, e.End-1, e.Err)
}

// Unwrap exposes both the sentinel and the provider cause.
func (e *EmbeddingError) Unwrap() []error {
	return []error{ErrEmbeddingFailed, e.Err}
}
