package driven

import (
	"context"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

// ModelStore persists fitted models so later commands can reuse them
// without re-embedding the corpus.
type ModelStore interface {
	// SaveModel creates or replaces a model snapshot.
	SaveModel(ctx context.Context, model *domain.Model) error

	// LoadModel retrieves a model by ID.
	// Returns domain.ErrNotFound if it does not exist.
	LoadModel(ctx context.Context, id string) (*domain.Model, error)

	// LatestModel returns the most recently created model.
	// Returns domain.ErrNotFound when the store is empty.
	LatestModel(ctx context.Context) (*domain.Model, error)

	// ListModels returns summaries, newest first.
	ListModels(ctx context.Context) ([]domain.ModelSummary, error)

	// DeleteModel removes a model and everything it owns.
	DeleteModel(ctx context.Context, id string) error
}
