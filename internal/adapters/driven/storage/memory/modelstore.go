package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/core/ports/driven"
)

// Ensure ModelStore implements the interface.
var _ driven.ModelStore = (*ModelStore)(nil)

// ModelStore is an in-memory implementation of driven.ModelStore.
// Models are deep copied on the way in and out.
type ModelStore struct {
	mu     sync.RWMutex
	models map[string]*domain.Model
}

// NewModelStore creates a new in-memory model store.
func NewModelStore() *ModelStore {
	return &ModelStore{
		models: make(map[string]*domain.Model),
	}
}

// SaveModel creates or replaces a model.
func (s *ModelStore) SaveModel(_ context.Context, model *domain.Model) error {
	if model == nil || model.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[model.ID] = model.Clone()
	return nil
}

// LoadModel retrieves a model by ID.
func (s *ModelStore) LoadModel(_ context.Context, id string) (*domain.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m.Clone(), nil
}

// LatestModel returns the most recently created model.
func (s *ModelStore) LatestModel(_ context.Context) (*domain.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *domain.Model
	for _, m := range s.models {
		if latest == nil || m.CreatedAt.After(latest.CreatedAt) {
			latest = m
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest.Clone(), nil
}

// ListModels returns summaries, newest first.
func (s *ModelStore) ListModels(_ context.Context) ([]domain.ModelSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ModelSummary, 0, len(s.models))
	for _, m := range s.models {
		out = append(out, m.Summary())
	}
	slices.SortFunc(out, func(a, b domain.ModelSummary) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// DeleteModel removes a model.
func (s *ModelStore) DeleteModel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.models[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.models, id)
	return nil
}
