package driven

import (
	"context"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

// Connector reads raw documents from a corpus location.
type Connector interface {
	// Type returns the connector type identifier (e.g., "filesystem").
	Type() string

	// Read returns every document under root, ordered by URI.
	Read(ctx context.Context, root string) ([]domain.RawDocument, error)
}
