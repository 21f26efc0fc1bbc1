package driven

import (
	"context"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

// Normaliser extracts plain text from a raw document.
// Each normaliser handles specific MIME types (e.g., Markdown, HTML).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise returns the document text. Blank text is not an error.
	Normalise(ctx context.Context, raw *domain.RawDocument) (string, error)
}
