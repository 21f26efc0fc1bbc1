package driven

import (
	"context"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

// NormaliserRegistry selects the appropriate normaliser for a document.
// It keeps normalisers in priority order and dispatches on MIME type.
type NormaliserRegistry interface {
	// Normalise extracts text using the best matching normaliser.
	// Returns domain.ErrUnsupportedFormat when no normaliser handles the type.
	Normalise(ctx context.Context, raw *domain.RawDocument) (string, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string
}
