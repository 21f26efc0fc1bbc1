package normalisers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/normalisers/docx"
)

// stubNormaliser returns a fixed text or error.
type stubNormaliser struct {
	types    []string
	priority int
	text     string
	err      error
}

func (s *stubNormaliser) SupportedMIMETypes() []string { return s.types }
func (s *stubNormaliser) Priority() int                { return s.priority }
func (s *stubNormaliser) Normalise(context.Context, *domain.RawDocument) (string, error) {
	return s.text, s.err
}

func TestRegistry_PrefersHigherPriority(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{types: []string{"text/html"}, priority: 5, text: "fallback"})
	r.Register(&stubNormaliser{types: []string{"text/html"}, priority: 50, text: "specific"})

	text, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "text/html"})

	require.NoError(t, err)
	assert.Equal(t, "specific", text)
}

func TestRegistry_IgnoresMIMEParameters(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{types: []string{"text/plain"}, priority: 5, text: "ok"})

	text, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "text/plain; charset=utf-8"})

	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry()

	_, err := r.Normalise(context.Background(), &domain.RawDocument{URI: "a.pdf", MIMEType: "application/pdf"})

	require.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "a.pdf")
}

func TestRegistry_WrapsNormaliserError(t *testing.T) {
	cause := errors.New("broken")
	r := NewRegistry()
	r.Register(&stubNormaliser{types: []string{"text/plain"}, priority: 5, err: cause})

	_, err := r.Normalise(context.Background(), &domain.RawDocument{URI: "x.txt", MIMEType: "text/plain"})

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "normalise x.txt")
}

func TestRegistry_NilDocument(t *testing.T) {
	_, err := NewRegistry().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()
	types := r.SupportedMIMETypes()

	for _, want := range []string{"text/plain", "text/markdown", "text/html", docx.MIMEType} {
		assert.Contains(t, types, want)
	}
	assert.IsNonDecreasing(t, types)

	text, err := r.Normalise(context.Background(), &domain.RawDocument{
		URI:      "notes.md",
		MIMEType: "text/markdown",
		Content:  []byte("# Title\n\n**bold** words"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Title\n\nbold words", text)

	text, err = r.Normalise(context.Background(), &domain.RawDocument{
		URI:      "page.html",
		MIMEType: "text/html",
		Content:  []byte("<p>hello</p>"),
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}
