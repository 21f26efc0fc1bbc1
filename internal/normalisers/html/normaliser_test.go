package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/core/ports/driven"
)

func normalise(t *testing.T, content string) string {
	t.Helper()
	text, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:      "page.html",
		MIMEType: "text/html",
		Content:  []byte(content),
	})
	require.NoError(t, err)
	return text
}

func TestNormaliser_Interface(t *testing.T) {
	var n driven.Normaliser = New()
	assert.Equal(t, []string{"text/html", "application/xhtml+xml"}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_StripsTags(t *testing.T) {
	text := normalise(t, `<html><body><h1>Armistice</h1><p>The <b>war</b> is over.</p><ul><li>one</li><li>two</li></ul></body></html>`)

	assert.Equal(t, "Armistice\nThe war is over.\none\ntwo", text)
}

func TestNormalise_DropsNonContent(t *testing.T) {
	text := normalise(t, `<html>
<head><title>Page</title><style>p { color: red }</style></head>
<body>
<script>var x = "war";</script>
<!-- a comment -->
<noscript>enable js</noscript>
<svg><text>chart</text></svg>
<p>Visible</p>
</body></html>`)

	assert.Contains(t, text, "Visible")
	assert.NotContains(t, text, "color")
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, "comment")
	assert.NotContains(t, text, "enable js")
	assert.NotContains(t, text, "chart")
}

func TestNormalise_KeepsTitle(t *testing.T) {
	text := normalise(t, `<html><head><title>Peace &amp; Treaties</title></head><body><p>Body text</p></body></html>`)

	assert.Equal(t, "Peace & Treaties\nBody text", text)
}

func TestNormalise_TitleRepeatedInBody(t *testing.T) {
	text := normalise(t, `<head><title>Report</title></head><h1>Report</h1><p>Details</p>`)

	assert.Equal(t, "Report\nDetails", text)
}

func TestNormalise_DecodesEntitiesAndSpaces(t *testing.T) {
	text := normalise(t, "<p>cats&nbsp;and   dogs &lt;3</p><br/><p>\tend</p>")

	assert.Equal(t, "cats and dogs <3\nend", text)
}

func TestNormalise_NilDocument(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
