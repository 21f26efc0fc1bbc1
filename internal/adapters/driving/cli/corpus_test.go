package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultFields = corpusFields{Text: "text", ID: "id"}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"corpus.txt", formatText},
		{"corpus", formatText},
		{"corpus.jsonl", formatJSONL},
		{"corpus.NDJSON", formatJSONL},
		{"data/corpus.csv", formatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, detectFormat(tt.path))
		})
	}
}

func TestReadCorpus_Text(t *testing.T) {
	input := "first document\n\n   \nsecond document  \n"

	texts, ids, err := readCorpus(strings.NewReader(input), formatText, defaultFields)

	require.NoError(t, err)
	assert.Equal(t, []string{"first document", "second document"}, texts)
	assert.Nil(t, ids)
}

func TestReadCorpus_JSONL(t *testing.T) {
	input := `{"id": "a", "text": "war and peace"}
{"id": 2, "text": "cats and dogs"}
`

	texts, ids, err := readCorpus(strings.NewReader(input), formatJSONL, defaultFields)

	require.NoError(t, err)
	assert.Equal(t, []string{"war and peace", "cats and dogs"}, texts)
	assert.Equal(t, []string{"a", "2"}, ids)
}

func TestReadCorpus_JSONLWithoutIDs(t *testing.T) {
	input := `{"body": "one"}
{"body": "two"}`

	texts, ids, err := readCorpus(strings.NewReader(input), formatJSONL, corpusFields{Text: "body", ID: "id"})

	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, texts)
	assert.Nil(t, ids)
}

func TestReadCorpus_JSONLErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"invalid json", `{"text": `, "line 1"},
		{"missing text", `{"id": "a"}`, `missing string field "text"`},
		{"non-string text", `{"text": 3}`, `missing string field "text"`},
		{"ids on some records", `{"text": "a"}` + "\n" + `{"id": "b", "text": "b"}`, "id present on some records"},
		{"ids dropped later", `{"id": "a", "text": "a"}` + "\n" + `{"text": "b"}`, "id present on some records"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := readCorpus(strings.NewReader(tt.input), formatJSONL, defaultFields)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadCorpus_CSV(t *testing.T) {
	input := "id,title,text\n1,War,\"war, army and peace\"\n2,Pets,cats and dogs\n"

	texts, ids, err := readCorpus(strings.NewReader(input), formatCSV, defaultFields)

	require.NoError(t, err)
	assert.Equal(t, []string{"war, army and peace", "cats and dogs"}, texts)
	assert.Equal(t, []string{"1", "2"}, ids)
}

func TestReadCorpus_CSVWithoutIDColumn(t *testing.T) {
	input := "content\nfirst\nsecond\n"

	texts, ids, err := readCorpus(strings.NewReader(input), formatCSV, corpusFields{Text: "content", ID: "id"})

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, texts)
	assert.Nil(t, ids)
}

func TestReadCorpus_CSVMissingTextColumn(t *testing.T) {
	_, _, err := readCorpus(strings.NewReader("id,body\n1,x\n"), formatCSV, defaultFields)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `csv has no "text" column`)
}

func TestReadCorpus_Empty(t *testing.T) {
	_, _, err := readCorpus(strings.NewReader("\n\n"), formatText, defaultFields)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "corpus is empty")
}

func TestReadCorpus_UnknownFormat(t *testing.T) {
	_, _, err := readCorpus(strings.NewReader("x"), "xml", defaultFields)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown corpus format")
}
