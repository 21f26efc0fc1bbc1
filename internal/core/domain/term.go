package domain

// TermTag classifies how a term was mined.
type TermTag string

// Available term tags.
const (
	// TagNGram is a plain n-gram of content words.
	TagNGram TermTag = "ngram"

	// TagEntity is a run of capitalised words not at sentence start.
	TagEntity TermTag = "entity"
)

// IsValid returns true if the tag is recognised.
func (t TermTag) IsValid() bool {
	return t == TagNGram || t == TagEntity
}

// Term is a normalised unit of meaning mined from the corpus.
// Terms are read-only once extraction finishes.
type Term struct {
	// ID is the normalised surface form and the unique key.
	ID string

	// Text is the first surface form seen in the corpus.
	Text string

	// Tag says how the term was mined.
	Tag TermTag

	// Count is the number of occurrences across the corpus.
	Count int

	// DocCount is the number of documents containing the term.
	DocCount int

	// NGrams is the number of words in the term.
	NGrams int
}
