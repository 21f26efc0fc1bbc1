package domain

// SearchHit is one semantic search result over the fitted corpus.
type SearchHit struct {
	// DocumentID identifies the matched document.
	DocumentID string

	// Content is the document text.
	Content string

	// Score is the cosine similarity to the query, higher is closer.
	Score float64

	// TopicID is the document's topic at search time, if clustered.
	TopicID string
}

// Defaults for query analysis.
const (
	DefaultAnswerTopDoc    = 2
	DefaultDimensionTopDoc = 3
	DefaultQueryMinScore   = 0.8
)

// Answer is a generated reply grounded on the closest documents.
type Answer struct {
	Query   string
	Text    string
	Sources []SearchHit
}

// DimensionScore tells how strongly the corpus expresses one query.
type DimensionScore struct {
	Query string

	// MeanScore is the mean of the min-max scaled similarities of the
	// query's hits, in [0, 1].
	MeanScore float64

	// Rank is 1 for the lowest mean score.
	Rank int
}

// QueryShare is the part of the corpus at least MinScore similar to a query.
type QueryShare struct {
	Query       string
	MinScore    float64
	Matching    int
	Total       int
	Percent     float64
	DocumentIDs []string
}
