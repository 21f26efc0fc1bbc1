package domain

import "time"

// Model is a persisted snapshot of one pipeline run.
type Model struct {
	ID        string
	Language  string
	CreatedAt time.Time

	// EmbeddingModel names the model that produced document embeddings.
	EmbeddingModel string

	Documents []Document
	Terms     []Term
	Topics    []Topic

	// Bourdieu is the latest projection, nil if none was computed.
	Bourdieu *BourdieuResult
}

// ModelSummary is a lightweight listing entry.
type ModelSummary struct {
	ID            string
	CreatedAt     time.Time
	DocumentCount int
	TopicCount    int
}

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	if m == nil {
		return nil
	}
	c := *m
	c.Documents = CloneDocuments(m.Documents)
	c.Terms = append([]Term(nil), m.Terms...)
	c.Topics = CloneTopics(m.Topics)
	c.Bourdieu = m.Bourdieu.Clone()
	return &c
}

// Summary returns the listing entry for the model.
func (m *Model) Summary() ModelSummary {
	return ModelSummary{
		ID:            m.ID,
		CreatedAt:     m.CreatedAt,
		DocumentCount: len(m.Documents),
		TopicCount:    len(m.Topics),
	}
}
