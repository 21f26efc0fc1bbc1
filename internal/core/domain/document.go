package domain

import (
	"fmt"
	"strings"
)

// Document is one corpus entry flowing through the pipeline.
// Pipeline stages never mutate a Document in place; they return copies
// with the fields they own populated.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Content is the raw text.
	Content string

	// TermIDs lists the extracted terms present in the document, in first-seen order.
	TermIDs []string

	// Embedding is the vector representation, nil until embedded.
	Embedding []float32

	// X and Y are the 2D coordinates after reduction or projection.
	X float64
	Y float64

	// TopicID is the assigned topic, empty until clustered.
	TopicID string

	// TopicRanking is the rank of this document inside its topic, nil until ranked.
	TopicRanking *TopicRanking

	// BourdieuDimensions holds the projection scores, one per axis.
	BourdieuDimensions []BourdieuDimension
}

// TopicRanking places a document within its topic.
type TopicRanking struct {
	// TopicID is the topic the rank refers to.
	TopicID string

	// Rank is 1-based; 1 is the most representative document.
	Rank int

	// Score is the number of topic terms the document contains.
	Score int
}

// Continuum is one named axis of a Bourdieu projection.
type Continuum struct {
	ID         string
	LeftWords  []string
	RightWords []string
}

// BourdieuDimension is the cosine score of a document along one continuum.
type BourdieuDimension struct {
	Continuum Continuum
	Distance  float64
}

// NewDocument validates and builds a document.
// Content must not be blank.
func NewDocument(id, content string) (Document, error) {
	if strings.TrimSpace(id) == "" {
		return Document{}, fmt.Errorf("%w: document id is empty", ErrInvalidInput)
	}
	if strings.TrimSpace(content) == "" {
		return Document{}, fmt.Errorf("%w: document %q has no content", ErrInvalidInput, id)
	}
	return Document{ID: id, Content: content}, nil
}

// Clone returns a deep copy so stages can populate fields without aliasing.
func (d Document) Clone() Document {
	c := d
	if d.TermIDs != nil {
		c.TermIDs = append([]string(nil), d.TermIDs...)
	}
	if d.Embedding != nil {
		c.Embedding = append([]float32(nil), d.Embedding...)
	}
	if d.TopicRanking != nil {
		r := *d.TopicRanking
		c.TopicRanking = &r
	}
	if d.BourdieuDimensions != nil {
		c.BourdieuDimensions = make([]BourdieuDimension, len(d.BourdieuDimensions))
		copy(c.BourdieuDimensions, d.BourdieuDimensions)
	}
	return c
}

// CloneDocuments deep copies a document slice.
func CloneDocuments(docs []Document) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = d.Clone()
	}
	return out
}

// Dimension returns the projection score for a continuum id.
func (d Document) Dimension(continuumID string) (float64, bool) {
	for _, dim := range d.BourdieuDimensions {
		if dim.Continuum.ID == continuumID {
			return dim.Distance, true
		}
	}
	return 0, false
}
