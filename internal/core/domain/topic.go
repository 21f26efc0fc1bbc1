package domain

import (
	"fmt"
	"math"
)

// Point is a 2D coordinate.
type Point struct {
	X float64
	Y float64
}

// IsFinite reports whether both coordinates are finite.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// ConvexHull is a boundary as parallel coordinate arrays.
// Polygons are closed: the first vertex is repeated at the end.
type ConvexHull struct {
	XCoordinates []float64
	YCoordinates []float64
}

// Len returns the number of stored vertices.
func (h ConvexHull) Len() int {
	return len(h.XCoordinates)
}

// Quadrant is a region of the Bourdieu map.
type Quadrant string

// Available quadrants. Center holds points inside the neutral radius.
const (
	QuadrantNone        Quadrant = ""
	QuadrantTopRight    Quadrant = "top_right"
	QuadrantTopLeft     Quadrant = "top_left"
	QuadrantBottomLeft  Quadrant = "bottom_left"
	QuadrantBottomRight Quadrant = "bottom_right"
	QuadrantCenter      Quadrant = "center"
)

// Topic is a cluster of documents.
type Topic struct {
	// ID is the stable identifier within a run, e.g. "bt-0".
	ID string

	// Name is the algorithmic name, terms joined by " | ".
	Name string

	// GeneratedName is the model-produced name, empty when not generated.
	GeneratedName string

	// XCentroid and YCentroid are the mean member coordinates.
	XCentroid float64
	YCentroid float64

	// Size is the number of member documents.
	Size int

	// Percent is Size as a share of all clustered documents.
	Percent float64

	// TermIDs are the specific terms, most specific first.
	TermIDs []string

	// Hull bounds the member coordinates.
	Hull ConvexHull

	// TopDocIDs are the most representative documents, best first.
	TopDocIDs []string

	// Quadrant is set for Bourdieu topics.
	Quadrant Quadrant
}

// DisplayName prefers the generated name when present.
func (t Topic) DisplayName() string {
	if t.GeneratedName != "" {
		return t.GeneratedName
	}
	return t.Name
}

// CloneTopics deep copies a topic slice.
func CloneTopics(topics []Topic) []Topic {
	out := make([]Topic, len(topics))
	for i, t := range topics {
		c := t
		c.TermIDs = append([]string(nil), t.TermIDs...)
		c.TopDocIDs = append([]string(nil), t.TopDocIDs...)
		c.Hull = ConvexHull{
			XCoordinates: append([]float64(nil), t.Hull.XCoordinates...),
			YCoordinates: append([]float64(nil), t.Hull.YCoordinates...),
		}
		out[i] = c
	}
	return out
}

// CheckTopicAssignments verifies that every assigned document references an
// existing topic, that topic sizes match membership, and that all
// coordinates are finite.
func CheckTopicAssignments(docs []Document, topics []Topic) error {
	sizes := make(map[string]int, len(topics))
	for _, t := range topics {
		if _, dup := sizes[t.ID]; dup {
			return fmt.Errorf("%w: duplicate topic id %q", ErrInvariantViolation, t.ID)
		}
		sizes[t.ID] = 0
		if !(Point{t.XCentroid, t.YCentroid}).IsFinite() {
			return fmt.Errorf("%w: topic %q has non-finite centroid", ErrInvariantViolation, t.ID)
		}
	}
	for _, d := range docs {
		if !(Point{d.X, d.Y}).IsFinite() {
			return fmt.Errorf("%w: document %q has non-finite coordinates", ErrInvariantViolation, d.ID)
		}
		if d.TopicID == "" {
			continue
		}
		if _, ok := sizes[d.TopicID]; !ok {
			return fmt.Errorf("%w: document %q references unknown topic %q", ErrInvariantViolation, d.ID, d.TopicID)
		}
		sizes[d.TopicID]++
	}
	for _, t := range topics {
		if sizes[t.ID] != t.Size {
			return fmt.Errorf("%w: topic %q has size %d but %d members",
				ErrInvariantViolation, t.ID, t.Size, sizes[t.ID])
		}
	}
	return nil
}

// TopicNameResult reports the outcome of generative naming for one topic.
// Err is set when the generated name was rejected and the algorithmic
// name was kept.
type TopicNameResult struct {
	TopicID   string
	Name      string
	Generated bool
	Err       error
}

// TopicCoherence is the UMass coherence of one topic's leading terms.
type TopicCoherence struct {
	TopicID   string
	Name      string
	Coherence float64
}

// TopicShare is the size share of one topic.
type TopicShare struct {
	TopicID string
	Name    string
	Size    int
	Percent float64
}
