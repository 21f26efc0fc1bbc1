package domain

import (
	"fmt"
	"math"
	"strings"
)

// Continuum ids used for the two Bourdieu axes.
const (
	ContinuumX = "x"
	ContinuumY = "y"
)

// DefaultRadiusSize is the neutral-zone radius around the origin.
const DefaultRadiusSize = 0.3

// BourdieuQuery defines a 2D semantic frame by two pairs of opposing word lists.
// Build it with NewBourdieuQuery; the zero value is not valid.
type BourdieuQuery struct {
	XLeftWords   []string
	XRightWords  []string
	YTopWords    []string
	YBottomWords []string

	// RadiusSize is the neutral-zone radius around the origin.
	RadiusSize float64
}

// NewBourdieuQuery trims every word, drops blank ones and rejects any empty list.
func NewBourdieuQuery(xLeft, xRight, yTop, yBottom []string, radius float64) (BourdieuQuery, error) {
	q := BourdieuQuery{
		XLeftWords:   cleanWords(xLeft),
		XRightWords:  cleanWords(xRight),
		YTopWords:    cleanWords(yTop),
		YBottomWords: cleanWords(yBottom),
		RadiusSize:   radius,
	}
	if err := q.Validate(); err != nil {
		return BourdieuQuery{}, err
	}
	return q, nil
}

// DefaultBourdieuQuery returns the war/peace by men/women frame.
func DefaultBourdieuQuery() BourdieuQuery {
	return BourdieuQuery{
		XLeftWords:   []string{"war"},
		XRightWords:  []string{"peace"},
		YTopWords:    []string{"men"},
		YBottomWords: []string{"women"},
		RadiusSize:   DefaultRadiusSize,
	}
}

// Validate checks all four lists and the radius.
func (q BourdieuQuery) Validate() error {
	lists := []struct {
		name  string
		words []string
	}{
		{"x_left_words", q.XLeftWords},
		{"x_right_words", q.XRightWords},
		{"y_top_words", q.YTopWords},
		{"y_bottom_words", q.YBottomWords},
	}
	for _, l := range lists {
		if len(cleanWords(l.words)) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyAxis, l.name)
		}
	}
	if math.IsNaN(q.RadiusSize) || math.IsInf(q.RadiusSize, 0) || q.RadiusSize < 0 {
		return fmt.Errorf("%w: radius must be a finite non-negative number", ErrInvalidInput)
	}
	return nil
}

// XContinuum returns the horizontal axis definition.
func (q BourdieuQuery) XContinuum() Continuum {
	return Continuum{ID: ContinuumX, LeftWords: q.XLeftWords, RightWords: q.XRightWords}
}

// YContinuum returns the vertical axis definition; bottom is the negative pole.
func (q BourdieuQuery) YContinuum() Continuum {
	return Continuum{ID: ContinuumY, LeftWords: q.YBottomWords, RightWords: q.YTopWords}
}

// QuadrantOf classifies a projected point. Points strictly inside the radius
// are in the centre.
func (q BourdieuQuery) QuadrantOf(x, y float64) Quadrant {
	if math.Hypot(x, y) < q.RadiusSize {
		return QuadrantCenter
	}
	switch {
	case x >= 0 && y >= 0:
		return QuadrantTopRight
	case x < 0 && y >= 0:
		return QuadrantTopLeft
	case x < 0:
		return QuadrantBottomLeft
	default:
		return QuadrantBottomRight
	}
}

// QuadrantShare counts the documents falling in one quadrant.
type QuadrantShare struct {
	Quadrant Quadrant
	Count    int
	Percent  float64
}

// BourdieuResult is the projected corpus and its own topic set.
type BourdieuResult struct {
	Query     BourdieuQuery
	Documents []Document
	Topics    []Topic
	Quadrants []QuadrantShare
}

// Clone returns a deep copy of the result.
func (r *BourdieuResult) Clone() *BourdieuResult {
	if r == nil {
		return nil
	}
	return &BourdieuResult{
		Query:     r.Query.clone(),
		Documents: CloneDocuments(r.Documents),
		Topics:    CloneTopics(r.Topics),
		Quadrants: append([]QuadrantShare(nil), r.Quadrants...),
	}
}

func cleanWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func (q BourdieuQuery) clone() BourdieuQuery {
	c := q
	c.XLeftWords = append([]string(nil), q.XLeftWords...)
	c.XRightWords = append([]string(nil), q.XRightWords...)
	c.YTopWords = append([]string(nil), q.YTopWords...)
	c.YBottomWords = append([]string(nil), q.YBottomWords...)
	return c
}

// ContinuumOne is the id of a single-axis projection.
const ContinuumOne = "continuum"

// NewContinuum trims every word, drops blank ones and rejects an empty pole.
func NewContinuum(id string, left, right []string) (Continuum, error) {
	c := Continuum{ID: id, LeftWords: cleanWords(left), RightWords: cleanWords(right)}
	if err := c.Validate(); err != nil {
		return Continuum{}, err
	}
	return c, nil
}

// DefaultContinuum returns the negative/positive axis.
func DefaultContinuum() Continuum {
	return Continuum{
		ID:         ContinuumOne,
		LeftWords:  []string{"negative", "bad"},
		RightWords: []string{"positive"},
	}
}

// Validate rejects a continuum with an empty pole.
func (c Continuum) Validate() error {
	if len(cleanWords(c.LeftWords)) == 0 {
		return fmt.Errorf("%w: left_words", ErrEmptyAxis)
	}
	if len(cleanWords(c.RightWords)) == 0 {
		return fmt.Errorf("%w: right_words", ErrEmptyAxis)
	}
	return nil
}

// ContinuumScore places one document on a continuum, in [-1, 1].
// Negative scores lean towards the left words.
type ContinuumScore struct {
	DocumentID string
	Score      float64
}

// ContinuumProjection scores the corpus along one continuum, in document order.
type ContinuumProjection struct {
	Continuum Continuum
	Scores    []ContinuumScore
}
