// Package export renders a fitted model as the JSON document consumed by
// the web front-end.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

// maxTopTerms caps explanation.top_terms.
const maxTopTerms = 10

// Payload is the top-level export document.
type Payload struct {
	Documents []Document `json:"documents"`
	Topics    []Topic    `json:"topics"`
	Query     *Query     `json:"query,omitempty"`
}

// Document is one exported document.
type Document struct {
	ID                    string         `json:"id"`
	Text                  string         `json:"text"`
	Source                *string        `json:"source"`
	Language              string         `json:"language"`
	Languages             []string       `json:"languages"`
	CreatedAtTimestampSec *int64         `json:"created_at_timestamp_sec"`
	Author                *Author        `json:"author"`
	Terms                 []DocumentTerm `json:"terms"`
	EmbeddingLight        [2]float64     `json:"embedding_light"`
	TopicIDs              []int          `json:"topic_ids"`
	Rank                  Rank           `json:"rank"`
	Dimensions            []Dimension    `json:"dimensions"`
}

// Author is the document author; corpora fitted from plain text have none.
type Author struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Picture  string `json:"picture"`
	URL      string `json:"url"`
}

// DocumentTerm describes a term present in a document.
type DocumentTerm struct {
	ID     string `json:"id"`
	Lemma  string `json:"lemma"`
	Ent    string `json:"ent"`
	Count  int    `json:"count"`
	NGrams int    `json:"ngrams"`
}

// Rank places a document overall and within each of its topics.
type Rank struct {
	Rank         int                  `json:"rank"`
	RankPerTopic map[string]TopicRank `json:"rank_per_topic"`
}

// TopicRank is the rank of a document inside one topic.
type TopicRank struct {
	Rank               int `json:"rank"`
	CountSpecificTerms int `json:"count_specific_terms"`
}

// Dimension is a projection score.
type Dimension struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Topic is one exported topic.
type Topic struct {
	ID            int         `json:"id"`
	Size          int         `json:"size"`
	Percent       float64     `json:"percent"`
	ParentTopicID *int        `json:"parent_topic_id"`
	Centroid      Centroid    `json:"centroid"`
	ConvexHull    ConvexHull  `json:"convex_hull"`
	Explanation   Explanation `json:"explanation"`
}

// Centroid is the mean position of a topic's documents.
type Centroid struct {
	ClusterID int     `json:"cluster_id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// ConvexHull holds the hull vertices as parallel arrays.
type ConvexHull struct {
	ClusterID    int       `json:"cluster_id"`
	XCoordinates []float64 `json:"x_coordinates"`
	YCoordinates []float64 `json:"y_coordinates"`
}

// Explanation names and describes a topic.
type Explanation struct {
	TopicID       int      `json:"topic_id"`
	Name          string   `json:"name"`
	SpecificTerms []string `json:"specific_terms"`
	TopTerms      []string `json:"top_terms"`
	TopEntities   []string `json:"top_entities"`
}

// Query is the Bourdieu frame of a projection export.
type Query struct {
	XLeftWords   []string `json:"x_left_words"`
	XRightWords  []string `json:"x_right_words"`
	YTopWords    []string `json:"y_top_words"`
	YBottomWords []string `json:"y_bottom_words"`
	RadiusSize   float64  `json:"radius_size"`
}

// Build converts a model into a payload. When bourdieu is set the documents,
// topics and query of the model's projection are exported instead of the
// main topic map.
func Build(m *domain.Model, bourdieu bool) (*Payload, error) {
	if m == nil {
		return nil, domain.ErrNotFitted
	}
	docs, topics := m.Documents, m.Topics
	var query *Query
	if bourdieu {
		if m.Bourdieu == nil {
			return nil, fmt.Errorf("%w: no bourdieu projection in model %s", domain.ErrNotFound, m.ID)
		}
		docs, topics = m.Bourdieu.Documents, m.Bourdieu.Topics
		q := m.Bourdieu.Query
		query = &Query{
			XLeftWords:   q.XLeftWords,
			XRightWords:  q.XRightWords,
			YTopWords:    q.YTopWords,
			YBottomWords: q.YBottomWords,
			RadiusSize:   q.RadiusSize,
		}
	}

	termsByID := make(map[string]domain.Term, len(m.Terms))
	for _, t := range m.Terms {
		termsByID[t.ID] = t
	}
	numbers := make(map[string]int, len(topics))
	for _, t := range topics {
		n, err := TopicNumber(t.ID)
		if err != nil {
			return nil, err
		}
		numbers[t.ID] = n
	}

	lang := languageCode(m.Language)
	out := &Payload{
		Documents: make([]Document, 0, len(docs)),
		Topics:    make([]Topic, 0, len(topics)),
		Query:     query,
	}
	for _, d := range docs {
		doc, err := document(d, lang, termsByID, numbers)
		if err != nil {
			return nil, err
		}
		out.Documents = append(out.Documents, doc)
	}
	for _, t := range topics {
		out.Topics = append(out.Topics, topic(t, numbers[t.ID], termsByID))
	}
	return out, nil
}

// Write encodes the payload of m as indented JSON.
func Write(w io.Writer, m *domain.Model, bourdieu bool) error {
	payload, err := Build(m, bourdieu)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// TopicNumber extracts the numeric suffix of a topic id such as "bt-3".
func TopicNumber(id string) (int, error) {
	i := strings.LastIndex(id, "-")
	n, err := strconv.Atoi(id[i+1:])
	if err != nil {
		return 0, fmt.Errorf("%w: topic id %q has no numeric suffix", domain.ErrInvariantViolation, id)
	}
	return n, nil
}

func document(d domain.Document, lang string, terms map[string]domain.Term, numbers map[string]int) (Document, error) {
	out := Document{
		ID:             d.ID,
		Text:           d.Content,
		Language:       lang,
		Languages:      []string{lang},
		Terms:          make([]DocumentTerm, 0, len(d.TermIDs)),
		EmbeddingLight: [2]float64{d.X, d.Y},
		TopicIDs:       []int{},
		Rank:           Rank{RankPerTopic: map[string]TopicRank{}},
		Dimensions:     make([]Dimension, 0, len(d.BourdieuDimensions)),
	}
	for _, id := range d.TermIDs {
		t, ok := terms[id]
		if !ok {
			t = domain.Term{ID: id, Text: id}
		}
		out.Terms = append(out.Terms, DocumentTerm{
			ID:     t.ID,
			Lemma:  lemma(t),
			Ent:    entityLabel(t),
			Count:  t.Count,
			NGrams: t.NGrams,
		})
	}
	if d.TopicID != "" {
		n, ok := numbers[d.TopicID]
		if !ok {
			return Document{}, fmt.Errorf("%w: document %q references unknown topic %q",
				domain.ErrInvariantViolation, d.ID, d.TopicID)
		}
		out.TopicIDs = append(out.TopicIDs, n)
		if r := d.TopicRanking; r != nil {
			out.Rank.Rank = r.Rank
			out.Rank.RankPerTopic[strconv.Itoa(n)] = TopicRank{Rank: r.Rank, CountSpecificTerms: r.Score}
		}
	}
	for _, dim := range d.BourdieuDimensions {
		out.Dimensions = append(out.Dimensions, Dimension{ID: dim.Continuum.ID, Score: dim.Distance})
	}
	return out, nil
}

func topic(t domain.Topic, n int, terms map[string]domain.Term) Topic {
	specific := append([]string{}, t.TermIDs...)

	top := append([]string(nil), specific...)
	sort.SliceStable(top, func(i, j int) bool {
		return terms[top[i]].Count > terms[top[j]].Count
	})
	if len(top) > maxTopTerms {
		top = top[:maxTopTerms]
	}

	entities := []string{}
	for _, id := range specific {
		if terms[id].Tag == domain.TagEntity {
			entities = append(entities, id)
		}
	}

	xs := append([]float64{}, t.Hull.XCoordinates...)
	ys := append([]float64{}, t.Hull.YCoordinates...)
	return Topic{
		ID:       n,
		Size:     t.Size,
		Percent:  t.Percent,
		Centroid: Centroid{ClusterID: n, X: t.XCentroid, Y: t.YCentroid},
		ConvexHull: ConvexHull{
			ClusterID:    n,
			XCoordinates: xs,
			YCoordinates: ys,
		},
		Explanation: Explanation{
			TopicID:       n,
			Name:          t.DisplayName(),
			SpecificTerms: specific,
			TopTerms:      append([]string{}, top...),
			TopEntities:   entities,
		},
	}
}

func lemma(t domain.Term) string {
	if t.Text != "" {
		return t.Text
	}
	return t.ID
}

func entityLabel(t domain.Term) string {
	if t.Tag == domain.TagEntity {
		return string(domain.TagEntity)
	}
	return ""
}

func languageCode(lang string) string {
	switch strings.ToLower(lang) {
	case "french", "fr":
		return "fr"
	default:
		return "en"
	}
}
