package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckTopicAssignments_Valid(t *testing.T) {
	docs := []Document{
		{ID: "a", TopicID: "bt-0"},
		{ID: "b", TopicID: "bt-0"},
		{ID: "c", TopicID: "bt-1"},
		{ID: "d"},
	}
	topics := []Topic{{ID: "bt-0", Size: 2}, {ID: "bt-1", Size: 1}}

	assert.NoError(t, CheckTopicAssignments(docs, topics))
}

func TestCheckTopicAssignments_Violations(t *testing.T) {
	tests := []struct {
		name   string
		docs   []Document
		topics []Topic
	}{
		{
			name:   "orphan reference",
			docs:   []Document{{ID: "a", TopicID: "bt-9"}},
			topics: []Topic{{ID: "bt-0", Size: 0}},
		},
		{
			name:   "size mismatch",
			docs:   []Document{{ID: "a", TopicID: "bt-0"}},
			topics: []Topic{{ID: "bt-0", Size: 3}},
		},
		{
			name:   "duplicate topic",
			docs:   nil,
			topics: []Topic{{ID: "bt-0"}, {ID: "bt-0"}},
		},
		{
			name:   "nan coordinate",
			docs:   []Document{{ID: "a", X: math.NaN()}},
			topics: nil,
		},
		{
			name:   "infinite centroid",
			docs:   nil,
			topics: []Topic{{ID: "bt-0", XCentroid: math.Inf(1)}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTopicAssignments(tt.docs, tt.topics)
			assert.ErrorIs(t, err, ErrInvariantViolation)
			assert.NotErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestTopic_DisplayName(t *testing.T) {
	topic := Topic{Name: "war | army"}
	assert.Equal(t, "war | army", topic.DisplayName())

	topic.GeneratedName = "Military conflict"
	assert.Equal(t, "Military conflict", topic.DisplayName())
}

func TestCloneTopics(t *testing.T) {
	orig := []Topic{{ID: "bt-0", TermIDs: []string{"war"}, Hull: ConvexHull{XCoordinates: []float64{1}}}}
	c := CloneTopics(orig)
	c[0].TermIDs[0] = "peace"
	c[0].Hull.XCoordinates[0] = 2

	assert.Equal(t, "war", orig[0].TermIDs[0])
	assert.Equal(t, 1.0, orig[0].Hull.XCoordinates[0])
}
