// Package clustering partitions 2D document coordinates into topics and
// describes each topic with a centroid, a convex hull and its most
// specific terms.
package clustering

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/logger"
)

// NameSeparator joins terms into an algorithmic topic name.
const NameSeparator = " | "

// DefaultIDPrefix prefixes topic ids.
const DefaultIDPrefix = "bt-"

// Builder clusters documents into topics. The same builder serves the main
// topic set and Bourdieu projections; each call is independent.
type Builder struct {
	// IDPrefix prefixes topic ids (default "bt-").
	IDPrefix string

	// MaxIter bounds k-means iterations (default 300).
	MaxIter int
}

// Build clusters docs by their X/Y coordinates into at most
// params.NClusters topics. It returns the topics and copies of docs with
// TopicID set; any previous ranking is cleared. Empty clusters are dropped
// and topic ids are assigned densely.
func (b Builder) Build(
	ctx context.Context,
	docs []domain.Document,
	terms []domain.Term,
	params domain.TopicParams,
) ([]domain.Topic, []domain.Document, error) {
	logger.Section("Topic Clustering")
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}
	if len(docs) == 0 {
		return nil, nil, domain.ErrEmptyCorpus
	}
	points := make([]domain.Point, len(docs))
	for i, d := range docs {
		points[i] = domain.Point{X: d.X, Y: d.Y}
		if !points[i].IsFinite() {
			return nil, nil, fmt.Errorf("%w: document %q has non-finite coordinates", domain.ErrInvalidInput, d.ID)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	prefix := b.IDPrefix
	if prefix == "" {
		prefix = DefaultIDPrefix
	}
	maxIter := b.MaxIter
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}

	raw := kmeans(points, params.NClusters, maxIter, newRand(params.Seed))

	// Compact labels so that ids are dense and in cluster order.
	remap := make(map[int]int)
	order := make([]int, 0, params.NClusters)
	for c := 0; c < params.NClusters; c++ {
		for _, l := range raw {
			if l == c {
				remap[c] = len(order)
				order = append(order, c)
				break
			}
		}
	}
	labels := make([]int, len(raw))
	for i, l := range raw {
		labels[i] = remap[l]
	}
	if dropped := params.NClusters - len(order); dropped > 0 {
		logger.Debug("Dropped %d empty clusters (requested %d)", dropped, params.NClusters)
	}

	specific := specificTerms(docs, labels, len(order), terms, params)

	topics := make([]domain.Topic, len(order))
	members := make([][]domain.Point, len(order))
	for i, l := range labels {
		members[l] = append(members[l], points[i])
	}
	for t := range topics {
		var sx, sy float64
		for _, p := range members[t] {
			sx += p.X
			sy += p.Y
		}
		size := len(members[t])
		topics[t] = domain.Topic{
			ID:        fmt.Sprintf("%s%d", prefix, t),
			Name:      topicName(specific[t], params.NameLength, t),
			XCentroid: sx / float64(size),
			YCentroid: sy / float64(size),
			Size:      size,
			Percent:   100 * float64(size) / float64(len(docs)),
			TermIDs:   specific[t],
			Hull:      ConvexHull(members[t]),
		}
	}

	assigned := make([]domain.Document, len(docs))
	for i, d := range docs {
		c := d.Clone()
		c.TopicID = topics[labels[i]].ID
		c.TopicRanking = nil
		assigned[i] = c
	}

	if err := domain.CheckTopicAssignments(assigned, topics); err != nil {
		return nil, nil, err
	}
	logger.Debug("Built %d topics from %d documents", len(topics), len(docs))
	return topics, assigned, nil
}

func topicName(terms []string, length, index int) string {
	if len(terms) == 0 {
		return fmt.Sprintf("topic %d", index)
	}
	if len(terms) > length {
		terms = terms[:length]
	}
	return strings.Join(terms, NameSeparator)
}
