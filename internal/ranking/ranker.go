// Package ranking orders documents inside their topic by how
// representative they are.
package ranking

import (
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/logger"
)

// Rank scores every clustered document against its topic's specific terms
// and returns copies of docs and topics with rankings filled in.
//
// Members are ordered by the number of topic terms they contain, then by
// distance to the centroid, then by id. The first params.Depth members of
// each topic become its top documents. Unclustered documents pass through
// unchanged.
func Rank(docs []domain.Document, topics []domain.Topic, params domain.RankParams) ([]domain.Document, []domain.Topic, error) {
	logger.Section("Document Ranking")
	depth := params.Depth
	if depth <= 0 {
		depth = domain.DefaultRankingDepth
	}

	index := make(map[string]int, len(topics))
	termSets := make([]map[string]struct{}, len(topics))
	for i, t := range topics {
		index[t.ID] = i
		termSets[i] = make(map[string]struct{}, len(t.TermIDs))
		for _, id := range t.TermIDs {
			termSets[i][id] = struct{}{}
		}
	}

	type member struct {
		doc   int
		score int
		dist  float64
	}
	members := make([][]member, len(topics))
	for i, d := range docs {
		if d.TopicID == "" {
			continue
		}
		t, ok := index[d.TopicID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: document %q references unknown topic %q",
				domain.ErrInvariantViolation, d.ID, d.TopicID)
		}
		score := 0
		for _, id := range d.TermIDs {
			if _, ok := termSets[t][id]; ok {
				score++
			}
		}
		members[t] = append(members[t], member{
			doc:   i,
			score: score,
			dist:  math.Hypot(d.X-topics[t].XCentroid, d.Y-topics[t].YCentroid),
		})
	}

	outDocs := domain.CloneDocuments(docs)
	outTopics := domain.CloneTopics(topics)
	for t, list := range members {
		sort.Slice(list, func(i, j int) bool {
			a, b := list[i], list[j]
			if a.score != b.score {
				return a.score > b.score
			}
			if a.dist != b.dist {
				return a.dist < b.dist
			}
			return docs[a.doc].ID < docs[b.doc].ID
		})
		top := make([]string, 0, min(depth, len(list)))
		for r, m := range list {
			outDocs[m.doc].TopicRanking = &domain.TopicRanking{
				TopicID: topics[t].ID,
				Rank:    r + 1,
				Score:   m.score,
			}
			if r < depth {
				top = append(top, docs[m.doc].ID)
			}
		}
		outTopics[t].TopDocIDs = top
	}
	return outDocs, outTopics, nil
}
