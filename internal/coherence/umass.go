// Package coherence scores topics by how often their terms co-occur in
// the corpus.
package coherence

import (
	"math"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

// DefaultTopN is the number of leading topic terms scored.
const DefaultTopN = 10

// UMass returns the UMass coherence of every topic, in topic order, using
// the first topN terms of each topic. For ordered terms w1..wN it averages
// log((D(wi, wj) + 1) / D(wj)) over all pairs j < i, where D counts the
// documents containing the given terms. Higher is more coherent. Topics
// with fewer than two scorable terms score 0.
func UMass(topics []domain.Topic, docs []domain.Document, topN int) []domain.TopicCoherence {
	if topN < 2 {
		topN = DefaultTopN
	}

	wanted := make(map[string]struct{})
	for _, t := range topics {
		for _, term := range head(t.TermIDs, topN) {
			wanted[term] = struct{}{}
		}
	}

	// docSets[term] holds the indices of documents containing term.
	docSets := make(map[string]map[int]struct{}, len(wanted))
	for i, d := range docs {
		for _, term := range d.TermIDs {
			if _, ok := wanted[term]; !ok {
				continue
			}
			set := docSets[term]
			if set == nil {
				set = make(map[int]struct{})
				docSets[term] = set
			}
			set[i] = struct{}{}
		}
	}

	out := make([]domain.TopicCoherence, len(topics))
	for ti, t := range topics {
		out[ti] = domain.TopicCoherence{
			TopicID:   t.ID,
			Name:      t.DisplayName(),
			Coherence: score(head(t.TermIDs, topN), docSets),
		}
	}
	return out
}

func score(terms []string, docSets map[string]map[int]struct{}) float64 {
	var sum float64
	pairs := 0
	for i := 1; i < len(terms); i++ {
		for j := 0; j < i; j++ {
			dj := len(docSets[terms[j]])
			if dj == 0 {
				continue
			}
			sum += math.Log(float64(coOccurrence(docSets[terms[i]], docSets[terms[j]])+1) / float64(dj))
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}

func coOccurrence(a, b map[int]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for i := range a {
		if _, ok := b[i]; ok {
			n++
		}
	}
	return n
}

func head(terms []string, n int) []string {
	if len(terms) > n {
		return terms[:n]
	}
	return terms
}
