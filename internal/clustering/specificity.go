package clustering

import (
	"sort"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

// MaxSpecificTerms caps the specific terms kept per topic.
const MaxSpecificTerms = 100

// specificTerms ranks, for each topic, the eligible terms by lift:
//
//	(count in topic / terms in topic) / (count in corpus / terms in corpus)
//
// Counts are document presence counts. Ties break on the in-topic count and
// then on the corpus term rank.
func specificTerms(docs []domain.Document, labels []int, nTopics int, terms []domain.Term, params domain.TopicParams) [][]string {
	eligible := eligibleTerms(terms, params)

	inTopic := make([]map[string]int, nTopics)
	for t := range inTopic {
		inTopic[t] = make(map[string]int)
	}
	topicTotal := make([]int, nTopics)
	corpus := make(map[string]int)
	corpusTotal := 0
	for i, doc := range docs {
		t := labels[i]
		if t < 0 {
			continue
		}
		for _, id := range doc.TermIDs {
			if _, ok := eligible[id]; !ok {
				continue
			}
			inTopic[t][id]++
			topicTotal[t]++
			corpus[id]++
			corpusTotal++
		}
	}

	out := make([][]string, nTopics)
	for t := range out {
		type scored struct {
			id    string
			lift  float64
			count int
		}
		list := make([]scored, 0, len(inTopic[t]))
		for id, c := range inTopic[t] {
			lift := (float64(c) / float64(topicTotal[t])) / (float64(corpus[id]) / float64(corpusTotal))
			list = append(list, scored{id: id, lift: lift, count: c})
		}
		sort.Slice(list, func(i, j int) bool {
			a, b := list[i], list[j]
			if a.lift != b.lift {
				return a.lift > b.lift
			}
			if a.count != b.count {
				return a.count > b.count
			}
			return eligible[a.id] < eligible[b.id]
		})
		if len(list) > MaxSpecificTerms {
			list = list[:MaxSpecificTerms]
		}
		ids := make([]string, len(list))
		for i, s := range list {
			ids[i] = s.id
		}
		out[t] = ids
	}
	return out
}

// eligibleTerms maps each usable term to its corpus rank.
func eligibleTerms(terms []domain.Term, params domain.TopicParams) map[string]int {
	ngrams := make(map[int]bool, len(params.NGrams))
	for _, n := range params.NGrams {
		ngrams[n] = true
	}
	limit := len(terms)
	if params.TopTermsOverall < limit {
		limit = params.TopTermsOverall
	}
	eligible := make(map[string]int, limit)
	for rank, term := range terms[:limit] {
		if !ngrams[term.NGrams] || term.Count < params.MinCountTerms {
			continue
		}
		eligible[term.ID] = rank
	}
	return eligible
}
