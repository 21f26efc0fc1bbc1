// Package terms mines normalised n-grams and entities from a corpus and
// ranks them by frequency.
package terms

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/logger"
)

// Result holds the ranked terms and copies of the input documents with
// their term lists populated.
type Result struct {
	Terms     []domain.Term
	Documents []domain.Document
}

// Extractor mines terms with a fixed parameter set.
type Extractor struct {
	params domain.TermParams
	stops  map[string]struct{}
	tags   map[domain.TermTag]bool
}

// NewExtractor validates params and builds an extractor.
func NewExtractor(params domain.TermParams) (*Extractor, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.Workers <= 0 {
		params.Workers = runtime.GOMAXPROCS(0)
	}
	tags := make(map[domain.TermTag]bool, len(params.IncludeTags))
	for _, t := range params.IncludeTags {
		tags[t] = true
	}
	return &Extractor{
		params: params,
		stops:  Stopwords(params.Language),
		tags:   tags,
	}, nil
}

type termStats struct {
	term     domain.Term
	first    int
	included bool
	lastDoc  int
}

// Extract mines every document concurrently, then merges in document order
// so the output does not depend on scheduling.
func (e *Extractor) Extract(ctx context.Context, docs []domain.Document) (*Result, error) {
	if len(docs) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	logger.Section("Term Extraction")

	perDoc := make([][]candidate, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.params.Workers)
	for i := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perDoc[i] = candidates(docs[i].Content, e.params.NGramRange[0], e.params.NGramRange[1], e.stops)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extract terms: %w", err)
	}

	vocab := e.vocabulary(perDoc)
	stats := make(map[string]*termStats, len(vocab))
	seq := 0
	for d, cands := range perDoc {
		for _, c := range cands {
			seq++
			if _, ok := vocab[c.key]; !ok {
				continue
			}
			s, ok := stats[c.key]
			if !ok {
				s = &termStats{
					term:    domain.Term{ID: c.key, Text: c.surface, Tag: domain.TagNGram, NGrams: c.n},
					first:   seq,
					lastDoc: -1,
				}
				stats[c.key] = s
			}
			s.term.Count++
			if s.lastDoc != d {
				s.term.DocCount++
				s.lastDoc = d
			}
			if c.tag == domain.TagEntity {
				s.term.Tag = domain.TagEntity
			}
			if e.tags[c.tag] {
				s.included = true
			}
		}
	}

	ranked := make([]*termStats, 0, len(stats))
	for _, s := range stats {
		if s.included {
			ranked = append(ranked, s)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.term.Count != b.term.Count {
			return a.term.Count > b.term.Count
		}
		if a.term.DocCount != b.term.DocCount {
			return a.term.DocCount > b.term.DocCount
		}
		return a.first < b.first
	})
	if len(ranked) > e.params.Limit {
		ranked = ranked[:e.params.Limit]
	}

	result := &Result{
		Terms:     make([]domain.Term, len(ranked)),
		Documents: make([]domain.Document, len(docs)),
	}
	kept := make(map[string]struct{}, len(ranked))
	for i, s := range ranked {
		result.Terms[i] = s.term
		kept[s.term.ID] = struct{}{}
	}
	for i, doc := range docs {
		out := doc.Clone()
		out.TermIDs = []string{}
		seen := make(map[string]struct{})
		for _, c := range perDoc[i] {
			if _, ok := kept[c.key]; !ok {
				continue
			}
			if _, dup := seen[c.key]; dup {
				continue
			}
			seen[c.key] = struct{}{}
			out.TermIDs = append(out.TermIDs, c.key)
		}
		result.Documents[i] = out
	}

	logger.Debug("Extracted %d terms from %d documents (vocabulary size %d)", len(result.Terms), len(docs), len(vocab))
	return result, nil
}

// vocabulary collects candidate keys from a deterministic stride sample of
// documents, or from all of them when no sample size applies.
func (e *Extractor) vocabulary(perDoc [][]candidate) map[string]struct{} {
	vocab := make(map[string]struct{})
	n := len(perDoc)
	size := e.params.SampleSize
	if size <= 0 || size >= n {
		for _, cands := range perDoc {
			for _, c := range cands {
				vocab[c.key] = struct{}{}
			}
		}
		return vocab
	}
	for i := 0; i < size; i++ {
		for _, c := range perDoc[i*n/size] {
			vocab[c.key] = struct{}{}
		}
	}
	return vocab
}
