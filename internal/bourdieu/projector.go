// Package bourdieu projects documents onto a 2D frame defined by two pairs
// of opposing word lists and clusters the projection.
package bourdieu

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/custodia-labs/topicmap/internal/clustering"
	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/core/ports/driven"
	"github.com/custodia-labs/topicmap/internal/logger"
	"github.com/custodia-labs/topicmap/internal/naming"
	"github.com/custodia-labs/topicmap/internal/ranking"
)

// quadrantOrder fixes the reporting order of quadrant shares.
var quadrantOrder = []domain.Quadrant{
	domain.QuadrantTopRight,
	domain.QuadrantTopLeft,
	domain.QuadrantBottomLeft,
	domain.QuadrantBottomRight,
	domain.QuadrantCenter,
}

// Projector builds Bourdieu maps.
type Projector struct {
	embedder driven.EmbeddingService
	builder  clustering.Builder
	namer    *naming.Namer
}

// NewProjector creates a projector. namer may be nil; generated names are
// then skipped even when requested.
func NewProjector(embedder driven.EmbeddingService, namer *naming.Namer) *Projector {
	return &Projector{embedder: embedder, namer: namer}
}

// Project scores every document along both axes, assigns quadrants and
// clusters the projected coordinates with params. The input documents are
// never modified; the result carries its own copies and topic set.
func (p *Projector) Project(
	ctx context.Context,
	docs []domain.Document,
	terms []domain.Term,
	query domain.BourdieuQuery,
	params domain.BourdieuParams,
) (*domain.BourdieuResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if err := params.Topics.Validate(); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	if p.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	logger.Section("Bourdieu Projection")

	dims, err := embeddingDims(docs)
	if err != nil {
		return nil, err
	}

	xc, yc := query.XContinuum(), query.YContinuum()
	xAxis, yAxis, err := p.axes(ctx, xc, yc)
	if err != nil {
		return nil, err
	}
	if len(xAxis) != dims {
		return nil, fmt.Errorf("%w: axis dimension %d does not match document dimension %d",
			domain.ErrInvalidInput, len(xAxis), dims)
	}

	projected := make([]domain.Document, len(docs))
	counts := make(map[domain.Quadrant]int, len(quadrantOrder))
	var clusterable []int
	for i, d := range docs {
		emb := toFloat64(d.Embedding)
		x, y := cosine(emb, xAxis), cosine(emb, yAxis)

		c := d.Clone()
		c.X, c.Y = x, y
		c.TopicID = ""
		c.TopicRanking = nil
		c.BourdieuDimensions = []domain.BourdieuDimension{
			{Continuum: xc, Distance: x},
			{Continuum: yc, Distance: y},
		}
		projected[i] = c

		q := query.QuadrantOf(x, y)
		counts[q]++
		if !params.ExcludeNeutral || q != domain.QuadrantCenter {
			clusterable = append(clusterable, i)
		}
	}

	result := &domain.BourdieuResult{
		Query:     query,
		Documents: projected,
		Quadrants: shares(counts, len(docs)),
	}
	if len(clusterable) == 0 {
		logger.Debug("All documents fall inside the neutral radius, no topics built")
		return result, nil
	}

	subset := make([]domain.Document, len(clusterable))
	for j, i := range clusterable {
		subset[j] = projected[i]
	}
	topics, assigned, err := p.builder.Build(ctx, subset, terms, params.Topics)
	if err != nil {
		return nil, fmt.Errorf("cluster projection: %w", err)
	}
	assigned, topics, err = ranking.Rank(assigned, topics, params.Rank)
	if err != nil {
		return nil, fmt.Errorf("rank projection: %w", err)
	}
	for j, i := range clusterable {
		projected[i] = assigned[j]
	}
	for t := range topics {
		topics[t].Quadrant = query.QuadrantOf(topics[t].XCentroid, topics[t].YCentroid)
	}

	if params.GenerateNames && p.namer != nil {
		named, _, err := p.namer.Name(ctx, topics, projected, params.Gen)
		switch {
		case err == nil:
			topics = named
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			logger.Warn("Skipping generated Bourdieu topic names: %v", err)
		}
	}

	result.Topics = topics
	if err := domain.CheckTopicAssignments(result.Documents, result.Topics); err != nil {
		return nil, err
	}
	logger.Debug("Projected %d documents into %d Bourdieu topics", len(docs), len(topics))
	return result, nil
}

// axes embeds all pole words in one batch and returns the x and y
// direction vectors (positive pole minus negative pole).
func (p *Projector) axes(ctx context.Context, xc, yc domain.Continuum) ([]float64, []float64, error) {
	means, err := p.poles(ctx, xc.LeftWords, xc.RightWords, yc.LeftWords, yc.RightWords)
	if err != nil {
		return nil, nil, err
	}
	x, err := direction(xc.ID, means[0], means[1])
	if err != nil {
		return nil, nil, err
	}
	y, err := direction(yc.ID, means[2], means[3])
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

// poles embeds every word list in a single batch and returns the mean
// vector of each list.
func (p *Projector) poles(ctx context.Context, lists ...[]string) ([][]float64, error) {
	var words []string
	for _, l := range lists {
		words = append(words, l...)
	}
	vectors, err := p.embedder.EmbedBatch(ctx, words)
	if err != nil {
		return nil, fmt.Errorf("%w: axis words: %w", domain.ErrEmbeddingFailed, err)
	}
	if len(vectors) != len(words) {
		return nil, fmt.Errorf("%w: got %d vectors for %d axis words",
			domain.ErrEmbeddingFailed, len(vectors), len(words))
	}

	means := make([][]float64, len(lists))
	offset := 0
	for i, l := range lists {
		m, err := mean(vectors[offset : offset+len(l)])
		if err != nil {
			return nil, err
		}
		means[i] = m
		offset += len(l)
	}
	return means, nil
}

func direction(id string, negative, positive []float64) ([]float64, error) {
	if len(negative) != len(positive) {
		return nil, fmt.Errorf("%w: axis %s poles have different dimensions", domain.ErrInvalidInput, id)
	}
	v := make([]float64, len(positive))
	floats.SubTo(v, positive, negative)
	if floats.Norm(v, 2) == 0 {
		return nil, fmt.Errorf("%w: axis %s", domain.ErrDegenerateAxis, id)
	}
	return v, nil
}

func mean(vectors [][]float32) ([]float64, error) {
	dims := len(vectors[0])
	sum := make([]float64, dims)
	for _, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("%w: axis word vectors have different dimensions", domain.ErrInvalidInput)
		}
		floats.Add(sum, toFloat64(v))
	}
	floats.Scale(1/float64(len(vectors)), sum)
	return sum, nil
}

// ProjectContinuum scores every document along a single continuum. The
// score is the cosine between the document embedding and the direction
// from the mean left word to the mean right word.
func (p *Projector) ProjectContinuum(
	ctx context.Context,
	docs []domain.Document,
	continuum domain.Continuum,
) (*domain.ContinuumProjection, error) {
	if err := continuum.Validate(); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	if p.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	dims, err := embeddingDims(docs)
	if err != nil {
		return nil, err
	}

	means, err := p.poles(ctx, continuum.LeftWords, continuum.RightWords)
	if err != nil {
		return nil, err
	}
	axis, err := direction(continuum.ID, means[0], means[1])
	if err != nil {
		return nil, err
	}
	if len(axis) != dims {
		return nil, fmt.Errorf("%w: axis dimension %d does not match document dimension %d",
			domain.ErrInvalidInput, len(axis), dims)
	}

	scores := make([]domain.ContinuumScore, len(docs))
	for i, d := range docs {
		scores[i] = domain.ContinuumScore{DocumentID: d.ID, Score: cosine(toFloat64(d.Embedding), axis)}
	}
	logger.Debug("Projected %d documents on continuum %s", len(docs), continuum.ID)
	return &domain.ContinuumProjection{Continuum: continuum, Scores: scores}, nil
}

// Similarity is the cosine similarity of two embeddings, 0 when either has
// zero norm or their dimensions differ.
func Similarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	return cosine(toFloat64(a), toFloat64(b))
}

// embeddingDims checks that every document carries an embedding of the
// same size and returns that size.
func embeddingDims(docs []domain.Document) (int, error) {
	dims := len(docs[0].Embedding)
	for _, d := range docs {
		if len(d.Embedding) == 0 || len(d.Embedding) != dims {
			return 0, fmt.Errorf("%w: document %q has no usable embedding", domain.ErrInvalidInput, d.ID)
		}
	}
	return dims, nil
}

// cosine returns 0 when either vector has zero norm.
func cosine(a, b []float64) float64 {
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

func shares(counts map[domain.Quadrant]int, total int) []domain.QuadrantShare {
	out := make([]domain.QuadrantShare, 0, len(quadrantOrder))
	for _, q := range quadrantOrder {
		out = append(out, domain.QuadrantShare{
			Quadrant: q,
			Count:    counts[q],
			Percent:  100 * float64(counts[q]) / float64(total),
		})
	}
	return out
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
