// Package reduction maps high-dimensional embeddings to 2D coordinates.
//
// t-SNE is the default method. PCA is used whenever reproducible output is
// requested, and for corpora too small for a t-SNE neighbourhood graph.
package reduction

import (
	"context"
	"fmt"
	"math"

	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/logger"
)

// MinTSNEPoints is the smallest corpus reduced with t-SNE.
const MinTSNEPoints = 5

// Reducer maps N vectors of equal dimension to N finite 2D points.
type Reducer interface {
	Reduce(ctx context.Context, vectors [][]float32) ([]domain.Point, error)
}

// Auto picks a reduction method per call from the configured parameters
// and the corpus size.
type Auto struct {
	params domain.ReductionParams
}

// New validates params and returns an Auto reducer.
func New(params domain.ReductionParams) (*Auto, error) {
	if params.Method == "" {
		params.Method = domain.ReductionTSNE
	}
	if !params.Method.IsValid() {
		return nil, fmt.Errorf("%w: unknown reduction method %q", domain.ErrInvalidInput, params.Method)
	}
	def := domain.DefaultReductionParams()
	if params.Perplexity <= 0 {
		params.Perplexity = def.Perplexity
	}
	if params.LearningRate <= 0 {
		params.LearningRate = def.LearningRate
	}
	if params.MaxIter <= 0 {
		params.MaxIter = def.MaxIter
	}
	return &Auto{params: params}, nil
}

// Reduce validates the input and dispatches to the selected method.
func (a *Auto) Reduce(ctx context.Context, vectors [][]float32) ([]domain.Point, error) {
	logger.Section("Dimensionality Reduction")
	dims, err := validate(vectors)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := len(vectors)
	if n == 1 {
		logger.Debug("Single document, placing at origin")
		return []domain.Point{{}}, nil
	}

	var points []domain.Point
	switch method := a.method(n); method {
	case domain.ReductionPCA:
		logger.Debug("Reducing %d vectors of dimension %d with PCA", n, dims)
		points, err = PCA{}.Reduce(ctx, vectors)
	default:
		logger.Debug("Reducing %d vectors of dimension %d with t-SNE", n, dims)
		points, err = TSNE{
			Perplexity:   clampPerplexity(a.params.Perplexity, n),
			LearningRate: a.params.LearningRate,
			MaxIter:      a.params.MaxIter,
		}.Reduce(ctx, vectors)
	}
	if err != nil {
		return nil, err
	}
	return sanitize(points), nil
}

func (a *Auto) method(n int) domain.ReductionMethod {
	if a.params.Method == domain.ReductionPCA {
		return domain.ReductionPCA
	}
	if a.params.Seed != nil {
		logger.Warn("t-SNE cannot be seeded, using PCA for reproducible coordinates")
		return domain.ReductionPCA
	}
	if n < MinTSNEPoints {
		logger.Debug("Only %d vectors, t-SNE needs %d; using PCA", n, MinTSNEPoints)
		return domain.ReductionPCA
	}
	return domain.ReductionTSNE
}

func validate(vectors [][]float32) (int, error) {
	if len(vectors) == 0 {
		return 0, fmt.Errorf("%w: no vectors to reduce", domain.ErrInvalidInput)
	}
	dims := len(vectors[0])
	if dims == 0 {
		return 0, fmt.Errorf("%w: vector 0 is empty", domain.ErrInvalidInput)
	}
	for i, v := range vectors {
		if len(v) != dims {
			return 0, fmt.Errorf("%w: vector %d has dimension %d, expected %d",
				domain.ErrInvalidInput, i, len(v), dims)
		}
		for _, x := range v {
			if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
				return 0, fmt.Errorf("%w: vector %d has non-finite values", domain.ErrInvalidInput, i)
			}
		}
	}
	return dims, nil
}

// clampPerplexity keeps perplexity below (n-1)/3 so every point has enough
// neighbours.
func clampPerplexity(p float64, n int) float64 {
	if limit := float64(n-1) / 3; p > limit {
		return math.Max(limit, 1)
	}
	return p
}

// sanitize replaces any non-finite coordinate with zero.
func sanitize(points []domain.Point) []domain.Point {
	for i, p := range points {
		if !p.IsFinite() {
			logger.Warn("Non-finite coordinate for point %d, resetting to origin", i)
			points[i] = domain.Point{}
		}
	}
	return points
}

func toFloat64(vectors [][]float32) (flat []float64, rows, cols int) {
	rows, cols = len(vectors), len(vectors[0])
	flat = make([]float64, 0, rows*cols)
	for _, v := range vectors {
		for _, x := range v {
			flat = append(flat, float64(x))
		}
	}
	return flat, rows, cols
}
