package reduction

import (
	"context"

	"github.com/danaugrs/go-tsne/tsne"
	"gonum.org/v1/gonum/mat"

	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/logger"
)

// TSNE embeds vectors in 2D with t-distributed stochastic neighbour embedding.
// Output is not reproducible between runs.
type TSNE struct {
	Perplexity   float64
	LearningRate float64
	MaxIter      int
}

// Reduce implements Reducer. The optimisation stops early when ctx is done.
func (t TSNE) Reduce(ctx context.Context, vectors [][]float32) ([]domain.Point, error) {
	if _, err := validate(vectors); err != nil {
		return nil, err
	}
	flat, rows, cols := toFloat64(vectors)
	x := mat.NewDense(rows, cols, flat)

	model := tsne.NewTSNE(2, t.Perplexity, t.LearningRate, t.MaxIter, logger.IsVerbose())
	model.EmbedData(x, func(iter int, divergence float64, embedding mat.Matrix) bool {
		if iter%100 == 0 {
			logger.Debug("t-SNE iteration %d, divergence %.4f", iter, divergence)
		}
		return ctx.Err() != nil
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	points := make([]domain.Point, rows)
	for i := range points {
		points[i] = domain.Point{X: model.Y.At(i, 0), Y: model.Y.At(i, 1)}
	}
	return points, nil
}
