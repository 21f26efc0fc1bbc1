package reduction

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/logger"
)

// PCA projects vectors on their first two principal components.
// Output is deterministic: component signs are fixed so that the largest
// loading of each component is positive.
type PCA struct{}

// Reduce implements Reducer.
func (PCA) Reduce(ctx context.Context, vectors [][]float32) ([]domain.Point, error) {
	if _, err := validate(vectors); err != nil {
		return nil, err
	}
	flat, rows, cols := toFloat64(vectors)
	data := mat.NewDense(rows, cols, flat)

	points := make([]domain.Point, rows)
	if rows < 2 {
		return points, nil
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		logger.Warn("PCA decomposition failed, placing all points at origin")
		return points, nil
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	_, k := vecs.Dims()
	if k > 2 {
		k = 2
	}
	orientComponents(&vecs, k)

	centered := mat.DenseCopyOf(data)
	for j := 0; j < cols; j++ {
		mean := stat.Mean(mat.Col(nil, j, data), nil)
		for i := 0; i < rows; i++ {
			centered.Set(i, j, data.At(i, j)-mean)
		}
	}

	var proj mat.Dense
	proj.Mul(centered, vecs.Slice(0, cols, 0, k))
	for i := range points {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		points[i].X = proj.At(i, 0)
		if k > 1 {
			points[i].Y = proj.At(i, 1)
		}
	}
	return points, nil
}

func orientComponents(vecs *mat.Dense, k int) {
	r, _ := vecs.Dims()
	for j := 0; j < k; j++ {
		best := 0.0
		for i := 0; i < r; i++ {
			if v := vecs.At(i, j); math.Abs(v) > math.Abs(best) {
				best = v
			}
		}
		if best < 0 {
			for i := 0; i < r; i++ {
				vecs.Set(i, j, -vecs.At(i, j))
			}
		}
	}
}
