package clustering

import (
	"math"
	"math/rand/v2"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

// DefaultMaxIter bounds Lloyd iterations.
const DefaultMaxIter = 300

// newRand returns a seeded source, or a random one when seed is nil.
func newRand(seed *int64) *rand.Rand {
	if seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s := uint64(*seed)
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}

// kmeans clusters points into at most k groups and returns one label per
// point. Seeding is k-means++; it never picks a centre on top of an
// existing one, so k larger than the number of distinct points yields
// fewer clusters. Labels may leave some cluster indexes unused.
func kmeans(points []domain.Point, k, maxIter int, rng *rand.Rand) []int {
	centres := seedCentres(points, k, rng)
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range points {
			if best := nearest(p, centres); best != labels[i] {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}
		sums := make([]domain.Point, len(centres))
		counts := make([]int, len(centres))
		for i, p := range points {
			sums[labels[i]].X += p.X
			sums[labels[i]].Y += p.Y
			counts[labels[i]]++
		}
		for c := range centres {
			if counts[c] > 0 {
				centres[c] = domain.Point{X: sums[c].X / float64(counts[c]), Y: sums[c].Y / float64(counts[c])}
			}
		}
	}
	return labels
}

func seedCentres(points []domain.Point, k int, rng *rand.Rand) []domain.Point {
	centres := []domain.Point{points[rng.IntN(len(points))]}
	dist := make([]float64, len(points))
	for len(centres) < k {
		total := 0.0
		for i, p := range points {
			d := sqDist(p, centres[nearest(p, centres)])
			dist[i] = d
			total += d
		}
		if total == 0 {
			break
		}
		target := rng.Float64() * total
		chosen := len(points) - 1
		for i, d := range dist {
			target -= d
			if target < 0 && d > 0 {
				chosen = i
				break
			}
		}
		if dist[chosen] == 0 {
			for i := len(dist) - 1; i >= 0; i-- {
				if dist[i] > 0 {
					chosen = i
					break
				}
			}
		}
		centres = append(centres, points[chosen])
	}
	return centres
}

// nearest returns the index of the closest centre; ties go to the lower index.
func nearest(p domain.Point, centres []domain.Point) int {
	best, bestDist := 0, math.Inf(1)
	for c, centre := range centres {
		if d := sqDist(p, centre); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func sqDist(a, b domain.Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}
