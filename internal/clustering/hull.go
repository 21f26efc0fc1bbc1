package clustering

import (
	"sort"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

// ConvexHull returns the counter-clockwise hull of points using Andrew's
// monotone chain.
//
// Degenerate inputs are not errors: a single distinct point yields one
// vertex, two distinct or collinear points yield the two extreme points.
// Otherwise the polygon is closed by repeating the first vertex.
func ConvexHull(points []domain.Point) domain.ConvexHull {
	pts := uniqueSorted(points)
	switch len(pts) {
	case 0:
		return domain.ConvexHull{}
	case 1:
		return hullOf(pts)
	case 2:
		return hullOf(pts)
	}

	hull := make([]domain.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	hull = hull[:len(hull)-1]

	if len(hull) < 3 {
		return hullOf([]domain.Point{pts[0], pts[len(pts)-1]})
	}
	return hullOf(append(hull, hull[0]))
}

func uniqueSorted(points []domain.Point) []domain.Point {
	pts := append([]domain.Point(nil), points...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	out := pts[:0]
	for i, p := range pts {
		if i == 0 || p != pts[i-1] {
			out = append(out, p)
		}
	}
	return out
}

func cross(o, a, b domain.Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func hullOf(points []domain.Point) domain.ConvexHull {
	h := domain.ConvexHull{
		XCoordinates: make([]float64, len(points)),
		YCoordinates: make([]float64, len(points)),
	}
	for i, p := range points {
		h.XCoordinates[i] = p.X
		h.YCoordinates[i] = p.Y
	}
	return h
}
