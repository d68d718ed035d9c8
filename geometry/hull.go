package geometry

import "sort"

// indexedVertex keeps the position of a vertex in its source slice.
type indexedVertex struct {
	Vertex
	index int
}

// convexHull computes the convex hull using Andrew's monotone chain.
// The result is counter-clockwise without a repeated closing vertex, and
// collinear boundary points are dropped.
func convexHull(points []indexedVertex) []indexedVertex {
	pts := append([]indexedVertex(nil), points...)
	sort.SliceStable(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		if pts[i].Y != pts[j].Y {
			return pts[i].Y < pts[j].Y
		}
		return pts[i].index < pts[j].index
	})

	// Remove exact XY duplicates, keeping the lowest index.
	uniq := pts[:0]
	for _, p := range pts {
		if len(uniq) > 0 && uniq[len(uniq)-1].Equal2D(p.Vertex) {
			continue
		}
		uniq = append(uniq, p)
	}
	pts = uniq
	if len(pts) < 3 {
		return pts
	}

	hull := make([]indexedVertex, 0, 2*len(pts))
	// Lower hull
	for _, p := range pts {
		for len(hull) >= 2 && crossProduct(hull[len(hull)-2].Vertex, hull[len(hull)-1].Vertex, p.Vertex) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// Upper hull
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && crossProduct(hull[len(hull)-2].Vertex, hull[len(hull)-1].Vertex, p.Vertex) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// FarthestPair returns the indexes of the two vertices farthest apart in the
// XY plane, the lexicographically smaller vertex first. Ties prefer the pair
// whose smaller vertex is smallest, then whose larger vertex is smallest, so
// the choice depends on coordinates only and not on where a ring starts.
// With fewer than two distinct vertices ok is false.
func FarthestPair(verts []Vertex) (i, j int, ok bool) {
	points := make([]indexedVertex, len(verts))
	for k, v := range verts {
		points[k] = indexedVertex{Vertex: v, index: k}
	}

	hull := convexHull(points)
	if len(hull) < 2 {
		return 0, 0, false
	}

	// The diameter always lies between two hull vertices. Hulls of real
	// parts are small enough that comparing all pairs is fine.
	best := -1.0
	var bestLo, bestHi Vertex
	for a := 0; a < len(hull); a++ {
		for b := a + 1; b < len(hull); b++ {
			lo, hi := hull[a], hull[b]
			if hi.Less(lo.Vertex) {
				lo, hi = hi, lo
			}
			d := squaredDistance(lo.Vertex, hi.Vertex)
			better := d > best
			if d == best {
				better = lo.Less(bestLo) || (lo.Vertex == bestLo && hi.Less(bestHi))
			}
			if better {
				best, bestLo, bestHi = d, lo.Vertex, hi.Vertex
				i, j = lo.index, hi.index
			}
		}
	}
	return i, j, true
}

// crossProduct calculates the cross product of vectors (b-a) and (c-a)
func crossProduct(a, b, c Vertex) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func squaredDistance(a, b Vertex) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}
