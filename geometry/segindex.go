package geometry

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// minRectSide keeps rtreego from rejecting rectangles of points and of
// horizontal or vertical segments.
const minRectSide = 1e-9

type segEntry struct {
	a, b  Vertex
	point bool
	// position among all indexed segments, in input order
	order int
	rect  rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *segEntry) Bounds() rtreego.Rect {
	return e.rect
}

// segIndex holds the segments and points of a set of parts in an R-tree.
// Entries are padded by the tolerance so a query by a bare location finds
// every segment within tolerance of it.
type segIndex struct {
	tree      *rtreego.Rtree
	tolerance float64
	// entries whose bounds rtreego rejected, tested by scanning
	rest []*segEntry
}

func newSegIndex(parts []Part, tolerance float64) *segIndex {
	idx := &segIndex{tree: rtreego.NewTree(2, 25, 50), tolerance: tolerance}
	order := 0
	add := func(e *segEntry) {
		e.order = order
		order++
		b := orb.Bound{Min: e.a.XY(), Max: e.a.XY()}.Extend(e.b.XY()).Pad(tolerance)
		rect, err := boundRect(b)
		if err != nil {
			idx.rest = append(idx.rest, e)
			return
		}
		e.rect = rect
		idx.tree.Insert(e)
	}
	for _, p := range parts {
		if len(p.Vertices) == 1 {
			add(&segEntry{a: p.Vertices[0], b: p.Vertices[0], point: true})
			continue
		}
		for j := 0; j+1 < len(p.Vertices); j++ {
			add(&segEntry{a: p.Vertices[j], b: p.Vertices[j+1]})
		}
	}
	return idx
}

func boundRect(b orb.Bound) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{b.Min[0], b.Min[1]},
		[]float64{math.Max(b.Max[0]-b.Min[0], minRectSide), math.Max(b.Max[1]-b.Min[1], minRectSide)},
	)
}

// search returns the entries whose padded bounds intersect b, in input
// order.
func (idx *segIndex) search(b orb.Bound) []*segEntry {
	rect, err := boundRect(b)
	if err != nil {
		return nil
	}
	var out []*segEntry
	for _, item := range idx.tree.SearchIntersect(rect) {
		out = append(out, item.(*segEntry))
	}
	for _, e := range idx.rest {
		if b.Intersects(e.bound().Pad(idx.tolerance)) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].order < out[j].order })
	return out
}

func (e *segEntry) bound() orb.Bound {
	return orb.Bound{Min: e.a.XY(), Max: e.a.XY()}.Extend(e.b.XY())
}

// near reports whether v lies within tolerance of an indexed segment or
// point.
func (idx *segIndex) near(v Vertex) bool {
	for _, e := range idx.search(orb.Bound{Min: v.XY(), Max: v.XY()}) {
		if e.point {
			if v.Within(e.a, idx.tolerance) {
				return true
			}
			continue
		}
		if DistanceToSegment(v, e.a, e.b, false) <= idx.tolerance {
			return true
		}
	}
	return false
}

// crossings returns the points where segment a-b properly crosses indexed
// segments away from its own endpoints.
func (idx *segIndex) crossings(a, b Vertex) []Vertex {
	var out []Vertex
	for _, e := range idx.search(orb.Bound{Min: a.XY(), Max: a.XY()}.Extend(b.XY())) {
		if e.point {
			continue
		}
		p, ok := SegmentIntersection(a, b, e.a, e.b)
		if !ok || p.Within(a, idx.tolerance) || p.Within(b, idx.tolerance) {
			continue
		}
		out = append(out, p)
	}
	return out
}
