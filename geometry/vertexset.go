package geometry

import (
	"math"
	"sort"
)

type cell struct{ x, y float64 }

// grid buckets coordinates into cells as large as the tolerance so a lookup
// only visits the neighbouring cells. A zero tolerance keys cells by the
// exact coordinate.
type grid struct {
	tolerance float64
}

func newGrid(tolerance float64) grid {
	if tolerance <= 0 {
		tolerance = 0
	}
	return grid{tolerance: tolerance}
}

func (g grid) cellOf(v Vertex) cell {
	if g.tolerance == 0 {
		return cell{v.X, v.Y}
	}
	return cell{math.Floor(v.X / g.tolerance), math.Floor(v.Y / g.tolerance)}
}

// around calls fn for every cell that may hold a coordinate within
// tolerance of v.
func (g grid) around(v Vertex, fn func(cell)) {
	c := g.cellOf(v)
	if g.tolerance == 0 {
		fn(c)
		return
	}
	for dx := -1.0; dx <= 1; dx++ {
		for dy := -1.0; dy <= 1; dy++ {
			fn(cell{c.x + dx, c.y + dy})
		}
	}
}

// VertexSet is a set of XY coordinates where membership is tested within a
// tolerance.
type VertexSet struct {
	grid
	cells map[cell][]Vertex
	count int
}

// NewVertexSet creates an empty set. A zero tolerance matches exact
// coordinates only.
func NewVertexSet(tolerance float64) *VertexSet {
	return &VertexSet{grid: newGrid(tolerance), cells: make(map[cell][]Vertex)}
}

// Add inserts v unless the set already holds a coordinate within tolerance.
// It reports whether v was inserted.
func (s *VertexSet) Add(v Vertex) bool {
	if s.Contains(v) {
		return false
	}
	c := s.cellOf(v)
	s.cells[c] = append(s.cells[c], v)
	s.count++
	return true
}

// Contains reports whether a coordinate within tolerance of v is present.
func (s *VertexSet) Contains(v Vertex) bool {
	_, ok := s.Find(v)
	return ok
}

// Find returns the stored coordinate matching v, the nearest one when
// several are within tolerance.
func (s *VertexSet) Find(v Vertex) (Vertex, bool) {
	var (
		found Vertex
		best  = math.Inf(1)
		ok    bool
	)
	s.around(v, func(c cell) {
		for _, p := range s.cells[c] {
			if !p.Within(v, s.tolerance) {
				continue
			}
			if d := Distance(p, v); d < best {
				found, best, ok = p, d, true
			}
		}
	})
	return found, ok
}

// Len returns the number of stored coordinates.
func (s *VertexSet) Len() int {
	return s.count
}

// Points returns the stored coordinates in lexicographic order.
func (s *VertexSet) Points() []Vertex {
	out := make([]Vertex, 0, s.count)
	for _, pts := range s.cells {
		out = append(out, pts...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

type bagEntry struct {
	v Vertex
	n int
}

// VertexBag is a multiset of XY coordinates. Each Take consumes one
// occurrence of the nearest coordinate within tolerance.
type VertexBag struct {
	grid
	cells map[cell][]*bagEntry
	total int
}

func NewVertexBag(tolerance float64) *VertexBag {
	return &VertexBag{grid: newGrid(tolerance), cells: make(map[cell][]*bagEntry)}
}

// Add inserts one occurrence of v.
func (b *VertexBag) Add(v Vertex) {
	c := b.cellOf(v)
	b.total++
	for _, e := range b.cells[c] {
		if e.v.Equal2D(v) {
			e.n++
			return
		}
	}
	b.cells[c] = append(b.cells[c], &bagEntry{v: v, n: 1})
}

// Take consumes the nearest remaining coordinate within tolerance of v and
// reports whether there was one.
func (b *VertexBag) Take(v Vertex) bool {
	var (
		best     *bagEntry
		bestDist = math.Inf(1)
	)
	b.around(v, func(c cell) {
		for _, e := range b.cells[c] {
			if e.n == 0 || !e.v.Within(v, b.tolerance) {
				continue
			}
			if d := Distance(e.v, v); d < bestDist {
				best, bestDist = e, d
			}
		}
	})
	if best == nil {
		return false
	}
	best.n--
	b.total--
	return true
}

// Len returns the number of occurrences not yet taken.
func (b *VertexBag) Len() int {
	return b.total
}
