package removal

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"generalize-service/geometry"
	"generalize-service/model"
)

// workPart is a part in open form. Rings drop their closing vertex and have
// one segment per vertex, the last one closing the ring. Removed vertices
// are unlinked so indexes keep referring to the input part; the part is
// rebuilt once by part().
type workPart struct {
	verts  []geometry.Vertex
	segs   []geometry.Segment
	closed bool

	alive      []bool
	prev, succ []int
	head, tail int
	count      int
}

func newWorkPart(p geometry.Part, closed bool) *workPart {
	closed = closed && p.IsClosed()
	w := &workPart{closed: closed}
	w.verts = p.Vertices
	if closed {
		w.verts = w.verts[:len(w.verts)-1]
	}
	n := len(w.verts)
	if p.HasNonLinearSegments() {
		w.segs = make([]geometry.Segment, w.segCount())
		for i := range w.segs {
			w.segs[i] = p.SegmentAt(i)
		}
	}

	w.count = n
	w.alive = make([]bool, n)
	w.prev = make([]int, n)
	w.succ = make([]int, n)
	for i := range w.verts {
		w.alive[i] = true
		w.prev[i] = i - 1
		w.succ[i] = i + 1
	}
	w.head, w.tail = 0, n-1
	if closed && n > 0 {
		w.prev[0] = n - 1
		w.succ[n-1] = 0
	}
	return w
}

// segCount is the number of segments of the input part.
func (w *workPart) segCount() int {
	n := len(w.verts)
	if w.closed {
		return n
	}
	if n < 2 {
		return 0
	}
	return n - 1
}

func (w *workPart) minVertices() int {
	if w.closed {
		return model.MinimumVertexCount(true) - 1
	}
	return model.MinimumVertexCount(false)
}

// canRemove reports whether one more vertex can go without dropping below
// the minimum vertex count.
func (w *workPart) canRemove() bool {
	return w.count > w.minVertices()
}

// hasSegment reports whether s starts a segment of the current part.
func (w *workPart) hasSegment(s int) bool {
	if s < 0 || s >= len(w.verts) || !w.alive[s] {
		return false
	}
	return w.closed || s != w.tail
}

// next returns the vertex following k, -1 after the end of a path.
func (w *workPart) next(k int) int {
	if !w.closed && k == w.tail {
		return -1
	}
	return w.succ[k]
}

func (w *workPart) isPathEnd(k int) bool {
	return !w.closed && (k == w.head || k == w.tail)
}

func (w *workPart) isNonLinear(s int) bool {
	return s >= 0 && s < len(w.segs) && w.segs[s].Type != geometry.SegmentLinear
}

// remove unlinks vertex k. The segments on both sides merge into one
// linear segment.
func (w *workPart) remove(k int) {
	if !w.alive[k] {
		return
	}
	p, s := w.prev[k], w.succ[k]
	switch {
	case w.closed:
		w.succ[p], w.prev[s] = s, p
		if w.segs != nil {
			w.segs[p] = geometry.Segment{}
		}
		if k == w.head {
			w.head = s
		}
	case k == w.head:
		w.head = s
		if s < len(w.verts) {
			w.prev[s] = -1
		}
	case k == w.tail:
		w.tail = p
		w.succ[p] = len(w.verts)
	default:
		w.succ[p], w.prev[s] = s, p
		if w.segs != nil {
			w.segs[p] = geometry.Segment{}
		}
	}
	w.alive[k] = false
	w.count--
}

// each calls fn for the remaining vertices in part order.
func (w *workPart) each(fn func(k int)) {
	for i, k := 0, w.head; i < w.count; i, k = i+1, w.succ[k] {
		fn(k)
	}
}

func (w *workPart) part() geometry.Part {
	p := geometry.Part{Vertices: make([]geometry.Vertex, 0, w.count+1)}
	var segs []geometry.Segment
	curved := false
	w.each(func(k int) {
		p.Vertices = append(p.Vertices, w.verts[k])
		if w.segs != nil && w.hasSegment(k) {
			segs = append(segs, w.segs[k])
			curved = curved || w.segs[k].Type != geometry.SegmentLinear
		}
	})
	if w.closed && len(p.Vertices) > 0 {
		p.Vertices = append(p.Vertices, p.Vertices[0])
	}
	if curved {
		p.Segments = segs
	}
	return p
}

// collapsed reports a ring without area.
func (w *workPart) collapsed() bool {
	if !w.closed {
		return false
	}
	r := make(orb.Ring, 0, w.count+1)
	w.each(func(k int) {
		r = append(r, w.verts[k].XY())
	})
	if len(r) > 0 {
		r = append(r, r[0])
	}
	return planar.Area(r) == 0
}
