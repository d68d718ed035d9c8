package geometry

import "github.com/paulmach/orb"

// Run is a maximal stretch of a part lying along another geometry.
// A closed run covers a whole ring and has no endpoints.
type Run struct {
	Vertices []Vertex
	Closed   bool
}

// Endpoints returns the first and last vertex of an open run.
func (r Run) Endpoints() []Vertex {
	if r.Closed || len(r.Vertices) == 0 {
		return nil
	}
	return []Vertex{r.Vertices[0], r.Vertices[len(r.Vertices)-1]}
}

// Intersection classifies how one part meets another geometry.
type Intersection struct {
	// Touches are vertices of the part lying on the other geometry
	// outside of any linear run.
	Touches []Vertex
	// Runs are the linear intersections, in the part's own order.
	Runs []Run
	// Crossings are proper crossings in segment interiors. They are not
	// vertices of the part.
	Crossings []Vertex
}

// IsEmpty reports whether nothing was found.
func (i Intersection) IsEmpty() bool {
	return len(i.Touches) == 0 && len(i.Runs) == 0 && len(i.Crossings) == 0
}

// IntersectPart intersects part with others within tolerance. closed tells
// whether part is a ring. Curves of the other parts are linearized at
// tolerance before testing. Single-vertex parts (points) are supported on
// both sides.
func IntersectPart(part Part, closed bool, others []Part, tolerance float64) Intersection {
	verts := openVertices(part, closed)
	n := len(verts)
	if n == 0 {
		return Intersection{}
	}

	bound := partBound(verts).Pad(tolerance)
	candidates := make([]Part, 0, len(others))
	for _, o := range others {
		if len(o.Vertices) == 0 {
			continue
		}
		if !partBound(o.Vertices).Pad(tolerance).Intersects(bound) {
			continue
		}
		if o.HasNonLinearSegments() {
			o = o.Linearize(tolerance)
		}
		candidates = append(candidates, o)
	}
	if len(candidates) == 0 {
		return Intersection{}
	}

	index := newSegIndex(candidates, tolerance)
	touch := make([]bool, n)
	for i, v := range verts {
		touch[i] = index.near(v)
	}

	segCount := n - 1
	if closed {
		segCount = n
	}

	shared := make([]bool, segCount)
	for s := 0; s < segCount; s++ {
		a, b := s, (s+1)%n
		if !touch[a] || !touch[b] || part.IsNonLinearSegment(s) {
			continue
		}
		shared[s] = index.near(midpoint(verts[a], verts[b]))
	}

	var result Intersection
	inRun := make([]bool, n)
	result.Runs = collectRuns(verts, shared, closed, inRun)

	for i, v := range verts {
		if touch[i] && !inRun[i] {
			result.Touches = append(result.Touches, v)
		}
	}

	for s := 0; s < segCount; s++ {
		if part.IsNonLinearSegment(s) {
			continue
		}
		result.Crossings = append(result.Crossings, index.crossings(verts[s], verts[(s+1)%n])...)
	}

	return result
}

// collectRuns groups consecutive shared segments into runs.
func collectRuns(verts []Vertex, shared []bool, closed bool, inRun []bool) []Run {
	n := len(verts)
	segCount := len(shared)
	if segCount == 0 {
		return nil
	}

	allShared := true
	for _, s := range shared {
		if !s {
			allShared = false
			break
		}
	}
	if closed && allShared {
		ring := append(append([]Vertex(nil), verts...), verts[0])
		for i := range inRun {
			inRun[i] = true
		}
		return []Run{{Vertices: ring, Closed: true}}
	}

	// Rings start scanning right after a segment that is not shared so a
	// run crossing the seam is not split in two.
	start := 0
	if closed {
		for s := 0; s < segCount; s++ {
			if !shared[s] {
				start = (s + 1) % segCount
				break
			}
		}
	}

	var runs []Run
	var current []Vertex
	flush := func() {
		if len(current) >= 2 {
			runs = append(runs, Run{Vertices: current})
		}
		current = nil
	}
	for k := 0; k < segCount; k++ {
		s := (start + k) % segCount
		if !shared[s] {
			flush()
			continue
		}
		a, b := s, (s+1)%n
		if len(current) == 0 {
			current = append(current, verts[a])
			inRun[a] = true
		}
		current = append(current, verts[b])
		inRun[b] = true
	}
	flush()
	return runs
}

// openVertices drops the closing vertex of a ring.
func openVertices(part Part, closed bool) []Vertex {
	verts := part.Vertices
	if closed && part.IsClosed() {
		verts = verts[:len(verts)-1]
	}
	return verts
}

func partBound(verts []Vertex) orb.Bound {
	b := orb.Bound{Min: verts[0].XY(), Max: verts[0].XY()}
	for _, v := range verts[1:] {
		b = b.Extend(v.XY())
	}
	return b
}
