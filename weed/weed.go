package weed

import (
	"sort"

	"generalize-service/geometry"
	"generalize-service/model"
)

type Options struct {
	// Tolerance is the maximum distance of a deleted vertex from the
	// simplified line. Zero or less disables weeding.
	Tolerance float64
	// Use3D measures distances in 3D.
	Use3D bool
	// WeedNonLinearSegments allows runs containing curve segments to be
	// weeded. The caller linearizes the parts first.
	WeedNonLinearSegments bool
}

// Result counts the outcome for one feature.
type Result struct {
	Deleted int
	// Restored counts vertices kept back to satisfy the minimum ring size.
	Restored int
}

// Calculate selects deletable vertices of every part of info and records
// them as points to delete. Crack points are never deleted.
func Calculate(info *model.FeatureVertexInfo, opts Options) Result {
	var total Result
	if opts.Tolerance <= 0 {
		return total
	}
	for _, part := range info.Parts {
		deleted, restored := Part(part, info.Closed, info.IsCrackPoint, opts)
		for _, v := range deleted {
			info.AddPointToDelete(v)
		}
		total.Deleted += len(deleted)
		total.Restored += restored
	}
	return total
}

// Part weeds a single part and returns the deleted vertices in part order
// plus the number of vertices restored for the minimum ring size.
// protected reports vertices that must stay.
func Part(part geometry.Part, closed bool, protected func(geometry.Vertex) bool, opts Options) ([]geometry.Vertex, int) {
	if opts.Tolerance <= 0 {
		return nil, 0
	}
	closed = closed && part.IsClosed()

	verts := part.Vertices
	if closed {
		verts = verts[:len(verts)-1]
	}
	n := len(verts)
	minKept := model.MinimumVertexCount(closed)
	if closed {
		minKept--
	}
	if n <= minKept {
		return nil, 0
	}

	var anchors []int
	for i, v := range verts {
		if protected != nil && protected(v) {
			anchors = append(anchors, i)
		}
	}
	if !closed {
		anchors = addPathEnds(anchors, n)
	} else if len(anchors) == 0 {
		i, j, ok := geometry.FarthestPair(verts)
		if !ok {
			return nil, 0
		}
		if j < i {
			i, j = j, i
		}
		anchors = []int{i, j}
	}

	del := make([]bool, n)
	for _, run := range runs(anchors, n, closed) {
		if !opts.WeedNonLinearSegments && containsCurve(part, run) {
			continue
		}
		weedRun(verts, run, opts, del)
	}

	restored := 0
	if closed {
		restored = restoreMinimum(verts, del, minKept)
	}

	var deleted []geometry.Vertex
	for i, d := range del {
		if d {
			deleted = append(deleted, verts[i])
		}
	}
	return deleted, restored
}

func addPathEnds(anchors []int, n int) []int {
	anchors = append(anchors, 0, n-1)
	sort.Ints(anchors)
	out := anchors[:0]
	for i, a := range anchors {
		if i == 0 || a != anchors[i-1] {
			out = append(out, a)
		}
	}
	return out
}

// runs lists the vertex indexes between consecutive anchors, both anchors
// included. Ring runs wrap around the seam, so a single anchor yields one
// run starting and ending on it.
func runs(anchors []int, n int, closed bool) [][]int {
	var out [][]int
	if !closed {
		for k := 0; k+1 < len(anchors); k++ {
			out = append(out, span(anchors[k], anchors[k+1], n))
		}
		return out
	}
	for k := range anchors {
		from := anchors[k]
		to := anchors[(k+1)%len(anchors)]
		if to <= from {
			to += n
		}
		out = append(out, span(from, to, n))
	}
	return out
}

func span(from, to, n int) []int {
	idx := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		idx = append(idx, i%n)
	}
	return idx
}

func containsCurve(part geometry.Part, run []int) bool {
	for k := 0; k+1 < len(run); k++ {
		// Segment indexes follow the stored order, the one ending at the
		// ring start is the closing segment n-1.
		if part.IsNonLinearSegment(run[k]) {
			return true
		}
	}
	return false
}

// weedRun simplifies one run between its anchors with an explicit stack.
// The run is processed in a canonical direction and ties are broken by
// coordinate order, so the result depends only on the coordinates of the
// run.
func weedRun(verts []geometry.Vertex, run []int, opts Options, del []bool) {
	m := len(run) - 1
	if m < 2 {
		return
	}
	if shouldReverse(verts, run) {
		rev := make([]int, len(run))
		for k, i := range run {
			rev[m-k] = i
		}
		run = rev
	}

	keep := make([]bool, len(run))
	keep[0], keep[m] = true, true

	type interval struct{ start, end int }
	stack := []interval{{0, m}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.end-s.start < 2 {
			continue
		}

		a, b := verts[run[s.start]], verts[run[s.end]]
		best, dmax := -1, -1.0
		for k := s.start + 1; k < s.end; k++ {
			p := verts[run[k]]
			d := geometry.ChordDistance(p, a, b, opts.Use3D)
			if best < 0 || d > dmax || (d == dmax && p.Less(verts[run[best]])) {
				best, dmax = k, d
			}
		}

		if dmax >= opts.Tolerance {
			keep[best] = true
			stack = append(stack, interval{s.start, best}, interval{best, s.end})
		}
	}

	for k := 1; k < m; k++ {
		if !keep[k] {
			del[run[k]] = true
		}
	}
}

// shouldReverse compares the run from both ends inward and reverses it when
// the far end is lexicographically smaller.
func shouldReverse(verts []geometry.Vertex, run []int) bool {
	for lo, hi := 0, len(run)-1; lo < hi; lo, hi = lo+1, hi-1 {
		a, b := verts[run[lo]], verts[run[hi]]
		if a == b {
			continue
		}
		return b.Less(a)
	}
	return false
}

// restoreMinimum restores deleted vertices until the ring has minKept
// vertices, each time choosing the one farthest from every kept vertex.
func restoreMinimum(verts []geometry.Vertex, del []bool, minKept int) int {
	kept := 0
	for _, d := range del {
		if !d {
			kept++
		}
	}

	restored := 0
	for kept < minKept {
		best, bestDist := -1, -1.0
		for i, d := range del {
			if !d {
				continue
			}
			nearest := -1.0
			for j, dj := range del {
				if dj {
					continue
				}
				if dist := geometry.Distance(verts[i], verts[j]); nearest < 0 || dist < nearest {
					nearest = dist
				}
			}
			if best < 0 || nearest > bestDist || (nearest == bestDist && verts[i].Less(verts[best])) {
				best, bestDist = i, nearest
			}
		}
		if best < 0 {
			break
		}
		del[best] = false
		kept++
		restored++
	}
	return restored
}
