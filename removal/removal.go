package removal

import (
	"sort"

	"generalize-service/geometry"
	"generalize-service/model"
)

// Result counts what happened to one feature.
type Result struct {
	Removed int
	// Retained counts vertices kept back because removing them would
	// shrink a part below its minimum vertex count.
	Retained int
	// Missing counts short segments that could not be found again.
	Missing int
	// CollapsedRings counts rings left without area.
	CollapsedRings int
}

func (r *Result) add(o Result) {
	r.Removed += o.Removed
	r.Retained += o.Retained
	r.Missing += o.Missing
	r.CollapsedRings += o.CollapsedRings
}

// RemovePoints returns a copy of shape without the vertices matching points
// within tolerance. A coordinate listed k times removes at most k vertices.
// Vertices whose removal would violate the minimum vertex count are kept.
func RemovePoints(shape geometry.Shape, points []geometry.Vertex, tolerance float64) (geometry.Shape, Result) {
	out := shape.Clone()
	var res Result
	if len(points) == 0 || !shape.Kind.IsMultipart() {
		return out, res
	}

	closed := shape.Kind == geometry.KindPolygon
	pool := geometry.NewVertexBag(tolerance)
	for _, pt := range points {
		pool.Add(pt)
	}
	for i, part := range out.Parts {
		w := newWorkPart(part, closed)
		var partRes Result
		for k := range w.verts {
			if !pool.Take(w.verts[k]) {
				continue
			}
			if !w.canRemove() {
				partRes.Retained++
				continue
			}
			w.remove(k)
			partRes.Removed++
		}
		if partRes.Removed > 0 {
			if w.collapsed() {
				partRes.CollapsedRings++
			}
			out.Parts[i] = w.part()
		}
		res.add(partRes)
	}
	return out, res
}

// FindShortSegments lists the linear segments shorter than minLength. A
// segment between two protected vertices is never reported. use2D measures
// lengths in the XY plane only.
func FindShortSegments(shape geometry.Shape, minLength float64, use2D bool, protected func(geometry.Vertex) bool) []model.SegmentInfo {
	if minLength <= 0 || !shape.Kind.IsMultipart() {
		return nil
	}
	length := geometry.Distance3D
	if use2D || !shape.HasZ {
		length = geometry.Distance
	}

	var out []model.SegmentInfo
	absolute := 0
	for pi, part := range shape.Parts {
		for s := 0; s < part.SegmentCount(); s++ {
			from, to := part.Vertices[s], part.Vertices[s+1]
			l := length(from, to)
			if !part.IsNonLinearSegment(s) && l < minLength &&
				!(protected != nil && protected(from) && protected(to)) {
				out = append(out, model.SegmentInfo{
					From:          from,
					To:            to,
					AbsoluteIndex: absolute + s,
					PartIndex:     pi,
					RelativeIndex: s,
					Length:        l,
				})
			}
		}
		absolute += part.SegmentCount()
	}
	return out
}

// RemoveShortSegments removes one vertex per listed segment: the end vertex
// unless it is protected or ends a path, otherwise the start vertex. Segments
// are applied from the highest relative index down. A segment whose index no
// longer matches its coordinates is looked up by coordinates.
func RemoveShortSegments(shape geometry.Shape, segments []model.SegmentInfo, tolerance float64, protected func(geometry.Vertex) bool) (geometry.Shape, Result) {
	out := shape.Clone()
	var res Result
	if len(segments) == 0 || !shape.Kind.IsMultipart() {
		return out, res
	}
	if protected == nil {
		protected = func(geometry.Vertex) bool { return false }
	}

	byPart := make(map[int][]model.SegmentInfo)
	for _, s := range segments {
		if s.PartIndex < 0 || s.PartIndex >= len(out.Parts) {
			res.Missing++
			continue
		}
		byPart[s.PartIndex] = append(byPart[s.PartIndex], s)
	}

	closed := shape.Kind == geometry.KindPolygon
	for pi, list := range byPart {
		sort.SliceStable(list, func(i, j int) bool { return list[i].RelativeIndex > list[j].RelativeIndex })

		w := newWorkPart(out.Parts[pi], closed)
		var partRes Result
		for _, seg := range list {
			s, ok := locate(w, seg, tolerance)
			if !ok {
				partRes.Missing++
				continue
			}
			if w.isNonLinear(s) {
				continue
			}
			if !w.canRemove() {
				partRes.Retained++
				continue
			}

			from, to := s, w.next(s)
			switch {
			case !protected(w.verts[to]) && !w.isPathEnd(to):
				w.remove(to)
			case !protected(w.verts[from]) && !w.isPathEnd(from):
				w.remove(from)
			default:
				continue
			}
			partRes.Removed++
		}
		if partRes.Removed > 0 {
			if w.collapsed() {
				partRes.CollapsedRings++
			}
			out.Parts[pi] = w.part()
		}
		res.add(partRes)
	}
	return out, res
}

// locate finds the segment of w described by seg. Indexes refer to the
// part as it was before any removal.
func locate(w *workPart, seg model.SegmentInfo, tolerance float64) (int, bool) {
	matches := func(s int) bool {
		return w.hasSegment(s) &&
			w.verts[s].Within(seg.From, tolerance) && w.verts[w.next(s)].Within(seg.To, tolerance)
	}
	if matches(seg.RelativeIndex) {
		return seg.RelativeIndex, true
	}
	for s := range w.verts {
		if matches(s) {
			return s, true
		}
	}
	return 0, false
}
