package geometry

import "math"

const (
	maxCurveSplits  = 16
	maxArcDivisions = 4096
)

// Linearize returns a copy of the shape with every curve segment replaced by
// straight segments deviating from the curve by at most tolerance.
func (s Shape) Linearize(tolerance float64) Shape {
	out := Shape{Kind: s.Kind, HasZ: s.HasZ, Parts: make([]Part, len(s.Parts))}
	for i, p := range s.Parts {
		out.Parts[i] = p.Linearize(tolerance)
	}
	return out
}

// Linearize returns a copy of the part with only linear segments.
func (p Part) Linearize(tolerance float64) Part {
	if !p.HasNonLinearSegments() {
		return Part{Vertices: append([]Vertex(nil), p.Vertices...)}
	}

	out := Part{Vertices: make([]Vertex, 0, len(p.Vertices))}
	if len(p.Vertices) > 0 {
		out.Vertices = append(out.Vertices, p.Vertices[0])
	}
	for i := 0; i+1 < len(p.Vertices); i++ {
		start, end := p.Vertices[i], p.Vertices[i+1]
		seg := p.SegmentAt(i)
		switch {
		case seg.Type == SegmentCircularArc && len(seg.Controls) >= 1:
			out.Vertices = append(out.Vertices, flattenArc(start, seg.Controls[0], end, tolerance)...)
		case seg.Type == SegmentBezier && len(seg.Controls) >= 2:
			var pts []Vertex
			flattenCubic(start, seg.Controls[0], seg.Controls[1], end, tolerance, 0, &pts)
			out.Vertices = append(out.Vertices, pts...)
		default:
			out.Vertices = append(out.Vertices, end)
		}
	}
	return out
}

// flattenArc densifies the circular arc from start through mid to end.
// The start vertex is not included in the result, the end vertex is.
func flattenArc(start, mid, end Vertex, tolerance float64) []Vertex {
	cx, cy, ok := circumcenter(start, mid, end)
	if !ok {
		return []Vertex{end}
	}
	r := math.Hypot(start.X-cx, start.Y-cy)

	a0 := math.Atan2(start.Y-cy, start.X-cx)
	am := math.Atan2(mid.Y-cy, mid.X-cx)
	a1 := math.Atan2(end.Y-cy, end.X-cx)

	// Sweep counter-clockwise from a0 to a1, or clockwise when mid is not
	// on the counter-clockwise side.
	ccw := normalizeAngle(a1 - a0)
	sweep := ccw
	if normalizeAngle(am-a0) > ccw {
		sweep = ccw - 2*math.Pi
	}
	if start.Equal2D(end) {
		// Full circle through mid.
		sweep = 2 * math.Pi
		if direction(start, mid, Vertex{X: cx, Y: cy}) > 0 {
			sweep = -sweep
		}
	}

	step := math.Pi / 2
	if tolerance > 0 && tolerance < r {
		step = 2 * math.Acos(1-tolerance/r)
	}
	count := int(math.Ceil(math.Abs(sweep) / step))
	if count < 1 {
		count = 1
	}
	if count > maxArcDivisions {
		count = maxArcDivisions
	}

	pts := make([]Vertex, 0, count)
	for k := 1; k < count; k++ {
		f := float64(k) / float64(count)
		a := a0 + f*sweep
		pts = append(pts, Vertex{
			X: cx + r*math.Cos(a),
			Y: cy + r*math.Sin(a),
			Z: start.Z + f*(end.Z-start.Z),
		})
	}
	return append(pts, end)
}

// flattenCubic subdivides a cubic bezier until its control points are
// within tolerance of the chord, appending all points after p0.
func flattenCubic(p0, p1, p2, p3 Vertex, tolerance float64, depth int, out *[]Vertex) {
	if depth >= maxCurveSplits ||
		(DistanceToSegment(p1, p0, p3, false) <= tolerance && DistanceToSegment(p2, p0, p3, false) <= tolerance) {
		*out = append(*out, p3)
		return
	}

	p01 := midpoint(p0, p1)
	p12 := midpoint(p1, p2)
	p23 := midpoint(p2, p3)
	p012 := midpoint(p01, p12)
	p123 := midpoint(p12, p23)
	mid := midpoint(p012, p123)

	flattenCubic(p0, p01, p012, mid, tolerance, depth+1, out)
	flattenCubic(mid, p123, p23, p3, tolerance, depth+1, out)
}

func circumcenter(a, b, c Vertex) (float64, float64, bool) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if math.Abs(d) < 1e-12 {
		return 0, 0, false
	}
	a2 := a.X*a.X + a.Y*a.Y
	b2 := b.X*b.X + b.Y*b.Y
	c2 := c.X*c.X + c.Y*c.Y
	x := (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d
	y := (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d
	return x, y, true
}

// normalizeAngle maps an angle into [0, 2π).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
