package geometry

import "math"

// Distance calculates the Euclidean distance between two vertices in the XY plane
func Distance(a, b Vertex) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Distance3D calculates the Euclidean distance including Z
func Distance3D(a, b Vertex) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// DistanceToSegment returns the distance from p to the segment a-b.
// A zero-length segment degrades to the distance from p to a.
func DistanceToSegment(p, a, b Vertex, use3d bool) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	wx, wy := p.X-a.X, p.Y-a.Y
	var vz, wz float64
	if use3d {
		vz, wz = b.Z-a.Z, p.Z-a.Z
	}

	dist := Distance
	if use3d {
		dist = Distance3D
	}

	c1 := wx*vx + wy*vy + wz*vz
	if c1 <= 0 {
		return dist(p, a)
	}
	c2 := vx*vx + vy*vy + vz*vz
	if c2 <= c1 {
		return dist(p, b)
	}

	t := c1 / c2
	foot := Vertex{X: a.X + t*vx, Y: a.Y + t*vy, Z: a.Z + t*vz}
	return dist(p, foot)
}

// ChordDistance is DistanceToSegment evaluated with the chord endpoints in
// lexicographic order, so the result does not depend on the direction the
// chord was traversed in.
func ChordDistance(p, a, b Vertex, use3d bool) float64 {
	if b.Less(a) {
		a, b = b, a
	}
	return DistanceToSegment(p, a, b, use3d)
}

// SegmentsIntersect checks if two line segments intersect, touching included
func SegmentsIntersect(p1, p2, p3, p4 Vertex) bool {
	d1 := direction(p3, p4, p1)
	d2 := direction(p3, p4, p2)
	d3 := direction(p1, p2, p3)
	d4 := direction(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// Check for collinear cases
	if d1 == 0 && onSegment(p3, p4, p1) {
		return true
	}
	if d2 == 0 && onSegment(p3, p4, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, p3) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, p4) {
		return true
	}

	return false
}

// SegmentIntersection returns the crossing point of two segments that cross
// in their interiors. Collinear and touching configurations report false.
// Z is interpolated along the first segment.
func SegmentIntersection(p1, p2, p3, p4 Vertex) (Vertex, bool) {
	d1 := direction(p3, p4, p1)
	d2 := direction(p3, p4, p2)
	d3 := direction(p1, p2, p3)
	d4 := direction(p1, p2, p4)

	if !(((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))) {
		return Vertex{}, false
	}

	t := d1 / (d1 - d2)
	return Vertex{
		X: p1.X + t*(p2.X-p1.X),
		Y: p1.Y + t*(p2.Y-p1.Y),
		Z: p1.Z + t*(p2.Z-p1.Z),
	}, true
}

// direction calculates the cross product to determine orientation
func direction(p1, p2, p3 Vertex) float64 {
	return (p3.X-p1.X)*(p2.Y-p1.Y) - (p2.X-p1.X)*(p3.Y-p1.Y)
}

// onSegment checks if point q lies within the bounding box of segment pr
func onSegment(p, r, q Vertex) bool {
	return q.X <= math.Max(p.X, r.X) && q.X >= math.Min(p.X, r.X) &&
		q.Y <= math.Max(p.Y, r.Y) && q.Y >= math.Min(p.Y, r.Y)
}

// midpoint of the straight segment a-b
func midpoint(a, b Vertex) Vertex {
	return Vertex{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2, Z: (a.Z + b.Z) / 2}
}
