package geometry

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
)

// ErrUnsupportedGeometryKind is returned when an operation needs a multipart
// (polyline or polygon) shape and gets something else.
var ErrUnsupportedGeometryKind = errors.New("unsupported geometry kind")

// Kind identifies the variant of a Shape.
type Kind int

const (
	KindUnknown Kind = iota
	KindPoint
	KindMultipoint
	KindPolyline
	KindPolygon
)

var kindNames = map[Kind]string{
	KindUnknown:    "unknown",
	KindPoint:      "point",
	KindMultipoint: "multipoint",
	KindPolyline:   "polyline",
	KindPolygon:    "polygon",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsMultipart reports whether shapes of this kind are made of ordered
// vertex sequences (paths or rings).
func (k Kind) IsMultipart() bool {
	return k == KindPolyline || k == KindPolygon
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return errors.Wrapf(ErrUnsupportedGeometryKind, "%q", string(text))
}

// SegmentType is the curve type of one segment of a part.
type SegmentType int

const (
	SegmentLinear SegmentType = iota
	SegmentCircularArc
	SegmentBezier
)

var segmentTypeNames = map[SegmentType]string{
	SegmentLinear:      "linear",
	SegmentCircularArc: "circularArc",
	SegmentBezier:      "bezier",
}

func (t SegmentType) String() string {
	if name, ok := segmentTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("segment(%d)", int(t))
}

func (t SegmentType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *SegmentType) UnmarshalText(text []byte) error {
	for st, name := range segmentTypeNames {
		if name == string(text) {
			*t = st
			return nil
		}
	}
	return errors.Newf("unknown segment type %q", string(text))
}

// Segment describes the curve between two consecutive vertices of a part.
// A circular arc carries one control point lying on the arc, a bezier
// carries its two control points.
type Segment struct {
	Type     SegmentType `json:"type,omitempty"`
	Controls []Vertex    `json:"controls,omitempty"`
}

// Vertex is a coordinate with an optional Z.
type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// XY drops the Z value.
func (v Vertex) XY() orb.Point {
	return orb.Point{v.X, v.Y}
}

// Equal2D reports exact equality of the X and Y ordinates.
func (v Vertex) Equal2D(o Vertex) bool {
	return v.X == o.X && v.Y == o.Y
}

// Within reports whether o lies within tolerance of v in the XY plane.
func (v Vertex) Within(o Vertex, tolerance float64) bool {
	if v.Equal2D(o) {
		return true
	}
	return Distance(v, o) <= tolerance
}

// Less orders vertices lexicographically by X, Y and Z.
func (v Vertex) Less(o Vertex) bool {
	if v.X != o.X {
		return v.X < o.X
	}
	if v.Y != o.Y {
		return v.Y < o.Y
	}
	return v.Z < o.Z
}

// Part is one path or ring of a multipart shape. Rings are stored closed,
// their last vertex repeating the first.
type Part struct {
	Vertices []Vertex `json:"vertices"`
	// Segments is empty when every segment is linear, otherwise it holds
	// one entry per segment.
	Segments []Segment `json:"segments,omitempty"`
}

// SegmentCount returns the number of segments between the part's vertices.
func (p Part) SegmentCount() int {
	if len(p.Vertices) < 2 {
		return 0
	}
	return len(p.Vertices) - 1
}

// SegmentAt returns segment i, linear when no curve information is stored.
func (p Part) SegmentAt(i int) Segment {
	if i >= 0 && i < len(p.Segments) {
		return p.Segments[i]
	}
	return Segment{}
}

// IsNonLinearSegment reports whether segment i is a curve.
func (p Part) IsNonLinearSegment(i int) bool {
	return p.SegmentAt(i).Type != SegmentLinear
}

// HasNonLinearSegments reports whether any segment is a curve.
func (p Part) HasNonLinearSegments() bool {
	for _, s := range p.Segments {
		if s.Type != SegmentLinear {
			return true
		}
	}
	return false
}

// IsClosed reports whether the last vertex repeats the first.
func (p Part) IsClosed() bool {
	n := len(p.Vertices)
	return n >= 2 && p.Vertices[0].Equal2D(p.Vertices[n-1])
}

// Clone returns a deep copy.
func (p Part) Clone() Part {
	out := Part{Vertices: append([]Vertex(nil), p.Vertices...)}
	if len(p.Segments) > 0 {
		out.Segments = make([]Segment, len(p.Segments))
		for i, s := range p.Segments {
			out.Segments[i] = Segment{Type: s.Type, Controls: append([]Vertex(nil), s.Controls...)}
		}
	}
	return out
}

// Shape is a closed tagged variant over point, multipoint, polyline and
// polygon geometries. Points and multipoints store one single-vertex part
// per point.
type Shape struct {
	Kind  Kind   `json:"kind"`
	HasZ  bool   `json:"hasZ,omitempty"`
	Parts []Part `json:"parts"`
}

// IsEmpty reports whether the shape has no vertices at all.
func (s Shape) IsEmpty() bool {
	return s.VertexCount() == 0
}

// IsNull reports a shape carrying no geometry at all, as opposed to an
// empty geometry of a known kind.
func (s Shape) IsNull() bool {
	return s.Kind == KindUnknown && s.IsEmpty()
}

// VertexCount counts stored vertices, including ring closing vertices.
func (s Shape) VertexCount() int {
	count := 0
	for _, p := range s.Parts {
		count += len(p.Vertices)
	}
	return count
}

// MultipartParts returns the parts of a polyline or polygon.
func (s Shape) MultipartParts() ([]Part, error) {
	if !s.Kind.IsMultipart() {
		return nil, errors.Wrapf(ErrUnsupportedGeometryKind, "%s is not a multipart geometry", s.Kind)
	}
	return s.Parts, nil
}

// Clone returns a deep copy.
func (s Shape) Clone() Shape {
	out := Shape{Kind: s.Kind, HasZ: s.HasZ, Parts: make([]Part, len(s.Parts))}
	for i, p := range s.Parts {
		out.Parts[i] = p.Clone()
	}
	return out
}

// Bound returns the XY envelope of all vertices and control points.
func (s Shape) Bound() orb.Bound {
	first := true
	var b orb.Bound
	extend := func(v Vertex) {
		if first {
			b = orb.Bound{Min: v.XY(), Max: v.XY()}
			first = false
			return
		}
		b = b.Extend(v.XY())
	}
	for _, p := range s.Parts {
		for _, v := range p.Vertices {
			extend(v)
		}
		for _, seg := range p.Segments {
			for _, c := range seg.Controls {
				extend(c)
			}
		}
	}
	return b
}
