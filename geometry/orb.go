package geometry

import (
	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// FromOrb converts an orb geometry into a Shape. Curves cannot be expressed
// in orb, so every segment of the result is linear. Rings are closed if
// they are not already.
func FromOrb(g orb.Geometry) (Shape, error) {
	switch g := g.(type) {
	case nil:
		return Shape{}, nil
	case orb.Point:
		return Shape{Kind: KindPoint, Parts: []Part{pointPart(g)}}, nil
	case orb.MultiPoint:
		s := Shape{Kind: KindMultipoint}
		for _, p := range g {
			s.Parts = append(s.Parts, pointPart(p))
		}
		return s, nil
	case orb.LineString:
		return Shape{Kind: KindPolyline, Parts: []Part{linePart(g)}}, nil
	case orb.MultiLineString:
		s := Shape{Kind: KindPolyline}
		for _, ls := range g {
			s.Parts = append(s.Parts, linePart(ls))
		}
		return s, nil
	case orb.Ring:
		return Shape{Kind: KindPolygon, Parts: []Part{ringPart(g)}}, nil
	case orb.Polygon:
		s := Shape{Kind: KindPolygon}
		for _, r := range g {
			s.Parts = append(s.Parts, ringPart(r))
		}
		return s, nil
	case orb.MultiPolygon:
		s := Shape{Kind: KindPolygon}
		for _, poly := range g {
			for _, r := range poly {
				s.Parts = append(s.Parts, ringPart(r))
			}
		}
		return s, nil
	default:
		return Shape{}, errors.Wrapf(ErrUnsupportedGeometryKind, "orb geometry %s", g.GeoJSONType())
	}
}

// ToOrb converts a Shape into an orb geometry, linearizing curves at
// tolerance. Polygon parts are grouped into polygons by orientation: each
// clockwise ring after the first outer ring becomes a hole of the preceding
// outer ring.
func ToOrb(s Shape, tolerance float64) orb.Geometry {
	s = s.Linearize(tolerance)
	switch s.Kind {
	case KindPoint:
		if len(s.Parts) == 0 || len(s.Parts[0].Vertices) == 0 {
			return orb.Point{}
		}
		return s.Parts[0].Vertices[0].XY()
	case KindMultipoint:
		mp := make(orb.MultiPoint, 0, len(s.Parts))
		for _, p := range s.Parts {
			for _, v := range p.Vertices {
				mp = append(mp, v.XY())
			}
		}
		return mp
	case KindPolyline:
		if len(s.Parts) == 1 {
			return toLineString(s.Parts[0].Vertices)
		}
		mls := make(orb.MultiLineString, 0, len(s.Parts))
		for _, p := range s.Parts {
			mls = append(mls, toLineString(p.Vertices))
		}
		return mls
	case KindPolygon:
		var mp orb.MultiPolygon
		for _, p := range s.Parts {
			ring := orb.Ring(toLineString(p.Vertices))
			if len(mp) > 0 && ring.Orientation() == orb.CW {
				last := len(mp) - 1
				mp[last] = append(mp[last], ring)
				continue
			}
			mp = append(mp, orb.Polygon{ring})
		}
		if len(mp) == 1 {
			return mp[0]
		}
		return mp
	}
	return nil
}

// WKT renders the shape as well-known text.
func WKT(s Shape) string {
	g := ToOrb(s, EstimateXYTolerance(s))
	if g == nil {
		return "GEOMETRYCOLLECTION EMPTY"
	}
	return wkt.MarshalString(g)
}

func pointPart(p orb.Point) Part {
	return Part{Vertices: []Vertex{{X: p[0], Y: p[1]}}}
}

func linePart(ls orb.LineString) Part {
	verts := make([]Vertex, len(ls))
	for i, p := range ls {
		verts[i] = Vertex{X: p[0], Y: p[1]}
	}
	return Part{Vertices: verts}
}

func ringPart(r orb.Ring) Part {
	part := linePart(orb.LineString(r))
	if len(part.Vertices) > 0 && !part.IsClosed() {
		part.Vertices = append(part.Vertices, part.Vertices[0])
	}
	return part
}

func toLineString(verts []Vertex) orb.LineString {
	ls := make(orb.LineString, len(verts))
	for i, v := range verts {
		ls[i] = v.XY()
	}
	return ls
}
