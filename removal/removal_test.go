package removal

import (
	"testing"

	"github.com/stretchr/testify/require"

	"generalize-service/geometry"
	"generalize-service/model"
)

func v(x, y float64) geometry.Vertex { return geometry.Vertex{X: x, Y: y} }

func polygon(rings ...[]geometry.Vertex) geometry.Shape {
	s := geometry.Shape{Kind: geometry.KindPolygon}
	for _, r := range rings {
		s.Parts = append(s.Parts, geometry.Part{Vertices: append(append([]geometry.Vertex(nil), r...), r[0])})
	}
	return s
}

func polyline(paths ...[]geometry.Vertex) geometry.Shape {
	s := geometry.Shape{Kind: geometry.KindPolyline}
	for _, p := range paths {
		s.Parts = append(s.Parts, geometry.Part{Vertices: p})
	}
	return s
}

func TestRemovePoints(t *testing.T) {
	testCases := []struct {
		desc     string
		shape    geometry.Shape
		points   []geometry.Vertex
		expected geometry.Shape
		result   Result
	}{
		{
			desc:     "interior ring vertex",
			shape:    polygon([]geometry.Vertex{v(0, 0), v(5, 0), v(10, 0), v(10, 10), v(0, 10)}),
			points:   []geometry.Vertex{v(5, 0)},
			expected: polygon([]geometry.Vertex{v(0, 0), v(10, 0), v(10, 10), v(0, 10)}),
			result:   Result{Removed: 1},
		},
		{
			desc:     "ring start vertex moves the seam",
			shape:    polygon([]geometry.Vertex{v(5, 0), v(10, 0), v(10, 10), v(0, 10), v(0, 0)}),
			points:   []geometry.Vertex{v(5, 0)},
			expected: polygon([]geometry.Vertex{v(10, 0), v(10, 10), v(0, 10), v(0, 0)}),
			result:   Result{Removed: 1},
		},
		{
			desc:     "matching within tolerance",
			shape:    polyline([]geometry.Vertex{v(0, 0), v(1, 0), v(2, 0)}),
			points:   []geometry.Vertex{v(1.0005, 0)},
			expected: polyline([]geometry.Vertex{v(0, 0), v(2, 0)}),
			result:   Result{Removed: 1},
		},
		{
			desc:     "minimum ring size is kept",
			shape:    polygon([]geometry.Vertex{v(0, 0), v(10, 0), v(10, 10), v(0, 10)}),
			points:   []geometry.Vertex{v(10, 0), v(0, 10)},
			expected: polygon([]geometry.Vertex{v(0, 0), v(10, 10), v(0, 10)}),
			result:   Result{Removed: 1, Retained: 1},
		},
		{
			desc:  "duplicate coordinate removed as often as listed",
			shape: polyline([]geometry.Vertex{v(0, 0), v(1, 0), v(2, 0)}, []geometry.Vertex{v(1, 0), v(1, 5), v(1, 10)}),
			points: []geometry.Vertex{
				v(1, 0), v(1, 5),
			},
			expected: polyline([]geometry.Vertex{v(0, 0), v(2, 0)}, []geometry.Vertex{v(1, 0), v(1, 10)}),
			result:   Result{Removed: 2},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got, res := RemovePoints(tc.shape, tc.points, 0.001)
			require.Equal(t, tc.expected, got)
			require.Equal(t, tc.result, res)
		})
	}
}

func TestRemovePointsDoesNotMutateInput(t *testing.T) {
	shape := polygon([]geometry.Vertex{v(0, 0), v(5, 0), v(10, 0), v(10, 10), v(0, 10)})
	before := shape.Clone()
	_, _ = RemovePoints(shape, []geometry.Vertex{v(5, 0)}, 0.001)
	require.Equal(t, before, shape)
}

func TestRemovePointsMergesCurveSegment(t *testing.T) {
	shape := geometry.Shape{Kind: geometry.KindPolyline, Parts: []geometry.Part{{
		Vertices: []geometry.Vertex{v(0, 0), v(5, 0), v(10, 0), v(20, 0)},
		Segments: []geometry.Segment{{}, {}, {Type: geometry.SegmentCircularArc, Controls: []geometry.Vertex{v(15, 3)}}},
	}}}
	got, res := RemovePoints(shape, []geometry.Vertex{v(5, 0)}, 0.001)
	require.Equal(t, 1, res.Removed)
	require.Equal(t, []geometry.Vertex{v(0, 0), v(10, 0), v(20, 0)}, got.Parts[0].Vertices)
	require.Len(t, got.Parts[0].Segments, 2)
	require.Equal(t, geometry.SegmentLinear, got.Parts[0].Segments[0].Type)
	require.Equal(t, geometry.SegmentCircularArc, got.Parts[0].Segments[1].Type)
}

func TestFindShortSegments(t *testing.T) {
	shape := polyline(
		[]geometry.Vertex{v(0, 0), v(0.25, 0), v(10, 0)},
		[]geometry.Vertex{v(20, 0), v(30, 0), v(30.125, 0)},
	)
	found := FindShortSegments(shape, 0.5, true, nil)
	require.Equal(t, []model.SegmentInfo{
		{From: v(0, 0), To: v(0.25, 0), AbsoluteIndex: 0, PartIndex: 0, RelativeIndex: 0, Length: 0.25},
		{From: v(30, 0), To: v(30.125, 0), AbsoluteIndex: 3, PartIndex: 1, RelativeIndex: 1, Length: 0.125},
	}, found)

	protected := func(p geometry.Vertex) bool { return p == v(0, 0) || p == v(0.25, 0) }
	require.Len(t, FindShortSegments(shape, 0.5, true, protected), 1)
	require.Empty(t, FindShortSegments(shape, 0, true, nil))
}

func TestFindShortSegments3D(t *testing.T) {
	shape := geometry.Shape{Kind: geometry.KindPolyline, HasZ: true, Parts: []geometry.Part{{Vertices: []geometry.Vertex{
		{X: 0, Y: 0, Z: 0}, {X: 0.1, Y: 0, Z: 5}, {X: 10, Y: 0, Z: 5},
	}}}}
	require.Len(t, FindShortSegments(shape, 0.5, true, nil), 1)
	require.Empty(t, FindShortSegments(shape, 0.5, false, nil))
}

func TestRemoveShortSegments(t *testing.T) {
	ringVerts := []geometry.Vertex{v(0, 0), v(10, 0), v(10.1, 0), v(10, 10), v(0, 10)}
	shape := polygon(ringVerts)
	segments := FindShortSegments(shape, 0.5, true, nil)
	require.Len(t, segments, 1)

	got, res := RemoveShortSegments(shape, segments, 0.001, nil)
	require.Equal(t, Result{Removed: 1}, res)
	require.Equal(t, polygon([]geometry.Vertex{v(0, 0), v(10, 0), v(10, 10), v(0, 10)}), got)

	// A protected end vertex makes the start vertex go instead.
	protected := func(p geometry.Vertex) bool { return p == v(10.1, 0) }
	got, _ = RemoveShortSegments(shape, segments, 0.001, protected)
	require.Equal(t, polygon([]geometry.Vertex{v(0, 0), v(10.1, 0), v(10, 10), v(0, 10)}), got)
}

func TestRemoveShortSegmentsPathEnd(t *testing.T) {
	shape := polyline([]geometry.Vertex{v(0, 0), v(5, 0), v(5.1, 0)})
	segments := FindShortSegments(shape, 0.5, true, nil)
	got, res := RemoveShortSegments(shape, segments, 0.001, nil)
	require.Equal(t, 1, res.Removed)
	require.Equal(t, polyline([]geometry.Vertex{v(0, 0), v(5.1, 0)}), got)
}

func TestRemoveShortSegmentsShiftedIndexes(t *testing.T) {
	shape := polyline([]geometry.Vertex{v(0, 0), v(5, 0), v(5.1, 0), v(10, 0), v(10.2, 0), v(20, 0)})
	segments := FindShortSegments(shape, 0.5, true, nil)
	require.Len(t, segments, 2)

	// The geometry was fetched again with one more leading vertex.
	refetched := polyline([]geometry.Vertex{v(-5, 0), v(0, 0), v(5, 0), v(5.1, 0), v(10, 0), v(10.2, 0), v(20, 0)})
	got, res := RemoveShortSegments(refetched, segments, 0.001, nil)
	require.Equal(t, Result{Removed: 2}, res)
	require.Equal(t, polyline([]geometry.Vertex{v(-5, 0), v(0, 0), v(5, 0), v(10, 0), v(20, 0)}), got)

	_, res = RemoveShortSegments(shape, []model.SegmentInfo{{PartIndex: 0, RelativeIndex: 0, From: v(77, 0), To: v(78, 0)}}, 0.001, nil)
	require.Equal(t, 1, res.Missing)
}

func TestRemovePointsLargePart(t *testing.T) {
	const n = 200000
	verts := make([]geometry.Vertex, n)
	var points []geometry.Vertex
	for i := range verts {
		verts[i] = v(float64(i), float64(i%2))
		if i%2 == 1 {
			points = append(points, verts[i])
		}
	}
	got, res := RemovePoints(polyline(verts), points, 0.001)
	require.Equal(t, n/2, res.Removed)
	require.Len(t, got.Parts[0].Vertices, n/2)
	for _, p := range got.Parts[0].Vertices {
		require.Zero(t, p.Y)
	}
}

func TestRemovePointsRingSeamCurve(t *testing.T) {
	shape := geometry.Shape{Kind: geometry.KindPolygon, Parts: []geometry.Part{{
		Vertices: []geometry.Vertex{v(0, 0), v(10, 0), v(10, 10), v(5, 10), v(0, 10), v(0, 0)},
		Segments: []geometry.Segment{
			{}, {Type: geometry.SegmentCircularArc, Controls: []geometry.Vertex{v(12, 5)}}, {}, {}, {},
		},
	}}}
	got, res := RemovePoints(shape, []geometry.Vertex{v(0, 0), v(5, 10)}, 0.001)
	require.Equal(t, Result{Removed: 2}, res)
	part := got.Parts[0]
	require.Equal(t, []geometry.Vertex{v(10, 0), v(10, 10), v(0, 10), v(10, 0)}, part.Vertices)
	require.Len(t, part.Segments, 3)
	require.Equal(t, geometry.SegmentCircularArc, part.Segments[0].Type)
	require.Equal(t, geometry.SegmentLinear, part.Segments[1].Type)
	require.Equal(t, geometry.SegmentLinear, part.Segments[2].Type)
}
