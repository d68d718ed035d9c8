package model

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"generalize-service/geometry"
)

func square() geometry.Shape {
	return geometry.Shape{Kind: geometry.KindPolygon, Parts: []geometry.Part{{Vertices: []geometry.Vertex{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0},
	}}}}
}

func TestBuild(t *testing.T) {
	testCases := []struct {
		desc      string
		feature   *Feature
		parts     int
		closed    bool
		expectErr error
	}{
		{
			desc:    "polygon",
			feature: &Feature{Ref: FeatureRef{1, 1}, Shape: square(), XYTolerance: 0.01},
			parts:   1,
			closed:  true,
		},
		{
			desc: "polyline",
			feature: &Feature{Ref: FeatureRef{1, 2}, Shape: geometry.Shape{Kind: geometry.KindPolyline, Parts: []geometry.Part{
				{Vertices: []geometry.Vertex{{X: 0, Y: 0}, {X: 1, Y: 1}}},
				{Vertices: []geometry.Vertex{{X: 5, Y: 5}, {X: 6, Y: 6}}},
			}}},
			parts: 2,
		},
		{
			desc:    "empty geometry gives no parts",
			feature: &Feature{Ref: FeatureRef{1, 3}},
		},
		{
			desc: "point is rejected",
			feature: &Feature{Ref: FeatureRef{1, 4}, Shape: geometry.Shape{Kind: geometry.KindPoint, Parts: []geometry.Part{
				{Vertices: []geometry.Vertex{{X: 1, Y: 1}}},
			}}},
			expectErr: geometry.ErrUnsupportedGeometryKind,
		},
		{
			desc:      "empty point is rejected",
			feature:   &Feature{Ref: FeatureRef{1, 5}, Shape: geometry.Shape{Kind: geometry.KindPoint}},
			expectErr: geometry.ErrUnsupportedGeometryKind,
		},
		{
			desc:      "empty multipoint is rejected",
			feature:   &Feature{Ref: FeatureRef{1, 6}, Shape: geometry.Shape{Kind: geometry.KindMultipoint}},
			expectErr: geometry.ErrUnsupportedGeometryKind,
		},
		{
			desc:    "empty polyline gives no parts",
			feature: &Feature{Ref: FeatureRef{1, 7}, Shape: geometry.Shape{Kind: geometry.KindPolyline}},
		},
		{
			desc:      "nil feature",
			expectErr: ErrNilParameter,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			infos, err := Build([]*Feature{tc.feature}, false)
			if tc.expectErr != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tc.expectErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.Len(t, infos, 1)
			require.Len(t, infos[0].Parts, tc.parts)
			require.Equal(t, tc.closed, infos[0].Closed)
		})
	}
}

func TestBuildKeepsStoredOrder(t *testing.T) {
	shape := square()
	// Clockwise order must survive untouched.
	shape.Parts[0].Vertices = []geometry.Vertex{
		{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0},
	}
	infos, err := Build([]*Feature{{Shape: shape}}, false)
	require.NoError(t, err)
	require.Equal(t, shape.Parts[0].Vertices, infos[0].Parts[0].Vertices)

	infos[0].Parts[0].Vertices[1].X = 99
	require.Equal(t, 0.0, shape.Parts[0].Vertices[1].X, "source geometry must not be aliased")
}

func TestBuildLinearize(t *testing.T) {
	shape := geometry.Shape{Kind: geometry.KindPolyline, Parts: []geometry.Part{{
		Vertices: []geometry.Vertex{{X: 0, Y: 0}, {X: 10, Y: 0}},
		Segments: []geometry.Segment{{Type: geometry.SegmentCircularArc, Controls: []geometry.Vertex{{X: 5, Y: 5}}}},
	}}}
	infos, err := Build([]*Feature{{Shape: shape, XYTolerance: 0.01}}, true)
	require.NoError(t, err)
	require.False(t, infos[0].Parts[0].HasNonLinearSegments())
	require.Greater(t, len(infos[0].Parts[0].Vertices), 2)
	require.True(t, infos[0].LinearizeSegments)
}

func TestCrackPoints(t *testing.T) {
	info, err := NewFeatureVertexInfo(&Feature{Shape: square()}, false)
	require.NoError(t, err)
	info.AddCrackPoint(geometry.Vertex{X: 10, Y: 10})
	info.AddCrackPoint(geometry.Vertex{X: 0, Y: 0})
	info.AddCrackPoint(geometry.Vertex{X: 10, Y: 10})
	require.Equal(t, 2, info.CrackPointCount())
	require.True(t, info.IsCrackPoint(geometry.Vertex{X: 0, Y: 0}))
	require.False(t, info.IsCrackPoint(geometry.Vertex{X: 10, Y: 0}))
	require.Equal(t, []geometry.Vertex{{X: 0, Y: 0}, {X: 10, Y: 10}}, info.CrackPoints())

	info.AddPointToDelete(geometry.Vertex{X: 10, Y: 0})
	info.AddPointToDelete(geometry.Vertex{X: 10, Y: 0})
	require.Len(t, info.PointsToDelete(), 2)

	info.Reset()
	require.Zero(t, info.CrackPointCount())
	require.Empty(t, info.PointsToDelete())
}

func TestFeatureTolerance(t *testing.T) {
	require.Equal(t, 0.5, (&Feature{XYTolerance: 0.5}).Tolerance())
	require.Equal(t, geometry.ProjectedXYTolerance, (&Feature{Shape: square()}).Tolerance())

	degrees := geometry.Shape{Kind: geometry.KindPolygon, Parts: []geometry.Part{{Vertices: []geometry.Vertex{
		{X: 4.89523, Y: 52.37021}, {X: 4.90114, Y: 52.37021}, {X: 4.90114, Y: 52.36897}, {X: 4.89523, Y: 52.37021},
	}}}}
	require.Equal(t, geometry.GeographicXYTolerance, (&Feature{Shape: degrees}).Tolerance())
}

func TestRemovableSegmentsJSON(t *testing.T) {
	r := NewRemovableSegments()
	r.Add(&GeneralizedFeature{Ref: FeatureRef{2, 1}})
	r.Add(&GeneralizedFeature{Ref: FeatureRef{1, 7}, ShortSegments: []SegmentInfo{{PartIndex: 0, RelativeIndex: 3, AbsoluteIndex: 3}}})
	require.Equal(t, []FeatureRef{{1, 7}, {2, 1}}, r.Refs())

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded RemovableSegments
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, 2, decoded.Len())
	g, ok := decoded.Get(FeatureRef{1, 7})
	require.True(t, ok)
	require.Equal(t, 3, g.ShortSegments[0].RelativeIndex)
	require.False(t, g.IsEmpty())
}

func TestOverlaps(t *testing.T) {
	o := NewOverlaps()
	require.True(t, o.IsEmpty())
	run := geometry.Shape{Kind: geometry.KindPolyline, Parts: []geometry.Part{{Vertices: []geometry.Vertex{{X: 0, Y: 0}, {X: 1, Y: 0}}}}}
	o.Add(FeatureRef{1, 1}, run)
	o.Add(FeatureRef{1, 1})

	other := NewOverlaps()
	other.Add(FeatureRef{1, 1}, run)
	other.Add(FeatureRef{0, 9}, run)
	o.Merge(other)

	require.Equal(t, []FeatureRef{{0, 9}, {1, 1}}, o.Refs())
	require.Len(t, o.Get(FeatureRef{1, 1}), 2)

	data, err := json.Marshal(o)
	require.NoError(t, err)
	var decoded Overlaps
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, 2, decoded.Len())
}
