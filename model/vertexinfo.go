package model

import (
	"github.com/cockroachdb/errors"

	"generalize-service/geometry"
)

// ErrNilParameter is returned when a required input is missing.
var ErrNilParameter = errors.New("required parameter is nil")

// MinimumVertexCount returns the smallest number of stored vertices a part
// may have: three plus the closing vertex for a ring, two for a path.
func MinimumVertexCount(closed bool) int {
	if closed {
		return 4
	}
	return 2
}

// FeatureVertexInfo holds the per-feature state of one generalize pass.
// Parts keep their stored order and orientation.
type FeatureVertexInfo struct {
	Feature *Feature
	Parts   []geometry.Part
	// Closed is true for polygons, whose parts are rings.
	Closed            bool
	Tolerance         float64
	LinearizeSegments bool

	crackPoints    *geometry.VertexSet
	pointsToDelete []geometry.Vertex
}

// Build creates one FeatureVertexInfo per feature. Features without
// geometry get zero parts. With linearize set, curve segments are densified
// at each feature's tolerance.
func Build(features []*Feature, linearize bool) ([]*FeatureVertexInfo, error) {
	infos := make([]*FeatureVertexInfo, 0, len(features))
	for i, f := range features {
		info, err := NewFeatureVertexInfo(f, linearize)
		if err != nil {
			return nil, errors.Wrapf(err, "feature %d", i)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// NewFeatureVertexInfo builds the vertex model of a single feature.
func NewFeatureVertexInfo(f *Feature, linearize bool) (*FeatureVertexInfo, error) {
	if f == nil {
		return nil, errors.WithStack(ErrNilParameter)
	}

	info := &FeatureVertexInfo{
		Feature:           f,
		Closed:            f.Shape.Kind == geometry.KindPolygon,
		Tolerance:         f.Tolerance(),
		LinearizeSegments: linearize,
	}
	info.Reset()

	// Empty shapes of a known kind still have to be multipart.
	if f.Shape.IsNull() {
		return info, nil
	}

	parts, err := f.Shape.MultipartParts()
	if err != nil {
		return nil, errors.Wrapf(err, "feature %s", f.Ref)
	}
	info.Parts = make([]geometry.Part, 0, len(parts))
	for _, p := range parts {
		if len(p.Vertices) == 0 {
			continue
		}
		if linearize {
			p = p.Linearize(info.Tolerance)
		} else {
			p = p.Clone()
		}
		info.Parts = append(info.Parts, p)
	}
	return info, nil
}

// Reset clears the derived sets so the info can be used for a new pass.
func (i *FeatureVertexInfo) Reset() {
	i.crackPoints = geometry.NewVertexSet(0)
	i.pointsToDelete = nil
}

// AddCrackPoint protects the coordinate v.
func (i *FeatureVertexInfo) AddCrackPoint(v geometry.Vertex) {
	i.crackPoints.Add(v)
}

// IsCrackPoint reports whether the coordinate v is protected.
func (i *FeatureVertexInfo) IsCrackPoint(v geometry.Vertex) bool {
	return i.crackPoints.Contains(v)
}

// CrackPoints returns the protected coordinates in lexicographic order.
func (i *FeatureVertexInfo) CrackPoints() []geometry.Vertex {
	return i.crackPoints.Points()
}

// CrackPointCount returns the number of protected coordinates.
func (i *FeatureVertexInfo) CrackPointCount() int {
	return i.crackPoints.Len()
}

// AddPointToDelete records v for deletion. The same coordinate may be added
// more than once when it occurs on several parts.
func (i *FeatureVertexInfo) AddPointToDelete(v geometry.Vertex) {
	i.pointsToDelete = append(i.pointsToDelete, v)
}

// PointsToDelete returns the vertices selected for deletion.
func (i *FeatureVertexInfo) PointsToDelete() []geometry.Vertex {
	return i.pointsToDelete
}

// Ref is a shortcut for the feature reference.
func (i *FeatureVertexInfo) Ref() FeatureRef {
	return i.Feature.Ref
}

// Shape returns the parts as a shape of the feature's kind.
func (i *FeatureVertexInfo) Shape() geometry.Shape {
	s := geometry.Shape{Kind: i.Feature.Shape.Kind, HasZ: i.Feature.Shape.HasZ}
	for _, p := range i.Parts {
		s.Parts = append(s.Parts, p.Clone())
	}
	return s
}

// VertexCount counts the stored vertices of all parts.
func (i *FeatureVertexInfo) VertexCount() int {
	count := 0
	for _, p := range i.Parts {
		count += len(p.Vertices)
	}
	return count
}
