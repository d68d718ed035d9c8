package protect

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"

	"generalize-service/geometry"
	"generalize-service/model"
	"generalize-service/spatial"
)

// IntersectionPointOption controls which vertices of a shared linear
// stretch are protected.
type IntersectionPointOption int

const (
	// IncludeLinearIntersectionAllPoints protects every vertex along a
	// shared stretch.
	IncludeLinearIntersectionAllPoints IntersectionPointOption = iota
	// IncludeLinearIntersectionEndpoints protects only the two ends of
	// each shared stretch.
	IncludeLinearIntersectionEndpoints
)

var optionNames = map[IntersectionPointOption]string{
	IncludeLinearIntersectionAllPoints: "allPoints",
	IncludeLinearIntersectionEndpoints: "endpoints",
}

func (o IntersectionPointOption) String() string {
	if name, ok := optionNames[o]; ok {
		return name
	}
	return fmt.Sprintf("intersectionPointOption(%d)", int(o))
}

func (o IntersectionPointOption) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *IntersectionPointOption) UnmarshalText(text []byte) error {
	for opt, name := range optionNames {
		if name == string(text) {
			*o = opt
			return nil
		}
	}
	return errors.Newf("unknown intersection point option %q", string(text))
}

// CandidateFinder returns features whose envelope intersects bound. Results
// must be a superset of the features actually intersecting.
type CandidateFinder interface {
	FindCandidates(bound orb.Bound, scope spatial.Scope) []*model.Feature
}

type Options struct {
	Scope spatial.Scope
	// CrackTolerance is the minimum coincidence tolerance. Each feature
	// pair is tested within the largest of this and both XY tolerances.
	CrackTolerance     float64
	IntersectionPoints IntersectionPointOption
	// Topological enables protection against neighbouring features.
	Topological bool
	// SameClassOnly restricts neighbours to the feature's own class.
	SameClassOnly bool
	// ProtectNonLinearEndpoints protects both ends of every curve segment.
	ProtectNonLinearEndpoints bool
}

// Calculator populates the crack points of a batch of features.
type Calculator struct {
	Finder  CandidateFinder
	Options Options
	Logger  *slog.Logger
}

func (c *Calculator) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Calculate resets and fills the crack points of every info. It returns
// the shared linear stretches found against neighbouring features. The
// context is checked between features.
func (c *Calculator) Calculate(ctx context.Context, infos []*model.FeatureVertexInfo) (*model.Overlaps, error) {
	overlaps := model.NewOverlaps()
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return nil, errors.WithStack(err)
		}
		if info == nil {
			return nil, errors.WithStack(model.ErrNilParameter)
		}
		info.Reset()
		if len(info.Parts) == 0 {
			continue
		}
		c.calculateFeature(info, overlaps)
		c.logger().Debug("crack points calculated",
			slog.String("feature", info.Ref().String()),
			slog.Int("crackPoints", info.CrackPointCount()))
	}
	return overlaps, nil
}

func (c *Calculator) calculateFeature(info *model.FeatureVertexInfo, overlaps *model.Overlaps) {
	tolerance := math.Max(c.Options.CrackTolerance, info.Tolerance)

	for _, part := range info.Parts {
		if c.Options.ProtectNonLinearEndpoints {
			protectCurveEndpoints(info, part)
		}
		protectRepeatedVertices(info, part)
	}

	// The feature's own parts are compared like independent geometries.
	for k, part := range info.Parts {
		others := make([]geometry.Part, 0, len(info.Parts)-1)
		for j, p := range info.Parts {
			if j != k {
				others = append(others, p)
			}
		}
		c.applyIntersection(info, geometry.IntersectPart(part, info.Closed, others, tolerance))
	}

	if !c.Options.Topological || c.Finder == nil {
		return
	}

	bound := info.Shape().Bound().Pad(tolerance)
	for _, candidate := range c.Finder.FindCandidates(bound, c.Options.Scope) {
		if candidate == info.Feature || candidate.Ref == info.Ref() {
			continue
		}
		if c.Options.SameClassOnly && candidate.Ref.ClassID != info.Ref().ClassID {
			continue
		}
		if candidate.Shape.IsEmpty() {
			continue
		}
		pairTolerance := math.Max(tolerance, candidate.Tolerance())
		for _, part := range info.Parts {
			result := geometry.IntersectPart(part, info.Closed, candidate.Shape.Parts, pairTolerance)
			c.applyIntersection(info, result)
			for _, run := range result.Runs {
				overlaps.Add(info.Ref(), runShape(run, info.Feature.Shape.HasZ))
			}
		}
	}
}

func (c *Calculator) applyIntersection(info *model.FeatureVertexInfo, result geometry.Intersection) {
	for _, v := range result.Touches {
		info.AddCrackPoint(v)
	}
	for _, run := range result.Runs {
		switch c.Options.IntersectionPoints {
		case IncludeLinearIntersectionEndpoints:
			for _, v := range run.Endpoints() {
				info.AddCrackPoint(v)
			}
		default:
			for _, v := range run.Vertices {
				info.AddCrackPoint(v)
			}
		}
	}
}

func protectCurveEndpoints(info *model.FeatureVertexInfo, part geometry.Part) {
	for s := 0; s < part.SegmentCount(); s++ {
		if part.IsNonLinearSegment(s) {
			info.AddCrackPoint(part.Vertices[s])
			info.AddCrackPoint(part.Vertices[s+1])
		}
	}
}

// protectRepeatedVertices protects coordinates a part passes through more
// than once, other than consecutive duplicates and the ring closure.
func protectRepeatedVertices(info *model.FeatureVertexInfo, part geometry.Part) {
	verts := part.Vertices
	if info.Closed && part.IsClosed() {
		verts = verts[:len(verts)-1]
	}
	seen := make(map[geometry.Vertex]int, len(verts))
	for i, v := range verts {
		key := geometry.Vertex{X: v.X, Y: v.Y}
		if j, ok := seen[key]; ok && !adjacent(i, j, len(verts), info.Closed) {
			info.AddCrackPoint(v)
		}
		seen[key] = i
	}
}

func adjacent(i, j, n int, closed bool) bool {
	if i-j == 1 || j-i == 1 {
		return true
	}
	return closed && ((i == 0 && j == n-1) || (j == 0 && i == n-1))
}

func runShape(run geometry.Run, hasZ bool) geometry.Shape {
	return geometry.Shape{
		Kind:  geometry.KindPolyline,
		HasZ:  hasZ,
		Parts: []geometry.Part{{Vertices: append([]geometry.Vertex(nil), run.Vertices...)}},
	}
}
