package generalize

import (
	"github.com/cockroachdb/errors"

	"generalize-service/model"
	"generalize-service/protect"
	"generalize-service/spatial"
)

var (
	// ErrCancelled marks errors caused by a cancelled or expired request.
	ErrCancelled = errors.New("calculation cancelled")
	// ErrNilParameter is returned for missing required inputs.
	ErrNilParameter = model.ErrNilParameter
)

// Options of one calculate or apply request.
type Options struct {
	// ProtectTopologicalVertices protects vertices shared with other
	// features. When unset, removed vertices are also removed from the
	// target features sharing them.
	ProtectTopologicalVertices bool `json:"protectTopologicalVertices" yaml:"protectTopologicalVertices"`
	ProtectOnlyWithinSameClass bool `json:"protectOnlyWithinSameClass" yaml:"protectOnlyWithinSameClass"`
	// WeedTolerance of zero or less disables weeding.
	WeedTolerance         float64 `json:"weedTolerance" yaml:"weedTolerance"`
	WeedNonLinearSegments bool    `json:"weedNonLinearSegments" yaml:"weedNonLinearSegments"`
	Weed3D                bool    `json:"weed3D,omitempty" yaml:"weed3D"`
	// MinimumSegmentLength of zero or less disables short segment removal.
	MinimumSegmentLength float64 `json:"minimumSegmentLength" yaml:"minimumSegmentLength"`
	Use2DLength          bool    `json:"use2DLength" yaml:"use2DLength"`

	TargetScope        spatial.Scope                   `json:"targetScope" yaml:"targetScope"`
	CrackTolerance     float64                         `json:"crackTolerance,omitempty" yaml:"crackTolerance"`
	IntersectionPoints protect.IntersectionPointOption `json:"intersectionPoints" yaml:"intersectionPoints"`
}

// DefaultOptions protects shared vertices against visible features.
func DefaultOptions() Options {
	return Options{
		ProtectTopologicalVertices: true,
		Use2DLength:                true,
		TargetScope:                spatial.VisibleFeatures,
		IntersectionPoints:         protect.IncludeLinearIntersectionAllPoints,
	}
}

// Validate rejects option values no calculation can use.
func (o Options) Validate() error {
	if o.CrackTolerance < 0 {
		return errors.Newf("crack tolerance must not be negative, got %g", o.CrackTolerance)
	}
	return nil
}

// Target is a feature that is not edited but may protect vertices of the
// source features.
type Target struct {
	Feature *model.Feature
	// Visible features are candidates for the visible scope, others only
	// for the all scope.
	Visible bool
}
