package model

import (
	"fmt"

	"generalize-service/geometry"
)

// FeatureRef identifies a feature across a process boundary.
type FeatureRef struct {
	ClassID  int64 `json:"classId"`
	ObjectID int64 `json:"objectId"`
}

func (r FeatureRef) String() string {
	return fmt.Sprintf("%d/%d", r.ClassID, r.ObjectID)
}

// Less orders references by class, then object id.
func (r FeatureRef) Less(o FeatureRef) bool {
	if r.ClassID != o.ClassID {
		return r.ClassID < o.ClassID
	}
	return r.ObjectID < o.ObjectID
}

// Feature is a materialized feature snapshot. The shape is never mutated by
// the engine.
type Feature struct {
	Ref   FeatureRef     `json:"ref"`
	Shape geometry.Shape `json:"shape"`
	// XYTolerance of the feature's spatial reference, zero when unknown.
	XYTolerance float64 `json:"xyTolerance,omitempty"`
	ZTolerance  float64 `json:"zTolerance,omitempty"`
}

// Tolerance returns the XY tolerance, estimated from the coordinates when
// the feature carries none.
func (f *Feature) Tolerance() float64 {
	if f.XYTolerance > 0 {
		return f.XYTolerance
	}
	return geometry.EstimateXYTolerance(f.Shape)
}
