package geometry

import "math"

const (
	// GeographicXYTolerance is the default XY tolerance for coordinates in
	// degrees (about 1mm at the equator).
	GeographicXYTolerance = 8.983e-9
	// ProjectedXYTolerance is the default XY tolerance for planar
	// coordinates in metres.
	ProjectedXYTolerance = 0.001
)

// LooksGeographic reports whether the shape reads as longitude/latitude:
// every vertex lies in the degree range and at least one coordinate is
// finer than a millimetre grid. Degree coordinates carry more than three
// decimals, planar coordinates in metres near the origin usually do not.
func LooksGeographic(s Shape) bool {
	if s.IsEmpty() {
		return false
	}
	fine := false
	for _, p := range s.Parts {
		for _, v := range p.Vertices {
			if v.X < -180 || v.X > 180 || v.Y < -90 || v.Y > 90 {
				return false
			}
			fine = fine || finerThanMillimetre(v.X) || finerThanMillimetre(v.Y)
		}
	}
	return fine
}

func finerThanMillimetre(c float64) bool {
	scaled := c * 1000
	return math.Abs(scaled-math.Round(scaled)) > 1e-6
}

// EstimateXYTolerance suggests an XY tolerance for a shape whose spatial
// reference does not carry one.
func EstimateXYTolerance(s Shape) float64 {
	if LooksGeographic(s) {
		return GeographicXYTolerance
	}
	return ProjectedXYTolerance
}
