// internal/geodesy/area.go - Spherical polygon surface area
package geodesy

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/pawelpiwowarski/wms-scraper/internal"
	"github.com/pawelpiwowarski/wms-scraper/internal/grid"
)

// ErrInvalidGeometry reports a degenerate bounding box whose computed
// surface area is non-finite or not strictly positive. Callers treat it as
// "area unknown", never as a fatal error.
var ErrInvalidGeometry = internal.NewError(internal.ErrorCodeGeometry,
	"computed area is not a valid surface area", nil)

// Area computes the surface area, in square kilometers, enclosed by the
// bounding box on a sphere of the given radius (flattening zero). The box's
// Y axis is interpreted as latitude and X as longitude, and the polygon is
// built vertex order top-left, bottom-left, bottom-right, top-right.
//
// The spherical integration runs on the reference sphere and is rescaled by
// the square of the radius ratio, so the result is exact for any body size.
func Area(b grid.Bounds, radiusKm float64) (float64, error) {
	if radiusKm <= 0 {
		return 0, internal.NewError(internal.ErrorCodeValidation,
			fmt.Sprintf("body radius must be positive, got %v km", radiusKm), nil)
	}

	ring := orb.Ring{
		{b.MinX, b.MaxY}, // top left
		{b.MinX, b.MinY}, // bottom left
		{b.MaxX, b.MinY}, // bottom right
		{b.MaxX, b.MaxY}, // top right
		{b.MinX, b.MaxY},
	}

	scale := radiusKm * 1000 / orb.EarthRadius
	areaKm2 := geo.Area(ring) * scale * scale / 1e6

	if math.IsNaN(areaKm2) || math.IsInf(areaKm2, 0) || areaKm2 <= 0 {
		return 0, fmt.Errorf("bounding box (%s) on radius %v km: %w", b, radiusKm, ErrInvalidGeometry)
	}

	return areaKm2, nil
}
