// internal/wms/types.go - WMS service types
package wms

import (
	"context"

	"github.com/pawelpiwowarski/wms-scraper/internal/grid"
)

// GetMapRequest describes a single fetch-by-bounding-box operation
type GetMapRequest struct {
	Layer  string
	CRS    string
	Bounds grid.Bounds
	Width  int
	Height int
	Format string
}

// Fetcher is the collaborator interface the pipelines depend on: one
// synchronous image fetch per tile. Retry policy, if any, lives behind the
// implementation, never in the pipelines.
type Fetcher interface {
	GetMap(ctx context.Context, req *GetMapRequest) ([]byte, error)
}

// Layer is a flattened view of one named layer advertised by the service
type Layer struct {
	Name     string
	Title    string
	Abstract string
	CRS      []string
	Bounds   *grid.Bounds
}

// BoundsOrDefault returns the layer's advertised lat/lon bounding box, or
// the full web-mercator-compatible extent when the service omits one.
func (l *Layer) BoundsOrDefault() grid.Bounds {
	if l.Bounds != nil {
		return *l.Bounds
	}
	return DefaultLatLonBounds
}

// DefaultLatLonBounds is the fallback extent used for layers that do not
// advertise a bounding box.
var DefaultLatLonBounds = grid.Bounds{
	MinX: -180,
	MinY: -85.0511287798066,
	MaxX: 180,
	MaxY: 85.0511287798066,
}
