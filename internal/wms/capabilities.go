// internal/wms/capabilities.go - WMS capabilities document parsing
package wms

import (
	"encoding/xml"
	"fmt"

	"github.com/pawelpiwowarski/wms-scraper/internal/grid"
)

// capabilitiesDoc mirrors the WMS 1.1.1 GetCapabilities XML. Only the parts
// the scraper needs are mapped: the service block, the GetMap formats and
// the (possibly nested) layer tree.
type capabilitiesDoc struct {
	XMLName    xml.Name      `xml:""`
	Service    serviceDoc    `xml:"Service"`
	Capability capabilityDoc `xml:"Capability"`
}

type serviceDoc struct {
	Name     string `xml:"Name"`
	Title    string `xml:"Title"`
	Abstract string `xml:"Abstract"`
}

type capabilityDoc struct {
	Request requestDoc `xml:"Request"`
	Layer   layerDoc   `xml:"Layer"`
}

type requestDoc struct {
	GetMap getMapDoc `xml:"GetMap"`
}

type getMapDoc struct {
	Formats []string `xml:"Format"`
}

type layerDoc struct {
	Name      string     `xml:"Name"`
	Title     string     `xml:"Title"`
	Abstract  string     `xml:"Abstract"`
	SRS       []string   `xml:"SRS"`
	CRS       []string   `xml:"CRS"` // WMS 1.3.0 spelling, accepted for tolerance
	LatLonBox *latLonBox `xml:"LatLonBoundingBox"`
	GeoBox    *geoBox    `xml:"EX_GeographicBoundingBox"`
	Layers    []layerDoc `xml:"Layer"`
}

type latLonBox struct {
	MinX float64 `xml:"minx,attr"`
	MinY float64 `xml:"miny,attr"`
	MaxX float64 `xml:"maxx,attr"`
	MaxY float64 `xml:"maxy,attr"`
}

type geoBox struct {
	West  float64 `xml:"westBoundLongitude"`
	East  float64 `xml:"eastBoundLongitude"`
	South float64 `xml:"southBoundLatitude"`
	North float64 `xml:"northBoundLatitude"`
}

// Capabilities is the parsed service description
type Capabilities struct {
	ServiceName  string
	ServiceTitle string
	MapFormats   []string
	Layers       []Layer
}

// parseCapabilities decodes a capabilities document and flattens the layer
// tree. Nested layers inherit CRS options and bounding boxes from their
// ancestors when they declare none of their own; unnamed grouping layers
// are not listed themselves.
func parseCapabilities(data []byte) (*Capabilities, error) {
	var doc capabilitiesDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse capabilities XML: %w", err)
	}

	caps := &Capabilities{
		ServiceName:  doc.Service.Name,
		ServiceTitle: doc.Service.Title,
		MapFormats:   doc.Capability.Request.GetMap.Formats,
	}
	collectLayers(&doc.Capability.Layer, nil, nil, caps)
	return caps, nil
}

func collectLayers(node *layerDoc, inheritedCRS []string, inheritedBounds *grid.Bounds, caps *Capabilities) {
	crs := node.SRS
	if len(crs) == 0 {
		crs = node.CRS
	}
	if len(crs) == 0 {
		crs = inheritedCRS
	}

	bounds := boundsFromDoc(node)
	if bounds == nil {
		bounds = inheritedBounds
	}

	if node.Name != "" {
		caps.Layers = append(caps.Layers, Layer{
			Name:     node.Name,
			Title:    node.Title,
			Abstract: node.Abstract,
			CRS:      crs,
			Bounds:   bounds,
		})
	}

	for i := range node.Layers {
		collectLayers(&node.Layers[i], crs, bounds, caps)
	}
}

func boundsFromDoc(node *layerDoc) *grid.Bounds {
	if node.LatLonBox != nil {
		b, err := grid.NewBounds(node.LatLonBox.MinX, node.LatLonBox.MinY, node.LatLonBox.MaxX, node.LatLonBox.MaxY)
		if err == nil {
			return &b
		}
	}
	if node.GeoBox != nil {
		b, err := grid.NewBounds(node.GeoBox.West, node.GeoBox.South, node.GeoBox.East, node.GeoBox.North)
		if err == nil {
			return &b
		}
	}
	return nil
}

// FindLayer returns the layer with the given name
func (c *Capabilities) FindLayer(name string) (*Layer, bool) {
	for i := range c.Layers {
		if c.Layers[i].Name == name {
			return &c.Layers[i], true
		}
	}
	return nil, false
}

// LayerNames lists the advertised layer names in document order
func (c *Capabilities) LayerNames() []string {
	names := make([]string, 0, len(c.Layers))
	for _, l := range c.Layers {
		names = append(names, l.Name)
	}
	return names
}
