package tmap

import (
	"fmt"
	"math"

	"github.com/histoviz/tmapgen/pkg/layer"
)

// minArcDistance is the target arc length between consecutive points of a
// tessellated ellipse, so point density grows with the ellipse and the
// curvature error stays bounded.
const minArcDistance = 3.0

// minEllipsePoints keeps small ellipses visually round.
const minEllipsePoints = 10

// FeatureCollection is the GeoJSON-like shapes document written to
// regions.json or inlined into the manifest.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection returns an empty collection.
func NewFeatureCollection() *FeatureCollection {
	return &FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
}

// Feature is one shape record with its display and classification metadata.
type Feature struct {
	Type       string            `json:"type"`
	Geometry   Geometry          `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

// Geometry holds the feature's coordinates as a single-ring MultiPolygon,
// points in (x, y) order.
type Geometry struct {
	Type        string           `json:"type"`
	Coordinates [][][][2]float64 `json:"coordinates"`
}

// FeatureProperties carries the display metadata of one feature.
type FeatureProperties struct {
	Name           string         `json:"name"`
	Classification Classification `json:"classification"`
	Color          [3]int         `json:"color"`
	IsLocked       bool           `json:"isLocked"`
	Extra          map[string]any `json:"extra"`
}

// Classification names the feature class; empty for exported shapes.
type Classification struct {
	Name string `json:"name"`
}

// Features converts the shape records of one shapes layer into features.
// Each shape becomes a closed ring of (x, y) points: ellipses are
// tessellated, open polylines are traversed forward then backward so the
// polygon renderer draws them as zero-width outlines, and polygons and
// rectangles pass through unchanged. Feature names are
// "<layer>_<shapetype>_<n>" with n counting from 1.
func Features(shapes []layer.Shape, meta layer.Meta) (*FeatureCollection, error) {
	fc := NewFeatureCollection()
	props := meta.PropertyOrder()

	for i, shape := range shapes {
		st := meta.ShapeTypes[i]
		ring, err := shapeRing(shape, st)
		if err != nil {
			return nil, fmt.Errorf("layer %q: shape %d: %w", meta.Name, i, err)
		}

		extra := map[string]any{}
		for _, name := range props {
			extra[name] = meta.Properties[name][i]
		}

		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "MultiPolygon",
				Coordinates: [][][][2]float64{{swapAxes(ring)}},
			},
			Properties: FeatureProperties{
				Name:     fmt.Sprintf("%s_%s_%d", meta.Name, st, i+1),
				Color:    meta.FaceColor[i].RGB255(),
				IsLocked: false,
				Extra:    extra,
			},
		})
	}
	return fc, nil
}

// shapeRing extracts the ring of a shape record in host (row, col) order.
func shapeRing(shape layer.Shape, st layer.ShapeType) (layer.Shape, error) {
	switch st {
	case layer.ShapeEllipse:
		return ellipseRing(shape)
	case layer.ShapeLine, layer.ShapePath:
		if len(shape) < 2 {
			return nil, fmt.Errorf("%s has %d points, want at least 2", st, len(shape))
		}
		return foldBack(shape), nil
	case layer.ShapePolygon, layer.ShapeRectangle:
		return shape, nil
	}
	return nil, fmt.Errorf("unknown shape type %q", st)
}

// ellipseRing tessellates an ellipse given the four corners of its bounding
// box. The center is the midpoint of the corner diagonal; the semi-axis
// vectors point from the center to the second corner. The point count grows
// with the longer semi-axis so the arc length between samples stays near
// minArcDistance, with a floor of minEllipsePoints. The ring is closed: the
// first point repeats at the end.
func ellipseRing(shape layer.Shape) (layer.Shape, error) {
	if len(shape) != 4 {
		return nil, fmt.Errorf("ellipse has %d points, want 4", len(shape))
	}

	center := layer.Point{
		Row: (shape[0].Row + shape[2].Row) / 2,
		Col: (shape[0].Col + shape[1].Col) / 2,
	}
	a := shape[1].Row - center.Row
	b := shape[1].Col - center.Col

	maxAxis := math.Max(math.Abs(a), math.Abs(b))
	n := int(math.Ceil(2 * math.Pi * maxAxis / minArcDistance))
	if n < minEllipsePoints {
		n = minEllipsePoints
	}

	ring := make(layer.Shape, 0, n+1)
	for k := 0; k < n; k++ {
		theta := 2 * math.Pi * float64(k) / float64(n)
		ring = append(ring, layer.Point{
			Row: a*math.Cos(theta) + center.Row,
			Col: b*math.Sin(theta) + center.Col,
		})
	}
	// The sample at 2π is the sample at 0; repeat it exactly so the ring
	// closes without trigonometric rounding noise.
	ring = append(ring, ring[0])
	return ring, nil
}

// foldBack closes an open polyline by appending its reverse without the
// shared endpoint, yielding a degenerate ring of 2k-1 points.
func foldBack(points layer.Shape) layer.Shape {
	ring := make(layer.Shape, 0, 2*len(points)-1)
	ring = append(ring, points...)
	for i := len(points) - 2; i >= 0; i-- {
		ring = append(ring, points[i])
	}
	return ring
}

// swapAxes converts a (row, col) ring to the target's (x, y) convention.
func swapAxes(ring layer.Shape) [][2]float64 {
	out := make([][2]float64, len(ring))
	for i, p := range ring {
		out[i] = [2]float64{p.Col, p.Row}
	}
	return out
}
