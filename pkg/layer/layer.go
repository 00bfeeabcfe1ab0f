// Package layer defines the in-memory layer records handed over by a host
// viewer. A layer couples a payload (raster, label matrix, point set, or
// shape list) with display metadata and a kind tag.
//
// The host-side contract is loose (a tuple of payload, metadata mapping,
// and type string), so this package pins it down: each kind has a dedicated
// payload field, metadata is a typed struct, and [Layer.Validate] checks the
// cross-field consistency once at the boundary instead of every consumer
// probing the metadata ad hoc.
package layer

import (
	"fmt"
	"image"
	"sort"
)

// Layer kinds. The set is closed on the exporter side; kinds outside it are
// skipped with a warning so a newer host can still hand over its full list.
const (
	TypeImage  Type = "image"
	TypeLabels Type = "labels"
	TypePoints Type = "points"
	TypeShapes Type = "shapes"
)

// Shape record kinds within a shapes layer.
const (
	ShapeEllipse   ShapeType = "ellipse"
	ShapeLine      ShapeType = "line"
	ShapePath      ShapeType = "path"
	ShapePolygon   ShapeType = "polygon"
	ShapeRectangle ShapeType = "rectangle"
)

// Type identifies the kind of payload a layer carries.
type Type string

// Known reports whether the exporter understands this layer kind.
func (t Type) Known() bool {
	switch t {
	case TypeImage, TypeLabels, TypePoints, TypeShapes:
		return true
	}
	return false
}

// ShapeType identifies the geometric primitive of one shape record.
type ShapeType string

// Point is a 2-D coordinate in the host's (row, col) convention. The target
// format uses (x, y); the swap happens during serialization, never here.
type Point struct {
	Row float64
	Col float64
}

// Shape is the ordered vertex list of a single shape record.
type Shape []Point

// RGBA is a color with float components in [0, 1], alpha last.
type RGBA [4]float64

// RGB255 converts the color to an integer RGB triple in [0, 255],
// dropping alpha. Components are truncated, not rounded.
func (c RGBA) RGB255() [3]int {
	var out [3]int
	for i := 0; i < 3; i++ {
		out[i] = int(255 * c[i])
	}
	return out
}

// Hex renders the color as "#RRGGBB", dropping alpha.
func (c RGBA) Hex() string {
	rgb := c.RGB255()
	return fmt.Sprintf("#%02X%02X%02X", rgb[0], rgb[1], rgb[2])
}

// Meta holds the display metadata of a layer. Which fields are meaningful
// depends on the layer kind; Validate enforces the per-kind requirements.
type Meta struct {
	// Name is the layer name, used as the filename stem of every artifact
	// generated for this layer. Names must be unique within a kind or the
	// generated files overwrite each other.
	Name string

	// Opacity is the display opacity in [0, 1].
	Opacity float64

	// Visible is the initial visibility toggle.
	Visible bool

	// FaceColor holds one fill color per point (points layers) or per shape
	// record (shapes layers).
	FaceColor []RGBA

	// ShapeTypes tags each shape record of a shapes layer.
	ShapeTypes []ShapeType

	// Symbol is the marker glyph of a points layer (e.g. "disc", "star").
	Symbol string

	// Properties maps a property name to one scalar per point or shape.
	Properties map[string][]any

	// PropertyNames fixes the column/property order. When empty, names are
	// sorted so output stays deterministic.
	PropertyNames []string

	// LabelColors maps a label value of a labels layer to its display color.
	LabelColors map[int]RGBA
}

// PropertyOrder returns the property names in output order.
func (m Meta) PropertyOrder() []string {
	if len(m.PropertyNames) > 0 {
		return m.PropertyNames
	}
	names := make([]string, 0, len(m.Properties))
	for name := range m.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Layer is one named visual data unit from the host viewer. Exactly one
// payload field is set, matching Type.
type Layer struct {
	Type Type
	Meta Meta

	Image  image.Image // TypeImage
	Labels [][]int     // TypeLabels, row-major label matrix
	Points []Point     // TypePoints
	Shapes []Shape     // TypeShapes
}

// items returns the number of per-item metadata slots the layer needs.
func (l Layer) items() int {
	switch l.Type {
	case TypePoints:
		return len(l.Points)
	case TypeShapes:
		return len(l.Shapes)
	}
	return 0
}

// Validate checks that the layer satisfies the exporter's input contract.
// Unknown layer kinds only need a name; they are skipped later, not here.
func (l Layer) Validate() error {
	if l.Meta.Name == "" {
		return fmt.Errorf("layer has no name")
	}
	if l.Meta.Opacity < 0 || l.Meta.Opacity > 1 {
		return fmt.Errorf("layer %q: opacity %v outside [0, 1]", l.Meta.Name, l.Meta.Opacity)
	}
	if !l.Type.Known() {
		return nil
	}

	switch l.Type {
	case TypeImage:
		if l.Image == nil {
			return fmt.Errorf("image layer %q has no raster", l.Meta.Name)
		}
	case TypeLabels:
		if len(l.Labels) == 0 || len(l.Labels[0]) == 0 {
			return fmt.Errorf("labels layer %q has an empty matrix", l.Meta.Name)
		}
		width := len(l.Labels[0])
		for i, row := range l.Labels {
			if len(row) != width {
				return fmt.Errorf("labels layer %q: row %d has %d columns, want %d", l.Meta.Name, i, len(row), width)
			}
		}
	case TypePoints:
		if len(l.Meta.FaceColor) != len(l.Points) {
			return fmt.Errorf("points layer %q: %d face colors for %d points", l.Meta.Name, len(l.Meta.FaceColor), len(l.Points))
		}
	case TypeShapes:
		if len(l.Meta.ShapeTypes) != len(l.Shapes) {
			return fmt.Errorf("shapes layer %q: %d shape types for %d shapes", l.Meta.Name, len(l.Meta.ShapeTypes), len(l.Shapes))
		}
		if len(l.Meta.FaceColor) != len(l.Shapes) {
			return fmt.Errorf("shapes layer %q: %d face colors for %d shapes", l.Meta.Name, len(l.Meta.FaceColor), len(l.Shapes))
		}
		for i, shape := range l.Shapes {
			if err := validateShape(shape, l.Meta.ShapeTypes[i]); err != nil {
				return fmt.Errorf("shapes layer %q: shape %d: %w", l.Meta.Name, i, err)
			}
		}
	}

	for _, name := range l.Meta.PropertyOrder() {
		values, ok := l.Meta.Properties[name]
		if !ok {
			return fmt.Errorf("layer %q: property %q listed but missing", l.Meta.Name, name)
		}
		if len(values) != l.items() {
			return fmt.Errorf("layer %q: property %q has %d values for %d items", l.Meta.Name, name, len(values), l.items())
		}
	}
	return nil
}

// validateShape checks the vertex-count precondition of each primitive.
// Ellipses are the four corners of their bounding box; lines are segments.
func validateShape(shape Shape, st ShapeType) error {
	switch st {
	case ShapeEllipse, ShapeRectangle:
		if len(shape) != 4 {
			return fmt.Errorf("%s has %d points, want 4", st, len(shape))
		}
	case ShapeLine:
		if len(shape) != 2 {
			return fmt.Errorf("line has %d points, want 2", len(shape))
		}
	case ShapePath:
		if len(shape) < 2 {
			return fmt.Errorf("path has %d points, want at least 2", len(shape))
		}
	case ShapePolygon:
		if len(shape) < 3 {
			return fmt.Errorf("polygon has %d points, want at least 3", len(shape))
		}
	default:
		return fmt.Errorf("unknown shape type %q", st)
	}
	return nil
}
