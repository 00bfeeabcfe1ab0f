// Package bundle loads layer lists from a JSON description so exports can
// run from the command line, outside a hosting viewer process.
//
// A bundle is a JSON file listing layers with their metadata. Point sets,
// shapes, and label matrices are inlined; image rasters are referenced by
// file path (PNG or TIFF) resolved relative to the bundle file:
//
//	{
//	  "layers": [
//	    {"type": "image", "name": "dapi", "opacity": 0.8, "file": "dapi.png"},
//	    {"type": "points", "name": "cells", "symbol": "disc",
//	     "points": [[12.0, 30.5]], "face_color": [[1, 0, 0, 1]]}
//	  ]
//	}
//
// Coordinates use the host convention of (row, col) pairs, matching what a
// viewer would hand over directly.
package bundle

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"

	_ "golang.org/x/image/tiff"
	_ "image/png"

	"github.com/histoviz/tmapgen/pkg/layer"
)

type bundleFile struct {
	Layers []layerSpec `json:"layers"`
}

// layerSpec is the JSON shape of one layer entry. Opacity and visibility
// are pointers so an omitted key can default to opaque and visible.
type layerSpec struct {
	Type    string   `json:"type"`
	Name    string   `json:"name"`
	Opacity *float64 `json:"opacity"`
	Visible *bool    `json:"visible"`

	File string  `json:"file,omitempty"` // image raster, relative to the bundle
	Data [][]int `json:"data,omitempty"` // label matrix

	Points [][2]float64   `json:"points,omitempty"` // (row, col)
	Shapes [][][2]float64 `json:"shapes,omitempty"`

	ShapeTypes    []string              `json:"shape_types,omitempty"`
	FaceColor     [][4]float64          `json:"face_color,omitempty"`
	Symbol        string                `json:"symbol,omitempty"`
	Properties    map[string][]any      `json:"properties,omitempty"`
	PropertyOrder []string              `json:"property_order,omitempty"`
	LabelColors   map[string][4]float64 `json:"label_colors,omitempty"`
}

// Load reads a bundle file and returns its layers, validated and ready for
// export.
func Load(path string) ([]layer.Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle %s: %w", path, err)
	}

	var bf bundleFile
	if err := json.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("parse bundle %s: %w", path, err)
	}
	if len(bf.Layers) == 0 {
		return nil, fmt.Errorf("bundle %s has no layers", path)
	}

	baseDir := filepath.Dir(path)
	layers := make([]layer.Layer, 0, len(bf.Layers))
	for i, spec := range bf.Layers {
		l, err := spec.toLayer(baseDir)
		if err != nil {
			return nil, fmt.Errorf("bundle %s: layer %d (%s): %w", path, i, spec.Name, err)
		}
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("bundle %s: %w", path, err)
		}
		layers = append(layers, l)
	}
	return layers, nil
}

func (s layerSpec) toLayer(baseDir string) (layer.Layer, error) {
	meta := layer.Meta{
		Name:          s.Name,
		Opacity:       1,
		Visible:       true,
		Symbol:        s.Symbol,
		Properties:    s.Properties,
		PropertyNames: s.PropertyOrder,
	}
	if s.Opacity != nil {
		meta.Opacity = *s.Opacity
	}
	if s.Visible != nil {
		meta.Visible = *s.Visible
	}
	for _, c := range s.FaceColor {
		meta.FaceColor = append(meta.FaceColor, layer.RGBA(c))
	}
	for _, st := range s.ShapeTypes {
		meta.ShapeTypes = append(meta.ShapeTypes, layer.ShapeType(st))
	}
	if len(s.LabelColors) > 0 {
		meta.LabelColors = make(map[int]layer.RGBA, len(s.LabelColors))
		for key, c := range s.LabelColors {
			value, err := strconv.Atoi(key)
			if err != nil {
				return layer.Layer{}, fmt.Errorf("label color key %q is not a label value", key)
			}
			meta.LabelColors[value] = layer.RGBA(c)
		}
	}

	l := layer.Layer{Type: layer.Type(s.Type), Meta: meta}
	switch l.Type {
	case layer.TypeImage:
		if s.File == "" {
			return layer.Layer{}, fmt.Errorf("image layer needs a file")
		}
		img, err := decodeRaster(filepath.Join(baseDir, s.File))
		if err != nil {
			return layer.Layer{}, err
		}
		l.Image = img
	case layer.TypeLabels:
		l.Labels = s.Data
	case layer.TypePoints:
		for _, p := range s.Points {
			l.Points = append(l.Points, layer.Point{Row: p[0], Col: p[1]})
		}
	case layer.TypeShapes:
		for _, sh := range s.Shapes {
			shape := make(layer.Shape, 0, len(sh))
			for _, p := range sh {
				shape = append(shape, layer.Point{Row: p[0], Col: p[1]})
			}
			l.Shapes = append(l.Shapes, shape)
		}
	}
	return l, nil
}

func decodeRaster(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raster: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode raster %s: %w", path, err)
	}
	return img, nil
}
