// Package plugin exposes the writer hooks a host viewer calls to discover
// and invoke the project exporter.
//
// The host's save flow probes each registered export target with the output
// path the user picked: [GetWriter] returns nil when the path is not a
// project path (the "not handled" signal, letting the host try the next
// target) and otherwise a [WriterFunc] that performs the export. The
// single-layer hooks cover hosts that save one layer at a time.
package plugin

import (
	"image"

	"github.com/charmbracelet/log"

	"github.com/histoviz/tmapgen/pkg/layer"
	"github.com/histoviz/tmapgen/pkg/tmap"
)

// WriterFunc writes the given layers to path and returns the file paths
// written.
type WriterFunc func(path string, layers []layer.Layer) ([]string, error)

// GetWriter returns the writer for path, or nil if the path is not a
// project target. Layer kinds the exporter does not support are warned
// about here, once, so the user learns about skipped layers before the
// export runs; the writer itself skips them again silently.
func GetWriter(path string, layerTypes []layer.Type, opts tmap.Options) WriterFunc {
	if !tmap.IsProjectPath(path) {
		return nil
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	for _, t := range layerTypes {
		if !t.Known() {
			logger.Warn("layer type not supported by the project format; it will be skipped",
				"type", string(t))
		}
	}

	return func(path string, layers []layer.Layer) ([]string, error) {
		return tmap.Write(path, layers, opts)
	}
}

// WriteImage exports a single image layer as a one-layer project.
func WriteImage(path string, img image.Image, meta layer.Meta, opts tmap.Options) ([]string, error) {
	return tmap.Write(path, []layer.Layer{{Type: layer.TypeImage, Meta: meta, Image: img}}, opts)
}

// WriteLabels exports a single labels layer as a one-layer project.
func WriteLabels(path string, labels [][]int, meta layer.Meta, opts tmap.Options) ([]string, error) {
	return tmap.Write(path, []layer.Layer{{Type: layer.TypeLabels, Meta: meta, Labels: labels}}, opts)
}

// WritePoints exports a single points layer as a one-layer project.
func WritePoints(path string, points []layer.Point, meta layer.Meta, opts tmap.Options) ([]string, error) {
	return tmap.Write(path, []layer.Layer{{Type: layer.TypePoints, Meta: meta, Points: points}}, opts)
}

// WriteShapes exports a single shapes layer as a one-layer project.
func WriteShapes(path string, shapes []layer.Shape, meta layer.Meta, opts tmap.Options) ([]string, error) {
	return tmap.Write(path, []layer.Layer{{Type: layer.TypeShapes, Meta: meta, Shapes: shapes}}, opts)
}
