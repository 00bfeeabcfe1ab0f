package tmap

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"sort"

	"golang.org/x/image/tiff"

	"github.com/histoviz/tmapgen/pkg/layer"
)

// writeTIFF encodes img to path with deflate compression.
func writeTIFF(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create raster %s: %w", path, err)
	}
	opts := &tiff.Options{Compression: tiff.Deflate, Predictor: true}
	if err := tiff.Encode(f, img, opts); err != nil {
		f.Close()
		return fmt.Errorf("encode raster %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close raster %s: %w", path, err)
	}
	return nil
}

// uniqueLabels returns the distinct values of a label matrix in ascending
// order, zero included when present. Split-mode filenames index into this
// ordering, so config assembly and raster writing must agree on it.
func uniqueLabels(labels [][]int) []int {
	seen := map[int]bool{}
	for _, row := range labels {
		for _, v := range row {
			seen[v] = true
		}
	}
	values := make([]int, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Ints(values)
	return values
}

// labelImage recolors a label matrix with the layer's color table. Label
// zero and labels without a table entry stay transparent.
func labelImage(labels [][]int, colors map[int]layer.RGBA) *image.NRGBA {
	h, w := len(labels), len(labels[0])
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y, row := range labels {
		for x, v := range row {
			if v == 0 {
				continue
			}
			c, ok := colors[v]
			if !ok {
				continue
			}
			img.SetNRGBA(x, y, nrgba(c))
		}
	}
	return img
}

// labelMask renders the pixels equal to value as an opaque white mask.
// Split-mode tile sources are tinted by the viewer's Color filter, so the
// raster itself carries no color.
func labelMask(labels [][]int, value int) *image.NRGBA {
	h, w := len(labels), len(labels[0])
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y, row := range labels {
		for x, v := range row {
			if v == value {
				img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
			}
		}
	}
	return img
}

func nrgba(c layer.RGBA) color.NRGBA {
	return color.NRGBA{
		R: uint8(255 * c[0]),
		G: uint8(255 * c[1]),
		B: uint8(255 * c[2]),
		A: uint8(255 * c[3]),
	}
}
