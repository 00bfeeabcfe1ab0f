package tmap

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/histoviz/tmapgen/pkg/layer"
)

// Extension is the project extension an output path must carry. The match
// is case-sensitive: "project.TMAP" is not a project path.
const Extension = ".tmap"

// IsProjectPath reports whether path names a project this package handles.
func IsProjectPath(path string) bool {
	return strings.HasSuffix(path, Extension)
}

// Write exports the layer list as a project directory at path and returns
// the file paths written, in write order. A path without the project
// extension is not handled and returns (nil, nil) so the host can try the
// next export target.
//
// Layers are validated up front; afterwards each layer is dispatched by
// kind, and a kind the exporter does not understand is logged and skipped.
// Writes are not transactional: on error, files already written remain.
func Write(path string, layers []layer.Layer, opts Options) ([]string, error) {
	if !IsProjectPath(path) {
		return nil, nil
	}
	for _, l := range layers {
		if err := l.Validate(); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("create project dir: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), Extension)
	cfg, err := BuildConfig(stem, layers, opts)
	if err != nil {
		return nil, err
	}

	var written []string
	mainPath := filepath.Join(path, "main.tmap")
	if err := writeJSON(mainPath, cfg); err != nil {
		return nil, err
	}
	written = append(written, mainPath)

	logger := opts.logger()
	regions := NewFeatureCollection()

	for _, l := range layers {
		switch l.Type {
		case layer.TypeImage:
			out := filepath.Join(path, "images", l.Meta.Name+".tif")
			if err := ensureDir(out); err != nil {
				return nil, err
			}
			if err := writeTIFF(out, l.Image); err != nil {
				return nil, err
			}
			written = append(written, out)

		case layer.TypeLabels:
			paths, err := writeLabels(path, l, opts)
			if err != nil {
				return nil, err
			}
			written = append(written, paths...)

		case layer.TypePoints:
			out := filepath.Join(path, "points", l.Meta.Name+".csv")
			if err := ensureDir(out); err != nil {
				return nil, err
			}
			if err := writePoints(out, l); err != nil {
				return nil, err
			}
			written = append(written, out)

		case layer.TypeShapes:
			fc, err := Features(l.Shapes, l.Meta)
			if err != nil {
				return nil, err
			}
			regions.Features = append(regions.Features, fc.Features...)

		default:
			logger.Warn("skipping layer: type not supported",
				"layer", l.Meta.Name, "type", string(l.Type))
		}
	}

	if len(regions.Features) > 0 && !opts.InternalShapes {
		out := filepath.Join(path, RegionFilePath)
		if err := ensureDir(out); err != nil {
			return nil, err
		}
		if err := writeJSON(out, regions); err != nil {
			return nil, err
		}
		written = append(written, out)
	}

	return written, nil
}

// writeLabels writes the raster(s) of one labels layer: a single recolored
// raster by default, or one mask per non-zero label in split mode. The
// split filenames index into the full distinct-value ordering so they match
// the tile sources BuildConfig emits.
func writeLabels(dir string, l layer.Layer, opts Options) ([]string, error) {
	if !opts.SplitLabels {
		out := filepath.Join(dir, "labels", l.Meta.Name+".tif")
		if err := ensureDir(out); err != nil {
			return nil, err
		}
		if err := writeTIFF(out, labelImage(l.Labels, l.Meta.LabelColors)); err != nil {
			return nil, err
		}
		return []string{out}, nil
	}

	var written []string
	for j, value := range uniqueLabels(l.Labels) {
		if value == 0 {
			continue
		}
		out := filepath.Join(dir, "labels", fmt.Sprintf("%s_%02d.tif", l.Meta.Name, j))
		if err := ensureDir(out); err != nil {
			return nil, err
		}
		if err := writeTIFF(out, labelMask(l.Labels, value)); err != nil {
			return nil, err
		}
		written = append(written, out)
	}
	return written, nil
}

// writePoints writes the CSV point table of one points layer. Coordinates
// are reordered from the host's (row, col) to (x, y), colors rendered as
// "#RRGGBB", and any per-point properties appended as extra columns.
func writePoints(path string, l layer.Layer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create points table %s: %w", path, err)
	}

	props := l.Meta.PropertyOrder()
	w := csv.NewWriter(f)

	header := append([]string{"name", "x", "y", "color", "symbol"}, props...)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write points table %s: %w", path, err)
	}

	for i, p := range l.Points {
		row := []string{
			l.Meta.Name,
			formatCoord(p.Col),
			formatCoord(p.Row),
			l.Meta.FaceColor[i].Hex(),
			l.Meta.Symbol,
		}
		for _, name := range props {
			row = append(row, formatValue(l.Meta.Properties[name][i]))
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write points table %s: %w", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write points table %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close points table %s: %w", path, err)
	}
	return nil
}

// writeJSON marshals v with the 4-space indent the viewer uses itself.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ensureDir creates the parent directory of path.
func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// formatValue renders a property scalar for a CSV cell.
func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
