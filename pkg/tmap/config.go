package tmap

import (
	"fmt"
	"strconv"

	"github.com/histoviz/tmapgen/pkg/layer"
)

// Config is the main.tmap manifest. Field order matches the document order
// the viewer ships in its own projects, so generated manifests diff cleanly
// against hand-made ones.
type Config struct {
	CompositeMode     string              `json:"compositeMode"`
	Filename          string              `json:"filename"`
	Layers            []TileLayer         `json:"layers"`
	Filters           []string            `json:"filters"`
	LayerFilters      map[string][]Filter `json:"layerFilters"`
	LayerOpacities    map[string]string   `json:"layerOpacities"`
	LayerVisibilities map[string]bool     `json:"layerVisibilities"`
	MarkerFiles       []MarkerFile        `json:"markerFiles"`

	// Exactly one of Regions and RegionFile is set. Regions is an empty
	// object when the export has no shapes, the inlined feature collection
	// when Options.InternalShapes is set; RegionFile points at the external
	// regions document otherwise.
	Regions    any    `json:"regions,omitempty"`
	RegionFile string `json:"regionFile,omitempty"`

	Settings []Setting `json:"settings"`
}

// TileLayer references one pyramidal tile source shown by the viewer.
type TileLayer struct {
	Name       string `json:"name"`
	TileSource string `json:"tileSource"`
}

// Filter is a single display filter directive of a tile layer.
type Filter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MarkerFile references the CSV point table of one points layer.
type MarkerFile struct {
	AutoLoad    bool        `json:"autoLoad"`
	Comment     string      `json:"comment"`
	ExpectedCSV ExpectedCSV `json:"expectedCSV"`
	Path        string      `json:"path"`
	Title       string      `json:"title"`
}

// ExpectedCSV names the columns the viewer reads from a marker CSV.
type ExpectedCSV struct {
	XCol  string `json:"X_col"`
	YCol  string `json:"Y_col"`
	Color string `json:"color"`
	Group string `json:"group"`
	Name  string `json:"name"`
	Key   string `json:"key"`
}

// Setting is one viewer initialization directive.
type Setting struct {
	Function string `json:"function"`
	Module   string `json:"module"`
	Value    any    `json:"value"`
}

// RegionFilePath is the manifest-relative location of the external shapes
// document.
const RegionFilePath = "regions/regions.json"

// defaultFilters returns the display filters assigned to a fresh tile layer.
func defaultFilters() []Filter {
	return []Filter{
		{Name: "Brightness", Value: "0"},
		{Name: "Contrast", Value: "1"},
		{Name: "Color", Value: "0"},
	}
}

// BuildConfig assembles the manifest for the given output filename stem and
// layer list. Image and labels layers receive a zero-based sequential index
// in encounter order; the index keys their filter, opacity, and visibility
// records and matches their position in Layers. Points layers become marker
// file references, shapes layers accumulate into the regions document, and
// any other kind is left to the writer to warn about.
func BuildConfig(filename string, layers []layer.Layer, opts Options) (*Config, error) {
	cfg := &Config{
		CompositeMode:     opts.CompositeMode,
		Filename:          filename,
		Layers:            []TileLayer{},
		Filters:           []string{"Brightness", "Contrast", "Color"},
		LayerFilters:      map[string][]Filter{},
		LayerOpacities:    map[string]string{},
		LayerVisibilities: map[string]bool{},
		MarkerFiles:       []MarkerFile{},
		Settings: []Setting{
			{Function: "_autoLoadCSV", Module: "dataUtils", Value: true},
			{Function: "_globalMarkerScale", Module: "glUtils", Value: opts.MarkerScale},
		},
	}

	for _, l := range layers {
		if l.Type != layer.TypePoints {
			continue
		}
		cfg.MarkerFiles = append(cfg.MarkerFiles, MarkerFile{
			AutoLoad: true,
			Comment:  l.Meta.Name,
			ExpectedCSV: ExpectedCSV{
				XCol:  "x",
				YCol:  "y",
				Color: "color",
				Group: "name",
				Key:   "letters",
			},
			Path:  fmt.Sprintf("points/%s.csv", l.Meta.Name),
			Title: fmt.Sprintf("Download markers (%s)", l.Meta.Name),
		})
	}

	regions := NewFeatureCollection()
	palette := opts.Palette
	if len(palette) == 0 {
		palette = defaultPalette()
	}

	idx := 0
	// used counts split label tile sources across the whole layer list, so
	// consecutive labels layers keep advancing through the palette instead
	// of each restarting at the first color.
	used := 0
	addTile := func(tile TileLayer, filters []Filter, meta layer.Meta) {
		key := strconv.Itoa(idx)
		cfg.Layers = append(cfg.Layers, tile)
		cfg.LayerFilters[key] = filters
		cfg.LayerOpacities[key] = fmt.Sprintf("%.3f", meta.Opacity)
		cfg.LayerVisibilities[key] = meta.Visible
		idx++
	}

	for _, l := range layers {
		switch l.Type {
		case layer.TypeImage:
			addTile(TileLayer{
				Name:       l.Meta.Name,
				TileSource: fmt.Sprintf("images/%s.tif.dzi", l.Meta.Name),
			}, defaultFilters(), l.Meta)

		case layer.TypeLabels:
			if !opts.SplitLabels {
				addTile(TileLayer{
					Name:       l.Meta.Name,
					TileSource: fmt.Sprintf("labels/%s.tif.dzi", l.Meta.Name),
				}, defaultFilters(), l.Meta)
				break
			}
			// Split mode: one tile source per non-zero label value. The
			// filename index counts all distinct values including zero so
			// it lines up with the rasters the writer emits.
			for j, value := range uniqueLabels(l.Labels) {
				if value == 0 {
					continue
				}
				filters := []Filter{
					{Name: "Brightness", Value: "0"},
					{Name: "Contrast", Value: "1"},
					{Name: "Color", Value: filterColor(palette[used%len(palette)])},
				}
				addTile(TileLayer{
					Name:       fmt.Sprintf("%s (%d)", l.Meta.Name, value),
					TileSource: fmt.Sprintf("labels/%s_%02d.tif.dzi", l.Meta.Name, j),
				}, filters, l.Meta)
				used++
			}

		case layer.TypeShapes:
			fc, err := Features(l.Shapes, l.Meta)
			if err != nil {
				return nil, err
			}
			regions.Features = append(regions.Features, fc.Features...)
		}
	}

	switch {
	case len(regions.Features) == 0:
		cfg.Regions = struct{}{}
	case opts.InternalShapes:
		cfg.Regions = regions
	default:
		cfg.RegionFile = RegionFilePath
	}

	return cfg, nil
}
