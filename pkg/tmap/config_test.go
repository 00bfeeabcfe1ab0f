package tmap

import (
	"encoding/json"
	"image"
	"strconv"
	"strings"
	"testing"

	"github.com/histoviz/tmapgen/pkg/layer"
)

func imageLayer(name string, opacity float64, visible bool) layer.Layer {
	return layer.Layer{
		Type:  layer.TypeImage,
		Meta:  layer.Meta{Name: name, Opacity: opacity, Visible: visible},
		Image: image.NewNRGBA(image.Rect(0, 0, 2, 2)),
	}
}

func labelsLayer(name string, matrix [][]int) layer.Layer {
	return layer.Layer{
		Type:   layer.TypeLabels,
		Meta:   layer.Meta{Name: name, Opacity: 1, Visible: true},
		Labels: matrix,
	}
}

func pointsLayer(name string) layer.Layer {
	return layer.Layer{
		Type: layer.TypePoints,
		Meta: layer.Meta{
			Name:      name,
			Opacity:   1,
			Visible:   true,
			Symbol:    "disc",
			FaceColor: []layer.RGBA{{0, 0, 1, 1}},
		},
		Points: []layer.Point{{Row: 4, Col: 2}},
	}
}

func shapesLayer(name string) layer.Layer {
	return layer.Layer{
		Type: layer.TypeShapes,
		Meta: layer.Meta{
			Name:       name,
			Opacity:    1,
			Visible:    true,
			ShapeTypes: []layer.ShapeType{layer.ShapeRectangle},
			FaceColor:  []layer.RGBA{{1, 0, 0, 1}},
		},
		Shapes: []layer.Shape{{{Row: 0, Col: 0}, {Row: 0, Col: 10}, {Row: 10, Col: 10}, {Row: 10, Col: 0}}},
	}
}

func TestBuildConfigSingleImage(t *testing.T) {
	cfg, err := BuildConfig("proj", []layer.Layer{imageLayer("Image", 0.5, true)}, DefaultOptions())
	if err != nil {
		t.Fatalf("BuildConfig: %v", err)
	}

	if cfg.CompositeMode != "lighter" {
		t.Errorf("compositeMode = %q, want lighter", cfg.CompositeMode)
	}
	if cfg.Filename != "proj" {
		t.Errorf("filename = %q, want proj", cfg.Filename)
	}
	if len(cfg.Layers) != 1 {
		t.Fatalf("got %d layers, want 1", len(cfg.Layers))
	}
	if cfg.Layers[0].Name != "Image" || cfg.Layers[0].TileSource != "images/Image.tif.dzi" {
		t.Errorf("layer = %+v, want {Image images/Image.tif.dzi}", cfg.Layers[0])
	}
	if got := cfg.LayerOpacities["0"]; got != "0.500" {
		t.Errorf("opacity[0] = %q, want 0.500", got)
	}
	if got := cfg.LayerVisibilities["0"]; got != true {
		t.Errorf("visibility[0] = %v, want true", got)
	}
	wantFilters := []Filter{{"Brightness", "0"}, {"Contrast", "1"}, {"Color", "0"}}
	got := cfg.LayerFilters["0"]
	if len(got) != len(wantFilters) {
		t.Fatalf("got %d filters, want %d", len(got), len(wantFilters))
	}
	for i := range wantFilters {
		if got[i] != wantFilters[i] {
			t.Errorf("filter[%d] = %v, want %v", i, got[i], wantFilters[i])
		}
	}
}

func TestBuildConfigIndexInvariant(t *testing.T) {
	// Only image and labels layers receive an index, in encounter order.
	layers := []layer.Layer{
		imageLayer("a", 0.1, true),
		pointsLayer("pts"),
		labelsLayer("b", [][]int{{0, 1}}),
		shapesLayer("rois"),
		imageLayer("c", 0.9, false),
	}
	cfg, err := BuildConfig("proj", layers, DefaultOptions())
	if err != nil {
		t.Fatalf("BuildConfig: %v", err)
	}

	wantNames := []string{"a", "b", "c"}
	if len(cfg.Layers) != len(wantNames) {
		t.Fatalf("got %d tile layers, want %d", len(cfg.Layers), len(wantNames))
	}
	for i, name := range wantNames {
		if cfg.Layers[i].Name != name {
			t.Errorf("layers[%d] = %q, want %q", i, cfg.Layers[i].Name, name)
		}
	}

	// Keys form the contiguous range 0..k-1 across all three maps.
	for i := range wantNames {
		key := strconv.Itoa(i)
		if _, ok := cfg.LayerFilters[key]; !ok {
			t.Errorf("layerFilters missing key %q", key)
		}
		if _, ok := cfg.LayerOpacities[key]; !ok {
			t.Errorf("layerOpacities missing key %q", key)
		}
		if _, ok := cfg.LayerVisibilities[key]; !ok {
			t.Errorf("layerVisibilities missing key %q", key)
		}
	}
	if len(cfg.LayerFilters) != 3 || len(cfg.LayerOpacities) != 3 || len(cfg.LayerVisibilities) != 3 {
		t.Errorf("index maps sized %d/%d/%d, want 3/3/3",
			len(cfg.LayerFilters), len(cfg.LayerOpacities), len(cfg.LayerVisibilities))
	}
	if cfg.LayerOpacities["2"] != "0.900" || cfg.LayerVisibilities["2"] != false {
		t.Errorf("index 2 = (%q, %v), want (0.900, false)",
			cfg.LayerOpacities["2"], cfg.LayerVisibilities["2"])
	}
}

func TestBuildConfigMarkers(t *testing.T) {
	cfg, err := BuildConfig("proj", []layer.Layer{pointsLayer("cells")}, DefaultOptions())
	if err != nil {
		t.Fatalf("BuildConfig: %v", err)
	}
	if len(cfg.MarkerFiles) != 1 {
		t.Fatalf("got %d marker files, want 1", len(cfg.MarkerFiles))
	}

	m := cfg.MarkerFiles[0]
	if !m.AutoLoad {
		t.Error("markers should auto-load")
	}
	if m.Comment != "cells" || m.Path != "points/cells.csv" {
		t.Errorf("marker = %+v, want comment cells, path points/cells.csv", m)
	}
	if m.Title != "Download markers (cells)" {
		t.Errorf("title = %q", m.Title)
	}
	want := ExpectedCSV{XCol: "x", YCol: "y", Color: "color", Group: "name", Key: "letters"}
	if m.ExpectedCSV != want {
		t.Errorf("expectedCSV = %+v, want %+v", m.ExpectedCSV, want)
	}
}

func TestBuildConfigRegions(t *testing.T) {
	// No shapes: an explicit empty object, not an omitted key.
	cfg, err := BuildConfig("proj", []layer.Layer{imageLayer("a", 1, true)}, DefaultOptions())
	if err != nil {
		t.Fatalf("BuildConfig: %v", err)
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"regions":{}`) {
		t.Errorf("manifest without shapes should carry an empty regions object: %s", data)
	}
	if cfg.RegionFile != "" {
		t.Errorf("regionFile = %q, want empty", cfg.RegionFile)
	}

	// External shapes by default.
	cfg, err = BuildConfig("proj", []layer.Layer{shapesLayer("rois")}, DefaultOptions())
	if err != nil {
		t.Fatalf("BuildConfig: %v", err)
	}
	if cfg.RegionFile != RegionFilePath {
		t.Errorf("regionFile = %q, want %q", cfg.RegionFile, RegionFilePath)
	}
	if cfg.Regions != nil {
		t.Errorf("regions should be omitted when external, got %v", cfg.Regions)
	}

	// Inlined on request.
	opts := DefaultOptions()
	opts.InternalShapes = true
	cfg, err = BuildConfig("proj", []layer.Layer{shapesLayer("rois")}, opts)
	if err != nil {
		t.Fatalf("BuildConfig: %v", err)
	}
	fc, ok := cfg.Regions.(*FeatureCollection)
	if !ok || len(fc.Features) != 1 {
		t.Errorf("regions = %T, want inlined FeatureCollection with 1 feature", cfg.Regions)
	}
	if cfg.RegionFile != "" {
		t.Errorf("regionFile = %q, want empty when inlined", cfg.RegionFile)
	}
}

func TestBuildConfigSplitLabels(t *testing.T) {
	matrix := [][]int{
		{0, 1, 1},
		{2, 0, 5},
	}
	opts := DefaultOptions()
	opts.SplitLabels = true

	cfg, err := BuildConfig("proj", []layer.Layer{labelsLayer("mask", matrix)}, opts)
	if err != nil {
		t.Fatalf("BuildConfig: %v", err)
	}

	// One tile source per non-zero label; filenames index the full
	// distinct-value ordering (zero holds slot 0).
	want := []TileLayer{
		{Name: "mask (1)", TileSource: "labels/mask_01.tif.dzi"},
		{Name: "mask (2)", TileSource: "labels/mask_02.tif.dzi"},
		{Name: "mask (5)", TileSource: "labels/mask_03.tif.dzi"},
	}
	if len(cfg.Layers) != len(want) {
		t.Fatalf("got %d tile layers, want %d", len(cfg.Layers), len(want))
	}
	for i := range want {
		if cfg.Layers[i] != want[i] {
			t.Errorf("layers[%d] = %+v, want %+v", i, cfg.Layers[i], want[i])
		}
	}

	// Color filters cycle through the palette.
	wantColors := []string{"100,0,0", "0,100,0", "0,0,100"}
	for i, wantColor := range wantColors {
		filters := cfg.LayerFilters[strconv.Itoa(i)]
		if len(filters) != 3 || filters[2].Name != "Color" || filters[2].Value != wantColor {
			t.Errorf("filters[%d] = %v, want Color %q", i, filters, wantColor)
		}
	}
}

func TestBuildConfigSplitLabelsPaletteSpansLayers(t *testing.T) {
	opts := DefaultOptions()
	opts.SplitLabels = true

	// The palette position carries over between labels layers, so the
	// second layer's single label gets the second color, not red again.
	layers := []layer.Layer{
		labelsLayer("nuclei", [][]int{{0, 1}}),
		labelsLayer("membranes", [][]int{{0, 1}}),
	}
	cfg, err := BuildConfig("proj", layers, opts)
	if err != nil {
		t.Fatalf("BuildConfig: %v", err)
	}

	wantColors := []string{"100,0,0", "0,100,0"}
	for i, wantColor := range wantColors {
		filters := cfg.LayerFilters[strconv.Itoa(i)]
		if len(filters) != 3 || filters[2].Value != wantColor {
			t.Errorf("filters[%d] = %v, want Color %q", i, filters, wantColor)
		}
	}
}

func TestBuildConfigSplitLabelsEmptyPalette(t *testing.T) {
	opts := Options{SplitLabels: true, MarkerScale: 7.5, CompositeMode: "lighter"}

	cfg, err := BuildConfig("proj", []layer.Layer{labelsLayer("mask", [][]int{{0, 1}})}, opts)
	if err != nil {
		t.Fatalf("BuildConfig: %v", err)
	}

	filters := cfg.LayerFilters["0"]
	if len(filters) != 3 || filters[2].Value != "100,0,0" {
		t.Errorf("filters = %v, want default palette Color 100,0,0", filters)
	}
}

func TestBuildConfigSettings(t *testing.T) {
	opts := DefaultOptions()
	opts.MarkerScale = 5.0
	cfg, err := BuildConfig("proj", nil, opts)
	if err != nil {
		t.Fatalf("BuildConfig: %v", err)
	}

	if len(cfg.Settings) != 2 {
		t.Fatalf("got %d settings, want 2", len(cfg.Settings))
	}
	if cfg.Settings[0].Function != "_autoLoadCSV" || cfg.Settings[0].Value != true {
		t.Errorf("settings[0] = %+v", cfg.Settings[0])
	}
	if cfg.Settings[1].Function != "_globalMarkerScale" || cfg.Settings[1].Value != 5.0 {
		t.Errorf("settings[1] = %+v", cfg.Settings[1])
	}
}
