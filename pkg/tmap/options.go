package tmap

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// Options controls how a project is assembled. The zero value is not useful;
// start from [DefaultOptions] or [LoadOptions].
type Options struct {
	// InternalShapes inlines the shape features into main.tmap instead of
	// referencing an external regions/regions.json.
	InternalShapes bool `toml:"internal_shapes"`

	// SplitLabels expands every labels layer into one tile source per
	// non-zero label value, colored through the cycling filter palette.
	// When false, a labels layer stays a single tile source recolored with
	// its own color table.
	SplitLabels bool `toml:"split_labels"`

	// MarkerScale is the global marker scale directive emitted in the
	// manifest settings.
	MarkerScale float64 `toml:"marker_scale"`

	// CompositeMode is the layer compositing directive of the manifest.
	CompositeMode string `toml:"composite_mode"`

	// Palette is the list of filter colors (0-100 per channel) cycled over
	// split label tile sources. Empty falls back to the default palette.
	Palette [][3]int `toml:"palette"`

	// Logger receives the skip warnings for unsupported layers. Nil means
	// the default logger.
	Logger *log.Logger `toml:"-"`
}

// DefaultOptions returns the exporter defaults: external regions file, one
// tile source per labels layer, marker scale 7.5, "lighter" compositing.
func DefaultOptions() Options {
	return Options{
		MarkerScale:   7.5,
		CompositeMode: "lighter",
		Palette:       defaultPalette(),
	}
}

// LoadOptions reads a TOML options file layered over [DefaultOptions].
// Keys absent from the file keep their default.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	if _, err := toml.DecodeFile(path, &opts); err != nil {
		return Options{}, fmt.Errorf("load options %s: %w", path, err)
	}
	if len(opts.Palette) == 0 {
		return Options{}, fmt.Errorf("load options %s: empty palette", path)
	}
	return opts, nil
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}
