package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/histoviz/tmapgen/pkg/bundle"
	"github.com/histoviz/tmapgen/pkg/tmap"
)

// exportCommand creates the export command for writing project folders.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		output         string
		configPath     string
		internalShapes bool
		splitLabels    bool
		markerScale    float64
	)

	cmd := &cobra.Command{
		Use:   "export [bundle.json]",
		Short: "Export a layer bundle as a TissUUmaps project",
		Long: `Export a layer bundle as a TissUUmaps project folder.

The bundle is a JSON file listing layers (images, label masks, point sets,
and vector shapes) with their display metadata; image rasters are referenced
by file path relative to the bundle. The output path must end in .tmap and
becomes a project folder holding main.tmap plus one artifact per layer.

Exporter settings (palette, marker scale, shape inlining, label splitting)
can be read from a TOML file via --config; flags override the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := tmap.DefaultOptions()
			if configPath != "" {
				var err error
				if opts, err = tmap.LoadOptions(configPath); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("internal-shapes") {
				opts.InternalShapes = internalShapes
			}
			if cmd.Flags().Changed("split-labels") {
				opts.SplitLabels = splitLabels
			}
			if cmd.Flags().Changed("marker-scale") {
				opts.MarkerScale = markerScale
			}

			out := output
			if out == "" {
				out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + tmap.Extension
			}
			return c.runExport(cmd.Context(), args[0], out, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output project path (default: bundle name with .tmap)")
	cmd.Flags().StringVar(&configPath, "config", "", "TOML file with exporter settings")
	cmd.Flags().BoolVar(&internalShapes, "internal-shapes", false, "inline shapes into main.tmap instead of regions/regions.json")
	cmd.Flags().BoolVar(&splitLabels, "split-labels", false, "one tile source per label value instead of one per labels layer")
	cmd.Flags().Float64Var(&markerScale, "marker-scale", 7.5, "global marker scale written to the manifest")

	return cmd
}

// runExport loads the bundle and writes the project folder.
func (c *CLI) runExport(ctx context.Context, bundlePath, output string, opts tmap.Options) error {
	logger := loggerFromContext(ctx)
	opts.Logger = logger

	if !tmap.IsProjectPath(output) {
		return fmt.Errorf("output %s: project paths must end in %s", output, tmap.Extension)
	}

	layers, err := bundle.Load(bundlePath)
	if err != nil {
		return err
	}
	logger.Debug("bundle loaded", "layers", len(layers))

	prog := newProgress(logger)
	written, err := tmap.Write(output, layers, opts)
	if err != nil {
		printError("Export failed")
		return fmt.Errorf("export %s: %w", output, err)
	}
	prog.done(fmt.Sprintf("Exported %d layers", len(layers)))

	printSuccess("Project written to %s", output)
	for _, path := range written {
		printFile(path)
	}
	skipped := 0
	for _, l := range layers {
		if !l.Type.Known() {
			skipped++
		}
	}
	if skipped > 0 {
		printWarning("%d layer(s) skipped: type not supported", skipped)
	}
	return nil
}
