// Package cli implements the tmapgen command-line interface.
//
// tmapgen exports layer bundles to TissUUmaps project folders from the
// command line, for pipelines that produce layers outside an interactive
// viewer session. The CLI is built using cobra; all commands support
// --verbose (-v) for debug-level logging, with the logger passed through
// context.Context.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/histoviz/tmapgen/pkg/buildinfo"
)

// appName is the application name used for display.
const appName = "tmapgen"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The CLI's logger is attached to the command context and accessible to all
// subcommands via loggerFromContext.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          appName,
		Short:        "tmapgen exports viewer layers as TissUUmaps projects",
		Long:         `tmapgen converts layer bundles (images, label masks, point sets, and vector shapes) into TissUUmaps project folders: a JSON manifest plus per-layer rasters, CSV point tables, and a regions document.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.exportCommand())
	root.AddCommand(c.completionCommand())

	return root
}
