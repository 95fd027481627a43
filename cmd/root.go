// Package cmd holds the pdfpages command line: a local web UI (serve) and a
// terminal converter (convert) sharing one pipeline.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	config "github.com/drummonds/pdfpages/config"
	database "github.com/drummonds/pdfpages/database"
	engine "github.com/drummonds/pdfpages/engine"
	"github.com/drummonds/pdfpages/engine/imageformat"
	"github.com/drummonds/pdfpages/engine/pdfrenderer"
	"github.com/drummonds/pdfpages/internal/build"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

var (
	serverConfig config.ServerConfig
	rendererFlag string
	noColor      bool
)

var rootCmd = &cobra.Command{
	Use:   "pdfpages",
	Short: "Convert every page of a PDF into an image, on your own machine",
	Long: `pdfpages renders each page of a PDF document to a JPG, PNG or WebP image.
Documents are processed in memory on this computer and never uploaded anywhere.

Run without a subcommand to start the browser UI on 127.0.0.1.`,
	Version:       build.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := config.SetupServer()
		serverConfig = cfg
		injectGlobals(logger) //inject the logger into all of the packages
		if rendererFlag != "" {
			serverConfig.Renderer = rendererFlag
		}
		color.NoColor = color.NoColor || noColor
		return nil
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rendererFlag, "renderer", "", "PDF engine: pdfium or fitz (default from RENDERER)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	config.Logger = Logger
	database.Logger = Logger
	engine.Logger = Logger
}

// newConverter starts the configured PDF engine. The caller closes the
// renderer when done.
func newConverter(cfg config.ServerConfig) (*engine.Converter, error) {
	renderer, err := pdfrenderer.NewRenderer(cfg.Renderer, cfg.RenderWorkers)
	if err != nil {
		return nil, fmt.Errorf("starting %s renderer: %w", cfg.Renderer, err)
	}
	encoder := imageformat.NewEncoder(cfg.JPEGQuality, cfg.WebPQuality)
	return engine.NewConverter(renderer, encoder), nil
}

// PrintError reports a failed command in red, naming the stage that failed
func PrintError(w io.Writer, err error) {
	color.New(color.FgRed, color.Bold).Fprintln(w, failureMessage(err))
}

func failureMessage(err error) string {
	var convErr *engine.ConversionError
	if errors.As(err, &convErr) {
		switch convErr.Reason {
		case engine.ReasonUnreadableFile:
			return fmt.Sprintf("Failed while %s: the file is not a readable PDF (%v)", convErr.Stage(), convErr.Err)
		case engine.ReasonCancelled:
			return "Conversion cancelled"
		}
		return fmt.Sprintf("Failed while %s: %v", convErr.Stage(), convErr.Err)
	}
	var exportErr *engine.ExportError
	if errors.As(err, &exportErr) {
		return fmt.Sprintf("Failed while %s: %v", exportErr.Stage(), exportErr.Err)
	}
	return "Error: " + err.Error()
}
