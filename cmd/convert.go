package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	engine "github.com/drummonds/pdfpages/engine"
	"github.com/drummonds/pdfpages/engine/imageformat"
)

var (
	convertFormat string
	convertOut    string
	convertZip    bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <file.pdf>",
	Short: "Convert a PDF into one image per page",
	Long: `Renders every page of the PDF at 1.5x its native size and writes
page-1.<ext> ... page-N.<ext> into the output directory, or a single
pdf-pages.zip with --zip.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertFormat, "format", "f", "", "image format: jpeg, png or webp (default from DEFAULT_FORMAT)")
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", ".", "output directory")
	convertCmd.Flags().BoolVar(&convertZip, "zip", false, "write one pdf-pages.zip instead of separate images")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	formatValue := convertFormat
	if formatValue == "" {
		formatValue = serverConfig.DefaultFormat
	}
	format, err := imageformat.Parse(formatValue)
	if err != nil {
		return err
	}

	conv, err := newConverter(serverConfig)
	if err != nil {
		return err
	}
	defer conv.Renderer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	Logger.Info("Converting from the command line", "file", inputPath, "format", format, "renderer", conv.Renderer.Name())
	var bar *progressbar.ProgressBar
	result, err := convertFile(ctx, conv, inputPath, format, func(done, total int) {
		if bar == nil {
			bar = newPageBar(total)
		}
		_ = bar.Set(done)
	})
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}

	written, err := writeOutputs(result, convertOut, convertZip, serverConfig.ArchiveCompression)
	if err != nil {
		return err
	}

	color.Green("Converted %d pages of %s to %s", result.Len(), result.SourceName, format.Label())
	for _, path := range written {
		fmt.Fprintln(cmd.OutOrStdout(), "  "+path)
	}
	return nil
}

func newPageBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Rendering"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// writeOutputs saves each page, or the zip bundle, into outDir and returns the
// paths written
func writeOutputs(result *engine.ConversionResult, outDir string, zip bool, compression string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	if zip {
		archive, err := engine.ExportAll(result, engine.ZipArchiver{Compression: compression})
		if err != nil {
			return nil, err
		}
		if archive == nil {
			return nil, nil
		}
		path := filepath.Join(outDir, archive.Name)
		if err := os.WriteFile(path, archive.Data, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		return []string{path}, nil
	}

	written := make([]string, 0, result.Len())
	for _, page := range result.Pages() {
		file := engine.ExportOne(page)
		path := filepath.Join(outDir, file.Name)
		if err := os.WriteFile(path, file.Data, 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// convertFile reads and converts one PDF from disk
func convertFile(ctx context.Context, conv *engine.Converter, inputPath string, format imageformat.Format, progress engine.ProgressFunc) (*engine.ConversionResult, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", inputPath, err)
	}
	result, err := conv.Convert(ctx, data, format, progress)
	if err != nil {
		return nil, err
	}
	result.SourceName = filepath.Base(inputPath)
	return result, nil
}
