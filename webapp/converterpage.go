package webapp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// FormatChoice is one entry of the format selector
type FormatChoice struct {
	Label      string
	Identifier string
}

// FormatChoices are the output formats offered to the user, in display order
var FormatChoices = []FormatChoice{
	{Label: "JPG", Identifier: "jpeg"},
	{Label: "PNG", Identifier: "png"},
	{Label: "WebP", Identifier: "webp"},
}

// ConverterPage uploads a PDF and shows every converted page
type ConverterPage struct {
	app.Compo
	format     string
	fileName   string
	converting bool
	result     *ResultSummary
	errorPanel *ErrorResponse
}

// OnMount restores the result held by this browser session
func (p *ConverterPage) OnMount(ctx app.Context) {
	if p.format == "" {
		p.format = ConfiguredFormat()
	}
	p.loadResult(ctx)
}

// Render renders the converter page
func (p *ConverterPage) Render() app.UI {
	format := p.format
	if format == "" {
		format = DefaultFormat
	}

	return app.Div().
		Class("converter-page").
		Body(
			app.H2().Text("PDF to Images"),
			app.P().Text("Choose a PDF and every page is turned into an image you can download one by one or all together."),

			app.Div().Class("converter-controls").Body(
				app.Label().Class("control").Body(
					app.Span().Text("PDF file"),
					app.Input().
						Type("file").
						ID("pdf-file").
						Accept("application/pdf").
						Disabled(p.converting).
						OnChange(p.onFileChange),
				),
				app.Label().Class("control").Body(
					app.Span().Text("Format"),
					app.Select().
						ID("format-select").
						Disabled(p.converting).
						OnChange(p.onFormatChange).
						Body(p.renderFormatOptions(format)...),
				),
			),

			p.renderStatus(),
			p.renderPages(),

			app.Footer().Class("privacy-footer").Body(
				app.P().Text("Your files are processed locally on this computer. They are never uploaded to a remote server or stored after you close the app."),
			),
		)
}

func (p *ConverterPage) renderFormatOptions(selected string) []app.UI {
	options := make([]app.UI, 0, len(FormatChoices))
	for _, choice := range FormatChoices {
		options = append(options, app.Option().
			Value(choice.Identifier).
			Selected(choice.Identifier == selected).
			Text(choice.Label))
	}
	return options
}

// renderStatus renders the progress and error messages
func (p *ConverterPage) renderStatus() app.UI {
	if p.converting {
		return app.Div().Class("loading").Body(
			app.Text(fmt.Sprintf("Converting %s...", p.fileName)),
		)
	}

	if p.errorPanel != nil {
		return app.Div().Class("error error-panel").Body(
			app.Strong().Text(p.errorPanel.Error),
			app.If(p.errorPanel.Stage != "", func() app.UI {
				return app.P().Text("Failed while " + p.errorPanel.Stage + ".")
			}),
			app.P().Text(p.errorPanel.Message),
		)
	}

	return app.Div()
}

// renderPages renders the page previews and the download controls
func (p *ConverterPage) renderPages() app.UI {
	pages := p.pages()

	items := make([]app.UI, 0, len(pages))
	for _, page := range pages {
		items = append(items, p.renderPage(page))
	}

	return app.Div().Class("result").Body(
		app.If(len(pages) > 0, func() app.UI {
			return app.Div().Class("result-header").Body(
				app.P().Text(resultCaption(p.result)),
				app.A().
					Class("btn-primary").
					ID("download-all").
					Href(BuildAPIURL(p.result.ExportURL)).
					Attr("download", "pdf-pages.zip").
					Text("Download All as ZIP"),
			)
		}),
		app.Div().Class("page-grid").Body(items...),
	)
}

func (p *ConverterPage) renderPage(page PageSummary) app.UI {
	title := fmt.Sprintf("Page %d", page.Index)
	return app.Div().Class("page-card").Body(
		app.H3().Text(title),
		app.Img().
			Class("page-preview").
			Src(BuildAPIURL(page.PreviewURL)).
			Alt(title),
		app.A().
			Class("btn-secondary").
			Href(BuildAPIURL(page.URL)).
			Attr("download", page.Name).
			Text(downloadLabel(page.Format)),
	)
}

func (p *ConverterPage) pages() []PageSummary {
	if p.result == nil {
		return nil
	}
	return p.result.Pages
}

// downloadLabel names the per-page download control after the page's format
func downloadLabel(format string) string {
	return "Download Single " + strings.ToUpper(format)
}

func resultCaption(result *ResultSummary) string {
	if result == nil {
		return ""
	}
	noun := "pages"
	if result.PageCount == 1 {
		noun = "page"
	}
	caption := fmt.Sprintf("%d %s as %s", result.PageCount, noun, result.Label)
	if result.SourceName != "" {
		caption = result.SourceName + ": " + caption
	}
	return caption + " (" + formatBytes(result.TotalBytes) + ")"
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}

// onFormatChange only changes what the next upload is converted to
func (p *ConverterPage) onFormatChange(ctx app.Context, e app.Event) {
	p.format = ctx.JSSrc().Get("value").String()
}

// onFileChange starts a conversion as soon as a file is chosen
func (p *ConverterPage) onFileChange(ctx app.Context, e app.Event) {
	files := ctx.JSSrc().Get("files")
	if !files.Truthy() || files.Length() == 0 {
		return
	}
	file := files.Index(0)
	p.fileName = file.Get("name").String()
	p.converting = true
	p.errorPanel = nil

	form := app.Window().Get("FormData").New()
	form.Call("append", "file", file)
	form.Call("append", "format", p.format)

	options := app.Window().Get("Object").New()
	options.Set("method", "POST")
	options.Set("body", form)

	// the same file can be picked again to convert it to another format
	ctx.JSSrc().Set("value", "")

	fetchText(ctx, BuildAPIURL("/api/convert"), options, func(ctx app.Context, status int, body string) {
		p.converting = false
		if status == 0 {
			p.errorPanel = &ErrorResponse{
				Error:   "Network error",
				Stage:   "uploading the file",
				Message: "Could not connect to the pdfpages server.",
			}
			return
		}
		if status == http.StatusConflict {
			// a newer upload replaced this one, its response will follow
			return
		}
		if status < 200 || status >= 300 {
			apiErr := parseErrorBody(status, body)
			p.errorPanel = &apiErr
			return
		}

		var result ResultSummary
		if err := json.Unmarshal([]byte(body), &result); err != nil {
			p.errorPanel = &ErrorResponse{Error: "Unexpected response", Message: err.Error()}
			return
		}
		p.result = &result
	})
}

// loadResult fetches the pages already held for this session
func (p *ConverterPage) loadResult(ctx app.Context) {
	ctx.Async(func() {
		fetchText(ctx, BuildAPIURL("/api/result"), nil, func(ctx app.Context, status int, body string) {
			if status != http.StatusOK {
				return
			}
			var result ResultSummary
			if err := json.Unmarshal([]byte(body), &result); err == nil {
				p.result = &result
			}
		})
	})
}
