package webapp

import (
	"encoding/json"
	"fmt"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// AboutPage shows how this pdfpages instance is set up
type AboutPage struct {
	app.Compo
	health  HealthInfo
	loading bool
	error   string
}

// OnMount is called when the component is mounted
func (a *AboutPage) OnMount(ctx app.Context) {
	a.loading = true
	a.fetchHealth(ctx)
}

// fetchHealth fetches the converter state from the API
func (a *AboutPage) fetchHealth(ctx app.Context) {
	ctx.Async(func() {
		fetchText(ctx, BuildAPIURL("/api/health"), nil, func(ctx app.Context, status int, body string) {
			a.loading = false
			if status == 0 {
				a.error = "Network error"
				return
			}
			if err := json.Unmarshal([]byte(body), &a.health); err != nil {
				a.error = fmt.Sprintf("Failed to parse response: %v", err)
			}
		})
	})
}

// Render renders the about page
func (a *AboutPage) Render() app.UI {
	if a.loading {
		return app.Div().Class("about-page").Body(
			app.H2().Text("About pdfpages"),
			app.Div().Class("loading").Body(app.Text("Loading...")),
		)
	}

	if a.error != "" {
		return app.Div().Class("about-page").Body(
			app.H2().Text("About pdfpages"),
			app.Div().Class("error").Body(app.Text("Error: "+a.error)),
		)
	}

	return app.Div().Class("about-page").Body(
		app.H2().Text("About pdfpages"),
		app.Div().Class("about-content").Body(
			app.Div().Class("about-section").Body(
				app.H3().Text("Converter"),
				app.Div().Class("info-grid").Body(
					a.renderInfoItem("Version", a.health.Version),
					a.renderInfoItem("PDF Renderer", a.getRendererDisplay()),
					a.renderInfoItem("Render Scale", fmt.Sprintf("%gx", a.health.RenderScale)),
					a.renderInfoItem("WebP Output", a.getWebPStatus()),
					a.renderInfoItem("Upload Limit", fmt.Sprintf("%d MB", a.health.MaxUploadMB)),
					a.renderInfoItem("Open Sessions", fmt.Sprintf("%d", a.health.Sessions)),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("About pdfpages"),
				app.P().Text("pdfpages turns each page of a PDF into a JPG, PNG or WebP image."),
				app.P().Text("Everything runs on this computer. Converted pages live in memory until you close the app or convert another file."),
			),
		),
	)
}

// renderInfoItem creates an info item display
func (a *AboutPage) renderInfoItem(label, value string) app.UI {
	return app.Div().Class("info-item").Body(
		app.Div().Class("info-label").Body(app.Text(label)),
		app.Div().Class("info-value").Body(app.Text(value)),
	)
}

// getRendererDisplay returns a user-friendly renderer name
func (a *AboutPage) getRendererDisplay() string {
	switch a.health.Renderer {
	case "pdfium":
		return "PDFium"
	case "fitz":
		return "MuPDF"
	case "":
		return "Unknown"
	default:
		return a.health.Renderer
	}
}

// getWebPStatus reports whether WebP pages can be produced
func (a *AboutPage) getWebPStatus() string {
	if a.health.WebP {
		return "Available"
	}
	return "Unavailable (libvips without WebP)"
}
