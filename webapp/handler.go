package webapp

import (
	_ "embed"
	"net/http"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// Stylesheet is served at /webapp/webapp.css
//
//go:embed webapp.css
var Stylesheet []byte

// Routes are the client-side routes; all of them render App
var Routes = []string{"/", "/jobs", "/about"}

// RegisterRoutes points every client-side route at the App component
func RegisterRoutes() {
	for _, path := range Routes {
		app.Route(path, func() app.Composer { return &App{} })
	}
}

// Handler returns an HTTP handler for the web app
func Handler() http.Handler {
	RegisterRoutes()
	app.RunWhenOnBrowser()

	// wasm_exec.js and app.js are generated by the handler
	// app.wasm is served from /web/app.wasm by Echo
	return &app.Handler{
		Name:        "pdfpages",
		ShortName:   "pdfpages",
		Title:       "pdfpages",
		Description: "Convert PDF pages to JPG, PNG or WebP images on your own computer",
		Styles: []string{
			"/webapp/webapp.css",
		},
		Scripts: []string{
			"/config.js", // Load backend API configuration
		},
		RawHeaders: []string{
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
		},
	}
}
