package webapp

import (
	"encoding/json"
	"fmt"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// DefaultFormat is preselected when the server does not say otherwise
const DefaultFormat = "jpeg"

// frontendConfig returns window.pdfpages_config, injected by /config.js
func frontendConfig() app.Value {
	if !app.IsClient {
		return nil
	}
	config := app.Window().Get("pdfpages_config")
	if !config.Truthy() {
		return nil
	}
	return config
}

// GetAPIBaseURL returns the configured API base URL
// It reads from window.pdfpages_config.apiURL if available,
// otherwise falls back to empty string (relative URLs)
func GetAPIBaseURL() string {
	config := frontendConfig()
	if config == nil {
		return "" // Server-side rendering - use relative URLs
	}
	apiURL := config.Get("apiURL")
	if !apiURL.Truthy() {
		return ""
	}
	return trimTrailingSlash(apiURL.String())
}

func trimTrailingSlash(url string) string {
	if len(url) > 0 && url[len(url)-1] == '/' {
		return url[:len(url)-1]
	}
	return url
}

// BuildAPIURL constructs a full API URL from a path
// Example: BuildAPIURL("/api/export") -> "http://127.0.0.1:8000/api/export"
// or just "/api/export" if using relative URLs
func BuildAPIURL(path string) string {
	baseURL := GetAPIBaseURL()
	if baseURL == "" {
		return path // Relative URL
	}
	return baseURL + path
}

// ConfiguredFormat is the format the format selector starts on
func ConfiguredFormat() string {
	config := frontendConfig()
	if config == nil {
		return DefaultFormat
	}
	format := config.Get("defaultFormat")
	if !format.Truthy() {
		return DefaultFormat
	}
	return format.String()
}

// Job represents a conversion, export or cleanup run
type Job struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	CurrentStep string `json:"currentStep"`
	TotalSteps  int    `json:"totalSteps"`
	Message     string `json:"message"`
	Error       string `json:"error,omitempty"`
	Result      string `json:"result,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
	StartedAt   string `json:"startedAt,omitempty"`
	CompletedAt string `json:"completedAt,omitempty"`
}

// PageSummary is one converted page as listed by /api/result
type PageSummary struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Format      string `json:"format"`
	ContentType string `json:"contentType"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Bytes       int    `json:"bytes"`
	URL         string `json:"url"`
	PreviewURL  string `json:"previewURL"`
}

// ResultSummary is the held conversion result
type ResultSummary struct {
	ID         string        `json:"id"`
	Format     string        `json:"format"`
	Label      string        `json:"label"`
	SourceName string        `json:"sourceName"`
	Renderer   string        `json:"renderer"`
	PageCount  int           `json:"pageCount"`
	TotalBytes int64         `json:"totalBytes"`
	CreatedAt  string        `json:"createdAt"`
	ExportURL  string        `json:"exportURL"`
	JobID      string        `json:"jobId,omitempty"`
	Pages      []PageSummary `json:"pages"`
}

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error   string `json:"error"`
	Stage   string `json:"stage,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Page    int    `json:"page,omitempty"`
	Message string `json:"message"`
}

// Describe turns the error into the sentence shown in the error panel
func (e ErrorResponse) Describe() string {
	text := e.Error
	if text == "" {
		text = "Something went wrong"
	}
	if e.Stage != "" {
		text += " while " + e.Stage
	}
	if e.Message != "" {
		text += ": " + e.Message
	}
	return text
}

// HealthInfo is returned by /api/health
type HealthInfo struct {
	Status      string  `json:"status"`
	Version     string  `json:"version"`
	Renderer    string  `json:"renderer"`
	RenderScale float64 `json:"renderScale"`
	WebP        bool    `json:"webp"`
	Sessions    int     `json:"sessions"`
	MaxUploadMB int     `json:"maxUploadMB"`
}

// parseErrorBody decodes an error body, falling back to the HTTP status
func parseErrorBody(status int, body string) ErrorResponse {
	var apiErr ErrorResponse
	if err := json.Unmarshal([]byte(body), &apiErr); err != nil || (apiErr.Error == "" && apiErr.Message == "") {
		return ErrorResponse{
			Error:   "Request failed",
			Message: fmt.Sprintf("the server answered with status %d", status),
		}
	}
	return apiErr
}

// fetchText calls fetch and hands the status and body text to done on the UI
// goroutine. Network failures are reported with status 0.
func fetchText(ctx app.Context, url string, options app.Value, done func(ctx app.Context, status int, body string)) {
	var res app.Value
	if options == nil {
		res = app.Window().Call("fetch", url)
	} else {
		res = app.Window().Call("fetch", url, options)
	}

	res.Call("then", app.FuncOf(func(this app.Value, args []app.Value) interface{} {
		if len(args) == 0 {
			return nil
		}
		response := args[0]
		status := response.Get("status").Int()

		response.Call("text").Call("then", app.FuncOf(func(this app.Value, args []app.Value) interface{} {
			body := ""
			if len(args) > 0 {
				body = args[0].String()
			}
			ctx.Dispatch(func(ctx app.Context) {
				done(ctx, status, body)
			})
			return nil
		}))
		return nil
	})).Call("catch", app.FuncOf(func(this app.Value, args []app.Value) interface{} {
		ctx.Dispatch(func(ctx app.Context) {
			done(ctx, 0, "")
		})
		return nil
	}))
}
