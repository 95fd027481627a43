package webapp

import (
	"testing"
)

// TestGetRendererDisplay tests the renderer name conversion
func TestGetRendererDisplay(t *testing.T) {
	tests := []struct {
		name     string
		renderer string
		expected string
	}{
		{
			name:     "PDFium",
			renderer: "pdfium",
			expected: "PDFium",
		},
		{
			name:     "MuPDF",
			renderer: "fitz",
			expected: "MuPDF",
		},
		{
			name:     "Not reported",
			renderer: "",
			expected: "Unknown",
		},
		{
			name:     "Unknown renderer",
			renderer: "poppler",
			expected: "poppler",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &AboutPage{
				health: HealthInfo{
					Renderer: tt.renderer,
				},
			}
			got := page.getRendererDisplay()
			if got != tt.expected {
				t.Errorf("getRendererDisplay() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestGetWebPStatus tests the WebP availability display
func TestGetWebPStatus(t *testing.T) {
	page := &AboutPage{health: HealthInfo{WebP: true}}
	if got := page.getWebPStatus(); got != "Available" {
		t.Errorf("getWebPStatus() = %v, want Available", got)
	}

	page.health.WebP = false
	if got := page.getWebPStatus(); got == "Available" {
		t.Error("getWebPStatus() should not report WebP as available")
	}
}

// TestAboutPageRenderStates renders each of the loading, error and loaded states
func TestAboutPageRenderStates(t *testing.T) {
	pages := map[string]*AboutPage{
		"loading": {loading: true},
		"error":   {error: "Network error"},
		"loaded":  {health: HealthInfo{Version: "dev", Renderer: "pdfium", RenderScale: 1.5, MaxUploadMB: 100}},
	}
	for name, page := range pages {
		if page.Render() == nil {
			t.Errorf("%s: Render should return a valid UI component", name)
		}
	}
}
