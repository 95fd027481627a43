package webapp

import (
	"fmt"
	"testing"
)

func typeName(v interface{}) string {
	return fmt.Sprintf("%T", v)
}

// TestFormatChoices checks the selector offers exactly JPG, PNG and WebP in that order
func TestFormatChoices(t *testing.T) {
	want := []FormatChoice{
		{Label: "JPG", Identifier: "jpeg"},
		{Label: "PNG", Identifier: "png"},
		{Label: "WebP", Identifier: "webp"},
	}
	if len(FormatChoices) != len(want) {
		t.Fatalf("got %d format choices, want %d", len(FormatChoices), len(want))
	}
	for i := range want {
		if FormatChoices[i] != want[i] {
			t.Errorf("choice %d = %+v, want %+v", i, FormatChoices[i], want[i])
		}
	}
}

func TestDefaultFormatOutsideBrowser(t *testing.T) {
	if got := ConfiguredFormat(); got != "jpeg" {
		t.Errorf("ConfiguredFormat() = %q, want jpeg", got)
	}
	if got := BuildAPIURL("/api/export"); got != "/api/export" {
		t.Errorf("BuildAPIURL() = %q, want a relative URL", got)
	}
}

func TestDownloadLabel(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"jpeg", "Download Single JPEG"},
		{"png", "Download Single PNG"},
		{"webp", "Download Single WEBP"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			if got := downloadLabel(tt.format); got != tt.want {
				t.Errorf("downloadLabel(%q) = %q, want %q", tt.format, got, tt.want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 << 20, "5.0 MB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestResultCaption(t *testing.T) {
	tests := []struct {
		name   string
		result *ResultSummary
		want   string
	}{
		{
			name:   "no result",
			result: nil,
			want:   "",
		},
		{
			name:   "single page",
			result: &ResultSummary{PageCount: 1, Label: "PNG", TotalBytes: 100},
			want:   "1 page as PNG (100 B)",
		},
		{
			name:   "named source",
			result: &ResultSummary{PageCount: 3, Label: "JPG", SourceName: "report.pdf", TotalBytes: 2048},
			want:   "report.pdf: 3 pages as JPG (2.0 KB)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resultCaption(tt.result); got != tt.want {
				t.Errorf("resultCaption() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorResponseDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  ErrorResponse
		want string
	}{
		{
			name: "with stage",
			err:  ErrorResponse{Error: "Conversion failed", Stage: "rendering page 2", Message: "Page 2 could not be converted."},
			want: "Conversion failed while rendering page 2: Page 2 could not be converted.",
		},
		{
			name: "without stage",
			err:  ErrorResponse{Error: "Not Found", Message: "There is no converted page 9"},
			want: "Not Found: There is no converted page 9",
		},
		{
			name: "empty",
			err:  ErrorResponse{},
			want: "Something went wrong",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Describe(); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseErrorBody(t *testing.T) {
	body := `{"error":"File too large","stage":"reading the upload","message":"The file is larger than the 1 MB limit."}`
	got := parseErrorBody(413, body)
	if got.Error != "File too large" || got.Stage != "reading the upload" {
		t.Errorf("parseErrorBody() = %+v", got)
	}

	fallback := parseErrorBody(502, "<html>bad gateway</html>")
	if fallback.Message != "the server answered with status 502" {
		t.Errorf("fallback message = %q", fallback.Message)
	}
}

// TestConverterPageRender renders the page with and without a result
func TestConverterPageRender(t *testing.T) {
	page := &ConverterPage{}
	if page.Render() == nil {
		t.Fatal("Render should return a valid UI component")
	}
	if len(page.pages()) != 0 {
		t.Error("a fresh page should have no pages")
	}

	page.result = &ResultSummary{
		PageCount: 2,
		Label:     "PNG",
		ExportURL: "/api/export",
		Pages: []PageSummary{
			{Index: 1, Name: "page-1.png", Format: "png", URL: "/api/pages/1", PreviewURL: "/api/pages/1?inline=true"},
			{Index: 2, Name: "page-2.png", Format: "png", URL: "/api/pages/2", PreviewURL: "/api/pages/2?inline=true"},
		},
	}
	page.errorPanel = &ErrorResponse{Error: "Conversion failed", Stage: "opening the document", Message: "not a PDF"}
	if page.Render() == nil {
		t.Fatal("Render should return a valid UI component")
	}
	if len(page.pages()) != 2 {
		t.Errorf("got %d pages, want 2", len(page.pages()))
	}
}
