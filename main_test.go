package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/drummonds/pdfpages/cmd"
	config "github.com/drummonds/pdfpages/config"
	database "github.com/drummonds/pdfpages/database"
	engine "github.com/drummonds/pdfpages/engine"
	"github.com/drummonds/pdfpages/engine/imageformat"
	"github.com/drummonds/pdfpages/engine/pdfrenderer"
	"github.com/drummonds/pdfpages/internal/samplepdf"
)

func TestMain(m *testing.M) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	cmd.Logger = logger
	config.Logger = logger
	database.Logger = logger
	engine.Logger = logger
	os.Exit(m.Run())
}

// startServer runs the full application, with the real PDF renderer, behind httptest
func startServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Load()
	cfg.DatabaseDbname = "main-test-" + strings.ReplaceAll(t.Name(), "/", "-")

	db, err := database.NewRepository(cfg)
	if err != nil {
		t.Fatalf("Failed to set up job store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	renderer, err := pdfrenderer.NewRenderer(cfg.Renderer, cfg.RenderWorkers)
	if err != nil {
		t.Skipf("PDF renderer %s unavailable: %v", cfg.Renderer, err)
	}
	t.Cleanup(func() { renderer.Close() })
	conv := engine.NewConverter(renderer, imageformat.NewEncoder(cfg.JPEGQuality, cfg.WebPQuality))

	e, _ := cmd.NewServer(cfg, db, conv)
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return server
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 30 * time.Second}
}

// TestServerEndToEnd converts a generated PDF through the HTTP API and downloads the results
func TestServerEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	server := startServer(t)
	client := newClient(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "three.pdf")
	if err != nil {
		t.Fatal(err)
	}
	part.Write(samplepdf.Build(3))
	writer.WriteField("format", "png")
	writer.Close()

	resp, err := client.Post(server.URL+"/api/convert", writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST /api/convert failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("POST /api/convert returned %d: %s", resp.StatusCode, data)
	}

	var summary engine.ResultSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if summary.PageCount != 3 || len(summary.Pages) != 3 {
		t.Fatalf("got %d pages, want 3", summary.PageCount)
	}
	for i, page := range summary.Pages {
		if want := fmt.Sprintf("page-%d.png", i+1); page.Name != want {
			t.Errorf("page %d named %s, want %s", i+1, page.Name, want)
		}
		if abs(page.Width-samplepdf.PageWidth*3/2) > 1 || abs(page.Height-samplepdf.PageHeight*3/2) > 1 {
			t.Errorf("page %d is %dx%d, want 1.5x the source size", i+1, page.Width, page.Height)
		}
	}

	pageResp, err := client.Get(server.URL + "/api/pages/2")
	if err != nil {
		t.Fatalf("GET /api/pages/2 failed: %v", err)
	}
	pageData, _ := io.ReadAll(pageResp.Body)
	pageResp.Body.Close()
	if pageResp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("page content type = %s", pageResp.Header.Get("Content-Type"))
	}
	if !strings.Contains(pageResp.Header.Get("Content-Disposition"), `filename="page-2.png"`) {
		t.Errorf("page disposition = %s", pageResp.Header.Get("Content-Disposition"))
	}

	zipResp, err := client.Get(server.URL + "/api/export")
	if err != nil {
		t.Fatalf("GET /api/export failed: %v", err)
	}
	zipData, _ := io.ReadAll(zipResp.Body)
	zipResp.Body.Close()
	if !strings.Contains(zipResp.Header.Get("Content-Disposition"), `filename="pdf-pages.zip"`) {
		t.Errorf("archive disposition = %s", zipResp.Header.Get("Content-Disposition"))
	}

	archive, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	if len(archive.File) != 3 {
		t.Fatalf("archive has %d entries, want 3", len(archive.File))
	}
	for i, f := range archive.File {
		if want := fmt.Sprintf("page-%d.png", i+1); f.Name != want {
			t.Errorf("entry %d named %s, want %s", i, f.Name, want)
		}
	}
	rc, err := archive.File[1].Open()
	if err != nil {
		t.Fatal(err)
	}
	entry, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(entry, pageData) {
		t.Error("archive entry page-2.png differs from the single page download")
	}
}

// TestServerUIAndFallbacks checks the non-API surface of the server
func TestServerUIAndFallbacks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	server := startServer(t)
	client := newClient(t)

	tests := []struct {
		path        string
		status      int
		contains    string
		contentType string
	}{
		{"/", http.StatusOK, "pdfpages", "text/html"},
		{"/jobs", http.StatusOK, "pdfpages", "text/html"},
		{"/config.js", http.StatusOK, "window.pdfpages_config", "application/javascript"},
		{"/webapp/webapp.css", http.StatusOK, ".page-card", "text/css"},
		{"/api/does-not-exist", http.StatusNotFound, "The requested API endpoint does not exist", "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := client.Get(server.URL + tt.path)
			if err != nil {
				t.Fatalf("GET %s failed: %v", tt.path, err)
			}
			defer resp.Body.Close()
			data, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.status {
				t.Errorf("GET %s returned %d, want %d", tt.path, resp.StatusCode, tt.status)
			}
			if !strings.Contains(resp.Header.Get("Content-Type"), tt.contentType) {
				t.Errorf("GET %s content type = %s, want %s", tt.path, resp.Header.Get("Content-Type"), tt.contentType)
			}
			if !strings.Contains(string(data), tt.contains) {
				t.Errorf("GET %s body does not contain %q", tt.path, tt.contains)
			}
		})
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// getBrowser finds an available Chrome or Chromium for testing
func getBrowser() (string, error) {
	browsers := []string{"chromium", "chromium-browser", "google-chrome", "google-chrome-stable", "chrome"}
	for _, browser := range browsers {
		if path, err := exec.LookPath(browser); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no suitable browser found")
}

// TestFrontendRendering tests that the frontend loads correctly using a headless browser
func TestFrontendRendering(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	browserPath, err := getBrowser()
	if err != nil {
		t.Skip("No Chrome or Chromium found, skipping browser test")
	}
	t.Logf("Using browser: %s", browserPath)

	server := startServer(t)

	// Create headless browser context
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(browserPath),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	// Set a timeout for the browser operations
	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var pageTitle string
	var bodyHTML string

	err = chromedp.Run(ctx,
		chromedp.Navigate(server.URL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.Title(&pageTitle),
		chromedp.InnerHTML("body", &bodyHTML),
	)
	if err != nil {
		t.Fatalf("Failed to load page: %v", err)
	}

	if !strings.Contains(pageTitle, "pdfpages") {
		t.Errorf("Page title = %q, want it to mention pdfpages", pageTitle)
	}

	// Check that the page contains expected content
	if len(bodyHTML) < 100 {
		t.Errorf("Body HTML seems too short (%d chars), page may not have rendered properly", len(bodyHTML))
	}

	t.Logf("Frontend test passed! Page title: %s, Body length: %d chars", pageTitle, len(bodyHTML))
}
