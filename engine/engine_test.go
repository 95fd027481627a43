package engine

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/drummonds/pdfpages/database"
	"github.com/drummonds/pdfpages/engine/imageformat"
	"github.com/drummonds/pdfpages/engine/pdfrenderer"
)

func TestMain(m *testing.M) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	Logger = logger
	database.Logger = logger
	os.Exit(m.Run())
}

var errBrokenPage = errors.New("broken page")

// fakeRenderer draws each page as a flat tile whose shade depends on the page
// number, so outputs differ between pages and are stable between runs.
type fakeRenderer struct {
	pages    int
	openErr  error
	failPage int // 1-based page that fails to render, 0 for none

	// when set, rendering the first page signals started and waits on release
	started chan struct{}
	release chan struct{}

	mu       sync.Mutex
	rendered []int
	closed   int
}

func (r *fakeRenderer) Name() string { return "fake" }

func (r *fakeRenderer) Open(data []byte) (pdfrenderer.Document, error) {
	if r.openErr != nil {
		return nil, r.openErr
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return nil, errors.New("not a PDF")
	}
	return &fakeDocument{renderer: r}, nil
}

func (r *fakeRenderer) Close() error { return nil }

func (r *fakeRenderer) renderedPages() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.rendered...)
}

type fakeDocument struct {
	renderer *fakeRenderer
}

func (d *fakeDocument) PageCount() int { return d.renderer.pages }

func (d *fakeDocument) RenderPage(pageIndex int, scale float64) (image.Image, error) {
	r := d.renderer
	if pageIndex == 0 && r.started != nil {
		close(r.started)
		<-r.release
	}
	if r.failPage == pageIndex+1 {
		return nil, errBrokenPage
	}

	r.mu.Lock()
	r.rendered = append(r.rendered, pageIndex+1)
	r.mu.Unlock()

	w, h := int(20*scale), int(10*scale)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	shade := uint8(40 * (pageIndex + 1))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: 255 - shade, B: 128, A: 255})
		}
	}
	return img, nil
}

func (d *fakeDocument) Close() error {
	d.renderer.mu.Lock()
	d.renderer.closed++
	d.renderer.mu.Unlock()
	return nil
}

func newFakeConverter(r *fakeRenderer) *Converter {
	return NewConverter(r, imageformat.NewEncoder(0, 0))
}

// fakeDocumentBytes only needs to be non-empty for the fake renderer
var fakeDocumentBytes = []byte("%PDF-fake")
