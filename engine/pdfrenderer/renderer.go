package pdfrenderer

import (
	"fmt"
	"image"
	"math"
)

// BaseDPI is the native resolution of a PDF page: one point per pixel.
const BaseDPI = 72.0

// Renderer opens PDF documents held in memory
type Renderer interface {
	// Name identifies the backend in logs and job records
	Name() string

	// Open parses the document bytes. The returned Document must be closed.
	Open(data []byte) (Document, error)

	// Close cleans up any resources used by the renderer
	Close() error
}

// Document is one parsed PDF. It is not safe for concurrent use: pages must
// be rendered one after another.
type Document interface {
	// PageCount returns the number of pages in the document
	PageCount() int

	// RenderPage rasterises the zero-based page at scale times its native size
	RenderPage(pageIndex int, scale float64) (image.Image, error)

	// Close releases the document and any engine instance it holds
	Close() error
}

// NewRenderer creates a renderer for the named backend ("pdfium" or "fitz").
// workers sizes the pdfium instance pool and is ignored by fitz.
func NewRenderer(backend string, workers int) (Renderer, error) {
	switch backend {
	case "", "pdfium":
		return NewPDFiumRenderer(workers)
	case "fitz", "mupdf":
		return NewFitzRenderer()
	default:
		return nil, fmt.Errorf("unknown renderer backend %q (supported: pdfium, fitz)", backend)
	}
}

// DPIForScale converts a magnification factor into the DPI the engines expect
func DPIForScale(scale float64) float64 {
	return BaseDPI * scale
}

func checkPageIndex(pageIndex, pageCount int) error {
	if pageIndex < 0 || pageIndex >= pageCount {
		return fmt.Errorf("page index %d out of range (document has %d pages)", pageIndex, pageCount)
	}
	return nil
}

func checkScale(scale float64) error {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return fmt.Errorf("invalid render scale %v", scale)
	}
	return nil
}
