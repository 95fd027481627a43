package pdfrenderer

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer implements PDF rendering using go-fitz (requires CGo and MuPDF)
type FitzRenderer struct {
}

// NewFitzRenderer creates a new Fitz-based PDF renderer
func NewFitzRenderer() (*FitzRenderer, error) {
	return &FitzRenderer{}, nil
}

// Name returns the backend name
func (r *FitzRenderer) Name() string {
	return "fitz"
}

// Open parses the PDF bytes with MuPDF
func (r *FitzRenderer) Open(data []byte) (Document, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}
	return &fitzDocument{doc: doc, pageCount: doc.NumPage()}, nil
}

// Close cleans up resources (no-op for Fitz renderer as each document is closed on its own)
func (r *FitzRenderer) Close() error {
	return nil
}

type fitzDocument struct {
	doc       *fitz.Document
	pageCount int
}

func (d *fitzDocument) PageCount() int {
	return d.pageCount
}

func (d *fitzDocument) RenderPage(pageIndex int, scale float64) (image.Image, error) {
	if err := checkPageIndex(pageIndex, d.pageCount); err != nil {
		return nil, err
	}
	if err := checkScale(scale); err != nil {
		return nil, err
	}
	img, err := d.doc.ImageDPI(pageIndex, DPIForScale(scale))
	if err != nil {
		return nil, fmt.Errorf("unable to render page %d: %w", pageIndex, err)
	}
	return img, nil
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}
