package pdfrenderer

import (
	"fmt"
	"image"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
)

// instanceTimeout bounds how long Open waits for a free PDFium instance
const instanceTimeout = 30 * time.Second

// PDFiumRenderer implements PDF rendering using go-pdfium with WebAssembly (pure Go, no CGo)
type PDFiumRenderer struct {
	pool pdfium.Pool
}

// NewPDFiumRenderer creates a new PDFium-based PDF renderer using WebAssembly.
// Every open document holds one instance from the pool, so workers is the
// number of documents that can be rendered at the same time.
func NewPDFiumRenderer(workers int) (*PDFiumRenderer, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  workers,
		MaxTotal: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PDFium WebAssembly: %w", err)
	}

	return &PDFiumRenderer{
		pool: pool,
	}, nil
}

// Name returns the backend name
func (r *PDFiumRenderer) Name() string {
	return "pdfium"
}

// Open loads the PDF bytes into a PDFium instance taken from the pool
func (r *PDFiumRenderer) Open(data []byte) (Document, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("PDFium renderer is closed")
	}
	instance, err := r.pool.GetInstance(instanceTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to get PDFium instance: %w", err)
	}

	doc, err := instance.OpenDocument(&requests.OpenDocument{
		File: &data,
	})
	if err != nil {
		instance.Close()
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}

	pageCountResp, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc.Document,
	})
	if err != nil {
		instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})
		instance.Close()
		return nil, fmt.Errorf("unable to get page count: %w", err)
	}

	return &pdfiumDocument{
		instance:  instance,
		document:  doc.Document,
		pageCount: pageCountResp.PageCount,
	}, nil
}

// Close cleans up resources used by the PDFium renderer
func (r *PDFiumRenderer) Close() error {
	if r.pool != nil {
		err := r.pool.Close()
		r.pool = nil
		return err
	}
	return nil
}

type pdfiumDocument struct {
	instance  pdfium.Pdfium
	document  references.FPDF_DOCUMENT
	pageCount int
}

func (d *pdfiumDocument) PageCount() int {
	return d.pageCount
}

func (d *pdfiumDocument) RenderPage(pageIndex int, scale float64) (image.Image, error) {
	if err := checkPageIndex(pageIndex, d.pageCount); err != nil {
		return nil, err
	}
	if err := checkScale(scale); err != nil {
		return nil, err
	}

	pageRender, err := d.instance.RenderPageInDPI(&requests.RenderPageInDPI{
		DPI: int(math.Round(DPIForScale(scale))),
		Page: requests.Page{
			ByIndex: &requests.PageByIndex{
				Document: d.document,
				Index:    pageIndex,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to render page %d: %w", pageIndex, err)
	}
	// The bitmap lives in WebAssembly memory that Cleanup frees
	img := imaging.Clone(pageRender.Result.Image)
	pageRender.Cleanup()

	return img, nil
}

func (d *pdfiumDocument) Close() error {
	_, err := d.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: d.document,
	})
	if closeErr := d.instance.Close(); err == nil {
		err = closeErr
	}
	return err
}
