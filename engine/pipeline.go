package engine

import (
	"context"
	"fmt"

	"github.com/drummonds/pdfpages/engine/imageformat"
	"github.com/drummonds/pdfpages/engine/pdfrenderer"
)

// RenderScale is the fixed magnification applied to every page
const RenderScale = 1.5

// ProgressFunc is called after each page is encoded
type ProgressFunc func(done, total int)

// Converter turns PDF bytes into one encoded image per page
type Converter struct {
	Renderer pdfrenderer.Renderer
	Encoder  *imageformat.Encoder
	Scale    float64
}

// NewConverter returns a converter using the fixed render scale
func NewConverter(renderer pdfrenderer.Renderer, encoder *imageformat.Encoder) *Converter {
	if encoder == nil {
		encoder = imageformat.NewEncoder(0, 0)
	}
	return &Converter{Renderer: renderer, Encoder: encoder, Scale: RenderScale}
}

// Convert renders every page of data in ascending order and encodes it in
// format. Pages are strictly sequential: a document handle is never rendered
// from two goroutines. Any failure aborts the whole run and no result is
// returned. The context is checked between pages and its cause is kept on
// the ConversionError; a single page render is not interruptible and has no
// timeout.
func (c *Converter) Convert(ctx context.Context, data []byte, format imageformat.Format, progress ProgressFunc) (*ConversionResult, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("convert: %w: %q", imageformat.ErrUnsupportedFormat, string(format))
	}
	if ctx.Err() != nil {
		return nil, &ConversionError{Reason: ReasonCancelled, Err: context.Cause(ctx)}
	}

	doc, err := c.Renderer.Open(data)
	if err != nil {
		return nil, &ConversionError{Reason: ReasonUnreadableFile, Err: err}
	}
	defer doc.Close()

	pageCount := doc.PageCount()
	if pageCount < 1 {
		return nil, &ConversionError{Reason: ReasonUnreadableFile, Err: fmt.Errorf("document has no pages")}
	}
	Logger.Debug("Document opened", "pages", pageCount, "format", format, "renderer", c.Renderer.Name())

	scale := c.Scale
	if scale <= 0 {
		scale = RenderScale
	}

	pages := make([]RenderedPage, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		if ctx.Err() != nil {
			return nil, &ConversionError{Reason: ReasonCancelled, PageIndex: i + 1, Err: context.Cause(ctx)}
		}

		img, err := doc.RenderPage(i, scale)
		if err != nil {
			return nil, &ConversionError{Reason: ReasonRenderFailure, PageIndex: i + 1, Err: err}
		}
		payload, err := c.Encoder.Encode(img, format)
		if err != nil {
			return nil, &ConversionError{Reason: ReasonRenderFailure, PageIndex: i + 1, Err: err}
		}

		bounds := img.Bounds()
		pages = append(pages, NewRenderedPage(i+1, format, payload, bounds.Dx(), bounds.Dy()))
		if progress != nil {
			progress(i+1, pageCount)
		}
	}

	result := NewConversionResult(format, pages)
	result.Renderer = c.Renderer.Name()
	return result, nil
}
