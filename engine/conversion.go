package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/drummonds/pdfpages/engine/imageformat"
	"github.com/oklog/ulid/v2"
)

// Failure reasons carried by ConversionError and ExportError
const (
	ReasonUnreadableFile = "unreadable-file"
	ReasonRenderFailure  = "render-failure"
	ReasonCancelled      = "cancelled"

	ReasonArchiveAssemblyFailed = "archive-assembly-failed"
)

// Causes of a cancelled conversion, besides the caller giving up
var (
	ErrSuperseded = errors.New("superseded by a newer upload")
	ErrCleared    = errors.New("result cleared")
)

// RenderedPage is one page's encoded image. It is never modified after
// conversion.
type RenderedPage struct {
	Index   int // 1-based, matches the source page order
	Format  imageformat.Format
	Width   int
	Height  int
	payload []byte
}

// NewRenderedPage wraps an encoded payload
func NewRenderedPage(index int, format imageformat.Format, payload []byte, width, height int) RenderedPage {
	return RenderedPage{
		Index:   index,
		Format:  format,
		Width:   width,
		Height:  height,
		payload: payload,
	}
}

// Payload returns a copy of the encoded bytes
func (p RenderedPage) Payload() []byte {
	out := make([]byte, len(p.payload))
	copy(out, p.payload)
	return out
}

// Size is the length of the encoded payload in bytes
func (p RenderedPage) Size() int {
	return len(p.payload)
}

// FileName is the download name of the page, page-{index}.{extension}
func (p RenderedPage) FileName() string {
	return p.Format.FileName(p.Index)
}

// ConversionResult is the ordered output of one successful conversion. A
// result is replaced wholesale by the next conversion, never edited.
type ConversionResult struct {
	ID         ulid.ULID
	Format     imageformat.Format
	SourceName string
	Renderer   string
	CreatedAt  time.Time
	pages      []RenderedPage
}

// NewConversionResult builds a result from pages already in index order
func NewConversionResult(format imageformat.Format, pages []RenderedPage) *ConversionResult {
	now := time.Now()
	held := make([]RenderedPage, len(pages))
	copy(held, pages)
	return &ConversionResult{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()),
		Format:    format,
		CreatedAt: now,
		pages:     held,
	}
}

// Len returns the number of pages
func (r *ConversionResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.pages)
}

// Pages returns a snapshot of the pages in ascending index order
func (r *ConversionResult) Pages() []RenderedPage {
	if r == nil {
		return nil
	}
	out := make([]RenderedPage, len(r.pages))
	copy(out, r.pages)
	return out
}

// Page looks up a page by its 1-based index
func (r *ConversionResult) Page(index int) (RenderedPage, bool) {
	if r == nil || index < 1 || index > len(r.pages) {
		return RenderedPage{}, false
	}
	return r.pages[index-1], true
}

// TotalBytes sums the encoded payload sizes
func (r *ConversionResult) TotalBytes() int64 {
	var total int64
	for _, p := range r.Pages() {
		total += int64(p.Size())
	}
	return total
}

// ConversionError reports why a conversion produced no result
type ConversionError struct {
	Reason    string
	PageIndex int // 1-based; 0 when the failure is not tied to a page
	Err       error
}

func (e *ConversionError) Error() string {
	msg := "conversion failed: " + e.Reason
	if e.PageIndex > 0 {
		msg = fmt.Sprintf("%s on page %d", msg, e.PageIndex)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Stage names the part of the pipeline that failed, for user-facing messages
func (e *ConversionError) Stage() string {
	switch e.Reason {
	case ReasonUnreadableFile:
		return "opening the document"
	case ReasonRenderFailure:
		return fmt.Sprintf("rendering page %d", e.PageIndex)
	case ReasonCancelled:
		switch {
		case errors.Is(e.Err, ErrSuperseded):
			return "conversion (superseded by a newer upload)"
		case errors.Is(e.Err, ErrCleared):
			return "conversion (result cleared)"
		}
		return "conversion (cancelled)"
	}
	return "conversion"
}

// ExportError reports a failed bundle export
type ExportError struct {
	Reason string
	Err    error
}

func (e *ExportError) Error() string {
	if e.Err != nil {
		return "export failed: " + e.Reason + ": " + e.Err.Error()
	}
	return "export failed: " + e.Reason
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// Stage names the part of the export that failed
func (e *ExportError) Stage() string {
	return "building the zip archive"
}
