// Package imageformat holds the supported output encodings and turns rendered
// pages into encoded image bytes.
package imageformat

import (
	"errors"
	"fmt"
	"strings"
)

// Format is the canonical encoding identifier of an output image
type Format string

const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
	WebP Format = "webp"
)

// Default is the format preselected in the UI and the CLI
const Default = JPEG

// ErrUnsupportedFormat is returned for identifiers outside the supported set
var ErrUnsupportedFormat = errors.New("unsupported image format")

// All returns the supported formats in display order
func All() []Format {
	return []Format{JPEG, PNG, WebP}
}

// Parse accepts a format identifier, a displayed label or a common file
// extension ("jpg"), case-insensitively.
func Parse(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "jpeg", "jpg":
		return JPEG, nil
	case "png":
		return PNG, nil
	case "webp":
		return WebP, nil
	}
	return "", fmt.Errorf("%w: %q (supported: jpeg, png, webp)", ErrUnsupportedFormat, s)
}

// Valid reports whether f is one of the supported formats
func (f Format) Valid() bool {
	switch f {
	case JPEG, PNG, WebP:
		return true
	}
	return false
}

// Extension returns the file extension, without the dot. It always equals
// the identifier so file names never disagree with the encoding.
func (f Format) Extension() string {
	return string(f)
}

// MIMEType returns the content type of the encoded bytes
func (f Format) MIMEType() string {
	return "image/" + string(f)
}

// Label returns the name shown in the format selector
func (f Format) Label() string {
	switch f {
	case JPEG:
		return "JPG"
	case PNG:
		return "PNG"
	case WebP:
		return "WebP"
	}
	return strings.ToUpper(string(f))
}

// FileName returns the download name of the 1-based page index
func (f Format) FileName(index int) string {
	return fmt.Sprintf("page-%d.%s", index, f.Extension())
}

func (f Format) String() string {
	return string(f)
}
