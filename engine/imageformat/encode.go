package imageformat

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/h2non/bimg"
)

// Browser canvas encoder defaults
const (
	DefaultJPEGQuality = 92
	DefaultWebPQuality = 80
)

// Encoder turns a rendered page into encoded bytes. The zero value uses the
// default qualities.
type Encoder struct {
	JPEGQuality int
	WebPQuality int
}

// NewEncoder returns an encoder with the given qualities clamped to 1-100
func NewEncoder(jpegQuality, webpQuality int) *Encoder {
	return &Encoder{
		JPEGQuality: clampQuality(jpegQuality, DefaultJPEGQuality),
		WebPQuality: clampQuality(webpQuality, DefaultWebPQuality),
	}
}

// Encode encodes img in format f
func (e *Encoder) Encode(img image.Image, f Format) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("cannot encode nil image")
	}

	switch f {
	case JPEG:
		return e.encodeJPEG(img)
	case PNG:
		return encodeImaging(img, imaging.PNG)
	case WebP:
		return e.encodeWebP(img)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
}

func (e *Encoder) encodeJPEG(img image.Image) ([]byte, error) {
	// JPEG has no alpha; flatten on white so transparent areas do not turn black
	b := img.Bounds()
	flat := imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), img, image.Pt(0, 0), 1.0)
	return encodeImaging(flat, imaging.JPEG, imaging.JPEGQuality(clampQuality(e.JPEGQuality, DefaultJPEGQuality)))
}

func (e *Encoder) encodeWebP(img image.Image) ([]byte, error) {
	// libvips takes encoded input, so hand it a lossless PNG
	png, err := encodeImaging(img, imaging.PNG)
	if err != nil {
		return nil, err
	}
	out, err := bimg.NewImage(png).Process(bimg.Options{
		Type:    bimg.WEBP,
		Quality: clampQuality(e.WebPQuality, DefaultWebPQuality),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode WebP: %w", err)
	}
	return out, nil
}

func encodeImaging(img image.Image, format imaging.Format, opts ...imaging.EncodeOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, opts...); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// WebPSupported reports whether the linked libvips can write WebP
func WebPSupported() bool {
	return bimg.IsTypeSupportedSave(bimg.WEBP)
}

// BackendVersion returns the libvips version used for WebP
func BackendVersion() string {
	return bimg.VipsVersion
}

func clampQuality(q, fallback int) int {
	if q == 0 {
		return fallback
	}
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}
