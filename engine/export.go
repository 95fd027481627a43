package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zip"
)

// ArchiveName is the download name of every bundle, whatever the format
const ArchiveName = "pdf-pages.zip"

// Archive entry compression methods
const (
	CompressionStore   = "store"
	CompressionDeflate = "deflate"
)

// DownloadFile is a named blob ready to hand to the user
type DownloadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ArchiveEntry is one named file of a bundle
type ArchiveEntry struct {
	Name     string
	Modified time.Time
	Data     []byte
}

// Archiver packs named files, in order, into a single bundle. Entry data is
// shared with the held result and must not be modified.
type Archiver interface {
	Pack(entries []ArchiveEntry) ([]byte, error)
}

// ZipArchiver builds zip bundles
type ZipArchiver struct {
	Compression string // CompressionStore or CompressionDeflate
}

// Pack builds the whole archive in memory
func (a ZipArchiver) Pack(entries []ArchiveEntry) ([]byte, error) {
	var buf bytes.Buffer
	if err := a.Write(&buf, entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write streams the archive to w
func (a ZipArchiver) Write(w io.Writer, entries []ArchiveEntry) error {
	method := zip.Store
	if a.Compression == CompressionDeflate {
		method = zip.Deflate
	}

	zw := zip.NewWriter(w)
	for _, entry := range entries {
		header := &zip.FileHeader{
			Name:     entry.Name,
			Method:   method,
			Modified: entry.Modified,
		}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			zw.Close()
			return fmt.Errorf("adding %s: %w", entry.Name, err)
		}
		if _, err := fw.Write(entry.Data); err != nil {
			zw.Close()
			return fmt.Errorf("writing %s: %w", entry.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

// ExportOne presents a single page as a download named page-{index}.{ext}
func ExportOne(page RenderedPage) DownloadFile {
	return DownloadFile{
		Name:        page.FileName(),
		ContentType: page.Format.MIMEType(),
		Data:        page.Payload(),
	}
}

// ExportAll packs every page of result into pdf-pages.zip. An absent or
// empty result is not an error: it returns nil and nothing is produced.
// Any archiver failure is reported as an ExportError.
func ExportAll(result *ConversionResult, archiver Archiver) (*DownloadFile, error) {
	if result.Len() == 0 {
		return nil, nil
	}

	entries := make([]ArchiveEntry, 0, result.Len())
	for _, page := range result.Pages() {
		entries = append(entries, ArchiveEntry{
			Name:     page.FileName(),
			Modified: result.CreatedAt,
			Data:     page.payload,
		})
	}

	data, err := archiver.Pack(entries)
	if err != nil {
		var exportErr *ExportError
		if errors.As(err, &exportErr) {
			return nil, err
		}
		return nil, &ExportError{Reason: ReasonArchiveAssemblyFailed, Err: err}
	}

	return &DownloadFile{
		Name:        ArchiveName,
		ContentType: "application/zip",
		Data:        data,
	}, nil
}
