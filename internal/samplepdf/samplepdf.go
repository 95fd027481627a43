// Package samplepdf builds small, valid PDF documents in memory. They back
// the renderer self-check at startup and the tests.
package samplepdf

import (
	"bytes"
	"fmt"
	"strings"
)

// PageWidth and PageHeight are the MediaBox size, in points, of every page
// produced by Build.
const (
	PageWidth  = 200
	PageHeight = 100
)

// Build returns a PDF with the given number of pages, each PageWidth by
// PageHeight points with one filled rectangle drawn on it, so rasterised
// output is not uniformly white.
func Build(pages int) []byte {
	var buf bytes.Buffer
	offsets := make([]int, 0, 2+pages*2)

	writeObject := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	// object 1: catalog, object 2: page tree, then page/content pairs
	kids := make([]string, 0, pages)
	for i := 0; i < pages; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", 3+i*2))
	}
	writeObject("<< /Type /Catalog /Pages 2 0 R >>")
	writeObject(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))

	for i := 0; i < pages; i++ {
		contentRef := 4 + i*2
		writeObject(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Contents %d 0 R >>",
			PageWidth, PageHeight, contentRef))
		// grey level varies per page so pages differ from each other
		stream := fmt.Sprintf("%.2f g 10 10 %d %d re f", float64(i%5)/5, PageWidth-20, PageHeight-20)
		writeObject(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefOffset)

	return buf.Bytes()
}

// Garbage returns bytes that no PDF engine will accept as a document.
func Garbage() []byte {
	return []byte("this is definitely not a PDF document\x00\x01\x02")
}
