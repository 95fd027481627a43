package samplepdf

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"testing"
)

func TestBuildDrawsOneRectanglePerPage(t *testing.T) {
	doc := Build(3)
	if !bytes.HasPrefix(doc, []byte("%PDF-1.4\n")) {
		t.Fatal("missing PDF header")
	}
	if !bytes.Contains(doc, []byte("/Count 3")) {
		t.Error("page tree does not count 3 pages")
	}

	mediaBox := fmt.Sprintf("/MediaBox [0 0 %d %d]", PageWidth, PageHeight)
	if n := bytes.Count(doc, []byte(mediaBox)); n != 3 {
		t.Errorf("found %d pages of %dx%d, want 3", n, PageWidth, PageHeight)
	}

	fills := regexp.MustCompile(`(?m)^([0-9.]+) g 10 10 \d+ \d+ re f$`).FindAllSubmatch(doc, -1)
	if len(fills) != 3 {
		t.Fatalf("found %d filled rectangles, want one per page", len(fills))
	}
	if bytes.Equal(fills[0][1], fills[1][1]) {
		t.Error("consecutive pages share a grey level")
	}
}

func TestBuildXrefOffsets(t *testing.T) {
	doc := Build(2)
	match := regexp.MustCompile(`startxref\n(\d+)\n`).FindSubmatch(doc)
	if match == nil {
		t.Fatal("missing startxref")
	}
	offset, _ := strconv.Atoi(string(match[1]))
	if !bytes.HasPrefix(doc[offset:], []byte("xref\n")) {
		t.Errorf("startxref %d does not point at the xref table", offset)
	}

	// object 3 is the first page
	entries := regexp.MustCompile(`(\d{10}) 00000 n `).FindAllSubmatch(doc, -1)
	if len(entries) != 6 {
		t.Fatalf("xref lists %d objects, want 6", len(entries))
	}
	pageOffset, _ := strconv.Atoi(string(entries[2][1]))
	if !bytes.HasPrefix(doc[pageOffset:], []byte("3 0 obj\n<< /Type /Page ")) {
		t.Error("xref entry for object 3 is not the first page")
	}
}

func TestGarbageIsNotAPDF(t *testing.T) {
	if bytes.HasPrefix(Garbage(), []byte("%PDF")) {
		t.Error("garbage starts with a PDF header")
	}
}
