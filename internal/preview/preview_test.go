package preview_test

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/JaimeStill/docview/internal/preview"
	"github.com/JaimeStill/docview/pkg/logging"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want preview.Kind
	}{
		{"scan.pdf", preview.KindPaginated},
		{"photo.PNG", preview.KindRaster},
		{"data.csv", preview.KindUnsupported},
		{"uploads/report.pdf", preview.KindPaginated},
		{"uploads/REPORT.PDF", preview.KindPaginated},
		{"scan.jpg", preview.KindRaster},
		{"scan.JPEG", preview.KindRaster},
		{"a/b/c.png", preview.KindRaster},
		{"anim.gif", preview.KindRaster},
		{"legacy.bmp", preview.KindRaster},
		{"photo.WebP", preview.KindRaster},
		{"notes.docx", preview.KindUnsupported},
		{"archive.tar.gz", preview.KindUnsupported},
		{"README", preview.KindUnsupported},
		{"", preview.KindUnsupported},
		{"pdf", preview.KindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := preview.Classify(tt.path); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func newCache(t *testing.T, maxLive int) *preview.Cache {
	t.Helper()
	c, err := preview.New(maxLive, logging.Discard())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return c
}

func TestNew_InvalidCapacity(t *testing.T) {
	if _, err := preview.New(0, logging.Discard()); err == nil {
		t.Error("New(0) succeeded, want error")
	}
}

func TestMaterialize_Paginated(t *testing.T) {
	c := newCache(t, 4)
	data := minimalPDF(3)

	h, err := c.Materialize("v1", "uploads/report.pdf", data, "application/pdf")
	if err != nil {
		t.Fatalf("Materialize() failed: %v", err)
	}

	if h.Kind != preview.KindPaginated {
		t.Errorf("Kind = %s, want %s", h.Kind, preview.KindPaginated)
	}
	if !strings.HasPrefix(h.LocalRef, "blob:") {
		t.Errorf("LocalRef = %q, want blob: prefix", h.LocalRef)
	}
	if h.Size != int64(len(data)) {
		t.Errorf("Size = %d, want %d", h.Size, len(data))
	}
	if h.PageCount == nil || *h.PageCount != 3 {
		t.Errorf("PageCount = %v, want 3", h.PageCount)
	}

	got, err := c.Read(h)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("Read() returned different bytes")
	}
}

func TestMaterialize_Raster(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 7, 5))

	var pngBuf, bmpBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		t.Fatal(err)
	}
	if err := bmp.Encode(&bmpBuf, img); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		data     []byte
		declared string
		wantType string
	}{
		{"png declared", "scan.png", pngBuf.Bytes(), "image/png", "image/png"},
		{"png sniffed", "scan.png", pngBuf.Bytes(), "", "image/png"},
		{"bmp octet-stream", "scan.bmp", bmpBuf.Bytes(), "application/octet-stream", "image/bmp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCache(t, 4)

			h, err := c.Materialize("v1", tt.path, tt.data, tt.declared)
			if err != nil {
				t.Fatalf("Materialize() failed: %v", err)
			}
			if h.Kind != preview.KindRaster {
				t.Errorf("Kind = %s, want %s", h.Kind, preview.KindRaster)
			}
			if h.Width != 7 || h.Height != 5 {
				t.Errorf("dimensions = %dx%d, want 7x5", h.Width, h.Height)
			}
			if h.ContentType != tt.wantType {
				t.Errorf("ContentType = %q, want %q", h.ContentType, tt.wantType)
			}
		})
	}
}

func TestMaterialize_ExtensionBeatsDeclaredType(t *testing.T) {
	c := newCache(t, 4)

	h, err := c.Materialize("v1", "notes.docx", []byte("%PDF-1.4"), "application/pdf")
	if err != nil {
		t.Fatalf("Materialize() failed: %v", err)
	}
	if h.Kind != preview.KindUnsupported {
		t.Errorf("Kind = %s, want %s", h.Kind, preview.KindUnsupported)
	}
	if h.ContentType != "application/pdf" {
		t.Errorf("ContentType = %q, want declared type kept", h.ContentType)
	}
}

func TestMaterialize_EnrichmentFailureIsNotFatal(t *testing.T) {
	c := newCache(t, 4)

	h, err := c.Materialize("v1", "broken.pdf", []byte("not a pdf"), "application/pdf")
	if err != nil {
		t.Fatalf("Materialize() failed: %v", err)
	}
	if h.PageCount != nil {
		t.Errorf("PageCount = %d, want nil", *h.PageCount)
	}
	if _, err := c.Read(h); err != nil {
		t.Errorf("Read() failed: %v", err)
	}
}

func TestMaterialize_ReleasesPrevious(t *testing.T) {
	c := newCache(t, 4)

	first, _ := c.Materialize("v1", "a.png", []byte("one"), "")
	second, _ := c.Materialize("v2", "b.png", []byte("two"), "")

	if _, err := c.Read(first); !errors.Is(err, preview.ErrReleased) {
		t.Errorf("Read(first) error = %v, want ErrReleased", err)
	}
	if _, err := c.Read(second); err != nil {
		t.Errorf("Read(second) failed: %v", err)
	}
	if c.Live() != 1 {
		t.Errorf("Live() = %d, want 1", c.Live())
	}
	if a := c.Active(); a == nil || a.LocalRef != second.LocalRef {
		t.Errorf("Active() = %v, want second handle", a)
	}
	if first.LocalRef == second.LocalRef {
		t.Error("handles share a local ref")
	}
}

func TestRelease(t *testing.T) {
	c := newCache(t, 4)
	h, _ := c.Materialize("v1", "a.pdf", []byte("x"), "")

	c.Release(h)
	c.Release(h)
	c.Release(nil)

	if c.Live() != 0 {
		t.Errorf("Live() = %d, want 0", c.Live())
	}
	if c.Active() != nil {
		t.Error("Active() != nil after release")
	}
	if _, err := c.Read(h); !errors.Is(err, preview.ErrReleased) {
		t.Errorf("Read() error = %v, want ErrReleased", err)
	}
	if _, err := c.Read(nil); !errors.Is(err, preview.ErrReleased) {
		t.Errorf("Read(nil) error = %v, want ErrReleased", err)
	}
}

func TestRelease_StaleHandleKeepsActive(t *testing.T) {
	c := newCache(t, 4)
	old, _ := c.Materialize("v1", "a.pdf", []byte("x"), "")
	current, _ := c.Materialize("v2", "b.pdf", []byte("y"), "")

	c.Release(old)

	if a := c.Active(); a == nil || a.LocalRef != current.LocalRef {
		t.Errorf("Active() = %v, want current handle untouched", a)
	}
	if _, err := c.Read(current); err != nil {
		t.Errorf("Read(current) failed: %v", err)
	}
}

func TestClose(t *testing.T) {
	c := newCache(t, 4)
	for i := range 3 {
		if _, err := c.Materialize(fmt.Sprintf("v%d", i), "a.png", []byte{byte(i)}, ""); err != nil {
			t.Fatal(err)
		}
	}

	c.Close()

	if c.Live() != 0 {
		t.Errorf("Live() = %d, want 0", c.Live())
	}
	if c.Active() != nil {
		t.Error("Active() != nil after Close")
	}

	h, err := c.Materialize("v9", "a.png", []byte("again"), "")
	if err != nil {
		t.Fatalf("Materialize() after Close failed: %v", err)
	}
	if _, err := c.Read(h); err != nil {
		t.Errorf("Read() after Close failed: %v", err)
	}
}

// minimalPDF builds a structurally valid PDF with the given number of blank
// pages, computing the cross-reference offsets as it writes.
func minimalPDF(pages int) []byte {
	var buf bytes.Buffer
	var offsets []int

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, pages)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}

	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for range pages {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}
