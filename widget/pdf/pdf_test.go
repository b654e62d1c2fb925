package pdf

import (
	"errors"
	"testing"

	"github.com/gogpu/yeti"
	"github.com/gogpu/yeti/widget"
)

type fakeDecoder struct {
	pages   int
	widths  []uint32
	heights []uint32
	closed  bool
	failAt  int
	renders int
}

func (f *fakeDecoder) PageCount() (int, error) { return f.pages, nil }

func (f *fakeDecoder) RenderPage(page int, zoom float32) ([]byte, uint32, uint32, error) {
	f.renders++
	if page == f.failAt {
		return nil, 0, 0, errors.New("boom")
	}
	w, h := f.widths[page], f.heights[page]
	return make([]byte, w*h*4), w, h, nil
}

func (f *fakeDecoder) Close() error {
	f.closed = true
	return nil
}

func newFakeDecoder(pages int, w, h uint32) *fakeDecoder {
	widths := make([]uint32, pages)
	heights := make([]uint32, pages)
	for i := range widths {
		widths[i], heights[i] = w, h
	}
	return &fakeDecoder{pages: pages, widths: widths, heights: heights, failAt: -1}
}

func TestNewParsesPath(t *testing.T) {
	p, err := New(yeti.Bounds{}, []byte("  /tmp/doc.pdf  "), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Path() != "/tmp/doc.pdf" {
		t.Fatalf("Path() = %q, want trimmed path", p.Path())
	}
}

func TestNewRejectsEmptyPath(t *testing.T) {
	if _, err := New(yeti.Bounds{}, []byte("   "), nil); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestNewWithDecoderPopulatesPageCount(t *testing.T) {
	dec := newFakeDecoder(5, 100, 100)
	p, err := New(yeti.Bounds{}, []byte("doc.pdf"), dec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.PageCount() != 5 {
		t.Fatalf("PageCount() = %d, want 5", p.PageCount())
	}
	if p.CurrentPage() != 0 {
		t.Fatalf("CurrentPage() = %d, want 0", p.CurrentPage())
	}
}

func TestNextPrevPageClampAtBounds(t *testing.T) {
	dec := newFakeDecoder(3, 100, 100)
	p, err := New(yeti.Bounds{}, []byte("doc.pdf"), dec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.PrevPage()
	if p.CurrentPage() != 0 {
		t.Fatalf("PrevPage at page 0 should stay at 0, got %d", p.CurrentPage())
	}
	p.NextPage()
	p.NextPage()
	if p.CurrentPage() != 2 {
		t.Fatalf("CurrentPage() = %d, want 2", p.CurrentPage())
	}
	p.NextPage()
	if p.CurrentPage() != 2 {
		t.Fatalf("NextPage past the last page should stay at 2, got %d", p.CurrentPage())
	}
}

func TestGoToPageClampsToDocumentRange(t *testing.T) {
	dec := newFakeDecoder(4, 100, 100)
	p, err := New(yeti.Bounds{}, []byte("doc.pdf"), dec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.GoToPage(-1)
	if p.CurrentPage() != 0 {
		t.Fatalf("GoToPage(-1) = %d, want clamped to 0", p.CurrentPage())
	}
	p.GoToPage(99)
	if p.CurrentPage() != 3 {
		t.Fatalf("GoToPage(99) = %d, want clamped to 3", p.CurrentPage())
	}
}

func TestGoToPageWithoutDecoderIsNoop(t *testing.T) {
	p, err := New(yeti.Bounds{}, []byte("doc.pdf"), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.GoToPage(2)
	if p.CurrentPage() != 0 {
		t.Fatalf("GoToPage without a decoder should be a no-op, got page %d", p.CurrentPage())
	}
}

func TestZoomInOutClampToRange(t *testing.T) {
	p, err := New(yeti.Bounds{}, []byte("doc.pdf"), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 50; i++ {
		p.ZoomOut()
	}
	if p.Zoom() < minZoom {
		t.Fatalf("Zoom() = %v, want >= %v", p.Zoom(), minZoom)
	}
	for i := 0; i < 100; i++ {
		p.ZoomIn()
	}
	if p.Zoom() > maxZoom {
		t.Fatalf("Zoom() = %v, want <= %v", p.Zoom(), maxZoom)
	}
}

func TestScrollWithCtrlZooms(t *testing.T) {
	p, err := New(yeti.Bounds{}, []byte("doc.pdf"), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	before := p.Zoom()
	p.Scroll(1, true)
	if p.Zoom() <= before {
		t.Fatalf("Scroll(positive, ctrl) should increase zoom: before=%v after=%v", before, p.Zoom())
	}
}

func TestScrollWithoutCtrlNeverGoesNegative(t *testing.T) {
	p, err := New(yeti.Bounds{}, []byte("doc.pdf"), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.Scroll(100, false)
	if p.scroll != 0 {
		t.Fatalf("scroll = %v, want clamped to 0", p.scroll)
	}
}

func TestCropWindowPadsShorterPage(t *testing.T) {
	page := renderedPage{pixels: make([]byte, 4*4*4), width: 4, height: 4}
	for i := range page.pixels {
		page.pixels[i] = 0xAA
	}
	window, maxScroll := cropWindow(page, 8, 8, 0)
	if len(window) != 8*8*4 {
		t.Fatalf("window length = %d, want %d", len(window), 8*8*4)
	}
	if maxScroll != 0 {
		t.Fatalf("maxScroll = %v, want 0 for a page shorter than bounds", maxScroll)
	}
	// Top-left 4x4 block should carry the page's pixels through.
	if window[0] != 0xAA {
		t.Fatalf("expected page pixels copied into the window's top-left corner")
	}
	// Bottom-right corner is outside the page and should stay zero.
	lastRowOff := 7 * 8 * 4
	if window[lastRowOff] != 0 {
		t.Fatalf("expected zero padding outside the page's extent")
	}
}

func TestCropWindowComputesMaxScrollForTallerPage(t *testing.T) {
	page := renderedPage{pixels: make([]byte, 4*20*4), width: 4, height: 20}
	_, maxScroll := cropWindow(page, 4, 8, 0)
	if maxScroll != 12 {
		t.Fatalf("maxScroll = %v, want 12 (20 - 8)", maxScroll)
	}
}

func TestRenderCurrentPageCachesAcrossCalls(t *testing.T) {
	dec := newFakeDecoder(2, 10, 10)
	p, err := New(yeti.Bounds{}, []byte("doc.pdf"), dec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.renderCurrentPage(nil); err != nil {
		t.Fatalf("renderCurrentPage: %v", err)
	}
	if _, err := p.renderCurrentPage(nil); err != nil {
		t.Fatalf("renderCurrentPage: %v", err)
	}
	if dec.renders != 1 {
		t.Fatalf("expected RenderPage to be called once and then cached, got %d calls", dec.renders)
	}
}

func TestSetDecoderClosesPreviousAndResetsCache(t *testing.T) {
	first := newFakeDecoder(2, 10, 10)
	second := newFakeDecoder(3, 10, 10)
	p, err := New(yeti.Bounds{}, []byte("doc.pdf"), first)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.SetDecoder(second); err != nil {
		t.Fatalf("SetDecoder: %v", err)
	}
	if !first.closed {
		t.Fatal("expected previous decoder to be closed on replacement")
	}
	if p.PageCount() != 3 {
		t.Fatalf("PageCount() = %d, want 3 from the new decoder", p.PageCount())
	}
}

func TestRenderWithoutFrameIsNoop(t *testing.T) {
	p, err := New(yeti.Bounds{}, []byte("doc.pdf"), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Render(nil, &widget.FrameContext{}); err != nil {
		t.Fatalf("Render should be a no-op before any page is rendered: %v", err)
	}
}

func TestDisposeClosesDecoder(t *testing.T) {
	dec := newFakeDecoder(1, 10, 10)
	p, err := New(yeti.Bounds{}, []byte("doc.pdf"), dec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if !dec.closed {
		t.Fatal("expected decoder to be closed on Dispose")
	}
	if err := p.Dispose(); err != nil {
		t.Fatalf("second Dispose: %v", err)
	}
}

func TestPDFSatisfiesWidgetInterface(t *testing.T) {
	p, err := New(yeti.Bounds{}, []byte("doc.pdf"), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var _ widget.Widget = p
}
