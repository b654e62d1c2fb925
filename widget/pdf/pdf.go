// Package pdf implements the PDF-viewer widget. Its payload is a file
// path; parsing the document and rasterizing a page into pixels (MuPDF
// or any other PDF library) is an external collaborator the core never
// implements, per spec's out-of-scope stance on widget rendering
// internals. The widget's job is page/zoom/scroll state and a small
// per-page pixel cache so flipping back to an already-rendered page
// skips a RenderPage round-trip.
package pdf

import (
	"strings"
	"unsafe"

	"github.com/gogpu/yeti"
	"github.com/gogpu/yeti/cardbuf"
	"github.com/gogpu/yeti/widget"
)

const (
	minZoom = 0.1
	maxZoom = 10.0
)

// PDFDecoder is the external collaborator that opens a PDF document and
// rasterizes one page at a time at a caller-chosen zoom factor. The
// returned page may be taller than the widget's bounds; PDF crops a
// bounds-sized window out of it according to scroll state.
type PDFDecoder interface {
	PageCount() (int, error)
	RenderPage(page int, zoom float32) (pixels []byte, width, height uint32, err error)
	Close() error
}

type renderedPage struct {
	pixels        []byte
	width, height uint32
}

// PDF is a Card widget displaying one page at a time of the document at
// Path, cropped to bounds and panned via scroll state.
type PDF struct {
	widget.Base
	quad widget.CardQuad
	meta widget.MetadataSlot

	path    string
	decoder PDFDecoder

	pageCount int
	page      int
	zoom      float32
	scroll    float32

	cache map[int]renderedPage

	boundsW, boundsH uint32
	haveFrame        bool
	dirty            bool
}

// New parses payload (a file path, trimmed of surrounding whitespace)
// and constructs a PDF occupying bounds. decoder may be nil; without one
// the widget parses its path but never has a page to show until
// SetDecoder is called.
func New(bounds yeti.Bounds, payload []byte, decoder PDFDecoder) (*PDF, error) {
	p := &PDF{}
	if err := p.init(bounds, payload, decoder); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *PDF) init(bounds yeti.Bounds, payload []byte, decoder PDFDecoder) error {
	p.InitBase(bounds)
	path := strings.TrimSpace(string(payload))
	if path == "" {
		return yeti.NewError(yeti.InvalidArgument, "pdf payload: empty file path")
	}
	p.path = path
	p.zoom = 1
	p.cache = map[int]renderedPage{}
	if decoder != nil {
		if err := p.SetDecoder(decoder); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the file path this widget was constructed with.
func (p *PDF) Path() string { return p.path }

// WantsMouse reports true: scroll-to-pan and ctrl-scroll-to-zoom both
// need pointer input, mirroring the plugin's wantsMouse() override.
func (p *PDF) WantsMouse() bool { return true }

// WantsKeyboard reports true: page-up/down navigation and +/- zoom both
// need key input, mirroring the plugin's wantsKeyboard() override.
func (p *PDF) WantsKeyboard() bool { return true }

// SetDecoder attaches (or replaces) the decoder collaborator, closing
// any previously attached one first and dropping the page cache (pages
// rendered by the old decoder aren't valid against the new one).
func (p *PDF) SetDecoder(decoder PDFDecoder) error {
	if p.decoder != nil {
		_ = p.decoder.Close()
	}
	p.decoder = decoder
	p.cache = map[int]renderedPage{}
	p.dirty = true
	if decoder == nil {
		p.pageCount = 0
		return nil
	}
	n, err := decoder.PageCount()
	if err != nil {
		return yeti.WrapError(yeti.IoFailure, "pdf: failed to read page count", err)
	}
	p.pageCount = n
	if p.page >= p.pageCount {
		p.page = 0
	}
	return nil
}

// PageCount returns the number of pages in the attached document, or 0
// if no decoder is attached yet.
func (p *PDF) PageCount() int { return p.pageCount }

// CurrentPage returns the zero-based index of the page on screen.
func (p *PDF) CurrentPage() int { return p.page }

// Zoom returns the current zoom factor.
func (p *PDF) Zoom() float32 { return p.zoom }

// NextPage advances to the following page, resetting scroll to the top,
// mirroring the plugin's PAGE_DOWN handling.
func (p *PDF) NextPage() {
	if p.page < p.pageCount-1 {
		p.page++
		p.scroll = 0
		p.dirty = true
	}
}

// PrevPage returns to the preceding page, resetting scroll to the top,
// mirroring the plugin's PAGE_UP handling.
func (p *PDF) PrevPage() {
	if p.page > 0 {
		p.page--
		p.scroll = 0
		p.dirty = true
	}
}

// GoToPage jumps directly to a zero-based page index, clamped to the
// document's range. A no-op before a decoder reports a page count.
func (p *PDF) GoToPage(n int) {
	if p.pageCount == 0 {
		return
	}
	if n < 0 {
		n = 0
	}
	if n >= p.pageCount {
		n = p.pageCount - 1
	}
	if n != p.page {
		p.page = n
		p.scroll = 0
		p.dirty = true
	}
}

// ZoomIn/ZoomOut mirror the plugin's +/- key handling: each press
// multiplies the zoom factor by a fixed step, clamped to [minZoom,
// maxZoom]. Changing zoom invalidates the page cache since cached
// pixels were rasterized at the old resolution.
func (p *PDF) ZoomIn()  { p.setZoom(p.zoom * 1.1) }
func (p *PDF) ZoomOut() { p.setZoom(p.zoom * 0.9) }

func (p *PDF) setZoom(z float32) {
	if z < minZoom {
		z = minZoom
	}
	if z > maxZoom {
		z = maxZoom
	}
	if z == p.zoom {
		return
	}
	p.zoom = z
	p.cache = map[int]renderedPage{}
	p.dirty = true
}

// Scroll adjusts either the zoom (ctrl held, mirroring the plugin's
// ctrl-scroll-to-zoom) or the vertical pan offset within the current
// page (mirroring its plain-scroll document pan). Final clamping of the
// pan offset against the rendered page's height happens in
// PrepareFrame, once that height is actually known.
func (p *PDF) Scroll(delta float32, ctrl bool) {
	if ctrl {
		if delta > 0 {
			p.setZoom(p.zoom * 1.1)
		} else if delta < 0 {
			p.setZoom(p.zoom * 0.9)
		}
		return
	}
	p.scroll -= delta * 40
	if p.scroll < 0 {
		p.scroll = 0
	}
	p.dirty = true
}

func (p *PDF) PrepareFrame(ctx *widget.FrameContext) error {
	if p.EnterOn() {
		if err := p.quad.InitCardQuad(ctx.Device, ctx.Queue, ctx.SharedLayout); err != nil {
			return err
		}
		if ctx.Cards != nil {
			if err := p.meta.Allocate(ctx.Cards, 20); err != nil {
				return err
			}
		}
		p.dirty = true
	}

	b := p.Bounds()
	if err := p.quad.SetRect(b.X, b.Y, b.Width, b.Height); err != nil {
		return err
	}
	p.boundsW, p.boundsH = rasterDimensions(b)

	if !p.dirty || p.decoder == nil {
		return p.publishMetadata()
	}

	page, err := p.renderCurrentPage(ctx.Cards)
	if err != nil {
		return err
	}
	window, maxScroll := cropWindow(page, p.boundsW, p.boundsH, p.scroll)
	if p.scroll > maxScroll {
		p.scroll = maxScroll
	}
	if err := p.quad.Upload(window, p.boundsW, p.boundsH); err != nil {
		return err
	}
	p.haveFrame = true
	p.dirty = false
	return p.publishMetadata()
}

// renderCurrentPage returns the current page's full rasterization,
// rendering and caching it on first access at this zoom level.
func (p *PDF) renderCurrentPage(cards *cardbuf.CardBufferManager) (renderedPage, error) {
	if rp, ok := p.cache[p.page]; ok {
		return rp, nil
	}
	pixels, width, height, err := p.decoder.RenderPage(p.page, p.zoom)
	if err != nil {
		return renderedPage{}, yeti.WrapError(yeti.IoFailure, "pdf: page render failed", err)
	}
	rp := renderedPage{pixels: pixels, width: width, height: height}
	p.cache[p.page] = rp
	if cards != nil {
		if _, err := cards.AllocateImageData(uint32(len(pixels))); err != nil {
			yeti.Logger().Warn("pdf widget: image-data accounting exhausted", "error", err)
		}
	}
	return rp, nil
}

// cropWindow copies a boundsW x boundsH RGBA8 window out of page,
// starting scroll pixels down from the top and left-aligned
// horizontally, zero-padding any area the page doesn't cover. It also
// returns the maximum valid scroll offset for page's height.
func cropWindow(page renderedPage, boundsW, boundsH uint32, scroll float32) ([]byte, float32) {
	out := make([]byte, boundsW*boundsH*4)
	top := uint32(0)
	if scroll > 0 {
		top = uint32(scroll)
	}
	copyRows := page.height
	if top >= copyRows {
		copyRows = 0
	} else {
		copyRows -= top
	}
	if copyRows > boundsH {
		copyRows = boundsH
	}
	copyCols := page.width
	if copyCols > boundsW {
		copyCols = boundsW
	}
	for row := uint32(0); row < copyRows; row++ {
		srcOff := (top+row)*page.width*4
		dstOff := row * boundsW * 4
		copy(out[dstOff:dstOff+copyCols*4], page.pixels[srcOff:srcOff+copyCols*4])
	}
	maxScroll := float32(0)
	if page.height > boundsH {
		maxScroll = float32(page.height - boundsH)
	}
	return out, maxScroll
}

func rasterDimensions(b yeti.Bounds) (uint32, uint32) {
	width, height := uint32(b.Width), uint32(b.Height)
	if width == 0 {
		width = 1
	}
	if height == 0 {
		height = 1
	}
	return width, height
}

// pdfMetadata mirrors publishMetadata's layout: page u32, pageCount u32,
// zoom f32, scroll f32, haveFrame as the low byte of a trailing u32.
type pdfMetadata struct {
	Page, PageCount uint32
	Zoom, Scroll    float32
	HaveFrame       uint32
}

func (m pdfMetadata) bytes() []byte {
	return (*[20]byte)(unsafe.Pointer(&m))[:]
}

// publishMetadata writes page/zoom bookkeeping into the shared card
// metadata pool.
func (p *PDF) publishMetadata() error {
	if p.meta.Handle().Size == 0 {
		return nil
	}
	m := pdfMetadata{Page: uint32(p.page), PageCount: uint32(p.pageCount), Zoom: p.zoom, Scroll: p.scroll}
	if p.haveFrame {
		m.HaveFrame = 1
	}
	return p.meta.Write(m.bytes())
}

func (p *PDF) Render(pass widget.RenderPass, ctx *widget.FrameContext) error {
	if !p.haveFrame {
		return nil
	}
	return p.quad.Render(pass, ctx.SharedGroup)
}

// Dispose closes the decoder (if any) and releases GPU resources.
// Idempotent.
func (p *PDF) Dispose() error {
	if p.decoder != nil {
		_ = p.decoder.Close()
		p.decoder = nil
	}
	p.quad.Release()
	p.meta.Release()
	return nil
}
