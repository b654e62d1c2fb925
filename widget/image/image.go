// Package image implements the still-image widget: its payload is a
// whole encoded image file (JPEG, PNG, or BMP), decoded once to RGBA8
// and uploaded to the widget's card texture. Decode itself leans on the
// standard library's image codecs plus golang.org/x/image/bmp, which the
// core never re-implements per spec's out-of-scope stance on widget
// rendering internals.
package image

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/bmp"

	"github.com/gogpu/yeti"
	"github.com/gogpu/yeti/widget"
)

func init() {
	image.RegisterFormat("bmp", "BM", bmp.Decode, bmp.DecodeConfig)
}

// Image is a Card widget displaying one decoded raster image, scaled to
// its pane's bounds by the shared card quad's vertex stage.
type Image struct {
	widget.Base
	quad widget.CardQuad
	meta widget.MetadataSlot

	pixels        []byte // RGBA8, row-major, width*height*4 bytes
	width, height uint32
	dirty         bool
}

// New decodes payload (a complete encoded image file) and constructs an
// Image occupying bounds.
func New(bounds yeti.Bounds, payload []byte) (*Image, error) {
	img := &Image{}
	if err := img.init(bounds, payload); err != nil {
		return nil, err
	}
	return img, nil
}

func (img *Image) init(bounds yeti.Bounds, payload []byte) error {
	img.InitBase(bounds)

	decoded, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return yeti.WrapError(yeti.IoFailure, "image payload: decode failed", err)
	}

	rgba := toRGBA(decoded)
	b := rgba.Bounds()
	img.pixels = rgba.Pix
	img.width = uint32(b.Dx())
	img.height = uint32(b.Dy())
	img.dirty = true
	return nil
}

// toRGBA normalizes any decoded image.Image to a tightly packed *RGBA,
// since CardQuad.Upload requires a fixed 4-byte-per-pixel stride with
// no per-image padding.
func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok && rgba.Stride == rgba.Rect.Dx()*4 {
		return rgba
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// Dimensions reports the decoded image's pixel size.
func (img *Image) Dimensions() (width, height uint32) { return img.width, img.height }

func (img *Image) PrepareFrame(ctx *widget.FrameContext) error {
	if img.EnterOn() {
		if err := img.quad.InitCardQuad(ctx.Device, ctx.Queue, ctx.SharedLayout); err != nil {
			return err
		}
		if ctx.Cards != nil {
			if err := img.meta.Allocate(ctx.Cards, 32); err != nil {
				return err
			}
		}
		img.dirty = true
	}

	b := img.Bounds()
	if err := img.quad.SetRect(b.X, b.Y, b.Width, b.Height); err != nil {
		return err
	}
	if err := img.publishMetadata(); err != nil {
		return err
	}

	if img.dirty {
		if img.width == 0 || img.height == 0 {
			return yeti.NewError(yeti.FailedPrecondition, "image widget has no decoded pixels")
		}
		if err := img.quad.Upload(img.pixels, img.width, img.height); err != nil {
			return err
		}
		img.dirty = false
	}
	return nil
}

// publishMetadata writes width/height into the shared card metadata
// pool: width u32, height u32.
func (img *Image) publishMetadata() error {
	if img.meta.Handle().Size == 0 {
		return nil
	}
	var buf [8]byte
	le := func(off int, v uint32) {
		buf[off] = byte(v)
		buf[off+1] = byte(v >> 8)
		buf[off+2] = byte(v >> 16)
		buf[off+3] = byte(v >> 24)
	}
	le(0, img.width)
	le(4, img.height)
	return img.meta.Write(buf[:])
}

func (img *Image) Render(pass widget.RenderPass, ctx *widget.FrameContext) error {
	return img.quad.Render(pass, ctx.SharedGroup)
}

func (img *Image) Dispose() error {
	img.quad.Release()
	img.meta.Release()
	return nil
}
