// Package video implements the video-playback widget. Its payload is
// just a file path; actual decode (FFmpeg or any other codec stack) is
// an external collaborator the core never implements, per spec's
// out-of-scope stance on widget rendering internals. The widget's job is
// to hold the path, pull decoded frames from an injected FrameDecoder
// once per prepareFrame, and upload whichever frame is ready to its card
// texture.
package video

import (
	"strings"

	"github.com/gogpu/yeti"
	"github.com/gogpu/yeti/widget"
)

// FrameDecoder is the external collaborator that turns a video file path
// into a sequence of decoded RGBA8 frames. NextFrame returns
// (nil, 0, 0, nil) when no new frame is ready this tick (the widget
// keeps showing its last uploaded frame) and a non-nil error only on a
// genuine decode failure.
type FrameDecoder interface {
	NextFrame() (pixels []byte, width, height uint32, err error)
	Close() error
}

// Video is a Card widget displaying the most recently decoded frame of
// the file at Path.
type Video struct {
	widget.Base
	quad widget.CardQuad
	meta widget.MetadataSlot

	path    string
	decoder FrameDecoder

	width, height uint32
	haveFrame     bool
	pendingUpload bool
}

// New parses payload (a file path, trimmed of surrounding whitespace)
// and constructs a Video occupying bounds. decoder may be nil; without
// one the widget parses its path but never has a frame to show until
// SetDecoder is called.
func New(bounds yeti.Bounds, payload []byte, decoder FrameDecoder) (*Video, error) {
	v := &Video{}
	if err := v.init(bounds, payload, decoder); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Video) init(bounds yeti.Bounds, payload []byte, decoder FrameDecoder) error {
	v.InitBase(bounds)
	path := strings.TrimSpace(string(payload))
	if path == "" {
		return yeti.NewError(yeti.InvalidArgument, "video payload: empty file path")
	}
	v.path = path
	v.decoder = decoder
	return nil
}

// Path returns the file path this widget was constructed with.
func (v *Video) Path() string { return v.path }

// SetDecoder attaches (or replaces) the decoder collaborator. Closes any
// previously attached decoder first.
func (v *Video) SetDecoder(decoder FrameDecoder) {
	if v.decoder != nil {
		_ = v.decoder.Close()
	}
	v.decoder = decoder
}

// PrepareFrame pulls the next decoded frame (if any) from the decoder.
// GPU upload happens only when a decoded frame arrives, matching the lifecycle's "CPU decode in prepareFrame,
// composite draw in render" split.
func (v *Video) PrepareFrame(ctx *widget.FrameContext) error {
	if v.EnterOn() {
		if err := v.quad.InitCardQuad(ctx.Device, ctx.Queue, ctx.SharedLayout); err != nil {
			return err
		}
		if ctx.Cards != nil {
			if err := v.meta.Allocate(ctx.Cards, 32); err != nil {
				return err
			}
		}
	}

	b := v.Bounds()
	if err := v.quad.SetRect(b.X, b.Y, b.Width, b.Height); err != nil {
		return err
	}

	if v.decoder != nil {
		pixels, width, height, err := v.decoder.NextFrame()
		if err != nil {
			return yeti.WrapError(yeti.IoFailure, "video: decode failed", err)
		}
		if pixels != nil {
			if err := v.quad.Upload(pixels, width, height); err != nil {
				return err
			}
			v.width, v.height = width, height
			v.haveFrame = true
		}
	}

	return v.publishMetadata()
}

// publishMetadata writes width/height/have-frame into the shared card
// metadata pool: width u32, height u32, haveFrame u8, pad u8 x 3.
func (v *Video) publishMetadata() error {
	if v.meta.Handle().Size == 0 {
		return nil
	}
	var buf [12]byte
	le := func(off int, val uint32) {
		buf[off] = byte(val)
		buf[off+1] = byte(val >> 8)
		buf[off+2] = byte(val >> 16)
		buf[off+3] = byte(val >> 24)
	}
	le(0, v.width)
	le(4, v.height)
	if v.haveFrame {
		buf[8] = 1
	}
	return v.meta.Write(buf[:])
}

func (v *Video) Render(pass widget.RenderPass, ctx *widget.FrameContext) error {
	if !v.haveFrame {
		return nil
	}
	return v.quad.Render(pass, ctx.SharedGroup)
}

// Dispose closes the decoder (if any) and releases GPU resources.
// Idempotent.
func (v *Video) Dispose() error {
	if v.decoder != nil {
		_ = v.decoder.Close()
		v.decoder = nil
	}
	v.quad.Release()
	v.meta.Release()
	return nil
}
