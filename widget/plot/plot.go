// Package plot implements the line/heatmap plot widget: a payload is
// either a binary header plus an N*M grid of row-major float32 samples,
// or a text fallback giving only the grid's dimensions and axis ranges
// (for a caller that streams sample updates separately). Rendering
// rasterizes the grid as a simple heat-mapped line strip per row into
// the widget's card texture.
package plot

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/yeti"
	"github.com/gogpu/yeti/widget"
)

// headerSize is the byte length of the binary payload's fixed header:
// two u32 dimensions and four f32 axis bounds.
const headerSize = 4 + 4 + 4*4

// Plot is a Card widget rendering an N-row by M-column grid of samples
// across the rectangle [xmin,xmax] x [ymin,ymax].
type Plot struct {
	widget.Base
	quad widget.CardQuad
	meta widget.MetadataSlot

	rows, cols             int
	xmin, xmax, ymin, ymax float32
	values                 []float32 // len == rows*cols, nil for the text-fallback form

	dirty bool
}

// New parses payload and constructs a Plot occupying bounds.
func New(bounds yeti.Bounds, payload []byte) (*Plot, error) {
	p := &Plot{}
	if err := p.init(bounds, payload); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Plot) init(bounds yeti.Bounds, payload []byte) error {
	p.InitBase(bounds)

	if isBinaryPayload(payload) {
		if err := p.parseBinary(payload); err != nil {
			return err
		}
	} else if err := p.parseText(payload); err != nil {
		return err
	}
	p.dirty = true
	return nil
}

// isBinaryPayload distinguishes the binary header form from the text
// fallback: the binary form is never valid UTF-8 comma-separated ASCII
// (its first four bytes are a row count as raw u32, which for any
// realistic grid size includes at least one non-printable byte), so a
// payload that parses cleanly as "N,M[,...]" text is treated as text.
func isBinaryPayload(payload []byte) bool {
	if len(payload) < headerSize {
		return false
	}
	text := strings.TrimSpace(string(payload))
	parts := strings.Split(text, ",")
	if len(parts) != 2 && len(parts) != 6 {
		return true
	}
	for _, part := range parts {
		if _, err := strconv.ParseFloat(strings.TrimSpace(part), 32); err != nil {
			return true
		}
	}
	return false
}

func (p *Plot) parseBinary(payload []byte) error {
	if len(payload) < headerSize {
		return yeti.NewError(yeti.InvalidArgument, "plot payload: shorter than the 24-byte binary header")
	}
	n := binary.LittleEndian.Uint32(payload[0:4])
	m := binary.LittleEndian.Uint32(payload[4:8])
	xmin := math.Float32frombits(binary.LittleEndian.Uint32(payload[8:12]))
	xmax := math.Float32frombits(binary.LittleEndian.Uint32(payload[12:16]))
	ymin := math.Float32frombits(binary.LittleEndian.Uint32(payload[16:20]))
	ymax := math.Float32frombits(binary.LittleEndian.Uint32(payload[20:24]))

	want := headerSize + int(n)*int(m)*4
	if len(payload) < want {
		return yeti.NewError(yeti.InvalidArgument, "plot payload: body shorter than N*M float32 values")
	}

	values := make([]float32, n*m)
	off := headerSize
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[off : off+4]))
		off += 4
	}

	p.rows, p.cols = int(n), int(m)
	p.xmin, p.xmax, p.ymin, p.ymax = xmin, xmax, ymin, ymax
	p.values = values
	return nil
}

func (p *Plot) parseText(payload []byte) error {
	text := strings.TrimSpace(string(payload))
	if text == "" {
		return yeti.NewError(yeti.InvalidArgument, "plot payload: empty")
	}
	parts := strings.Split(text, ",")
	if len(parts) != 2 && len(parts) != 6 {
		return yeti.NewError(yeti.InvalidArgument, "plot payload: text form needs \"N,M\" or \"N,M,xmin,xmax,ymin,ymax\"")
	}

	n, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || n <= 0 {
		return yeti.NewError(yeti.InvalidArgument, "plot payload: invalid row count N")
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || m <= 0 {
		return yeti.NewError(yeti.InvalidArgument, "plot payload: invalid column count M")
	}

	p.rows, p.cols = n, m
	p.xmin, p.xmax, p.ymin, p.ymax = 0, float32(m-1), 0, 1
	if len(parts) == 6 {
		vals := make([]float32, 4)
		for i, part := range parts[2:] {
			f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
			if err != nil {
				return yeti.NewError(yeti.InvalidArgument, "plot payload: invalid axis bound")
			}
			vals[i] = float32(f)
		}
		p.xmin, p.xmax, p.ymin, p.ymax = vals[0], vals[1], vals[2], vals[3]
	}
	p.values = nil
	return nil
}

// Dims reports the grid's row and column counts.
func (p *Plot) Dims() (rows, cols int) { return p.rows, p.cols }

// AxisRange reports the data-space rectangle the grid spans.
func (p *Plot) AxisRange() (xmin, xmax, ymin, ymax float32) {
	return p.xmin, p.xmax, p.ymin, p.ymax
}

// SetValues replaces the grid's samples wholesale (used by the
// text-fallback form once a caller streams in real data) and marks the
// widget dirty for re-rasterization.
func (p *Plot) SetValues(values []float32) error {
	if len(values) != p.rows*p.cols {
		return yeti.NewError(yeti.InvalidArgument, "plot: values length must equal rows*cols")
	}
	p.values = values
	p.dirty = true
	return nil
}

func (p *Plot) PrepareFrame(ctx *widget.FrameContext) error {
	if p.EnterOn() {
		if err := p.quad.InitCardQuad(ctx.Device, ctx.Queue, ctx.SharedLayout); err != nil {
			return err
		}
		if ctx.Cards != nil {
			if err := p.meta.Allocate(ctx.Cards, 32); err != nil {
				return err
			}
		}
		p.dirty = true
	}

	b := p.Bounds()
	if err := p.quad.SetRect(b.X, b.Y, b.Width, b.Height); err != nil {
		return err
	}
	if err := p.publishMetadata(); err != nil {
		return err
	}

	if p.dirty {
		width, height := rasterDimensions(b)
		pixels := p.rasterize(width, height)
		if err := p.quad.Upload(pixels, width, height); err != nil {
			return err
		}
		p.dirty = false
	}
	return nil
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

// publishMetadata writes rows/cols/axis-range into the shared card
// metadata pool: rows u32, cols u32, xmin/xmax/ymin/ymax f32 (24 bytes).
func (p *Plot) publishMetadata() error {
	if p.meta.Handle().Size == 0 {
		return nil
	}
	var buf [24]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(p.rows))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(p.cols))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(p.xmin))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(p.xmax))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(p.ymin))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(p.ymax))
	return p.meta.Write(buf[:])
}

// rasterize paints each row of the grid as a horizontal line whose
// brightness follows its sample values, normalized to the grid's own
// min/max. The declared axis range is not used here; rows and columns
// are placed by their grid indices.
func (p *Plot) rasterize(width, height uint32) []byte {
	pixels := make([]byte, width*height*4)
	for i := 3; i < len(pixels); i += 4 {
		pixels[i] = 255
	}
	if p.rows == 0 || p.cols == 0 || len(p.values) == 0 {
		return pixels
	}

	lo, hi := p.values[0], p.values[0]
	for _, v := range p.values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	for row := 0; row < p.rows; row++ {
		py := uint32(float32(row) / float32(p.rows) * float32(height))
		if py >= height {
			py = height - 1
		}
		for col := 0; col < p.cols; col++ {
			v := p.values[row*p.cols+col]
			norm := (v - lo) / span
			px := uint32(float32(col) / float32(p.cols) * float32(width))
			if px >= width {
				px = width - 1
			}
			off := (py*width + px) * 4
			shade := byte(norm * 255)
			pixels[off+0] = shade
			pixels[off+1] = byte(255 - int(shade))
			pixels[off+2] = 64
			pixels[off+3] = 255
		}
	}
	return pixels
}

func (p *Plot) Render(pass widget.RenderPass, ctx *widget.FrameContext) error {
	return p.quad.Render(pass, ctx.SharedGroup)
}

func (p *Plot) Dispose() error {
	p.quad.Release()
	p.meta.Release()
	return nil
}
