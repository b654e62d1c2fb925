// Package richtext implements the rich-text widget: a payload is a YAML
// document listing styled text spans, each rasterized in order onto the
// widget's card texture by an injected font-rendering collaborator. The
// core never rasterizes a glyph itself (explicitly out of scope); it
// only resolves each span's defaults, tracks the cursor across spans,
// and hands the rasterizer a fully-resolved span to draw. When a font's
// raw bytes are supplied it does measure span advance width via
// go-text/typesetting's HarfBuzz shaper, so same-line spans lay out
// against real glyph metrics rather than a column guess.
package richtext

import (
	"bytes"
	"strings"

	gotextfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/yeti"
	"github.com/gogpu/yeti/widget"
)

// Style selects a span's font weight/slant.
type Style int

const (
	Regular Style = iota
	Bold
	Italic
	BoldItalic
)

func parseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "regular":
		return Regular, nil
	case "bold":
		return Bold, nil
	case "italic":
		return Italic, nil
	case "bold-italic":
		return BoldItalic, nil
	default:
		return Regular, yeti.NewError(yeti.InvalidArgument, "rich text span: unknown style "+s)
	}
}

// Color is an RGBA color in [0,255] per channel.
type Color struct{ R, G, B, A uint8 }

var White = Color{255, 255, 255, 255}

// Span is one resolved, ready-to-draw run of text: every optional YAML
// field has had its default applied and x/y have been resolved against
// the running cursor.
type Span struct {
	Text      string
	X, Y      float32
	Size      float32
	Style     Style
	Color     Color
	FontName  string
	Wrap      bool
	MaxWidth  float32
	LineHeight float32
}

// rawSpan mirrors the YAML shape of a span with every field optional so
// defaulting/cursor-continuation logic can tell "omitted" from "zero".
type rawSpan struct {
	Text       string     `yaml:"text"`
	X          *float32   `yaml:"x"`
	Y          *float32   `yaml:"y"`
	Size       *float32   `yaml:"size"`
	Style      string     `yaml:"style"`
	Color      []int      `yaml:"color"`
	FontName   string     `yaml:"font-name"`
	Wrap       bool       `yaml:"wrap"`
	MaxWidth   float32    `yaml:"max-width"`
	LineHeight float32    `yaml:"line-height"`
}

type rawDocument struct {
	FontName string    `yaml:"font-name"`
	Spans    []rawSpan `yaml:"spans"`
}

// FontRenderer is the external collaborator that rasterizes one span
// into the widget's pixel buffer. Span positions and advance widths are
// computed in this package (see measureSpanWidth); drawing the
// individual glyphs is entirely the renderer's responsibility.
type FontRenderer interface {
	// DrawSpan paints span onto dst (tightly packed RGBA8, width x
	// height) and returns the cursor position immediately after the
	// drawn text plus how many line breaks (explicit or wrapped) it
	// introduced. PrepareFrame ignores these return values; span
	// positions come from ResolvedSpans.
	DrawSpan(dst []byte, width, height uint32, span Span) (endX, endY float32, lines int, err error)
}

// RichText is a Card widget drawing an ordered sequence of styled text
// spans via an injected FontRenderer.
type RichText struct {
	widget.Base
	quad widget.CardQuad
	meta widget.MetadataSlot

	docFontName string
	spans       []rawSpan
	renderer    FontRenderer
	font        *gotextfont.Font

	dirty     bool
	haveFrame bool
}

// New parses payload (a YAML document per the package doc) and
// constructs a RichText occupying bounds. renderer may be nil; without
// one PrepareFrame returns an error once it actually needs to draw.
// fontSource, if non-empty, is a TTF/OTF font's raw bytes used purely to
// measure span advance width for cursor continuation; it may be nil, in
// which case ResolvedSpans falls back to a fixed per-rune width guess.
func New(bounds yeti.Bounds, payload []byte, renderer FontRenderer, fontSource []byte) (*RichText, error) {
	rt := &RichText{}
	if err := rt.init(bounds, payload, renderer, fontSource); err != nil {
		return nil, err
	}
	return rt, nil
}

func (rt *RichText) init(bounds yeti.Bounds, payload []byte, renderer FontRenderer, fontSource []byte) error {
	rt.InitBase(bounds)

	var doc rawDocument
	if err := yaml.Unmarshal(payload, &doc); err != nil {
		return yeti.WrapError(yeti.InvalidArgument, "rich text payload: invalid YAML", err)
	}
	for i, s := range doc.Spans {
		if s.Text == "" {
			return yeti.NewError(yeti.InvalidArgument, "rich text payload: span missing required text field")
		}
		if _, err := parseStyle(s.Style); err != nil {
			return err
		}
		if len(s.Color) != 0 && len(s.Color) != 3 && len(s.Color) != 4 {
			return yeti.NewError(yeti.InvalidArgument, "rich text payload: color must have 3 or 4 components")
		}
		doc.Spans[i] = s
	}

	if len(fontSource) > 0 {
		face, err := gotextfont.ParseTTF(bytes.NewReader(fontSource))
		if err != nil {
			return yeti.WrapError(yeti.InvalidArgument, "rich text: invalid font source", err)
		}
		rt.font = face.Font
	}

	rt.docFontName = doc.FontName
	rt.spans = doc.Spans
	rt.renderer = renderer
	rt.dirty = true
	return nil
}

// SetRenderer attaches (or replaces) the font-rendering collaborator.
func (rt *RichText) SetRenderer(renderer FontRenderer) {
	rt.renderer = renderer
	rt.dirty = true
}

// ResolvedSpans returns every span with defaults applied and x/y
// resolved against cursor continuation, in the order they draw.
func (rt *RichText) ResolvedSpans() []Span {
	resolved := make([]Span, 0, len(rt.spans))
	var cursorX, cursorY float32
	var prevLines int
	var prevLineHeight float32

	for _, raw := range rt.spans {
		size := float32(16)
		if raw.Size != nil {
			size = *raw.Size
		}
		style, _ := parseStyle(raw.Style)
		color := White
		if len(raw.Color) == 3 {
			color = Color{uint8(raw.Color[0]), uint8(raw.Color[1]), uint8(raw.Color[2]), 255}
		} else if len(raw.Color) == 4 {
			color = Color{uint8(raw.Color[0]), uint8(raw.Color[1]), uint8(raw.Color[2]), uint8(raw.Color[3])}
		}
		fontName := raw.FontName
		if fontName == "" {
			fontName = rt.docFontName
		}
		lineHeight := raw.LineHeight
		if lineHeight == 0 {
			lineHeight = size * 1.2
		}

		x, y := cursorX, cursorY
		if raw.X != nil {
			x = *raw.X
		}
		if raw.Y != nil {
			y = *raw.Y
		} else if prevLines > 0 {
			y = cursorY + float32(prevLines)*prevLineHeight
		}

		span := Span{
			Text:       raw.Text,
			X:          x,
			Y:          y,
			Size:       size,
			Style:      style,
			Color:      color,
			FontName:   fontName,
			Wrap:       raw.Wrap,
			MaxWidth:   raw.MaxWidth,
			LineHeight: lineHeight,
		}
		resolved = append(resolved, span)

		lines := strings.Count(raw.Text, "\n")
		if lines == 0 {
			cursorX = x + measureSpanWidth(rt.font, raw.Text, size)
		} else {
			cursorX = measureSpanWidth(rt.font, lastLineText(raw.Text), size)
		}
		cursorY = y
		prevLines = lines
		prevLineHeight = lineHeight
	}
	return resolved
}

// lastLineText returns the portion of text after its final newline (the
// whole string if it has none) — the part whose width determines where
// a following same-line span should start.
func lastLineText(text string) string {
	if idx := strings.LastIndexByte(text, '\n'); idx >= 0 {
		return text[idx+1:]
	}
	return text
}

// measureSpanWidth returns text's advance width at sizePx. With a font
// attached it shapes text through go-text/typesetting's HarfBuzz shaper
// and sums each glyph's advance; without one (no font source was given
// to New) it falls back to a fixed per-rune estimate, just enough to
// keep same-line spans from overlapping.
func measureSpanWidth(fnt *gotextfont.Font, text string, sizePx float32) float32 {
	if text == "" {
		return 0
	}
	if fnt == nil {
		return float32(len([]rune(text))) * sizePx * 0.6
	}

	runes := []rune(text)
	script := language.Latin
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		script = language.LookupScript(r)
		break
	}

	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      gotextfont.NewFace(fnt),
		Size:      fixed.Int26_6(sizePx * 64),
		Script:    script,
		Language:  language.NewLanguage("en"),
	}

	var shaper shaping.HarfbuzzShaper
	output := shaper.Shape(input)

	var advance float32
	for _, g := range output.Glyphs {
		advance += float32(g.Advance) / 64
	}
	return advance
}

func (rt *RichText) PrepareFrame(ctx *widget.FrameContext) error {
	if rt.EnterOn() {
		if err := rt.quad.InitCardQuad(ctx.Device, ctx.Queue, ctx.SharedLayout); err != nil {
			return err
		}
		if ctx.Cards != nil {
			if err := rt.meta.Allocate(ctx.Cards, 32); err != nil {
				return err
			}
		}
		rt.dirty = true
	}

	b := rt.Bounds()
	if err := rt.quad.SetRect(b.X, b.Y, b.Width, b.Height); err != nil {
		return err
	}
	if err := rt.publishMetadata(); err != nil {
		return err
	}

	if !rt.dirty {
		return nil
	}
	if rt.renderer == nil {
		return yeti.NewError(yeti.FailedPrecondition, "rich text widget has no FontRenderer attached")
	}

	width, height := rasterDimensions(b)
	pixels := make([]byte, width*height*4)
	for _, span := range rt.ResolvedSpans() {
		if _, _, _, err := rt.renderer.DrawSpan(pixels, width, height, span); err != nil {
			return yeti.WrapError(yeti.IoFailure, "rich text: span draw failed", err)
		}
	}
	if err := rt.quad.Upload(pixels, width, height); err != nil {
		return err
	}
	rt.haveFrame = true
	rt.dirty = false
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

// publishMetadata writes the span count into the shared card metadata
// pool: count u32.
func (rt *RichText) publishMetadata() error {
	if rt.meta.Handle().Size == 0 {
		return nil
	}
	n := uint32(len(rt.spans))
	buf := [4]byte{byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)}
	return rt.meta.Write(buf[:])
}

func (rt *RichText) Render(pass widget.RenderPass, ctx *widget.FrameContext) error {
	if !rt.haveFrame {
		return nil
	}
	return rt.quad.Render(pass, ctx.SharedGroup)
}

func (rt *RichText) Dispose() error {
	rt.quad.Release()
	rt.meta.Release()
	return nil
}
