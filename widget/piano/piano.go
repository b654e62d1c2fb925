// Package piano implements the on-screen piano keyboard widget: a
// payload of "octaves[,startOctave]" lays out a strip of white/black
// keys, NoteOn/NoteOff record strikes (with a velocity derived from
// where the key was struck) and releases, and a sustain toggle lets held
// notes ring past release — all CPU-side state, since note audio itself
// is an external collaborator's concern. The widget has no HandleEvent
// method, so mouse events routed by the workspace do not play notes.
package piano

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/gogpu/yeti"
	"github.com/gogpu/yeti/widget"
)

const (
	minOctaves   = 1
	maxOctaves   = 8
	minStart     = 0
	maxStart     = 9
	defaultOct   = 2
	defaultStart = 4
)

// whiteKeyPattern is the repeating per-octave semitone offsets (within a
// 12-semitone octave) that are white keys: C D E F G A B.
var whiteKeyPattern = [7]int{0, 2, 4, 5, 7, 9, 11}

// blackKeyPattern is the semitone offsets that are black keys, paired
// with the white-key index they sit after (for layout purposes).
var blackKeyPattern = [5]int{1, 3, 6, 8, 10}

// Piano is a Card widget rendering a keyboard of the configured range.
// Keys held down are tracked with a per-key velocity in [0, 1], derived
// from the vertical position of the mouse-down within the key, and
// sustain holds every currently-down note active even after mouse-up
// until toggled off or a new sustain-off event arrives.
type Piano struct {
	widget.Base
	quad widget.CardQuad
	meta widget.MetadataSlot

	octaves      int
	startOctave  int
	sustain      bool
	velocity     map[int]float32 // semitone index (absolute) -> velocity
	sustainedKey map[int]bool

	dirty bool
}

// New parses payload (an "octaves[,startOctave]" ASCII string) and
// constructs a Piano occupying bounds. An empty payload uses the
// defaults (2 octaves starting at octave 4).
func New(bounds yeti.Bounds, payload []byte) (*Piano, error) {
	p := &Piano{}
	if err := p.init(bounds, payload); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Piano) init(bounds yeti.Bounds, payload []byte) error {
	p.InitBase(bounds)
	octaves, start, err := parsePayload(payload)
	if err != nil {
		return err
	}
	p.octaves = octaves
	p.startOctave = start
	p.velocity = make(map[int]float32)
	p.sustainedKey = make(map[int]bool)
	p.dirty = true
	return nil
}

func parsePayload(payload []byte) (octaves, start int, err error) {
	octaves, start = defaultOct, defaultStart
	text := strings.TrimSpace(string(payload))
	if text == "" {
		return octaves, start, nil
	}

	parts := strings.SplitN(text, ",", 2)
	n, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, yeti.WrapError(yeti.InvalidArgument, "piano payload: invalid octave count", err)
	}
	octaves = clamp(n, minOctaves, maxOctaves)

	if len(parts) == 2 {
		s, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, 0, yeti.WrapError(yeti.InvalidArgument, "piano payload: invalid start octave", err)
		}
		start = clamp(s, minStart, maxStart)
	}
	return octaves, start, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WhiteKeyCount returns the number of white keys across the configured
// octave range.
func (p *Piano) WhiteKeyCount() int { return p.octaves * 7 }

// SemitoneAt maps a white-key index [0, WhiteKeyCount) to its absolute
// semitone number (startOctave*12 + offset), the unit note-on/off events
// and the velocity map are keyed by.
func (p *Piano) SemitoneAt(whiteIndex int) int {
	octave := whiteIndex / 7
	offset := whiteKeyPattern[whiteIndex%7]
	return (p.startOctave+octave)*12 + offset
}

// NoteOn records a key strike at normalized vertical position y (0 at
// the key's top/far edge, 1 at its near/bottom edge, where a harder
// strike near the bottom yields a higher velocity), clamped to [0, 1].
func (p *Piano) NoteOn(semitone int, y float32) {
	if y < 0 {
		y = 0
	}
	if y > 1 {
		y = 1
	}
	p.velocity[semitone] = y
	p.dirty = true
}

// NoteOff releases semitone. If sustain is enabled the note's velocity
// entry is kept (rendered as "sustained") instead of removed, and
// recorded in sustainedKey so SetSustain(false) knows to clear it later.
func (p *Piano) NoteOff(semitone int) {
	if p.sustain {
		p.sustainedKey[semitone] = true
		return
	}
	delete(p.velocity, semitone)
	p.dirty = true
}

// SetSustain toggles the sustain pedal. Turning sustain off releases
// every note that was held only because of sustain.
func (p *Piano) SetSustain(on bool) {
	if p.sustain == on {
		return
	}
	p.sustain = on
	if !on {
		for semitone := range p.sustainedKey {
			delete(p.velocity, semitone)
		}
		p.sustainedKey = make(map[int]bool)
		p.dirty = true
	}
}

// Sustain reports the current pedal state.
func (p *Piano) Sustain() bool { return p.sustain }

// ActiveNotes reports the currently sounding semitones and their
// velocities, for a caller wiring this widget to an audio collaborator.
func (p *Piano) ActiveNotes() map[int]float32 {
	out := make(map[int]float32, len(p.velocity))
	for k, v := range p.velocity {
		out[k] = v
	}
	return out
}

func (p *Piano) WantsMouse() bool { return true }

// PrepareFrame lazily creates GPU resources on first activation, then
// rasterizes the keyboard whenever its visual state changed.
func (p *Piano) PrepareFrame(ctx *widget.FrameContext) error {
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
	width := uint32(b.Width)
	height := uint32(b.Height)
	if width == 0 {
		width = 1
	}
	if height == 0 {
		height = 1
	}
	return width, height
}

// rasterize paints a simple piano keyboard into an RGBA8 buffer: white
// keys across the bottom, black keys as shorter overlays, and the
// currently sounding keys tinted by velocity.
func (p *Piano) rasterize(width, height uint32) []byte {
	pixels := make([]byte, width*height*4)
	whiteCount := p.WhiteKeyCount()
	if whiteCount == 0 {
		return pixels
	}
	keyWidth := float32(width) / float32(whiteCount)

	for row := uint32(0); row < height; row++ {
		for col := uint32(0); col < width; col++ {
			idx := int(float32(col) / keyWidth)
			if idx >= whiteCount {
				idx = whiteCount - 1
			}
			semitone := p.SemitoneAt(idx)
			r, g, b := whiteKeyColor(p.velocity, semitone)
			if isBlackKeyColumn(col, keyWidth, height, row) {
				blackSemitone, ok := blackSemitoneAt(idx-1, p.startOctave, p.octaves)
				if ok {
					r, g, b = blackKeyColor(p.velocity, blackSemitone)
				}
			}
			off := (row*width + col) * 4
			pixels[off+0] = r
			pixels[off+1] = g
			pixels[off+2] = b
			pixels[off+3] = 255
		}
	}
	return pixels
}

func whiteKeyColor(velocity map[int]float32, semitone int) (r, g, b byte) {
	if v, ok := velocity[semitone]; ok {
		shade := byte(255 - v*120)
		return 255, shade, shade
	}
	return 255, 255, 255
}

func blackKeyColor(velocity map[int]float32, semitone int) (r, g, b byte) {
	if v, ok := velocity[semitone]; ok {
		shade := byte(80 + v*120)
		return shade, 0, 0
	}
	return 16, 16, 16
}

// isBlackKeyColumn approximates black-key geometry: the top 60% of each
// white key's left edge region is covered by the preceding black key,
// a cheap stand-in for precise per-key polygon layout.
func isBlackKeyColumn(col uint32, keyWidth float32, height uint32, row uint32) bool {
	if float32(row) > float32(height)*0.6 {
		return false
	}
	withinKey := float32(col) - float32(uint32(float32(col)/keyWidth))*keyWidth
	return withinKey < keyWidth*0.3
}

func blackSemitoneAt(whiteIndex, startOctave, octaves int) (int, bool) {
	octave := whiteIndex / 7
	posInOctave := whiteIndex % 7
	// Black keys sit after white indices 0,1,3,4,5 within an octave (no
	// black key after E or B).
	switch posInOctave {
	case 0:
		return (startOctave+octave)*12 + 1, true
	case 1:
		return (startOctave+octave)*12 + 3, true
	case 3:
		return (startOctave+octave)*12 + 6, true
	case 4:
		return (startOctave+octave)*12 + 8, true
	case 5:
		return (startOctave+octave)*12 + 10, true
	default:
		return 0, false
	}
}

// publishMetadata writes the widget's packed octave/sustain/active-note
// state into its shared card metadata slot, satisfying the glossary's
// "rendered via the shared card buffer" Card contract for state a host
// tool might want to inspect without reaching into widget internals.
// Layout: octaves u8, startOctave u8, sustain u8, pad u8, active-note
// bitmask (two u32 covering semitones 0-63 across the visible range).
func (p *Piano) publishMetadata() error {
	if p.meta.Handle().Size == 0 {
		return nil
	}
	var buf [12]byte
	buf[0] = byte(p.octaves)
	buf[1] = byte(p.startOctave)
	if p.sustain {
		buf[2] = 1
	}
	var mask [2]uint32
	base := p.startOctave * 12
	for semitone := range p.velocity {
		rel := semitone - base
		if rel >= 0 && rel < 64 {
			mask[rel/32] |= 1 << uint(rel%32)
		}
	}
	binary.LittleEndian.PutUint32(buf[4:], mask[0])
	binary.LittleEndian.PutUint32(buf[8:], mask[1])
	return p.meta.Write(buf[:])
}

// Render issues the single textured-quad draw call for the rasterized
// keyboard.
func (p *Piano) Render(pass widget.RenderPass, ctx *widget.FrameContext) error {
	return p.quad.Render(pass, ctx.SharedGroup)
}

// Dispose releases GPU resources. Idempotent.
func (p *Piano) Dispose() error {
	p.quad.Release()
	p.meta.Release()
	return nil
}

