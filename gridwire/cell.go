// Package gridwire implements the wire formats exchanged between the
// terminal multiplexer collaborator and the grid shader pass: the
// fixed-size GridCell record, the YGRD frame encoding (full or damage-
// only partial updates), and the OSC control sequence a multiplexer
// uses to create and update a grid card.
package gridwire

import "golang.org/x/text/width"

// Style bit layout within GridCell.Style, matching the multiplexer
// collaborator's packing (one byte: bold, italic, a 2-bit underline
// kind, strikethrough, and a 3-bit font-family selector in the top
// bits).
const (
	AttrBold            uint8 = 0x01
	AttrItalic          uint8 = 0x02
	attrUnderlineShift        = 2
	attrUnderlineMask   uint8 = 0x03 << attrUnderlineShift
	AttrStrikethrough   uint8 = 0x10
	attrFontFamilyShift       = 5
	attrFontFamilyMask  uint8 = 0x07 << attrFontFamilyShift
)

// CellSize is the fixed wire size of one GridCell.
const CellSize = 12

// GridCell is the 12-byte record the grid shader pass consumes, one per
// grid position per frame: a 32-bit codepoint, an RGBA foreground, an
// RGB background, and a packed style byte.
type GridCell struct {
	Codepoint rune
	FgR, FgG, FgB, FgA uint8
	BgR, BgG, BgB      uint8
	Style              uint8
}

// Bold, Italic, UnderlineKind, Strikethrough, and FontFamily decode the
// individual fields packed into Style.
func (c GridCell) Bold() bool           { return c.Style&AttrBold != 0 }
func (c GridCell) Italic() bool         { return c.Style&AttrItalic != 0 }
func (c GridCell) UnderlineKind() uint8 { return (c.Style & attrUnderlineMask) >> attrUnderlineShift }
func (c GridCell) Strikethrough() bool  { return c.Style&AttrStrikethrough != 0 }
func (c GridCell) FontFamily() uint8    { return (c.Style & attrFontFamilyMask) >> attrFontFamilyShift }

// PackStyle builds a Style byte from its constituent fields. underline
// and fontFamily are masked to their bit widths (2 and 3 bits) so an
// out-of-range caller value can't bleed into adjacent fields.
func PackStyle(bold, italic bool, underline uint8, strikethrough bool, fontFamily uint8) uint8 {
	var s uint8
	if bold {
		s |= AttrBold
	}
	if italic {
		s |= AttrItalic
	}
	s |= (underline & 0x03) << attrUnderlineShift
	if strikethrough {
		s |= AttrStrikethrough
	}
	s |= (fontFamily & 0x07) << attrFontFamilyShift
	return s
}

// Encode writes the cell's 12-byte wire representation into buf[:12].
// Panics if buf is shorter than CellSize, the same contract as the
// standard library's binary.LittleEndian.PutUint32 family.
func (c GridCell) Encode(buf []byte) {
	_ = buf[:CellSize]
	buf[0] = byte(c.Codepoint)
	buf[1] = byte(c.Codepoint >> 8)
	buf[2] = byte(c.Codepoint >> 16)
	buf[3] = byte(c.Codepoint >> 24)
	buf[4] = c.FgR
	buf[5] = c.FgG
	buf[6] = c.FgB
	buf[7] = c.FgA
	buf[8] = c.BgR
	buf[9] = c.BgG
	buf[10] = c.BgB
	buf[11] = c.Style
}

// ColumnWidth reports how many grid columns a GridCell's codepoint
// occupies: 2 for East Asian wide/fullwidth characters, 0 for the
// zero rune (an empty trailing cell left behind by the wide cell to
// its left), 1 otherwise. The grid renderer uses this to advance the
// cursor and to know which cells to skip when laying out a row.
func (c GridCell) ColumnWidth() int {
	if c.Codepoint == 0 {
		return 0
	}
	switch width.LookupRune(c.Codepoint).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

// DecodeCell reads one 12-byte GridCell from the front of buf.
func DecodeCell(buf []byte) GridCell {
	_ = buf[:CellSize]
	return GridCell{
		Codepoint: rune(uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24),
		FgR:       buf[4],
		FgG:       buf[5],
		FgB:       buf[6],
		FgA:       buf[7],
		BgR:       buf[8],
		BgG:       buf[9],
		BgB:       buf[10],
		Style:     buf[11],
	}
}
