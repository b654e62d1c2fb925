package gridwire

import "github.com/gogpu/yeti"

// Magic is the YGRD frame's four-byte magic number. The value reads
// "YGRD" most-significant byte first; it is written little-endian, so
// the bytes on the wire are "DRGY".
const Magic uint32 = 0x59475244

// FlagFull marks a frame as a full grid dump rather than a damage-only
// partial update.
const FlagFull uint16 = 0x0001

// headerSize is magic(4) + flags(2) + cols(1) + rows(1).
const headerSize = 8

// CellUpdate is one entry of a partial frame: the cell at (Row, Col)
// has changed to Cell.
type CellUpdate struct {
	Row, Col uint8
	Cell     GridCell
}

// Frame is a decoded YGRD payload: either Full (Cells holds every
// Cols*Rows cell, row-major) or a damage-only partial (Updates holds
// just the changed positions).
type Frame struct {
	Cols, Rows uint8
	Full       bool
	Cells      []GridCell
	Updates    []CellUpdate
}

// EncodeFull builds a full-frame YGRD payload: cells must have exactly
// cols*rows entries in row-major order.
func EncodeFull(cols, rows uint8, cells []GridCell) ([]byte, error) {
	want := int(cols) * int(rows)
	if len(cells) != want {
		return nil, yeti.NewError(yeti.InvalidArgument, "gridwire.EncodeFull: cell count does not match cols*rows")
	}

	buf := make([]byte, headerSize+want*CellSize)
	writeHeader(buf, cols, rows, FlagFull)

	off := headerSize
	for _, c := range cells {
		c.Encode(buf[off : off+CellSize])
		off += CellSize
	}
	return buf, nil
}

// EncodePartial builds a damage-only YGRD payload carrying only the
// cells in updates.
func EncodePartial(cols, rows uint8, updates []CellUpdate) ([]byte, error) {
	buf := make([]byte, headerSize+4+len(updates)*(2+CellSize))
	writeHeader(buf, cols, rows, 0)

	off := headerSize
	putUint32LE(buf[off:off+4], uint32(len(updates)))
	off += 4

	for _, u := range updates {
		buf[off] = u.Row
		buf[off+1] = u.Col
		u.Cell.Encode(buf[off+2 : off+2+CellSize])
		off += 2 + CellSize
	}
	return buf, nil
}

// Decode parses a YGRD payload, returning a Full or partial Frame
// depending on the flags byte.
func Decode(data []byte) (Frame, error) {
	if len(data) < headerSize {
		return Frame{}, yeti.NewError(yeti.InvalidArgument, "gridwire.Decode: payload shorter than the YGRD header")
	}
	magic := readUint32LE(data[0:4])
	if magic != Magic {
		return Frame{}, yeti.NewError(yeti.InvalidArgument, "gridwire.Decode: bad magic, not a YGRD payload")
	}
	flags := readUint16LE(data[4:6])
	cols, rows := data[6], data[7]

	if flags&FlagFull != 0 {
		return decodeFull(data[headerSize:], cols, rows)
	}
	return decodePartial(data[headerSize:], cols, rows)
}

func decodeFull(body []byte, cols, rows uint8) (Frame, error) {
	count := int(cols) * int(rows)
	want := count * CellSize
	if len(body) < want {
		return Frame{}, yeti.NewError(yeti.InvalidArgument, "gridwire.Decode: full payload shorter than cols*rows cells")
	}
	cells := make([]GridCell, count)
	off := 0
	for i := range cells {
		cells[i] = DecodeCell(body[off : off+CellSize])
		off += CellSize
	}
	return Frame{Cols: cols, Rows: rows, Full: true, Cells: cells}, nil
}

func decodePartial(body []byte, cols, rows uint8) (Frame, error) {
	if len(body) < 4 {
		return Frame{}, yeti.NewError(yeti.InvalidArgument, "gridwire.Decode: partial payload missing count")
	}
	count := readUint32LE(body[0:4])
	body = body[4:]

	want := int(count) * (2 + CellSize)
	if len(body) < want {
		return Frame{}, yeti.NewError(yeti.InvalidArgument, "gridwire.Decode: partial payload shorter than its declared count")
	}

	updates := make([]CellUpdate, count)
	off := 0
	for i := range updates {
		updates[i] = CellUpdate{
			Row:  body[off],
			Col:  body[off+1],
			Cell: DecodeCell(body[off+2 : off+2+CellSize]),
		}
		off += 2 + CellSize
	}
	return Frame{Cols: cols, Rows: rows, Full: false, Updates: updates}, nil
}

func writeHeader(buf []byte, cols, rows uint8, flags uint16) {
	putUint32LE(buf[0:4], Magic)
	buf[4] = byte(flags)
	buf[5] = byte(flags >> 8)
	buf[6] = cols
	buf[7] = rows
}

func putUint32LE(buf []byte, v uint32) {
	_ = buf[:4]
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
}

func readUint32LE(buf []byte) uint32 {
	_ = buf[:4]
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
}

func readUint16LE(buf []byte) uint16 {
	_ = buf[:2]
	return uint16(buf[0]) | uint16(buf[1])<<8
}
