package host

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestGlobalsUniformBytesLayout(t *testing.T) {
	g := globalsUniform{
		Time:         1.5,
		MouseX:       10,
		MouseY:       20,
		ScreenWidth:  800,
		ScreenHeight: 600,
		FrameIndex:   42,
	}
	b := g.bytes()
	if len(b) != g.size() {
		t.Fatalf("expected %d bytes, got %d", g.size(), len(b))
	}

	readFloat := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
	}
	if got := readFloat(0); got != g.Time {
		t.Errorf("Time at offset 0 = %v, want %v", got, g.Time)
	}
	if got := readFloat(4); got != g.MouseX {
		t.Errorf("MouseX at offset 4 = %v, want %v", got, g.MouseX)
	}
	if got := readFloat(8); got != g.MouseY {
		t.Errorf("MouseY at offset 8 = %v, want %v", got, g.MouseY)
	}
	if got := binary.LittleEndian.Uint32(b[20:]); got != g.FrameIndex {
		t.Errorf("FrameIndex at offset 20 = %v, want %v", got, g.FrameIndex)
	}
}
