package piano

import (
	"testing"

	"github.com/gogpu/yeti"
	"github.com/gogpu/yeti/widget"
)

func TestParsePayloadDefaults(t *testing.T) {
	octaves, start, err := parsePayload(nil)
	if err != nil {
		t.Fatalf("parsePayload: %v", err)
	}
	if octaves != defaultOct || start != defaultStart {
		t.Fatalf("defaults = (%d,%d), want (%d,%d)", octaves, start, defaultOct, defaultStart)
	}
}

func TestParsePayloadClampsRange(t *testing.T) {
	octaves, start, err := parsePayload([]byte("20,15"))
	if err != nil {
		t.Fatalf("parsePayload: %v", err)
	}
	if octaves != maxOctaves {
		t.Fatalf("octaves = %d, want clamped to %d", octaves, maxOctaves)
	}
	if start != maxStart {
		t.Fatalf("start = %d, want clamped to %d", start, maxStart)
	}
}

func TestParsePayloadOctavesOnly(t *testing.T) {
	octaves, start, err := parsePayload([]byte("3"))
	if err != nil {
		t.Fatalf("parsePayload: %v", err)
	}
	if octaves != 3 {
		t.Fatalf("octaves = %d, want 3", octaves)
	}
	if start != defaultStart {
		t.Fatalf("start = %d, want default %d", start, defaultStart)
	}
}

func TestParsePayloadRejectsGarbage(t *testing.T) {
	if _, _, err := parsePayload([]byte("not-a-number")); err == nil {
		t.Fatal("expected error for non-numeric octave count")
	}
}

func TestNewConstructsPiano(t *testing.T) {
	p, err := New(yeti.Bounds{Width: 300, Height: 80}, []byte("2,4"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.WhiteKeyCount() != 14 {
		t.Fatalf("WhiteKeyCount = %d, want 14", p.WhiteKeyCount())
	}
	var _ widget.Widget = p
}

func TestSemitoneAtMapsWhiteKeys(t *testing.T) {
	p, err := New(yeti.Bounds{}, []byte("1,4"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := p.SemitoneAt(0); got != 48 {
		t.Fatalf("SemitoneAt(0) = %d, want 48 (C4)", got)
	}
	if got := p.SemitoneAt(6); got != 59 {
		t.Fatalf("SemitoneAt(6) = %d, want 59 (B4)", got)
	}
}

func TestNoteOnRecordsVelocityClamped(t *testing.T) {
	p, _ := New(yeti.Bounds{}, nil)
	p.NoteOn(60, 1.5)
	if v := p.ActiveNotes()[60]; v != 1 {
		t.Fatalf("velocity = %v, want clamped to 1", v)
	}
	p.NoteOn(61, -1)
	if v := p.ActiveNotes()[61]; v != 0 {
		t.Fatalf("velocity = %v, want clamped to 0", v)
	}
}

func TestNoteOffWithoutSustainRemovesNote(t *testing.T) {
	p, _ := New(yeti.Bounds{}, nil)
	p.NoteOn(60, 0.5)
	p.NoteOff(60)
	if _, ok := p.ActiveNotes()[60]; ok {
		t.Fatal("note should have been released without sustain")
	}
}

func TestSustainHoldsNoteUntilPedalReleased(t *testing.T) {
	p, _ := New(yeti.Bounds{}, nil)
	p.SetSustain(true)
	p.NoteOn(60, 0.8)
	p.NoteOff(60)
	if _, ok := p.ActiveNotes()[60]; !ok {
		t.Fatal("note should remain active while sustained")
	}
	p.SetSustain(false)
	if _, ok := p.ActiveNotes()[60]; ok {
		t.Fatal("note should release once sustain is turned off")
	}
}

func TestWantsMouseIsTrue(t *testing.T) {
	p, _ := New(yeti.Bounds{}, nil)
	if !p.WantsMouse() {
		t.Fatal("piano should accept mouse input to play notes")
	}
}

func TestDisposeIsIdempotent(t *testing.T) {
	p, _ := New(yeti.Bounds{}, nil)
	if err := p.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if err := p.Dispose(); err != nil {
		t.Fatalf("second Dispose: %v", err)
	}
}

func TestRasterizeProducesOpaquePixels(t *testing.T) {
	p, _ := New(yeti.Bounds{Width: 140, Height: 40}, []byte("2"))
	pixels := p.rasterize(140, 40)
	if len(pixels) != 140*40*4 {
		t.Fatalf("pixel buffer size = %d, want %d", len(pixels), 140*40*4)
	}
	for i := 3; i < len(pixels); i += 4 {
		if pixels[i] != 255 {
			t.Fatalf("pixel alpha at %d = %d, want fully opaque", i, pixels[i])
		}
	}
}
