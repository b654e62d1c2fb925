package widget

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/yeti/cardbuf"
)

func TestCardRectUniformBytesLayout(t *testing.T) {
	r := cardRectUniform{OriginX: 1, OriginY: 2, Width: 3, Height: 4}
	b := r.bytes()
	if len(b) != 16 {
		t.Fatalf("expected 16 bytes, got %d", len(b))
	}
	readFloat := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
	}
	if got := readFloat(0); got != r.OriginX {
		t.Errorf("OriginX at offset 0 = %v, want %v", got, r.OriginX)
	}
	if got := readFloat(12); got != r.Height {
		t.Errorf("Height at offset 12 = %v, want %v", got, r.Height)
	}
}

func TestQuadVerticesCoverUnitSquare(t *testing.T) {
	if len(quadVertices) != 6 {
		t.Fatalf("expected 6 vertices for two triangles, got %d", len(quadVertices))
	}
	for _, v := range quadVertices {
		if v[0] < -1 || v[0] > 1 || v[1] < -1 || v[1] > 1 {
			t.Errorf("vertex %v outside unit square", v)
		}
	}
}

func TestCardQuadSetRectBeforeInitFails(t *testing.T) {
	var q CardQuad
	if err := q.SetRect(0, 0, 10, 10); err == nil {
		t.Fatal("expected error setting rect before InitCardQuad")
	}
}

func TestCardQuadUploadRejectsZeroDimensions(t *testing.T) {
	var q CardQuad
	if err := q.Upload(make([]byte, 16), 0, 4); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestCardQuadUploadRejectsShortBuffer(t *testing.T) {
	var q CardQuad
	if err := q.Upload(make([]byte, 4), 2, 2); err == nil {
		t.Fatal("expected error for undersized pixel buffer")
	}
}

func TestCardQuadReleaseIsIdempotent(t *testing.T) {
	var q CardQuad
	q.Release()
	q.Release()
}

func TestMetadataSlotWriteBeforeAllocateFails(t *testing.T) {
	var s MetadataSlot
	if err := s.Write([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error writing before Allocate")
	}
	if err := s.WriteAt(0, []byte{1}); err == nil {
		t.Fatal("expected error writing before Allocate")
	}
}

func TestMetadataSlotReleaseIsIdempotent(t *testing.T) {
	var s MetadataSlot
	s.Release()
	s.Release()
	if s.Handle() != (cardbuf.MetadataHandle{}) {
		t.Fatal("expected zero handle after release")
	}
}
