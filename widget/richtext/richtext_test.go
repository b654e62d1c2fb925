package richtext

import (
	"testing"

	"github.com/gogpu/yeti"
	"github.com/gogpu/yeti/widget"
)

type fakeRenderer struct {
	draws []Span
}

func (f *fakeRenderer) DrawSpan(dst []byte, width, height uint32, span Span) (float32, float32, int, error) {
	f.draws = append(f.draws, span)
	lines := 0
	for _, r := range span.Text {
		if r == '\n' {
			lines++
		}
	}
	return span.X + span.Size*float32(len(span.Text)), span.Y, lines, nil
}

const samplePayload = `
font-name: "Inter"
spans:
  - text: "Hello\n"
    size: 20
    color: [255, 0, 0]
  - text: "World"
    style: bold
`

func TestNewParsesYAMLDocument(t *testing.T) {
	rt, err := New(yeti.Bounds{}, []byte(samplePayload), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if rt.docFontName != "Inter" {
		t.Fatalf("docFontName = %q, want Inter", rt.docFontName)
	}
	if len(rt.spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(rt.spans))
	}
}

func TestNewRejectsMissingText(t *testing.T) {
	payload := "spans:\n  - size: 12\n"
	if _, err := New(yeti.Bounds{}, []byte(payload), nil, nil); err == nil {
		t.Fatal("expected error for span without text")
	}
}

func TestNewRejectsUnknownStyle(t *testing.T) {
	payload := "spans:\n  - text: \"hi\"\n    style: wobbly\n"
	if _, err := New(yeti.Bounds{}, []byte(payload), nil, nil); err == nil {
		t.Fatal("expected error for unknown style")
	}
}

func TestNewRejectsBadColorArity(t *testing.T) {
	payload := "spans:\n  - text: \"hi\"\n    color: [1, 2]\n"
	if _, err := New(yeti.Bounds{}, []byte(payload), nil, nil); err == nil {
		t.Fatal("expected error for a 2-component color")
	}
}

func TestResolvedSpansAppliesDefaults(t *testing.T) {
	rt, err := New(yeti.Bounds{}, []byte("spans:\n  - text: \"hi\"\n"), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	spans := rt.ResolvedSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 resolved span, got %d", len(spans))
	}
	s := spans[0]
	if s.Size != 16 {
		t.Fatalf("default size = %v, want 16", s.Size)
	}
	if s.Style != Regular {
		t.Fatalf("default style = %v, want Regular", s.Style)
	}
	if s.Color != White {
		t.Fatalf("default color = %+v, want White", s.Color)
	}
}

func TestResolvedSpansContinuesCursorAcrossNewline(t *testing.T) {
	rt, err := New(yeti.Bounds{}, []byte(samplePayload), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	spans := rt.ResolvedSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	first, second := spans[0], spans[1]
	wantY := first.Y + float32(1)*first.LineHeight
	if second.Y != wantY {
		t.Fatalf("second span Y = %v, want %v (cursor advanced by one line)", second.Y, wantY)
	}
}

func TestResolvedSpansAdvancesCursorXOnSameLineWithoutFont(t *testing.T) {
	payload := "spans:\n  - text: \"Hi\"\n    size: 10\n  - text: \"There\"\n"
	rt, err := New(yeti.Bounds{}, []byte(payload), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	spans := rt.ResolvedSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[1].X <= spans[0].X {
		t.Fatalf("second span X = %v, want greater than first span X = %v (cursor advanced within the line)", spans[1].X, spans[0].X)
	}
	if spans[1].Y != spans[0].Y {
		t.Fatalf("second span Y = %v, want unchanged from first span Y = %v (no newline between them)", spans[1].Y, spans[0].Y)
	}
}

func TestNewRejectsInvalidFontSource(t *testing.T) {
	payload := "spans:\n  - text: \"hi\"\n"
	if _, err := New(yeti.Bounds{}, []byte(payload), nil, []byte("not a font")); err == nil {
		t.Fatal("expected error for a font source that isn't a valid TTF")
	}
}

func TestPrepareFrameFailsWithoutRenderer(t *testing.T) {
	rt, err := New(yeti.Bounds{Width: 10, Height: 10}, []byte("spans:\n  - text: \"hi\"\n"), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = rt.PrepareFrame(&widget.FrameContext{})
	if err == nil {
		t.Fatal("expected error preparing a frame with no FontRenderer")
	}
}

func TestRenderWithoutPreparingIsNoop(t *testing.T) {
	rt, err := New(yeti.Bounds{}, []byte("spans:\n  - text: \"hi\"\n"), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := rt.Render(nil, &widget.FrameContext{}); err != nil {
		t.Fatalf("Render before PrepareFrame should be a no-op, got: %v", err)
	}
}

func TestRichTextSatisfiesWidgetInterface(t *testing.T) {
	rt, err := New(yeti.Bounds{}, []byte("spans:\n  - text: \"hi\"\n"), &fakeRenderer{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var _ widget.Widget = rt
}

func TestDisposeIsIdempotent(t *testing.T) {
	rt, _ := New(yeti.Bounds{}, []byte("spans:\n  - text: \"hi\"\n"), nil, nil)
	if err := rt.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if err := rt.Dispose(); err != nil {
		t.Fatalf("second Dispose: %v", err)
	}
}
