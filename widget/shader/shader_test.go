package shader

import (
	"testing"

	"github.com/gogpu/yeti"
	"github.com/gogpu/yeti/widget"
)

const singlePassPayload = `
fn mainImage(fragCoord: vec2<f32>) -> vec4<f32> {
	return vec4<f32>(fragCoord.x, 0.0, 0.0, 1.0);
}
`

const multipassPayload = `
//--- BufferA
fn mainImage(fragCoord: vec2<f32>) -> vec4<f32> {
	return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
//--- Image
fn mainImage(fragCoord: vec2<f32>) -> vec4<f32> {
	return textureSample(iChannel0, iChannel0Sampler, fragCoord);
}
`

func TestNewRejectsEmptyPayload(t *testing.T) {
	if _, err := New(yeti.Bounds{}, []byte("   \n  ")); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestNewSinglePassHasNoSections(t *testing.T) {
	sh, err := New(yeti.Bounds{}, []byte(singlePassPayload))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if sh.multipass {
		t.Fatal("expected a bare fragment body to parse as non-multipass")
	}
	if len(sh.bufferNames) != 0 {
		t.Fatalf("expected no buffer passes, got %v", sh.bufferNames)
	}
	if sh.sections["Image"] == "" {
		t.Fatal("expected the bare body to land in the Image section")
	}
}

func TestNewMultipassCollectsBufferNamesInOrder(t *testing.T) {
	sh, err := New(yeti.Bounds{}, []byte(multipassPayload))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !sh.multipass {
		t.Fatal("expected a document with section markers to parse as multipass")
	}
	if len(sh.bufferNames) != 1 || sh.bufferNames[0] != "BufferA" {
		t.Fatalf("bufferNames = %v, want [BufferA]", sh.bufferNames)
	}
}

func TestNewMultipassRequiresImageSection(t *testing.T) {
	payload := "//--- BufferA\nfn mainImage(fragCoord: vec2<f32>) -> vec4<f32> { return vec4<f32>(0.0); }\n"
	if _, err := New(yeti.Bounds{}, []byte(payload)); err == nil {
		t.Fatal("expected error for a multipass document missing an Image section")
	}
}

func TestParseSectionsIgnoresUnknownMarkers(t *testing.T) {
	payload := "//--- NotASection\nfn mainImage(fragCoord: vec2<f32>) -> vec4<f32> { return vec4<f32>(0.0); }\n"
	names, sections, multipass := parseSections(payload)
	if multipass {
		t.Fatal("an unrecognized marker should not trigger multipass parsing")
	}
	if len(names) != 0 {
		t.Fatalf("expected no buffer names, got %v", names)
	}
	if sections["Image"] == "" {
		t.Fatal("expected the whole payload to fall back into Image")
	}
}

func TestParseSectionsOrdersBuffersCanonically(t *testing.T) {
	payload := "//--- BufferB\nb\n//--- BufferA\na\n//--- Image\ni\n"
	names, sections, multipass := parseSections(payload)
	if !multipass {
		t.Fatal("expected multipass")
	}
	if len(names) != 2 || names[0] != "BufferA" || names[1] != "BufferB" {
		t.Fatalf("bufferNames = %v, want [BufferA BufferB] regardless of source order", names)
	}
	if sections["BufferA"] != "a\n" || sections["BufferB"] != "b\n" {
		t.Fatalf("section bodies = %q / %q", sections["BufferA"], sections["BufferB"])
	}
}

func TestWrapFragmentEmitsChannelBindingsOnlyWhenRequested(t *testing.T) {
	withoutChannels := wrapFragment("fn mainImage(fragCoord: vec2<f32>) -> vec4<f32> { return vec4<f32>(0.0); }", 0)
	if containsChannel0(withoutChannels) {
		t.Fatal("expected no iChannel0 binding when channelCount is 0")
	}
	withChannels := wrapFragment("fn mainImage(fragCoord: vec2<f32>) -> vec4<f32> { return vec4<f32>(0.0); }", 2)
	if !containsChannel0(withChannels) {
		t.Fatal("expected an iChannel0 binding when channelCount is 2")
	}
}

func containsChannel0(src string) bool {
	return stringsContains(src, "iChannel0:")
}

func stringsContains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func TestScrollClampsParamToUnitRange(t *testing.T) {
	sh, err := New(yeti.Bounds{}, []byte(singlePassPayload))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sh.Scroll(-10)
	if sh.param != 0 {
		t.Fatalf("param = %v, want 0 after a large negative scroll", sh.param)
	}
	sh.Scroll(10)
	if sh.param != 1 {
		t.Fatalf("param = %v, want 1 after a large positive scroll", sh.param)
	}
}

func TestSetMouseAndSetZoomUpdateState(t *testing.T) {
	sh, err := New(yeti.Bounds{}, []byte(singlePassPayload))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sh.SetMouse(12, 34, true)
	if sh.mouseX != 12 || sh.mouseY != 34 || !sh.mouseDown {
		t.Fatalf("mouse state = (%v, %v, %v), want (12, 34, true)", sh.mouseX, sh.mouseY, sh.mouseDown)
	}
	sh.SetZoom(2.5)
	if sh.zoom != 2.5 {
		t.Fatalf("zoom = %v, want 2.5", sh.zoom)
	}
}

func TestWantsMouseIsAlwaysTrue(t *testing.T) {
	sh, err := New(yeti.Bounds{}, []byte(singlePassPayload))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !sh.WantsMouse() {
		t.Fatal("expected the shader widget to always want mouse input")
	}
}

func TestPrepareFrameFailsPermanentlyAfterCompileFailure(t *testing.T) {
	sh, err := New(yeti.Bounds{}, []byte(singlePassPayload))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sh.failed = true
	if err := sh.PrepareFrame(&widget.FrameContext{}); err == nil {
		t.Fatal("expected PrepareFrame to keep failing once a pass has failed to compile")
	}
}

func TestRenderWithoutPreparingIsNoop(t *testing.T) {
	sh, err := New(yeti.Bounds{}, []byte(singlePassPayload))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sh.Render(nil, &widget.FrameContext{}); err != nil {
		t.Fatalf("Render before any PrepareFrame should be a no-op: %v", err)
	}
}

func TestShaderSatisfiesWidgetInterface(t *testing.T) {
	sh, err := New(yeti.Bounds{}, []byte(singlePassPayload))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var _ widget.Widget = sh
}

func TestDisposeIsIdempotent(t *testing.T) {
	sh, err := New(yeti.Bounds{}, []byte(singlePassPayload))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sh.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if err := sh.Dispose(); err != nil {
		t.Fatalf("second Dispose: %v", err)
	}
}

func TestRasterDimensionsFloorsAtOnePixel(t *testing.T) {
	w, h := rasterDimensions(yeti.Bounds{Width: 0, Height: 0})
	if w != 1 || h != 1 {
		t.Fatalf("rasterDimensions = (%v, %v), want (1, 1) for a zero-size bounds", w, h)
	}
}
