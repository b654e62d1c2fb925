// Package widget defines the interface every occupant of a tile-tree pane
// implements, plus the Base struct concrete widgets embed to get bounds,
// visibility, focus, and GPU resource lifecycle bookkeeping for free.
package widget

import (
	"github.com/gogpu/wgpu/core"

	"github.com/gogpu/yeti"
	"github.com/gogpu/yeti/cardbuf"
)

// RenderPass is the shared pass every visible widget records its draw
// calls into. The host engine opens exactly one per frame and
// Workspace.Render forwards it depth-first to each widget; a widget that needs its own pass (an
// offscreen video decode, say) does that work in PrepareFrame instead and
// only records a composite draw here.
type RenderPass = *core.CoreRenderPassEncoder

// PositionMode selects whether a widget's bounds follow its tile (the
// common case) or are pinned regardless of layout (an overlay/HUD pane).
type PositionMode uint8

const (
	Relative PositionMode = iota
	Fixed
)

// ScreenType distinguishes a widget's primary surface from an alternate
// one (the terminal-emulator sense of "alt screen"), mirrored from
// gridwire's screen-buffer selector.
type ScreenType uint8

const (
	Main ScreenType = iota
	Alternate
)

// FrameContext carries the per-frame values every widget's PrepareFrame/
// Render may need: the shared globals bind group's backing values (time,
// mouse, resolution, frame index), the shared bind group itself so a
// widget can bind group 0 without owning a reference to the host engine,
// and the device/queue/shared-layout triple a Card widget needs to lazily
// create its GPU resources on its off→on transition.
type FrameContext struct {
	Time         float64
	MouseX       float32
	MouseY       float32
	ScreenWidth  float32
	ScreenHeight float32
	FrameIndex   uint64
	SharedGroup  core.BindGroupID
	SharedLayout core.BindGroupLayoutID
	Device       core.DeviceID
	Queue        core.QueueID
	Cards        *cardbuf.CardBufferManager
}

// Widget is implemented by every tile-tree leaf occupant: rich text, a
// plot, a video, a shader, a PDF page, and so on.
type Widget interface {
	yeti.Identifiable

	Bounds() yeti.Bounds
	SetBounds(b yeti.Bounds)

	Visible() bool
	SetVisible(v bool)

	WantsMouse() bool
	WantsKeyboard() bool

	// PrepareFrame runs CPU-side work that doesn't touch the shared
	// pass (layout, decode) and lazily creates GPU resources on the
	// widget's off→on transition.
	PrepareFrame(ctx *FrameContext) error
	// Render records draw calls into pass. Must not begin a private
	// pass unless the widget genuinely composites an offscreen target.
	Render(pass RenderPass, ctx *FrameContext) error
	// Dispose releases GPU resources. Idempotent.
	Dispose() error
}

// Base is the embeddable bounds/visibility/focus/lifecycle bookkeeping
// every concrete widget shares; concrete widgets embed Base and only
// implement their payload-specific init, PrepareFrame, and Render.
type Base struct {
	yeti.Object

	bounds       yeti.Bounds
	visible      bool
	focus        bool
	positionMode PositionMode
	screenType   ScreenType

	// on is the one-shot edge marker: true once GPU resources exist.
	// PrepareFrame flips it false→true to trigger lazy creation;
	// LeaveOn flips it back so a later transition recreates them.
	on bool
}

// InitBase assigns an ObjectId and sets the initial bounds/visibility. It
// is called by the concrete widget's init, per the factory protocol.
func (b *Base) InitBase(bounds yeti.Bounds) {
	b.InitObject()
	b.bounds = bounds
	b.visible = true
}

func (b *Base) Bounds() yeti.Bounds { return b.bounds }

// SetBounds updates the cached pixel bounds. Concrete widgets that lay
// out CPU-side state from bounds (rich text reflow, a plot's axis
// ranges) should override PrepareFrame to notice the change rather than
// overriding SetBounds, since bounds can change outside a frame (a
// resize event arrives mid-dispatch).
func (b *Base) SetBounds(bounds yeti.Bounds) { b.bounds = bounds }

func (b *Base) Visible() bool      { return b.visible }
func (b *Base) SetVisible(v bool)  { b.visible = v }

func (b *Base) Focus() bool     { return b.focus }
func (b *Base) SetFocus(v bool) { b.focus = v }

func (b *Base) PositionMode() PositionMode     { return b.positionMode }
func (b *Base) SetPositionMode(m PositionMode) { b.positionMode = m }

func (b *Base) ScreenType() ScreenType     { return b.screenType }
func (b *Base) SetScreenType(t ScreenType) { b.screenType = t }

// On reports whether GPU resources currently exist for this widget.
func (b *Base) On() bool { return b.on }

// EnterOn is called by PrepareFrame when transitioning on=false→true. It
// returns false if resources already exist, so callers only run their
// create-GPU-resources path once per transition:
//
//	if b.EnterOn() {
//	    // create pipeline/bind groups/buffers
//	}
func (b *Base) EnterOn() bool {
	if b.on {
		return false
	}
	b.on = true
	return true
}

// LeaveOn is called when a widget transitions visible→hidden. It returns
// false if resources were never created, so callers skip a redundant
// release:
//
//	if b.LeaveOn() {
//	    // release pipeline/bind groups/buffers
//	}
func (b *Base) LeaveOn() bool {
	if !b.on {
		return false
	}
	b.on = false
	return true
}

// Default input-routing stance: most widgets want neither. Concrete
// widgets that handle pointer or key input override these.
func (b *Base) WantsMouse() bool    { return false }
func (b *Base) WantsKeyboard() bool { return false }
