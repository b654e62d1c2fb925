package yeti

// EventKind is the closed enumeration of event variants the core routes.
// Keyboard/mouse/scroll/resize originate at the platform window collaborator;
// PollReadable/Timer originate inside the event loop; the rest are
// synthesized by widgets, the workspace, or the multiplexer tool.
type EventKind int

const (
	EventNone EventKind = iota
	EventKeyDown
	EventKeyUp
	EventChar
	EventMouseDown
	EventMouseUp
	EventMouseMove
	EventMouseDrag
	EventScroll
	EventSetFocus
	EventResize
	EventPollReadable
	EventTimer
	EventContextMenuAction
	EventCardMouseDown
	EventCardMouseUp
	EventCardMouseMove
	EventCardScroll
	EventClose
	EventSplitPane
	EventCopy
	EventPaste
)

func (k EventKind) String() string {
	switch k {
	case EventNone:
		return "None"
	case EventKeyDown:
		return "KeyDown"
	case EventKeyUp:
		return "KeyUp"
	case EventChar:
		return "Char"
	case EventMouseDown:
		return "MouseDown"
	case EventMouseUp:
		return "MouseUp"
	case EventMouseMove:
		return "MouseMove"
	case EventMouseDrag:
		return "MouseDrag"
	case EventScroll:
		return "Scroll"
	case EventSetFocus:
		return "SetFocus"
	case EventResize:
		return "Resize"
	case EventPollReadable:
		return "PollReadable"
	case EventTimer:
		return "Timer"
	case EventContextMenuAction:
		return "ContextMenuAction"
	case EventCardMouseDown:
		return "CardMouseDown"
	case EventCardMouseUp:
		return "CardMouseUp"
	case EventCardMouseMove:
		return "CardMouseMove"
	case EventCardScroll:
		return "CardScroll"
	case EventClose:
		return "Close"
	case EventSplitPane:
		return "SplitPane"
	case EventCopy:
		return "Copy"
	case EventPaste:
		return "Paste"
	default:
		return "Unknown"
	}
}

// Orientation selects the axis a Split divides its bounds along.
type Orientation uint8

const (
	Horizontal Orientation = 0
	Vertical   Orientation = 1
)

// Event is a flat value type covering every EventKind's payload. Go has no
// tagged union, so unlike the C++ original's Event this struct carries all
// fields simultaneously; only the fields relevant to Kind are meaningful.
// Passing an Event by value is the dispatch primitive — copying one is
// always correct since a value holds no unshared ownership except Payload.
type Event struct {
	Kind EventKind

	// Keyboard
	Key      int
	Mods     int
	Scancode int
	// Char
	Codepoint rune
	// Mouse / Scroll / CardMouse / CardScroll — coordinates are in window
	// pixel space for Mouse*, and widget-local pixel space for CardMouse*/
	// CardScroll (pre-computed by the workspace before dispatch).
	X, Y   float64
	DX, DY float64
	Button int
	// SetFocus / Close
	ObjectId ObjectId
	// Resize
	Width, Height float64
	// PollReadable
	Fd int
	// Timer
	TimerId int
	// ContextMenuAction
	Row, Col int
	Action   string // ≤ 31 chars, per spec wire format
	// CardMouse*/CardScroll target
	TargetId ObjectId
	// SplitPane
	SplitOrientation Orientation

	// Payload carries the Copy/Paste clipboard string. It is the only
	// field that behaves like shared ownership: multiple Events produced
	// from the same clipboard read may point at the same *string.
	Payload any
}

// KeyDown builds a KeyDown event.
func KeyDown(key, mods, scancode int) Event {
	return Event{Kind: EventKeyDown, Key: key, Mods: mods, Scancode: scancode}
}

// KeyUp builds a KeyUp event.
func KeyUp(key, mods, scancode int) Event {
	return Event{Kind: EventKeyUp, Key: key, Mods: mods, Scancode: scancode}
}

// CharInput builds a Char event carrying a decoded codepoint.
func CharInput(codepoint rune, mods int) Event {
	return Event{Kind: EventChar, Codepoint: codepoint, Mods: mods}
}

// MouseDown builds a MouseDown event in window pixel space.
func MouseDown(x, y float64, button int) Event {
	return Event{Kind: EventMouseDown, X: x, Y: y, Button: button}
}

// MouseUp builds a MouseUp event in window pixel space.
func MouseUp(x, y float64, button int) Event {
	return Event{Kind: EventMouseUp, X: x, Y: y, Button: button}
}

// MouseMove builds a MouseMove event in window pixel space.
func MouseMove(x, y float64) Event {
	return Event{Kind: EventMouseMove, X: x, Y: y}
}

// MouseDrag builds a MouseDrag event in window pixel space.
func MouseDrag(x, y float64, button int) Event {
	return Event{Kind: EventMouseDrag, X: x, Y: y, Button: button}
}

// ScrollEvent builds a Scroll event in window pixel space.
func ScrollEvent(x, y, dx, dy float64, mods int) Event {
	return Event{Kind: EventScroll, X: x, Y: y, DX: dx, DY: dy, Mods: mods}
}

// SetFocusEvent builds a SetFocus event targeting objectId.
func SetFocusEvent(objectId ObjectId) Event {
	return Event{Kind: EventSetFocus, ObjectId: objectId}
}

// ResizeEvent builds a Resize event with new pixel dimensions.
func ResizeEvent(width, height float64) Event {
	return Event{Kind: EventResize, Width: width, Height: height}
}

// PollReadableEvent builds a PollReadable event for fd.
func PollReadableEvent(fd int) Event {
	return Event{Kind: EventPollReadable, Fd: fd}
}

// TimerEvent builds a Timer event for timerId.
func TimerEvent(timerId int) Event {
	return Event{Kind: EventTimer, TimerId: timerId}
}

// ContextMenuActionEvent builds a ContextMenuAction event. action is
// truncated to 31 bytes to match the wire format's fixed char[32] field.
func ContextMenuActionEvent(objectId ObjectId, row, col int, action string) Event {
	if len(action) > 31 {
		action = action[:31]
	}
	return Event{Kind: EventContextMenuAction, ObjectId: objectId, Row: row, Col: col, Action: action}
}

// CardMouseDownEvent builds a CardMouseDown event with widget-local coords.
func CardMouseDownEvent(targetId ObjectId, x, y float64, button int) Event {
	return Event{Kind: EventCardMouseDown, TargetId: targetId, X: x, Y: y, Button: button}
}

// CardMouseUpEvent builds a CardMouseUp event with widget-local coords.
func CardMouseUpEvent(targetId ObjectId, x, y float64, button int) Event {
	return Event{Kind: EventCardMouseUp, TargetId: targetId, X: x, Y: y, Button: button}
}

// CardMouseMoveEvent builds a CardMouseMove event with widget-local coords.
func CardMouseMoveEvent(targetId ObjectId, x, y float64) Event {
	return Event{Kind: EventCardMouseMove, TargetId: targetId, X: x, Y: y}
}

// CardScrollEvent builds a CardScroll event with widget-local coords.
func CardScrollEvent(targetId ObjectId, x, y, dx, dy float64, mods int) Event {
	return Event{Kind: EventCardScroll, TargetId: targetId, X: x, Y: y, DX: dx, DY: dy, Mods: mods}
}

// CloseEvent builds a Close event targeting objectId.
func CloseEvent(objectId ObjectId) Event {
	return Event{Kind: EventClose, ObjectId: objectId}
}

// SplitPaneEvent builds a SplitPane event targeting a pane.
func SplitPaneEvent(objectId ObjectId, orientation Orientation) Event {
	return Event{Kind: EventSplitPane, ObjectId: objectId, SplitOrientation: orientation}
}

// CopyEvent builds a Copy event carrying the clipboard text.
func CopyEvent(text *string) Event {
	return Event{Kind: EventCopy, Payload: text}
}

// PasteEvent builds a Paste event carrying the clipboard text.
func PasteEvent(text *string) Event {
	return Event{Kind: EventPaste, Payload: text}
}
