package workspace

import (
	"sync"

	"github.com/gogpu/yeti"
)

// ContextMenuHandler handles one named context-menu action dispatched by
// a ContextMenu. Handlers are plain interfaces rather than funcs so a
// registration can be located and removed again by equality, mirroring
// how this codebase's other listener registries (eventloop's Bind
// tokens, the desktop-engine-style focus listeners the pack shows)
// avoid needing a separate subscription handle.
type ContextMenuHandler interface {
	HandleContextMenuAction(objectId yeti.ObjectId, row, col int) (bool, error)
}

// ContextMenu dispatches EventContextMenuAction events to the handlers
// registered for the event's Action string. It never interprets the
// action itself — menu construction and the meaning of each action
// name belong entirely to whatever registers handlers (a multiplexer
// command layer, typically), matching how the original implementation
// only ever forwards context-menu actions over RPC rather than
// resolving them locally.
type ContextMenu struct {
	mu       sync.RWMutex
	handlers map[string][]ContextMenuHandler
}

// NewContextMenu returns an empty dispatcher ready for registration.
func NewContextMenu() *ContextMenu {
	return &ContextMenu{handlers: make(map[string][]ContextMenuHandler)}
}

// Register adds handler for action. The same handler may be registered
// for multiple actions; registering twice for the same action invokes
// it twice on dispatch.
func (c *ContextMenu) Register(action string, handler ContextMenuHandler) {
	if handler == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[action] = append(c.handlers[action], handler)
}

// Unregister removes handler from action's registration list. A no-op
// if handler was never registered for action.
func (c *ContextMenu) Unregister(action string, handler ContextMenuHandler) {
	if handler == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.handlers[action]
	for i, h := range list {
		if h == handler {
			c.handlers[action] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(c.handlers[action]) == 0 {
		delete(c.handlers, action)
	}
}

// dispatch calls every handler registered for event.Action in
// registration order, stopping at the first that reports the event
// consumed. An action with no registered handler is not consumed.
func (c *ContextMenu) dispatch(event yeti.Event) (bool, error) {
	c.mu.RLock()
	handlers := append([]ContextMenuHandler(nil), c.handlers[event.Action]...)
	c.mu.RUnlock()

	for _, h := range handlers {
		consumed, err := h.HandleContextMenuAction(event.ObjectId, event.Row, event.Col)
		if err != nil {
			return false, err
		}
		if consumed {
			return true, nil
		}
	}
	return false, nil
}
