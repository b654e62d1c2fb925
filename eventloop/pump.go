package eventloop

// DispatchPending drains every event currently queued by Post without
// blocking, dispatching each through Dispatch in arrival order. It is the
// non-blocking counterpart to Start, used by a caller (the host engine)
// that owns its own per-frame tick and only wants to pump whatever
// platform events arrived since the last tick rather than hand the
// goroutine over to Start's blocking loop.
//
// DispatchPending returns the number of events dispatched. Dispatch itself
// never fails a listener error out to its caller (the error is logged and
// folded to consumed=false), so DispatchPending keeps draining the queue
// unconditionally; its error return is always nil and kept only so callers
// don't need to change.
func (l *Loop) DispatchPending() (int, error) {
	n := 0
	for {
		select {
		case event := <-l.evCh:
			n++
			l.Dispatch(event)
		default:
			return n, nil
		}
	}
}
