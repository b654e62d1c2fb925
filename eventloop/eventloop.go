// Package eventloop implements the cooperative, single-goroutine event
// dispatch core described by the host module: a priority-ordered listener
// registry per event kind, dispatch (short-circuits on the first consumer)
// and broadcast (never short-circuits), plus poll (file-descriptor) and
// timer registries that feed back into dispatch as PollReadable/Timer
// events.
//
// A Loop is bound to one goroutine for its entire lifetime: Start must run
// on the goroutine that will call Dispatch/Broadcast for poll and timer
// callbacks, mirroring the C++ original's thread-affine EventLoop. Bind
// captures that affinity as a comparable token for ThreadSingleton keys.
package eventloop

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/yeti"
)

// Listener reacts to dispatched or broadcast events. OnEvent returns
// (consumed, err); a dispatch stops at the first listener that returns
// consumed=true, in priority order.
type Listener interface {
	yeti.Identifiable
	OnEvent(event yeti.Event) (bool, error)
}

type registration struct {
	listener Listener
	priority int
}

// PollID identifies a registered file descriptor watch.
type PollID int

// TimerID identifies a registered timer.
type TimerID int

type pollEntry struct {
	id        PollID
	fd        int
	running   bool
	cancel    context.CancelFunc
	listeners []Listener
}

type timerEntry struct {
	id        TimerID
	timeout   time.Duration
	running   bool
	ticker    *time.Ticker
	done      chan struct{}
	listeners []Listener
}

// Loop is the process's (or, via ThreadSingleton, the per-binding) event
// dispatcher. The zero value is not usable; construct with New.
type Loop struct {
	yeti.Object

	mu        sync.RWMutex
	listeners map[yeti.EventKind][]registration

	pollMu   sync.Mutex
	polls    map[PollID]*pollEntry
	nextPoll int

	timerMu   sync.Mutex
	timers    map[TimerID]*timerEntry
	nextTimer int

	running atomic.Bool
	stopCh  chan struct{}
	evCh    chan yeti.Event
}

// New allocates and initializes a Loop.
func New() (*Loop, error) {
	l := &Loop{}
	if err := l.init(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Loop) init() error {
	l.InitObject()
	l.listeners = make(map[yeti.EventKind][]registration)
	l.polls = make(map[PollID]*pollEntry)
	l.timers = make(map[TimerID]*timerEntry)
	l.stopCh = make(chan struct{})
	l.evCh = make(chan yeti.Event, 256)
	return nil
}

// bindTokens memoises one bound token per goroutine-affine Loop, keyed by
// the Loop's ObjectId, so repeated Bind calls on the same Loop are stable.
var bindTokens sync.Map // map[yeti.ObjectId]BindToken

// BindToken is the comparable key ThreadSingleton uses to scope a
// per-event-loop singleton, standing in for the C++ original's OS
// thread-local storage.
type BindToken struct {
	loopID yeti.ObjectId
}

// Bind locks the calling goroutine to its current OS thread for the
// remainder of the loop's life and returns a stable token identifying this
// binding. Callers needing a true per-thread singleton (as the render
// backend does for its WebGPU device) use the returned token as the key
// into a yeti.ThreadSingleton. Bind must be called from the goroutine that
// will run l.Start.
func (l *Loop) Bind() BindToken {
	runtime.LockOSThread()
	tok := BindToken{loopID: l.ID()}
	bindTokens.Store(l.ID(), tok)
	return tok
}

// Register adds listener for events of kind, ordered by priority
// descending (higher priority runs first; ties keep registration order).
func (l *Loop) Register(kind yeti.EventKind, listener Listener, priority int) error {
	if listener == nil {
		return yeti.NewError(yeti.InvalidArgument, "listener must not be nil")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	regs := l.listeners[kind]
	regs = append(regs, registration{listener: listener, priority: priority})
	sortByPriorityDesc(regs)
	l.listeners[kind] = regs
	return nil
}

// Deregister removes listener's registration for kind, if present.
func (l *Loop) Deregister(kind yeti.EventKind, listener Listener) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	regs := l.listeners[kind]
	for i, r := range regs {
		if r.listener.ID() == listener.ID() {
			l.listeners[kind] = append(regs[:i], regs[i+1:]...)
			return nil
		}
	}
	return nil
}

// DeregisterAll removes listener from every event kind it is registered
// under, used when a widget or pane is torn down.
func (l *Loop) DeregisterAll(listener Listener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for kind, regs := range l.listeners {
		for i, r := range regs {
			if r.listener.ID() == listener.ID() {
				l.listeners[kind] = append(regs[:i], regs[i+1:]...)
				break
			}
		}
	}
}

// Dispatch delivers event to registered listeners in priority order,
// stopping at the first listener that reports it consumed the event. A
// listener error is logged (with its causal chain) and folded to
// consumed=false rather than aborting the walk, so a failing high-priority
// listener never hides the event from lower-priority ones. Dispatch itself
// never fails.
func (l *Loop) Dispatch(event yeti.Event) (bool, error) {
	l.mu.RLock()
	regs := append([]registration(nil), l.listeners[event.Kind]...)
	l.mu.RUnlock()

	for _, r := range regs {
		consumed, err := r.listener.OnEvent(event)
		if err != nil {
			yeti.Logger().Warn("listener error during dispatch", "kind", event.Kind, "listener", r.listener.ID(), "error", err)
			continue
		}
		if consumed {
			return true, nil
		}
	}
	return false, nil
}

// Broadcast delivers event to every registered listener for its kind
// regardless of consumption, collecting (not short-circuiting on) errors.
// It returns the first error encountered, if any, after every listener has
// run.
func (l *Loop) Broadcast(event yeti.Event) error {
	l.mu.RLock()
	regs := append([]registration(nil), l.listeners[event.Kind]...)
	l.mu.RUnlock()

	var firstErr error
	for _, r := range regs {
		if _, err := r.listener.OnEvent(event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Post queues event for asynchronous dispatch by the running loop. It is
// the channel-based analogue of the C++ original's poll/timer callbacks
// posting back into the loop from another thread.
func (l *Loop) Post(event yeti.Event) {
	select {
	case l.evCh <- event:
	default:
		// Queue saturated; drop rather than block a foreign goroutine.
		// A saturated 256-deep queue indicates a stuck consumer, which
		// Start's caller is expected to notice via its own health checks.
	}
}

// Start runs the loop's blocking dispatch cycle on the calling goroutine
// until Stop is called or ctx is cancelled. Every queued event (from Post,
// poll, or timer callbacks) is drained through Dispatch. A listener failure
// is caught and logged inside Dispatch itself and never terminates the
// loop. Start may be called again after a prior Start/Stop cycle: each
// call gets a fresh stop channel so a closed one from a previous run can't
// make the next Start return immediately.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if !l.running.CompareAndSwap(false, true) {
		l.mu.Unlock()
		return yeti.NewError(yeti.FailedPrecondition, "event loop already running")
	}
	stopCh := make(chan struct{})
	l.stopCh = stopCh
	l.mu.Unlock()
	defer l.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-stopCh:
			return nil
		case event := <-l.evCh:
			l.Dispatch(event)
		}
	}
}

// Stop requests the running Start call to return. Safe to call from any
// goroutine.
func (l *Loop) Stop() error {
	if !l.running.Load() {
		return nil
	}
	l.mu.Lock()
	stopCh := l.stopCh
	l.mu.Unlock()
	select {
	case <-stopCh:
	default:
		close(stopCh)
	}
	return nil
}

func sortByPriorityDesc(regs []registration) {
	// Small N (listener counts per event kind are in the tens at most), so
	// insertion sort keeps registration order stable among equal
	// priorities without pulling in sort.Slice's comparator overhead.
	for i := 1; i < len(regs); i++ {
		j := i
		for j > 0 && regs[j-1].priority < regs[j].priority {
			regs[j-1], regs[j] = regs[j], regs[j-1]
			j--
		}
	}
}
