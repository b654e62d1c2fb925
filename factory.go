package yeti

import "sync"

// Factory-based construction.
//
// Every publicly constructible type in this module follows the same
// two-phase shape: allocate the zero value, call its unexported init,
// and on failure discard the half-built value rather than returning it.
// Go has no generic way to express "call init on the concrete receiver"
// without losing the receiver's own fields, so there is no single
// Create[T] helper — each type's own New* function follows this fixed
// shape instead (see eventloop.New, cardbuf.New,
// shadermgr.New, widget constructors, …):
//
//	func New(args...) (*T, error) {
//	    t := &T{...}
//	    if err := t.init(args...); err != nil {
//	        return nil, err
//	    }
//	    return t, nil
//	}
//
// init is the only place construction may fail; after it returns nil the
// object is fully usable. init is unexported and only its own type's New
// calls it, once; init itself does not detect or reject a second call.

// Singleton memoises a single process-wide instance produced by fn. The
// first caller's result (value or error) is cached and returned to every
// subsequent caller — callers never observe two different outcomes for
// the same singleton, per the factory protocol's failure-memoisation
// requirement.
type Singleton[T any] struct {
	once  sync.Once
	value T
	err   error
}

// Get returns the memoised instance, invoking fn at most once.
func (s *Singleton[T]) Get(fn func() (T, error)) (T, error) {
	s.once.Do(func() {
		s.value, s.err = fn()
	})
	return s.value, s.err
}

// ThreadSingleton memoises one instance per binding token. Go has no
// stable OS-thread-id API, so callers that need a true per-OS-thread
// singleton (as the event loop does) obtain a token once via
// eventloop.Bind, which pairs runtime.LockOSThread with a unique token,
// and use that token as the key here.
type ThreadSingleton[K comparable, T any] struct {
	mu    sync.Mutex
	cells map[K]*singletonCell[T]
}

type singletonCell[T any] struct {
	once  sync.Once
	value T
	err   error
}

// Get returns the instance memoised for key, invoking fn at most once per
// key.
func (ts *ThreadSingleton[K, T]) Get(key K, fn func() (T, error)) (T, error) {
	ts.mu.Lock()
	if ts.cells == nil {
		ts.cells = make(map[K]*singletonCell[T])
	}
	cell, ok := ts.cells[key]
	if !ok {
		cell = &singletonCell[T]{}
		ts.cells[key] = cell
	}
	ts.mu.Unlock()

	cell.once.Do(func() {
		cell.value, cell.err = fn()
	})
	return cell.value, cell.err
}
