package eventloop

import (
	"time"

	"github.com/gogpu/yeti"
)

// CreateTimer allocates a new, unconfigured timer and returns its id.
func (l *Loop) CreateTimer() (TimerID, error) {
	l.timerMu.Lock()
	defer l.timerMu.Unlock()
	l.nextTimer++
	id := TimerID(l.nextTimer)
	l.timers[id] = &timerEntry{id: id}
	return id, nil
}

// ConfigureTimer sets id's repeat interval. The timer must not be running.
func (l *Loop) ConfigureTimer(id TimerID, timeoutMs int) error {
	if timeoutMs <= 0 {
		return yeti.NewError(yeti.InvalidArgument, "timer timeout must be positive")
	}
	l.timerMu.Lock()
	defer l.timerMu.Unlock()
	t, ok := l.timers[id]
	if !ok {
		return yeti.NewError(yeti.NotFound, "unknown timer id")
	}
	if t.running {
		return yeti.NewError(yeti.FailedPrecondition, "cannot reconfigure a running timer")
	}
	t.timeout = time.Duration(timeoutMs) * time.Millisecond
	return nil
}

// RegisterTimerListener attaches listener to fire on every Timer event id
// produces.
func (l *Loop) RegisterTimerListener(id TimerID, listener Listener) error {
	l.timerMu.Lock()
	defer l.timerMu.Unlock()
	t, ok := l.timers[id]
	if !ok {
		return yeti.NewError(yeti.NotFound, "unknown timer id")
	}
	t.listeners = append(t.listeners, listener)
	return nil
}

// StartTimer begins firing id's Timer event on its configured interval,
// on a background goroutine, until StopTimer or DestroyTimer.
func (l *Loop) StartTimer(id TimerID) error {
	l.timerMu.Lock()
	t, ok := l.timers[id]
	if !ok {
		l.timerMu.Unlock()
		return yeti.NewError(yeti.NotFound, "unknown timer id")
	}
	if t.timeout <= 0 {
		l.timerMu.Unlock()
		return yeti.NewError(yeti.FailedPrecondition, "timer not configured")
	}
	if t.running {
		l.timerMu.Unlock()
		return nil
	}
	t.ticker = time.NewTicker(t.timeout)
	t.done = make(chan struct{})
	t.running = true
	l.timerMu.Unlock()

	go l.runTimer(t)
	return nil
}

func (l *Loop) runTimer(t *timerEntry) {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			event := yeti.TimerEvent(int(t.id))
			l.Post(event)
			l.timerMu.Lock()
			listeners := append([]Listener(nil), t.listeners...)
			l.timerMu.Unlock()
			for _, lis := range listeners {
				if _, err := lis.OnEvent(event); err != nil {
					return
				}
			}
		}
	}
}

// StopTimer halts id's background ticking, if running.
func (l *Loop) StopTimer(id TimerID) error {
	l.timerMu.Lock()
	defer l.timerMu.Unlock()
	t, ok := l.timers[id]
	if !ok {
		return yeti.NewError(yeti.NotFound, "unknown timer id")
	}
	if t.running {
		t.ticker.Stop()
		close(t.done)
		t.running = false
	}
	return nil
}

// DestroyTimer stops (if running) and releases id.
func (l *Loop) DestroyTimer(id TimerID) error {
	if err := l.StopTimer(id); err != nil {
		return err
	}
	l.timerMu.Lock()
	defer l.timerMu.Unlock()
	delete(l.timers, id)
	return nil
}
