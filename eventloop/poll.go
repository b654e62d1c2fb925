package eventloop

import (
	"bufio"
	"context"
	"os"

	"github.com/gogpu/yeti"
)

// CreatePoll allocates a new, unconfigured poll watch and returns its id.
func (l *Loop) CreatePoll() (PollID, error) {
	l.pollMu.Lock()
	defer l.pollMu.Unlock()
	l.nextPoll++
	id := PollID(l.nextPoll)
	l.polls[id] = &pollEntry{id: id, fd: -1}
	return id, nil
}

// ConfigurePoll binds id to watch fd for readability. The poll must not be
// running.
func (l *Loop) ConfigurePoll(id PollID, fd int) error {
	l.pollMu.Lock()
	defer l.pollMu.Unlock()
	p, ok := l.polls[id]
	if !ok {
		return yeti.NewError(yeti.NotFound, "unknown poll id")
	}
	if p.running {
		return yeti.NewError(yeti.FailedPrecondition, "cannot reconfigure a running poll")
	}
	p.fd = fd
	return nil
}

// RegisterPollListener attaches listener to fire on every PollReadable
// event id produces.
func (l *Loop) RegisterPollListener(id PollID, listener Listener) error {
	l.pollMu.Lock()
	defer l.pollMu.Unlock()
	p, ok := l.polls[id]
	if !ok {
		return yeti.NewError(yeti.NotFound, "unknown poll id")
	}
	p.listeners = append(p.listeners, listener)
	return nil
}

// StartPoll begins watching the configured fd on a background goroutine,
// posting a PollReadable event (and invoking any poll-scoped listeners
// directly) each time the fd has data available.
func (l *Loop) StartPoll(id PollID) error {
	l.pollMu.Lock()
	p, ok := l.polls[id]
	if !ok {
		l.pollMu.Unlock()
		return yeti.NewError(yeti.NotFound, "unknown poll id")
	}
	if p.fd < 0 {
		l.pollMu.Unlock()
		return yeti.NewError(yeti.FailedPrecondition, "poll not configured")
	}
	if p.running {
		l.pollMu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.running = true
	l.pollMu.Unlock()

	go l.runPoll(ctx, p)
	return nil
}

func (l *Loop) runPoll(ctx context.Context, p *pollEntry) {
	f := os.NewFile(uintptr(p.fd), "poll")
	if f == nil {
		return
	}
	r := bufio.NewReader(f)
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if _, err := r.Peek(len(buf)); err != nil {
			return
		}
		event := yeti.PollReadableEvent(p.fd)
		l.Post(event)
		l.pollMu.Lock()
		listeners := append([]Listener(nil), p.listeners...)
		l.pollMu.Unlock()
		for _, lis := range listeners {
			if _, err := lis.OnEvent(event); err != nil {
				return
			}
		}
	}
}

// StopPoll cancels the background watch for id, if running.
func (l *Loop) StopPoll(id PollID) error {
	l.pollMu.Lock()
	defer l.pollMu.Unlock()
	p, ok := l.polls[id]
	if !ok {
		return yeti.NewError(yeti.NotFound, "unknown poll id")
	}
	if p.running {
		p.cancel()
		p.running = false
	}
	return nil
}

// DestroyPoll stops (if running) and releases id.
func (l *Loop) DestroyPoll(id PollID) error {
	if err := l.StopPoll(id); err != nil {
		return err
	}
	l.pollMu.Lock()
	defer l.pollMu.Unlock()
	delete(l.polls, id)
	return nil
}
