package eventloop

import (
	"errors"
	"testing"

	"github.com/gogpu/yeti"
)

func TestDispatchPendingDrainsQueueWithoutBlocking(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatal(err)
	}
	var calls []string
	listener := newRecordingListener("only", false, &calls)
	if err := l.Register(yeti.EventMouseMove, listener, 0); err != nil {
		t.Fatal(err)
	}

	l.Post(yeti.MouseMove(1, 1))
	l.Post(yeti.MouseMove(2, 2))
	l.Post(yeti.MouseMove(3, 3))

	n, err := l.DispatchPending()
	if err != nil {
		t.Fatalf("DispatchPending: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 events drained, got %d", n)
	}
	if len(calls) != 3 {
		t.Fatalf("expected listener called 3 times, got %d", len(calls))
	}
}

func TestDispatchPendingReturnsZeroWhenQueueEmpty(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatal(err)
	}
	n, err := l.DispatchPending()
	if err != nil {
		t.Fatalf("DispatchPending: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 events drained from an empty queue, got %d", n)
	}
}

func TestDispatchPendingKeepsDrainingAfterListenerError(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatal(err)
	}
	var calls []string
	listener := newRecordingListener("failing", false, &calls)
	listener.failWith = errors.New("boom")
	if err := l.Register(yeti.EventMouseMove, listener, 0); err != nil {
		t.Fatal(err)
	}

	l.Post(yeti.MouseMove(1, 1))
	l.Post(yeti.MouseMove(2, 2))

	n, err := l.DispatchPending()
	if err != nil {
		t.Fatalf("a listener error must never surface from DispatchPending, got %v", err)
	}
	if n != 2 {
		t.Fatalf("expected both queued events drained despite the error, got %d", n)
	}
	if len(calls) != 2 {
		t.Fatalf("expected the failing listener invoked for both events, got %d", len(calls))
	}
}
