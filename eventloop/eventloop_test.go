package eventloop

import (
	"context"
	"testing"
	"time"

	"github.com/gogpu/yeti"
)

type recordingListener struct {
	yeti.Object
	name     string
	consume  bool
	failWith error
	calls    *[]string
}

func newRecordingListener(name string, consume bool, calls *[]string) *recordingListener {
	l := &recordingListener{name: name, consume: consume, calls: calls}
	l.InitObject()
	return l
}

func (r *recordingListener) OnEvent(event yeti.Event) (bool, error) {
	*r.calls = append(*r.calls, r.name)
	if r.failWith != nil {
		return false, r.failWith
	}
	return r.consume, nil
}

func TestDispatchOrdersByPriorityAndShortCircuits(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatal(err)
	}
	var calls []string
	low := newRecordingListener("low", false, &calls)
	mid := newRecordingListener("mid", true, &calls)
	high := newRecordingListener("high", false, &calls)

	if err := l.Register(yeti.EventKeyDown, low, 0); err != nil {
		t.Fatal(err)
	}
	if err := l.Register(yeti.EventKeyDown, mid, 5); err != nil {
		t.Fatal(err)
	}
	if err := l.Register(yeti.EventKeyDown, high, 10); err != nil {
		t.Fatal(err)
	}

	consumed, err := l.Dispatch(yeti.KeyDown(65, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if !consumed {
		t.Fatal("expected the event to be consumed")
	}

	want := []string{"high", "mid"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
}

func TestDispatchNoConsumerCallsEveryone(t *testing.T) {
	l, _ := New()
	var calls []string
	a := newRecordingListener("a", false, &calls)
	b := newRecordingListener("b", false, &calls)
	l.Register(yeti.EventKeyUp, a, 0)
	l.Register(yeti.EventKeyUp, b, 0)

	consumed, err := l.Dispatch(yeti.KeyUp(0, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if consumed {
		t.Fatal("no listener consumed the event")
	}
	if len(calls) != 2 {
		t.Fatalf("expected both listeners called, got %v", calls)
	}
}

func TestBroadcastNeverShortCircuits(t *testing.T) {
	l, _ := New()
	var calls []string
	a := newRecordingListener("a", true, &calls)
	b := newRecordingListener("b", true, &calls)
	l.Register(yeti.EventResize, a, 10)
	l.Register(yeti.EventResize, b, 0)

	if err := l.Broadcast(yeti.ResizeEvent(100, 100)); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 2 {
		t.Fatalf("broadcast should reach every listener, got %v", calls)
	}
}

func TestDispatchFoldsListenerErrorAndContinuesWalk(t *testing.T) {
	l, _ := New()
	var calls []string
	high := &recordingListener{name: "high", calls: &calls, failWith: yeti.NewError(yeti.InternalBug, "boom")}
	high.InitObject()
	low := newRecordingListener("low", true, &calls)

	l.Register(yeti.EventKeyDown, high, 10)
	l.Register(yeti.EventKeyDown, low, 0)

	consumed, err := l.Dispatch(yeti.KeyDown(1, 0, 0))
	if err != nil {
		t.Fatalf("Dispatch must never surface a listener error, got %v", err)
	}
	if !consumed {
		t.Fatal("expected the lower-priority listener to still consume the event")
	}
	want := []string{"high", "low"}
	if len(calls) != len(want) || calls[0] != want[0] || calls[1] != want[1] {
		t.Fatalf("calls = %v, want %v (walk must continue past the erroring listener)", calls, want)
	}
}

func TestDeregisterRemovesListener(t *testing.T) {
	l, _ := New()
	var calls []string
	a := newRecordingListener("a", false, &calls)
	l.Register(yeti.EventKeyDown, a, 0)
	if err := l.Deregister(yeti.EventKeyDown, a); err != nil {
		t.Fatal(err)
	}
	l.Dispatch(yeti.KeyDown(1, 0, 0))
	if len(calls) != 0 {
		t.Fatalf("listener should no longer be called, got %v", calls)
	}
}

func TestDeregisterAllRemovesFromEveryKind(t *testing.T) {
	l, _ := New()
	var calls []string
	a := newRecordingListener("a", false, &calls)
	l.Register(yeti.EventKeyDown, a, 0)
	l.Register(yeti.EventKeyUp, a, 0)
	l.DeregisterAll(a)

	l.Dispatch(yeti.KeyDown(1, 0, 0))
	l.Dispatch(yeti.KeyUp(1, 0, 0))
	if len(calls) != 0 {
		t.Fatalf("listener should be gone from every kind, got %v", calls)
	}
}

func TestStartStopDrainsPostedEvents(t *testing.T) {
	l, _ := New()
	var calls []string
	a := newRecordingListener("a", false, &calls)
	l.Register(yeti.EventTimer, a, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Start(ctx) }()

	l.Post(yeti.TimerEvent(1))
	time.Sleep(20 * time.Millisecond)
	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected posted event to be dispatched, got %v", calls)
	}
}

func TestStartIsRestartableAfterStop(t *testing.T) {
	l, _ := New()
	var calls []string
	a := newRecordingListener("a", false, &calls)
	l.Register(yeti.EventTimer, a, 0)

	ctx1, cancel1 := context.WithCancel(context.Background())
	done1 := make(chan error, 1)
	go func() { done1 <- l.Start(ctx1) }()
	l.Post(yeti.TimerEvent(1))
	time.Sleep(20 * time.Millisecond)
	if err := l.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := <-done1; err != nil {
		t.Fatal(err)
	}
	cancel1()

	ctx2, cancel2 := context.WithCancel(context.Background())
	done2 := make(chan error, 1)
	go func() { done2 <- l.Start(ctx2) }()
	l.Post(yeti.TimerEvent(2))
	time.Sleep(20 * time.Millisecond)
	cancel2()
	if err := <-done2; err != nil {
		t.Fatal(err)
	}

	if len(calls) != 2 {
		t.Fatalf("expected the second Start to also dispatch its posted event, got %d calls: %v", len(calls), calls)
	}
}

func TestBindReturnsStableToken(t *testing.T) {
	l, _ := New()
	tok1 := l.Bind()
	tok2 := l.Bind()
	if tok1 != tok2 {
		t.Fatalf("Bind should return a stable token for the same loop")
	}
}
