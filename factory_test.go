package yeti

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestSingletonMemoisesSuccess(t *testing.T) {
	var s Singleton[int]
	var calls atomic.Int32

	var wg sync.WaitGroup
	results := make([]int, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := s.Get(func() (int, error) {
				calls.Add(1)
				return 42, nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("constructor called %d times, want 1", calls.Load())
	}
	for _, v := range results {
		if v != 42 {
			t.Fatalf("got %d, want 42", v)
		}
	}
}

func TestSingletonMemoisesFailure(t *testing.T) {
	var s Singleton[int]
	sentinel := NewError(InternalBug, "construction failed")

	for i := 0; i < 5; i++ {
		_, err := s.Get(func() (int, error) {
			return 0, sentinel
		})
		if err != sentinel {
			t.Fatalf("call %d: got error %v, want the memoised sentinel", i, err)
		}
	}
}

func TestThreadSingletonPerKey(t *testing.T) {
	var ts ThreadSingleton[string, int]
	var callsA, callsB atomic.Int32

	for i := 0; i < 3; i++ {
		v, err := ts.Get("a", func() (int, error) {
			callsA.Add(1)
			return 1, nil
		})
		if err != nil || v != 1 {
			t.Fatalf("key a: got (%d, %v)", v, err)
		}
	}
	for i := 0; i < 3; i++ {
		v, err := ts.Get("b", func() (int, error) {
			callsB.Add(1)
			return 2, nil
		})
		if err != nil || v != 2 {
			t.Fatalf("key b: got (%d, %v)", v, err)
		}
	}

	if callsA.Load() != 1 || callsB.Load() != 1 {
		t.Fatalf("expected exactly one construction per key, got a=%d b=%d", callsA.Load(), callsB.Load())
	}
}
