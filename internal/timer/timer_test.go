package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduleFiresOnce(t *testing.T) {
	s := NewScheduler()

	var fired atomic.Int32
	s.Schedule(10*time.Millisecond, "test", func() {
		fired.Add(1)
	})

	if s.Pending() != 1 {
		t.Fatalf("expected one pending timer, got %d", s.Pending())
	}

	deadline := time.Now().Add(time.Second)
	for fired.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if got := fired.Load(); got != 1 {
		t.Fatalf("expected exactly one fire, got %d", got)
	}
	if s.Pending() != 0 {
		t.Fatalf("expected no pending timers after fire, got %d", s.Pending())
	}
}

func TestConcurrentTimers(t *testing.T) {
	s := NewScheduler()

	var fired atomic.Int32
	for i := 0; i < 5; i++ {
		s.Schedule(10*time.Millisecond, "batch", func() {
			fired.Add(1)
		})
	}

	deadline := time.Now().Add(time.Second)
	for fired.Load() < 5 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if got := fired.Load(); got != 5 {
		t.Fatalf("expected five fires, got %d", got)
	}
}

func TestNilCallback(t *testing.T) {
	s := NewScheduler()
	s.Schedule(time.Millisecond, "nil", nil)
	time.Sleep(20 * time.Millisecond)
	if s.Pending() != 0 {
		t.Fatalf("nil callback timer should still complete")
	}
}
