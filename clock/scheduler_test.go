package clock

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerFiresInDeadlineOrder(t *testing.T) {
	s := New()
	var order []int

	s.At(30*time.Millisecond, func() { order = append(order, 3) })
	s.At(10*time.Millisecond, func() { order = append(order, 1) })
	s.At(20*time.Millisecond, func() { order = append(order, 2) })
	s.At(10*time.Millisecond, func() { order = append(order, 11) })

	fired := s.Advance(25 * time.Millisecond)
	if fired != 3 {
		t.Errorf("Expected 3 events fired, got %d", fired)
	}
	want := []int{1, 11, 2}
	if len(order) != len(want) {
		t.Fatalf("Expected order %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Expected order %v, got %v", want, order)
			break
		}
	}

	if s.Now() != 25*time.Millisecond {
		t.Errorf("Expected now=25ms, got %v", s.Now())
	}
	if s.Pending() != 1 {
		t.Errorf("Expected 1 pending event, got %d", s.Pending())
	}
}

func TestSchedulerCallbackSeesDeadline(t *testing.T) {
	s := New()
	var seen time.Duration
	s.At(40*time.Millisecond, func() { seen = s.Now() })

	s.Advance(time.Second)
	if seen != 40*time.Millisecond {
		t.Errorf("Expected callback to observe 40ms, got %v", seen)
	}
	if s.Now() != time.Second {
		t.Errorf("Expected now=1s after advance, got %v", s.Now())
	}
}

func TestSchedulerCancel(t *testing.T) {
	s := New()
	var count atomic.Int32
	id := s.At(10*time.Millisecond, func() { count.Add(1) })

	if !s.Cancel(id) {
		t.Error("Expected first cancel to succeed")
	}
	if s.Cancel(id) {
		t.Error("Expected second cancel to report false")
	}

	s.Advance(time.Second)
	if count.Load() != 0 {
		t.Errorf("Expected cancelled event not to fire, fired %d times", count.Load())
	}
}

func TestSchedulerReentrantScheduling(t *testing.T) {
	s := New()
	var ticks []time.Duration

	var tick func()
	tick = func() {
		ticks = append(ticks, s.Now())
		if len(ticks) < 5 {
			s.After(10*time.Millisecond, tick)
		}
	}
	s.At(0, tick)

	s.Advance(100 * time.Millisecond)
	if len(ticks) != 5 {
		t.Fatalf("Expected 5 chained ticks, got %d", len(ticks))
	}
	for i, at := range ticks {
		if at != time.Duration(i)*10*time.Millisecond {
			t.Errorf("Expected tick %d at %v, got %v", i, time.Duration(i)*10*time.Millisecond, at)
		}
	}
}

func TestSchedulerPastDeadline(t *testing.T) {
	s := New()
	s.Advance(time.Second)

	fired := false
	s.At(500*time.Millisecond, func() { fired = true })
	if next, ok := s.Next(); !ok || next != 500*time.Millisecond {
		t.Errorf("Expected next deadline 500ms, got %v (ok=%v)", next, ok)
	}

	s.AdvanceTo(time.Second)
	if !fired {
		t.Error("Expected past deadline to fire on next advance")
	}
	if s.Now() != time.Second {
		t.Errorf("Expected time not to move backwards, got %v", s.Now())
	}
}

func TestSchedulerNeverMovesBackwards(t *testing.T) {
	s := New()
	s.AdvanceTo(time.Second)
	s.AdvanceTo(500 * time.Millisecond)
	if s.Now() != time.Second {
		t.Errorf("Expected now to stay at 1s, got %v", s.Now())
	}
}

func TestSeconds(t *testing.T) {
	tests := []struct {
		sec  float64
		want time.Duration
	}{
		{0, 0},
		{0.6, 600 * time.Millisecond},
		{0.1 + 0.2, 300 * time.Millisecond},
		{1.5, 1500 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := Seconds(tt.sec); got != tt.want {
			t.Errorf("Expected Seconds(%v) = %v, got %v", tt.sec, tt.want, got)
		}
	}
}

func TestDriverPumpsElapsedTime(t *testing.T) {
	var total atomic.Int64
	d := NewDriver(2*time.Millisecond, func(elapsed time.Duration) {
		total.Add(int64(elapsed))
	})

	if err := d.Start(); err != nil {
		t.Fatalf("Expected driver to start, got %v", err)
	}
	if err := d.Start(); err == nil {
		t.Error("Expected second Start to fail while running")
	}

	deadline := time.Now().Add(2 * time.Second)
	for d.Ticks() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	d.Stop()
	d.Stop()

	if d.Ticks() < 3 {
		t.Errorf("Expected at least 3 ticks, got %d", d.Ticks())
	}
	if total.Load() <= 0 {
		t.Error("Expected pumped time to be positive")
	}
	if d.IsRunning() {
		t.Error("Expected driver to report stopped")
	}
}

func TestDriverRejectsZeroInterval(t *testing.T) {
	d := NewDriver(0, func(time.Duration) {})
	if err := d.Start(); err == nil {
		t.Error("Expected zero interval to be rejected")
	}
}
