package wake

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestClockJump_Jumped(t *testing.T) {
	c := NewClockJump(2*time.Second, 5*time.Second)
	base := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name string
		gap  time.Duration
		want bool
	}{
		{"on time", 2 * time.Second, false},
		{"late tick", 6 * time.Second, false},
		{"exactly interval plus threshold", 7 * time.Second, false},
		{"slept", 7*time.Second + time.Millisecond, true},
		{"clock moved back", -time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.jumped(base, base.Add(tt.gap)); got != tt.want {
				t.Errorf("jumped(gap=%v) = %v, want %v", tt.gap, got, tt.want)
			}
		})
	}
}

func TestNewClockJump_Defaults(t *testing.T) {
	c := NewClockJump(0, 0)
	if c.interval != DefaultCheckInterval || c.threshold != DefaultJumpThreshold {
		t.Errorf("defaults = (%v, %v), want (%v, %v)", c.interval, c.threshold, DefaultCheckInterval, DefaultJumpThreshold)
	}
	if c.Name() != "clock" {
		t.Errorf("Name() = %q, want clock", c.Name())
	}
}

func TestClockJump_RunFiresOnJump(t *testing.T) {
	c := NewClockJump(5*time.Millisecond, time.Second)

	var mu sync.Mutex
	wall := time.Unix(1_700_000_000, 0)
	samples := 0
	c.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		samples++
		// The third sample lands an hour later, as after a suspend.
		if samples == 3 {
			wall = wall.Add(time.Hour)
		} else {
			wall = wall.Add(5 * time.Millisecond)
		}
		return wall
	}

	var wakes atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx, func() { wakes.Add(1) })
	}()

	deadline := time.Now().Add(2 * time.Second)
	for wakes.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(30 * time.Millisecond)
	cancel()

	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if got := wakes.Load(); got != 1 {
		t.Errorf("wakes = %d, want 1", got)
	}
}
