package registry

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSweeper_TicksAfterInitialDelay(t *testing.T) {
	var ticks atomic.Int32
	s := NewSweeper(10*time.Millisecond, 50*time.Millisecond, func() { ticks.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(25 * time.Millisecond)
	if got := ticks.Load(); got != 0 {
		t.Errorf("ticks before initial delay = %d, want 0", got)
	}

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if got := ticks.Load(); got < 2 {
		t.Errorf("ticks = %d, want at least 2", got)
	}
}

func TestSweeper_StopsOnCancelDuringDelay(t *testing.T) {
	var ticks atomic.Int32
	s := NewSweeper(time.Millisecond, time.Hour, func() { ticks.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx)

	if got := ticks.Load(); got != 0 {
		t.Errorf("ticks = %d, want 0", got)
	}
}

func TestNewSweeper_Defaults(t *testing.T) {
	s := NewSweeper(0, -1, func() {})
	if s.interval != DefaultSweepInterval {
		t.Errorf("interval = %v, want %v", s.interval, DefaultSweepInterval)
	}
	if s.initialDelay != 0 {
		t.Errorf("initialDelay = %v, want 0", s.initialDelay)
	}
}

func TestRegistrySweeper_RemovesDeadSession(t *testing.T) {
	f := newFixture(t, 1)
	f.write(t, "a", "/w/a", "idle", 1, "", 1)
	startLoop(t, f.reg)
	eventually(t, func() bool { return len(f.reg.Sessions()) == 1 }, "initial reload")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewRegistrySweeper(f.reg, 10*time.Millisecond, 0).Run(ctx)

	f.prober.SetAlive(1, false)
	eventually(t, func() bool { return len(f.reg.Sessions()) == 0 }, "sweep removal")

	if f.exists("a") {
		t.Error("swept session descriptor should be deleted")
	}
}
