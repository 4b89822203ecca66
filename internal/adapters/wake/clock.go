package wake

import (
	"context"
	"time"
)

// Clock jump defaults.
const (
	DefaultCheckInterval = 2 * time.Second
	DefaultJumpThreshold = 5 * time.Second
)

// ClockJump detects sleep by comparing wall-clock time between ticks. The
// monotonic clock stops during suspend on some platforms while the wall
// clock keeps going, so a tick whose wall-clock gap exceeds the interval by
// more than the threshold means the machine slept.
type ClockJump struct {
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time
}

// NewClockJump creates a clock jump detector.
func NewClockJump(interval, threshold time.Duration) *ClockJump {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	if threshold <= 0 {
		threshold = DefaultJumpThreshold
	}
	return &ClockJump{
		interval:  interval,
		threshold: threshold,
		now:       time.Now,
	}
}

func (c *ClockJump) Name() string {
	return "clock"
}

// Run implements ports.WakeSource.
func (c *ClockJump) Run(ctx context.Context, onWake func()) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	last := c.now().Round(0)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			cur := c.now().Round(0)
			if c.jumped(last, cur) {
				onWake()
			}
			last = cur
		}
	}
}

// jumped reports whether the wall-clock gap between two samples is larger
// than one interval plus the threshold.
func (c *ClockJump) jumped(prev, cur time.Time) bool {
	return cur.Sub(prev) > c.interval+c.threshold
}
