//go:build unix

package wake

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// SignalSource treats SIGUSR1 as a wake, so scripts can force a reload
// with `kill -USR1 <pid>`.
type SignalSource struct {
	sig os.Signal
}

func newSignalSource() *SignalSource {
	return &SignalSource{sig: unix.SIGUSR1}
}

func (s *SignalSource) Name() string {
	return "sigusr1"
}

// Run implements ports.WakeSource.
func (s *SignalSource) Run(ctx context.Context, onWake func()) error {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, s.sig)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ch:
			onWake()
		}
	}
}
