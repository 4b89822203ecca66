package wake

import (
	"context"
	"fmt"

	"github.com/brianly1003/glance/internal/domain"
	"github.com/godbus/dbus/v5"
)

const (
	login1Interface = "org.freedesktop.login1.Manager"
	login1Member    = "PrepareForSleep"
)

// Login1 listens for systemd-logind PrepareForSleep signals on the system
// bus. The signal carries true before suspend and false after resume.
type Login1 struct {
	connect func() (*dbus.Conn, error)
}

// NewLogin1 creates a logind wake source.
func NewLogin1() *Login1 {
	return &Login1{connect: func() (*dbus.Conn, error) { return dbus.ConnectSystemBus() }}
}

func (l *Login1) Name() string {
	return "login1"
}

// Probe checks that the system bus is reachable.
func (l *Login1) Probe() error {
	conn, err := l.connect()
	if err != nil {
		return fmt.Errorf("%w: system bus: %v", domain.ErrWakeUnsupported, err)
	}
	return conn.Close()
}

// Run implements ports.WakeSource.
func (l *Login1) Run(ctx context.Context, onWake func()) error {
	conn, err := l.connect()
	if err != nil {
		return fmt.Errorf("%w: system bus: %v", domain.ErrWakeUnsupported, err)
	}
	defer conn.Close()

	if err := conn.AddMatchSignalContext(ctx,
		dbus.WithMatchInterface(login1Interface),
		dbus.WithMatchMember(login1Member),
	); err != nil {
		return fmt.Errorf("subscribe %s: %w", login1Member, err)
	}

	signals := make(chan *dbus.Signal, 8)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return fmt.Errorf("system bus connection closed")
			}
			if isResume(sig) {
				onWake()
			}
		}
	}
}

// isResume reports whether sig is PrepareForSleep(false).
func isResume(sig *dbus.Signal) bool {
	if sig == nil || sig.Name != login1Interface+"."+login1Member || len(sig.Body) == 0 {
		return false
	}
	sleeping, ok := sig.Body[0].(bool)
	return ok && !sleeping
}
