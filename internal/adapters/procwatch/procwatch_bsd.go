//go:build darwin || freebsd || openbsd || dragonfly

package procwatch

import (
	"errors"
	"fmt"

	"github.com/brianly1003/glance/internal/domain/ports"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// KqueueWatcher registers EVFILT_PROC/NOTE_EXIT for the process and a pipe
// read end used to cancel the wait.
type KqueueWatcher struct{}

func newNative() ports.ExitWatcher {
	return &KqueueWatcher{}
}

// Backend implements ports.ExitWatcher.
func (w *KqueueWatcher) Backend() string {
	return BackendKqueue
}

// Watch implements ports.ExitWatcher.
func (w *KqueueWatcher) Watch(pid int, onExit func()) (func(), error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("kqueue: %w", err)
	}

	var pipe [2]int
	if err := unix.Pipe(pipe[:]); err != nil {
		_ = unix.Close(kq)
		return nil, fmt.Errorf("pipe: %w", err)
	}
	closeAll := func() {
		_ = unix.Close(kq)
		_ = unix.Close(pipe[0])
		_ = unix.Close(pipe[1])
	}

	changes := make([]unix.Kevent_t, 2)
	unix.SetKevent(&changes[0], pid, unix.EVFILT_PROC, unix.EV_ADD|unix.EV_ONESHOT)
	changes[0].Fflags = unix.NOTE_EXIT
	unix.SetKevent(&changes[1], pipe[0], unix.EVFILT_READ, unix.EV_ADD)

	if _, err := unix.Kevent(kq, changes, nil, nil); err != nil {
		closeAll()
		if errors.Is(err, unix.ESRCH) {
			go onExit()
			return func() {}, nil
		}
		return nil, fmt.Errorf("kevent register %d: %w", pid, err)
	}

	guard := &onceCloser{}

	go func() {
		defer guard.finish(closeAll)

		out := make([]unix.Kevent_t, 2)
		for {
			n, err := unix.Kevent(kq, nil, out, nil)
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if err != nil {
				log.Warn().Err(err).Int("pid", pid).Msg("exit watch kevent failed")
				return
			}
			for i := 0; i < n; i++ {
				if out[i].Filter == unix.EVFILT_READ {
					return
				}
			}
			for i := 0; i < n; i++ {
				if out[i].Filter == unix.EVFILT_PROC && out[i].Fflags&unix.NOTE_EXIT != 0 {
					onExit()
					return
				}
			}
		}
	}()

	cancel := func() {
		guard.do(func() {
			_, _ = unix.Write(pipe[1], []byte{1})
		})
	}
	return cancel, nil
}

var _ ports.ExitWatcher = (*KqueueWatcher)(nil)
