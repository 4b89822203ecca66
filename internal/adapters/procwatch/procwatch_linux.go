//go:build linux

package procwatch

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/brianly1003/glance/internal/domain/ports"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// PidfdWatcher waits on a pidfd, which becomes readable when the process
// exits. An eventfd in the same poll set wakes the goroutine on cancel.
type PidfdWatcher struct{}

// newNative probes for pidfd support once using our own pid.
func newNative() ports.ExitWatcher {
	fd, err := unix.PidfdOpen(unix.Getpid(), 0)
	if err != nil {
		log.Debug().Err(err).Msg("pidfd unavailable, using polling exit watcher")
		return nil
	}
	_ = unix.Close(fd)
	return &PidfdWatcher{}
}

// Backend implements ports.ExitWatcher.
func (w *PidfdWatcher) Backend() string {
	return BackendPidfd
}

// Watch implements ports.ExitWatcher.
func (w *PidfdWatcher) Watch(pid int, onExit func()) (func(), error) {
	pidfd, err := unix.PidfdOpen(pid, 0)
	if err != nil {
		if errors.Is(err, unix.ESRCH) {
			go onExit()
			return func() {}, nil
		}
		return nil, fmt.Errorf("pidfd_open %d: %w", pid, err)
	}

	efd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		_ = unix.Close(pidfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}

	guard := &onceCloser{}

	go func() {
		defer guard.finish(func() {
			_ = unix.Close(pidfd)
			_ = unix.Close(efd)
		})

		fds := []unix.PollFd{
			{Fd: int32(pidfd), Events: unix.POLLIN},
			{Fd: int32(efd), Events: unix.POLLIN},
		}
		for {
			_, err := unix.Poll(fds, -1)
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if err != nil {
				log.Warn().Err(err).Int("pid", pid).Msg("exit watch poll failed")
				return
			}
			if fds[1].Revents != 0 {
				return
			}
			if fds[0].Revents != 0 {
				onExit()
				return
			}
		}
	}()

	cancel := func() {
		guard.do(func() {
			var buf [8]byte
			binary.NativeEndian.PutUint64(buf[:], 1)
			_, _ = unix.Write(efd, buf[:])
		})
	}
	return cancel, nil
}

var _ ports.ExitWatcher = (*PidfdWatcher)(nil)
