//go:build unix

package liveness

import (
	"errors"

	"golang.org/x/sys/unix"
)

// ProcessExists sends signal 0 to pid. Success or EPERM (the process exists
// but belongs to someone else) count as existing; anything else does not.
func ProcessExists(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
