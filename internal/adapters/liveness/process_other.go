//go:build !unix

package liveness

import (
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessExists asks the OS process table whether pid exists.
func ProcessExists(pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := process.PidExists(int32(pid))
	return err == nil && ok
}
