//go:build !linux && !darwin && !freebsd && !openbsd && !dragonfly

package procwatch

import "github.com/brianly1003/glance/internal/domain/ports"

func newNative() ports.ExitWatcher {
	return nil
}
