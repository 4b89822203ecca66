//go:build !unix

package wake

import "github.com/brianly1003/glance/internal/domain/ports"

func newSignalSource() ports.WakeSource {
	return nil
}
