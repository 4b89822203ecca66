//go:build deadlock

// Package sync provides the mutex types used by the registry and event hub.
// Building with -tags deadlock swaps them for go-deadlock so lock-order
// problems between the registry task loop and its readers are reported.
package sync

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

// Mutex is go-deadlock's Mutex.
type Mutex = deadlock.Mutex

// RWMutex is go-deadlock's RWMutex.
type RWMutex = deadlock.RWMutex

// DetectionEnabled reports whether deadlock detection is compiled in.
const DetectionEnabled = true

// NoDetectEnv disables detection at runtime when set.
const NoDetectEnv = "GLANCE_NO_DEADLOCK_DETECT"

func init() {
	// A reload probes every session; keep well above the slowest one.
	deadlock.Opts.DeadlockTimeout = 30 * time.Second

	if os.Getenv(NoDetectEnv) != "" {
		deadlock.Opts.Disable = true
		return
	}

	deadlock.Opts.PrintAllCurrentGoroutines = true
	log.Warn().Dur("timeout", deadlock.Opts.DeadlockTimeout).Msg("deadlock detection enabled")
}
