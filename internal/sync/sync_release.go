//go:build !deadlock

// Package sync provides the mutex types used by the registry and event hub.
// Building with -tags deadlock swaps them for go-deadlock so lock-order
// problems between the registry task loop and its readers are reported.
package sync

import "sync"

// Mutex is the standard sync.Mutex.
type Mutex = sync.Mutex

// RWMutex is the standard sync.RWMutex.
type RWMutex = sync.RWMutex

// DetectionEnabled reports whether deadlock detection is compiled in.
const DetectionEnabled = false
