package live

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/process"
)

// Focus backend names accepted by Detect.
const (
	ModeAuto   = "auto"
	ModeITerm2 = "iterm2"
	ModeTmux   = "tmux"
	ModeNone   = "none"
)

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ProcessRunning reports whether a process with one of the given names is
// running. Names are compared case-insensitively.
func ProcessRunning(ctx context.Context, names ...string) bool {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("failed to list processes")
		return false
	}
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		for _, want := range names {
			if strings.EqualFold(name, want) {
				return true
			}
		}
	}
	return false
}

// Detector picks a focus backend for the current machine.
type Detector struct {
	runner  Runner
	running func(ctx context.Context, names ...string) bool
	goos    string
}

// NewDetector creates a detector that runs commands with runner. A nil
// runner uses ExecRunner.
func NewDetector(runner Runner) *Detector {
	if runner == nil {
		runner = ExecRunner
	}
	return &Detector{
		runner:  runner,
		running: ProcessRunning,
		goos:    runtime.GOOS,
	}
}

// Candidates returns every backend this detector knows about, in auto
// preference order.
func (d *Detector) Candidates() []Platform {
	var out []Platform
	if d.goos == "darwin" {
		out = append(out, NewITermPlatform(d.runner, d.running))
	}
	out = append(out, NewTmuxPlatform(d.runner))
	return out
}

// Detect returns the platform for mode. In auto mode the first available
// candidate wins and NonePlatform is the fallback.
func (d *Detector) Detect(ctx context.Context, mode string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeAuto:
		for _, p := range d.Candidates() {
			if p.Available(ctx) {
				log.Debug().Str("backend", p.Name()).Msg("focus backend detected")
				return p, nil
			}
		}
		return NonePlatform{}, nil
	case ModeITerm2:
		return NewITermPlatform(d.runner, d.running), nil
	case ModeTmux:
		return NewTmuxPlatform(d.runner), nil
	case ModeNone:
		return NonePlatform{}, nil
	default:
		return nil, fmt.Errorf("unknown focus backend %q", mode)
	}
}
