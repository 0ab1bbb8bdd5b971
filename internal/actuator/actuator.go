// Package actuator invokes the operator-supplied screen on/off commands.
// Invocation is fire-and-forget: a failing command is logged and counted
// but never blocks, retries, or reverts the decision state.
package actuator

import (
	"context"
	"log"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/mfeltham/screenduty/internal/metrics"
)

// commandTimeout bounds a wedged command so its goroutine cannot leak.
const commandTimeout = 30 * time.Second

// Screen drives the physical display power state.
type Screen interface {
	// Apply requests the display on or off. It returns immediately; the
	// command runs in the background.
	Apply(on bool)
}

// Switcher executes the configured shell commands.
type Switcher struct {
	onCommand  string
	offCommand string
}

// New creates a Switcher for the given shell command strings.
func New(onCommand, offCommand string) *Switcher {
	return &Switcher{onCommand: onCommand, offCommand: offCommand}
}

// Apply dispatches the command for the requested state off the caller's
// path. In-flight commands are never cancelled by later ones.
func (s *Switcher) Apply(on bool) {
	go s.invoke(on)
}

func (s *Switcher) invoke(on bool) {
	cmd, state := s.offCommand, "off"
	if on {
		cmd, state = s.onCommand, "on"
	}
	metrics.ScreenSwitches.WithLabelValues(state).Inc()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "/bin/sh", "-c", cmd).CombinedOutput()
	if err != nil {
		metrics.ActuatorFailures.Inc()
		log.Printf("actuator: screen %s command failed: %v (output: %q)", state, err, strings.TrimSpace(string(out)))
		return
	}
	log.Printf("actuator: screen %s", state)
}

// Fake records Apply calls for test assertions.
type Fake struct {
	mu    sync.Mutex
	calls []bool
}

// NewFake creates a Fake actuator.
func NewFake() *Fake {
	return &Fake{}
}

// Apply records the requested state.
func (f *Fake) Apply(on bool) {
	f.mu.Lock()
	f.calls = append(f.calls, on)
	f.mu.Unlock()
}

// Calls returns a copy of the recorded states in order.
func (f *Fake) Calls() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bool, len(f.calls))
	copy(out, f.calls)
	return out
}
