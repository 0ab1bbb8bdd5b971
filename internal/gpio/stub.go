//go:build !linux

package gpio

import (
	"errors"
	"time"
)

// LineWatcher is not available on non-Linux platforms.
type LineWatcher struct{}

// NewLineWatcher returns an error on non-Linux platforms.
func NewLineWatcher(chip string, pin int, activeLow bool, debounce time.Duration) (*LineWatcher, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Events is not implemented on non-Linux platforms.
func (w *LineWatcher) Events() <-chan Event {
	return nil
}

// Close is not implemented on non-Linux platforms.
func (w *LineWatcher) Close() error {
	return nil
}
