//go:build linux

package gpio

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// LineWatcher delivers edges from an actual PIR line using the Linux GPIO
// character device.
type LineWatcher struct {
	chip   *gpiocdev.Chip
	line   *gpiocdev.Line
	events chan Event

	closeOnce sync.Once
}

// NewLineWatcher requests the PIR line with both-edge detection and an
// optional debounce period. activeLow inverts the line for sensors that
// pull the line low on detection.
func NewLineWatcher(chip string, pin int, activeLow bool, debounce time.Duration) (*LineWatcher, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chip, err)
	}

	w := &LineWatcher{
		chip:   c,
		events: make(chan Event, 16),
	}

	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(w.handleEdge),
	}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	if debounce > 0 {
		opts = append(opts, gpiocdev.WithDebounce(debounce))
	}

	line, err := c.RequestLine(pin, opts...)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("request pir pin %d: %w", pin, err)
	}
	w.line = line

	// Report the current level once so the engine starts from the real
	// state instead of assuming absence until the first edge.
	if v, err := line.Value(); err != nil {
		w.deliver(Event{Kind: Fault, Time: time.Now(), Err: fmt.Errorf("read pir pin: %w", err)})
	} else if v != 0 {
		w.deliver(Event{Kind: Motion, Time: time.Now()})
	}

	return w, nil
}

func (w *LineWatcher) handleEdge(evt gpiocdev.LineEvent) {
	e := Event{Time: time.Now()}
	switch evt.Type {
	case gpiocdev.LineEventRisingEdge:
		e.Kind = Motion
	case gpiocdev.LineEventFallingEdge:
		e.Kind = Clear
	default:
		return
	}
	w.deliver(e)
}

// deliver never blocks the kernel event callback. If the consumer has
// stalled long enough to fill the buffer, the edge is dropped and logged;
// the next edge carries the current level anyway.
func (w *LineWatcher) deliver(e Event) {
	select {
	case w.events <- e:
	default:
		log.Printf("gpio: event buffer full, dropping %s", e.Kind)
	}
}

// Events returns the sensor event channel.
func (w *LineWatcher) Events() <-chan Event {
	return w.events
}

// Close releases the line and chip and closes the event channel.
func (w *LineWatcher) Close() error {
	var errs []error
	w.closeOnce.Do(func() {
		if w.line != nil {
			// Back to plain input so the line is in a clean state for
			// whatever claims it next.
			if err := w.line.Reconfigure(gpiocdev.AsInput); err != nil {
				errs = append(errs, fmt.Errorf("reconfigure pir pin: %w", err))
			}
			if err := w.line.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close pir pin: %w", err))
			}
		}
		if w.chip != nil {
			if err := w.chip.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close chip: %w", err))
			}
		}
		close(w.events)
	})
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
