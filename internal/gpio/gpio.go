// Package gpio watches a PIR motion sensor line with hardware abstraction.
// The real implementation uses the Linux GPIO character device with edge
// detection. The fake implementation allows testing without hardware.
package gpio

import "time"

// Default line settings for a Raspberry Pi with the PIR on BCM 17.
const (
	DefaultChip = "gpiochip0"
	DefaultPin  = 17
)

// Kind classifies a sensor event.
type Kind int

const (
	// Motion is a rising edge: presence detected.
	Motion Kind = iota
	// Clear is a falling edge: presence lost.
	Clear
	// Fault is a driver error. The decision engine treats the level as
	// absent; the error is carried for logging.
	Fault
)

func (k Kind) String() string {
	switch k {
	case Motion:
		return "MOTION"
	case Clear:
		return "CLEAR"
	case Fault:
		return "FAULT"
	}
	return "UNKNOWN"
}

// Event is a single edge or fault from the sensor line.
type Event struct {
	Kind Kind
	Time time.Time
	Err  error // set only for Fault
}

// Watcher delivers sensor events asynchronously.
type Watcher interface {
	// Events returns the channel edges and faults are delivered on.
	// The channel is closed when the watcher is closed.
	Events() <-chan Event

	// Close releases GPIO resources and closes the event channel.
	Close() error
}
