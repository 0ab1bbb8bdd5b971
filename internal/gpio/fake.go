package gpio

import "time"

// FakeWatcher is a test double whose events are injected by the test.
type FakeWatcher struct {
	events chan Event

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeWatcher creates a FakeWatcher with a buffered event channel.
func NewFakeWatcher() *FakeWatcher {
	return &FakeWatcher{events: make(chan Event, 16)}
}

// Motion injects a presence edge.
func (f *FakeWatcher) Motion(t time.Time) {
	f.events <- Event{Kind: Motion, Time: t}
}

// Clear injects an absence edge.
func (f *FakeWatcher) Clear(t time.Time) {
	f.events <- Event{Kind: Clear, Time: t}
}

// Fault injects a driver error.
func (f *FakeWatcher) Fault(t time.Time, err error) {
	f.events <- Event{Kind: Fault, Time: t, Err: err}
}

// Events returns the injected event channel.
func (f *FakeWatcher) Events() <-chan Event {
	return f.events
}

// Close marks the watcher as closed and closes the channel.
func (f *FakeWatcher) Close() error {
	if !f.Closed {
		f.Closed = true
		close(f.events)
	}
	return nil
}
