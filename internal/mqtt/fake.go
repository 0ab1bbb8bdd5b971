package mqtt

import (
	"sync"

	"github.com/mfeltham/screenduty/internal/logic"
)

// FakeBus records published messages and lets tests inject inbound
// occupancy and wake messages through the registered handlers.
type FakeBus struct {
	mu sync.Mutex

	// States contains all published snapshots.
	States []logic.Snapshot

	// SystemEvents contains all published lifecycle events.
	SystemEvents []SystemEvent

	// PublishError, if set, is returned by both publish methods.
	PublishError error

	// Connected controls IsConnected.
	Connected bool

	// Closed tracks if Close was called.
	Closed bool

	occupancyHandler func(present bool)
	wakeHandler      func()
}

// NewFakeBus creates a connected FakeBus.
func NewFakeBus() *FakeBus {
	return &FakeBus{Connected: true}
}

// SubscribeOccupancy records the handler for later injection.
func (f *FakeBus) SubscribeOccupancy(handler func(present bool)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.occupancyHandler = handler
	return nil
}

// SubscribeWake records the handler for later injection.
func (f *FakeBus) SubscribeWake(handler func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wakeHandler = handler
	return nil
}

// InjectOccupancy delivers a decoded occupancy value as if a valid
// message had arrived on the occupancy topic.
func (f *FakeBus) InjectOccupancy(present bool) {
	f.mu.Lock()
	h := f.occupancyHandler
	f.mu.Unlock()
	if h != nil {
		h(present)
	}
}

// InjectWake delivers a wake request as if a message had arrived on the
// wake topic.
func (f *FakeBus) InjectWake() {
	f.mu.Lock()
	h := f.wakeHandler
	f.mu.Unlock()
	if h != nil {
		h()
	}
}

// PublishState records the snapshot.
func (f *FakeBus) PublishState(snap logic.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.States = append(f.States, snap)
	return nil
}

// PublishSystem records the lifecycle event.
func (f *FakeBus) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.SystemEvents = append(f.SystemEvents, event)
	return nil
}

// PublishedStates returns a copy of the recorded snapshots.
func (f *FakeBus) PublishedStates() []logic.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]logic.Snapshot, len(f.States))
	copy(out, f.States)
	return out
}

// PublishedSystemEvents returns a copy of the recorded lifecycle events.
func (f *FakeBus) PublishedSystemEvents() []SystemEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SystemEvent, len(f.SystemEvents))
	copy(out, f.SystemEvents)
	return out
}

// IsConnected reports the configured connection state.
func (f *FakeBus) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Close marks the bus as closed.
func (f *FakeBus) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
