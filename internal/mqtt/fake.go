package mqtt

import (
	"github.com/sweeney/powerstrip/internal/core"
)

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	// States contains every published snapshot.
	States []core.Snapshot

	// StatePayloads contains the JSON payloads of published snapshots.
	StatePayloads [][]byte

	// Notifications contains all notification events that were published.
	Notifications []core.Event

	// NotificationPayloads contains the JSON payloads of notifications.
	NotificationPayloads [][]byte

	// SystemEvents contains all lifecycle events that were published.
	SystemEvents []SystemEvent

	// PublishError, if set, will be returned by every publish method.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Connected: true}
}

// PublishState records the snapshot.
func (f *FakePublisher) PublishState(snap core.Snapshot) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.States = append(f.States, snap)

	payload, err := core.EncodeState(snap)
	if err != nil {
		return err
	}
	f.StatePayloads = append(f.StatePayloads, payload)
	return nil
}

// PublishNotification records the notification event.
func (f *FakePublisher) PublishNotification(ev core.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Notifications = append(f.Notifications, ev)

	payload, err := FormatNotification(ev)
	if err != nil {
		return err
	}
	f.NotificationPayloads = append(f.NotificationPayloads, payload)
	return nil
}

// PublishSystem records the lifecycle event.
func (f *FakePublisher) PublishSystem(ev SystemEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.SystemEvents = append(f.SystemEvents, ev)
	return nil
}

// IsConnected returns the configured connection state.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}
