// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/powerstrip/internal/core"
)

// TopicState carries the per-tick state snapshot (retained).
const TopicState = "energy/powerstrip/state"

// TopicEvents carries notification events.
const TopicEvents = "energy/powerstrip/events"

// TopicSystem carries daemon lifecycle events.
const TopicSystem = "energy/powerstrip/system"

// Publisher publishes strip state and events to MQTT.
type Publisher interface {
	// PublishState sends the latest snapshot. Called every tick; a failed
	// publish is not retried because the next tick supersedes it.
	PublishState(snap core.Snapshot) error

	// PublishNotification sends one notification event.
	PublishNotification(ev core.Event) error

	// PublishSystem sends a daemon lifecycle event (startup, shutdown).
	PublishSystem(ev SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a daemon lifecycle event.
type SystemEvent struct {
	Timestamp time.Time
	Event     string // e.g., "STARTUP", "SHUTDOWN"
	Reason    string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	Retained  bool   // Whether the message should be retained by the broker
}

// notificationPayload is the wire envelope for notification events.
type notificationPayload struct {
	Notification notificationInner `json:"notification"`
}

type notificationInner struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

// FormatNotification creates the JSON payload for a notification event.
func FormatNotification(ev core.Event) ([]byte, error) {
	return json.Marshal(notificationPayload{
		Notification: notificationInner{
			Timestamp: ev.Timestamp.UTC().Format(time.RFC3339),
			Text:      ev.Text,
		},
	})
}

// SystemPayload is the wire envelope for lifecycle events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the lifecycle event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a lifecycle event.
func FormatSystemPayload(ev SystemEvent) ([]byte, error) {
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: ev.Timestamp.UTC().Format(time.RFC3339),
			Event:     ev.Event,
			Reason:    ev.Reason,
		},
	})
}

// NopPublisher is used when no broker is configured. Every publish succeeds
// and goes nowhere.
type NopPublisher struct{}

func (NopPublisher) PublishState(core.Snapshot) error     { return nil }
func (NopPublisher) PublishNotification(core.Event) error { return nil }
func (NopPublisher) PublishSystem(SystemEvent) error      { return nil }
func (NopPublisher) Close() error                         { return nil }
func (NopPublisher) IsConnected() bool                    { return false }
