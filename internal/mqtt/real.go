package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/powerstrip/internal/core"
)

// queueCapacity bounds the number of notifications held through a broker
// outage. State snapshots are never queued; the next tick supersedes them.
const queueCapacity = 256

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client paho.Client

	mu    sync.Mutex
	queue *offlineQueue
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(broker string) (*RealPublisher, error) {
	p := &RealPublisher{queue: newOfflineQueue(queueCapacity)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("powerstrip").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(p.onConnect)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

// onConnect replays notifications queued during an outage.
func (p *RealPublisher) onConnect(client paho.Client) {
	p.mu.Lock()
	msgs := p.queue.drain()
	p.mu.Unlock()

	for _, m := range msgs {
		client.Publish(m.topic, m.qos, false, m.payload)
	}
}

// PublishState sends the snapshot, retained so late subscribers see the
// latest state immediately. QoS 0: the next tick replaces it anyway.
func (p *RealPublisher) PublishState(snap core.Snapshot) error {
	payload, err := core.EncodeState(snap)
	if err != nil {
		return fmt.Errorf("format state: %w", err)
	}
	if !p.client.IsConnected() {
		return nil
	}

	token := p.client.Publish(TopicState, 0, true, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish state timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish state: %w", err)
	}
	return nil
}

// PublishNotification sends one notification at QoS 1. While disconnected
// the message is queued and replayed on reconnect.
func (p *RealPublisher) PublishNotification(ev core.Event) error {
	payload, err := FormatNotification(ev)
	if err != nil {
		return fmt.Errorf("format notification: %w", err)
	}

	if !p.client.IsConnected() {
		p.mu.Lock()
		p.queue.push(queuedMsg{topic: TopicEvents, payload: payload, qos: 1})
		p.mu.Unlock()
		return nil
	}

	token := p.client.Publish(TopicEvents, 1, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish notification timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// PublishSystem sends a lifecycle event at QoS 1 - we want shutdown events
// to be delivered.
func (p *RealPublisher) PublishSystem(ev SystemEvent) error {
	payload, err := FormatSystemPayload(ev)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	token := p.client.Publish(TopicSystem, 1, ev.Retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish system timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
