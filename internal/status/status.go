// Package status provides a thread-safe view of the latest strip state for
// HTTP handlers. The run loop writes it once per tick; readers get value
// copies and never touch the controller.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/powerstrip/internal/core"
)

// Config contains daemon configuration for display.
type Config struct {
	TickMs   int64
	Broker   string
	HTTPAddr string
	DBPath   string
}

// View is a point-in-time copy of daemon state.
// It is a value type, safe to use after the lock is released.
type View struct {
	Snapshot      core.Snapshot
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (v View) Uptime() time.Duration {
	return v.Now.Sub(v.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	view View
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		view: View{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update stores the latest snapshot. Called from the run loop every tick.
func (t *Tracker) Update(snap core.Snapshot) {
	t.mu.Lock()
	t.view.Snapshot = snap
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.view.MQTTConnected = connected
	t.mu.Unlock()
}

// View returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) View() View {
	t.mu.RLock()
	v := t.view
	t.mu.RUnlock()
	v.Now = time.Now()
	return v
}
