package core

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the full per-tick state of all channels plus the shared price.
// It is a value type, safe to hand to other goroutines after the tick.
type Snapshot struct {
	UnitPrice float64
	Channels  [NumChannels]Channel
}

// Snapshot builds a point-in-time copy of controller state, channels in
// index order 1..4.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{UnitPrice: c.unitPrice, Channels: c.channels}
}

// Wire format of the state broadcast. Existing front-ends depend on these
// exact field names.
type stateJSON struct {
	Type      string     `json:"type"`
	UnitPrice float64    `json:"unitPrice"`
	Loads     []loadJSON `json:"loads"`
}

type loadJSON struct {
	ID         int     `json:"id"`
	Voltage    float64 `json:"voltage"`
	Current    float64 `json:"current"`
	Power      float64 `json:"power"`
	Energy     float64 `json:"energy"`
	Relay      bool    `json:"relay"`
	OnSecToday uint64  `json:"onSecToday"`
	LimitSec   uint64  `json:"limitSec"`
	TimerMin   int     `json:"timerMin"`
	TimerEnd   int64   `json:"timerEnd,omitempty"`
	Cost       float64 `json:"cost"`
}

// EncodeState creates the JSON payload for a state snapshot. timerEnd is
// present only while a timer is armed.
func EncodeState(s Snapshot) ([]byte, error) {
	out := stateJSON{
		Type:      "state",
		UnitPrice: s.UnitPrice,
		Loads:     make([]loadJSON, 0, NumChannels),
	}
	for i, ch := range s.Channels {
		out.Loads = append(out.Loads, loadJSON{
			ID:         i + 1,
			Voltage:    ch.Voltage,
			Current:    ch.Current,
			Power:      ch.Power,
			Energy:     ch.EnergyWh,
			Relay:      ch.Relay,
			OnSecToday: ch.OnSecondsToday,
			LimitSec:   ch.UsageLimitSeconds,
			TimerMin:   ch.TimerMinutes,
			TimerEnd:   ch.TimerEndEpoch,
			Cost:       ch.Cost,
		})
	}
	return json.Marshal(out)
}

// DecodeState parses a state payload back into a Snapshot. Used by tests
// and by consumers that replay retained broker state.
func DecodeState(data []byte) (Snapshot, error) {
	var in stateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return Snapshot{}, fmt.Errorf("decode state: %w", err)
	}
	if in.Type != "state" {
		return Snapshot{}, fmt.Errorf("decode state: unexpected type %q", in.Type)
	}
	if len(in.Loads) != NumChannels {
		return Snapshot{}, fmt.Errorf("decode state: got %d loads, want %d", len(in.Loads), NumChannels)
	}

	s := Snapshot{UnitPrice: in.UnitPrice}
	for _, l := range in.Loads {
		if l.ID < 1 || l.ID > NumChannels {
			return Snapshot{}, fmt.Errorf("decode state: load id %d out of range", l.ID)
		}
		s.Channels[l.ID-1] = Channel{
			Voltage:           l.Voltage,
			Current:           l.Current,
			Power:             l.Power,
			EnergyWh:          l.Energy,
			Cost:              l.Cost,
			Relay:             l.Relay,
			OnSecondsToday:    l.OnSecToday,
			UsageLimitSeconds: l.LimitSec,
			TimerMinutes:      l.TimerMin,
			TimerEndEpoch:     l.TimerEnd,
		}
	}
	return s, nil
}

// EncodeNotification creates the JSON payload broadcast to live observers
// when a notification is emitted.
func EncodeNotification(ev Event) ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{Type: "notification", Text: ev.Text})
}
