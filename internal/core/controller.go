package core

import (
	"fmt"
	"time"
)

// Controller owns the four channel records and the shared unit price.
// It is not safe for concurrent use: the run loop is its sole owner, and
// control commands are applied between ticks on the same goroutine.
type Controller struct {
	channels  [NumChannels]Channel
	unitPrice float64
}

// NewController creates a controller with runtime defaults: all relays OFF,
// counters zero, 12-hour usage limits, no timers.
func NewController() *Controller {
	c := &Controller{unitPrice: DefaultUnitPrice}
	for i := range c.channels {
		c.channels[i].UsageLimitSeconds = DefaultUsageLimitSeconds
	}
	return c
}

// Restore merges persisted settings over the runtime defaults. Called once
// at boot, before the first tick.
func (c *Controller) Restore(s Settings) {
	c.unitPrice = s.UnitPrice
	for i := range c.channels {
		c.channels[i].UsageLimitSeconds = s.Channels[i].UsageLimitSeconds
		c.channels[i].TimerMinutes = s.Channels[i].TimerMinutes
	}
}

// Settings returns the configuration to persist.
func (c *Controller) Settings() Settings {
	s := Settings{UnitPrice: c.unitPrice}
	for i := range c.channels {
		s.Channels[i] = ChannelSettings{
			UsageLimitSeconds: c.channels[i].UsageLimitSeconds,
			TimerMinutes:      c.channels[i].TimerMinutes,
		}
	}
	return s
}

// Channel returns a copy of one channel's state. id is 1-based and must be
// in range; the boundary validates before calling.
func (c *Controller) Channel(id int) Channel {
	return c.channels[id-1]
}

// UnitPrice returns the shared electricity price.
func (c *Controller) UnitPrice() float64 {
	return c.unitPrice
}

// Tick advances every channel by one evaluation cycle: metering first, then
// the usage-limit axis, then the timer axis. Channels are processed in index
// order. The nominal tick period is one second; energy integration assumes
// it (power-seconds / 3600 = watt-hours).
func (c *Controller) Tick(now time.Time, readings [NumChannels]Reading) TickResult {
	var res TickResult
	epoch := now.Unix()

	for i := range c.channels {
		ch := &c.channels[i]
		id := i + 1

		r := readings[i]
		if r.Present {
			cur := r.Current
			if cur < 0 {
				// Sensor noise floor, not reverse power flow.
				cur = 0
			}
			ch.Voltage = r.Voltage
			ch.Current = cur
			ch.Power = r.Voltage * cur
			ch.EnergyWh += ch.Power / 3600.0
			ch.Cost = (ch.EnergyWh / 1000.0) * c.unitPrice
		} else {
			ch.Voltage, ch.Current, ch.Power = 0, 0, 0
		}

		if ch.Relay {
			ch.OnSecondsToday++
			if ch.UsageLimitSeconds > 0 && ch.OnSecondsToday >= ch.UsageLimitSeconds {
				ch.Relay = false
				res.Switches = append(res.Switches, Switch{ID: id, On: false})
				res.Events = append(res.Events, Event{
					Timestamp: now,
					Text:      fmt.Sprintf("Relay %d auto OFF by limit", id),
				})
			}
		}

		// Runs regardless of the limit outcome; OFF is idempotent.
		if ch.TimerEndEpoch > 0 && epoch >= ch.TimerEndEpoch {
			ch.Relay = false
			ch.TimerEndEpoch = 0
			res.Switches = append(res.Switches, Switch{ID: id, On: false})
			res.Events = append(res.Events, Event{
				Timestamp: now,
				Text:      fmt.Sprintf("Relay %d auto OFF by timer", id),
			})
		}
	}

	res.Snapshot = c.Snapshot()
	return res
}

// Relay applies a relay ON/OFF command. Switching ON arms the timer when a
// timer length is configured; switching OFF (or ON with no timer length)
// disarms any pending timer.
func (c *Controller) Relay(now time.Time, id int, on bool) CommandResult {
	ch := &c.channels[id-1]
	ch.Relay = on
	if on && ch.TimerMinutes > 0 {
		ch.TimerEndEpoch = now.Unix() + int64(ch.TimerMinutes)*60
	} else {
		ch.TimerEndEpoch = 0
	}

	text := fmt.Sprintf("Relay %d OFF", id)
	if on {
		text = fmt.Sprintf("Relay %d ON", id)
	}
	return CommandResult{
		Events:   []Event{{Timestamp: now, Text: text}},
		Switches: []Switch{{ID: id, On: on}},
	}
}

// SetTimer sets a channel's countdown length. If the channel is engaged and
// the new length is positive, the deadline is re-armed from now; the prior
// deadline is discarded, not extended.
func (c *Controller) SetTimer(now time.Time, id, minutes int) CommandResult {
	ch := &c.channels[id-1]
	ch.TimerMinutes = minutes
	if ch.Relay && minutes > 0 {
		ch.TimerEndEpoch = now.Unix() + int64(minutes)*60
	} else {
		ch.TimerEndEpoch = 0
	}
	return CommandResult{
		Events:          []Event{{Timestamp: now, Text: fmt.Sprintf("Relay %d timer set to %d min", id, minutes)}},
		SettingsChanged: true,
	}
}

// SetLimit sets a channel's usage limit. Takes effect on the next tick; it
// never resets OnSecondsToday. The boundary rejects zero (use of zero to
// mean "disable" is not part of the command surface).
func (c *Controller) SetLimit(now time.Time, id int, seconds uint64) CommandResult {
	c.channels[id-1].UsageLimitSeconds = seconds
	return CommandResult{
		Events:          []Event{{Timestamp: now, Text: fmt.Sprintf("Relay %d limit set to %d s", id, seconds)}},
		SettingsChanged: true,
	}
}

// SetPrice sets the shared unit price and recomputes every channel's derived
// cost so the next snapshot is consistent.
func (c *Controller) SetPrice(now time.Time, price float64) CommandResult {
	c.unitPrice = price
	for i := range c.channels {
		ch := &c.channels[i]
		ch.Cost = (ch.EnergyWh / 1000.0) * c.unitPrice
	}
	return CommandResult{
		Events:          []Event{{Timestamp: now, Text: fmt.Sprintf("Unit price set to %.2f", price)}},
		SettingsChanged: true,
	}
}

// ResetDaily zeroes every channel's engaged-seconds counter. The run loop
// calls this when the local calendar date changes between ticks.
func (c *Controller) ResetDaily() {
	for i := range c.channels {
		c.channels[i].OnSecondsToday = 0
	}
}
