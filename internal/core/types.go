// Package core contains the pure control and metering logic for the four
// switched channels. This package has NO external dependencies (no GPIO, I2C,
// MQTT, database, or time.Sleep). Time is always injectable via time.Time
// parameters, and every external effect is returned as data for the caller
// to dispatch.
package core

import "time"

// NumChannels is the number of switched outputs on the strip. Channels are
// identified by a 1-based index; the array never grows or shrinks at runtime.
const NumChannels = 4

// DefaultUsageLimitSeconds is the boot default for per-channel auto-shutoff
// (12 hours of cumulative on-time per day).
const DefaultUsageLimitSeconds = 12 * 3600

// DefaultUnitPrice is the boot default electricity price (currency per kWh).
const DefaultUnitPrice = 8.0

// Reading is one channel's electrical sample for a tick. Present is false
// when the sensor for that channel was not detected; absence is a steady
// state, not a fault.
type Reading struct {
	Voltage float64 // volts
	Current float64 // amps, raw (may be negative from sensor noise)
	Present bool
}

// Channel is the authoritative state of one controllable output.
type Channel struct {
	// Latest sample; all zero while the sensor is absent.
	Voltage float64
	Current float64
	Power   float64

	// Accumulators. EnergyWh never decreases and is never reset here;
	// Cost is derived: EnergyWh/1000 * unit price.
	EnergyWh float64
	Cost     float64

	// Relay is the commanded switch state.
	Relay bool

	// OnSecondsToday counts whole ticks spent engaged. Reset only by
	// ResetDaily, never by the tick loop itself.
	OnSecondsToday uint64

	// UsageLimitSeconds forces the relay OFF once OnSecondsToday reaches
	// it. Zero disables the limit entirely (not "limit of zero").
	UsageLimitSeconds uint64

	// TimerMinutes is the user-configured countdown length; zero means no
	// timer. TimerEndEpoch is the armed deadline in epoch seconds; zero
	// means no timer is armed.
	TimerMinutes  int
	TimerEndEpoch int64
}

// Event is a notification to be appended to the log and broadcast.
type Event struct {
	Timestamp time.Time
	Text      string
}

// Switch is an actuator command produced by a tick or a control command.
type Switch struct {
	ID int // 1-based channel index
	On bool
}

// TickResult carries everything one tick produced for the dispatcher.
type TickResult struct {
	Events   []Event
	Switches []Switch
	Snapshot Snapshot
}

// CommandResult carries the effects of one control command.
// SettingsChanged is true when the persisted configuration (price, limits,
// timer lengths) must be rewritten.
type CommandResult struct {
	Events          []Event
	Switches        []Switch
	SettingsChanged bool
}

// ChannelSettings is the persisted per-channel configuration.
type ChannelSettings struct {
	UsageLimitSeconds uint64
	TimerMinutes      int
}

// Settings is the persisted configuration: the shared price plus the
// per-channel limit and timer lengths.
type Settings struct {
	UnitPrice float64
	Channels  [NumChannels]ChannelSettings
}
