// Package sensor provides per-channel electrical sampling with hardware
// abstraction. The real implementation talks to INA219 monitors over I2C.
// The fake implementation allows testing without hardware.
package sensor

// Reading is one channel's raw sample. Present is false when no sensor was
// detected for the channel; absence is a steady state the caller handles,
// not an error.
type Reading struct {
	Voltage float64 // bus volts
	Current float64 // amps, raw (negative readings pass through)
	Present bool
}

// Source reads electrical samples for all four channels.
type Source interface {
	// ReadAll returns a reading per channel in index order 1..4.
	// An error means the bus itself failed; per-channel absence is
	// reported via Reading.Present instead.
	ReadAll() ([4]Reading, error)

	// Close releases bus resources.
	Close() error
}

// Default I2C addresses of the four INA219 monitors, channel order 1..4.
var DefaultAddrs = [4]uint16{0x40, 0x41, 0x44, 0x45}
