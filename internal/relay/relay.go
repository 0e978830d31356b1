// Package relay drives the four switch outputs with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package relay

// Driver sets relay outputs.
type Driver interface {
	// Set drives one relay. id is the 1-based channel index, already
	// validated at the command boundary.
	Set(id int, on bool) error

	// Close releases GPIO resources.
	Close() error
}

// DefaultPins are the BCM pin numbers of the four relays, channel order 1..4.
var DefaultPins = [4]int{16, 17, 18, 19}
