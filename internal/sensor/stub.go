//go:build !linux

package sensor

import "errors"

// INA219Source is not available on non-Linux platforms.
type INA219Source struct{}

// NewINA219Source returns an error on non-Linux platforms.
func NewINA219Source(addrs [4]uint16) (*INA219Source, error) {
	return nil, errors.New("sensor: not supported on this platform (requires Linux)")
}

// ReadAll is not implemented on non-Linux platforms.
func (s *INA219Source) ReadAll() ([4]Reading, error) {
	return [4]Reading{}, errors.New("sensor: not supported")
}

// Close is not implemented on non-Linux platforms.
func (s *INA219Source) Close() error {
	return nil
}
