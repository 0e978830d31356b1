//go:build linux

package sensor

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ina219"
	"periph.io/x/host/v3"
)

// INA219Source reads the four INA219 power monitors over I2C.
// Presence is probed once at startup: a monitor that does not answer at
// init stays absent for the life of the process, matching the device's
// hot-plug-free wiring.
type INA219Source struct {
	bus     i2c.BusCloser
	devs    [4]*ina219.Dev
	present [4]bool
}

// NewINA219Source opens the default I2C bus and probes the monitor at each
// address. Missing monitors are logged and reported absent; only a bus-level
// failure is an error.
func NewINA219Source(addrs [4]uint16) (*INA219Source, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}

	s := &INA219Source{bus: bus}
	for i, addr := range addrs {
		opts := ina219.DefaultOpts
		opts.Address = int(addr)
		dev, err := ina219.New(bus, &opts)
		if err != nil {
			log.Printf("sensor %d (0x%02x) not found: %v", i+1, addr, err)
			continue
		}
		s.devs[i] = dev
		s.present[i] = true
		log.Printf("sensor %d (0x%02x) found", i+1, addr)
	}
	return s, nil
}

// ReadAll samples every present monitor. A read failure on one channel is
// reported as absent for that tick rather than failing the whole frame.
func (s *INA219Source) ReadAll() ([4]Reading, error) {
	var frame [4]Reading
	for i := range s.devs {
		if !s.present[i] {
			continue
		}
		pm, err := s.devs[i].Sense()
		if err != nil {
			log.Printf("sensor %d read error: %v", i+1, err)
			continue
		}
		frame[i] = Reading{
			Voltage: float64(pm.Voltage) / float64(physic.Volt),
			Current: float64(pm.Current) / float64(physic.Ampere),
			Present: true,
		}
	}
	return frame, nil
}

// Close releases the I2C bus.
func (s *INA219Source) Close() error {
	if s.bus == nil {
		return nil
	}
	if err := s.bus.Close(); err != nil {
		return fmt.Errorf("close i2c bus: %w", err)
	}
	return nil
}
