// Package config loads the optional YAML configuration file. Flags and
// environment variables override anything set here.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the daemon configuration.
type Config struct {
	TickSeconds int      `yaml:"tick_seconds,omitempty"` // metering period (default 1)
	Broker      string   `yaml:"mqtt_broker,omitempty"`  // empty disables MQTT
	HTTPAddr    string   `yaml:"http_addr,omitempty"`
	DBPath      string   `yaml:"db_path,omitempty"`
	RelayPins   []int    `yaml:"relay_pins,omitempty"`   // BCM numbering, 4 entries
	SensorAddrs []uint16 `yaml:"sensor_addrs,omitempty"` // I2C addresses, 4 entries
}

// Load reads the config file. A missing file is not an error; it returns
// an empty config so defaults apply.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.TickSeconds < 0 {
		return fmt.Errorf("tick_seconds must be >= 0")
	}
	if n := len(c.RelayPins); n != 0 && n != 4 {
		return fmt.Errorf("relay_pins needs exactly 4 entries, got %d", n)
	}
	if n := len(c.SensorAddrs); n != 0 && n != 4 {
		return fmt.Errorf("sensor_addrs needs exactly 4 entries, got %d", n)
	}
	return nil
}
