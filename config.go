package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v2"

	"servoap/ap"
	"servoap/console"
	"servoap/indicator"
	"servoap/mqtt"
	"servoap/pwm"
	"servoap/rotary"
	"servoap/web"
)

// Config is the main configuration structure for servoap.
type Config struct {
	// Name used for the MQTT client and topics
	ClientID string `yaml:"client_id"`

	Log LogConfig `yaml:"log"`

	// PWM output driving the servo
	Servo pwm.Config `yaml:"servo"`

	// Control page server
	HTTP web.Config `yaml:"http"`

	// Wi-Fi access point
	AP ap.Config `yaml:"ap"`

	// MQTT connection settings (empty host = disabled)
	MQTT mqtt.Config `yaml:"mqtt"`

	// Local command sources
	Console console.Config `yaml:"console"`

	// Status LEDs
	Indicator indicator.Config `yaml:"indicator"`

	// Manual control knob
	Rotary rotary.Config `yaml:"rotary"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Debug bool `yaml:"debug"`
}

// LoadConfig reads and decodes the YAML configuration at path and fills in
// defaults.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Defaults()
	return &cfg, nil
}

// Defaults fills unset fields.
func (c *Config) Defaults() {
	if c.ClientID == "" {
		c.ClientID = "servoap"
	}
	c.HTTP.Defaults()
	c.AP.Defaults()
}
