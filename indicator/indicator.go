// Package indicator shows whether the servo is ready or running.
package indicator

// Indicator is the interface for status indicator implementations (LEDs, neopixels, etc).
type Indicator interface {
	// Idle sets the indicator to the ready state.
	Idle()

	// Busy sets the indicator to the running state.
	Busy()

	// ConnectionLost sets the indicator to the broker connection lost state.
	ConnectionLost()

	// Release releases any hardware resources.
	Release() error
}

// Config holds configuration for indicator implementations.
type Config struct {
	// GPIO LED lines (nil = not configured)
	Chip     string `yaml:"chip"`
	ReadyPin *int   `yaml:"ready_pin"`
	BusyPin  *int   `yaml:"busy_pin"`

	// Neopixel pipe path (empty = not configured)
	NeopixelPipe string `yaml:"neopixel_pipe"`
}

// New creates an Indicator based on the provided configuration.
// Returns a Multi indicator if both GPIO and Neopixel are configured.
func New(cfg Config) (Indicator, error) {
	var indicators []Indicator

	if cfg.ReadyPin != nil || cfg.BusyPin != nil {
		chip := cfg.Chip
		if chip == "" {
			chip = "gpiochip0"
		}
		gpio, err := NewGPIO(chip, cfg.ReadyPin, cfg.BusyPin)
		if err != nil {
			return nil, err
		}
		indicators = append(indicators, gpio)
	}

	if cfg.NeopixelPipe != "" {
		neo, err := NewNeopixel(cfg.NeopixelPipe)
		if err != nil {
			for _, ind := range indicators {
				ind.Release()
			}
			return nil, err
		}
		indicators = append(indicators, neo)
	}

	if len(indicators) == 0 {
		return &Noop{}, nil
	}
	if len(indicators) == 1 {
		return indicators[0], nil
	}
	return &Multi{indicators: indicators}, nil
}
