// Package pwm provides the PWM outputs a servo can be driven from.
package pwm

import (
	"fmt"

	"go.uber.org/zap"
)

// Timing of the servo signal. Duty values are ticks out of Range.
const (
	FrequencyHz = 50
	Range       = 1 << 13
)

// Channel is a single PWM output. SetDuty stages a duty value in ticks of
// Range; Commit latches the staged value onto the output.
type Channel interface {
	SetDuty(duty uint32) error
	Commit() error

	// Release disables the output and frees hardware resources.
	Release() error
}

// Config holds configuration for PWM channel implementations.
type Config struct {
	Type string `yaml:"type"` // "bcm", "sysfs", "none"

	// bcm: GPIO pin routed to PWM0
	Pin *int `yaml:"pin"`

	// sysfs: /sys/class/pwm/<chip>/pwm<line>
	Chip string `yaml:"chip"`
	Line int    `yaml:"line"`
	Root string `yaml:"root"`
}

// New creates a Channel based on the provided configuration.
func New(cfg Config, logger *zap.SugaredLogger) (Channel, error) {
	switch cfg.Type {
	case "bcm":
		pin := DefaultBCMPin
		if cfg.Pin != nil {
			pin = *cfg.Pin
		}
		return NewBCM(pin)
	case "sysfs":
		if cfg.Chip == "" {
			cfg.Chip = "pwmchip0"
		}
		if cfg.Root == "" {
			cfg.Root = DefaultSysfsRoot
		}
		return NewSysfs(cfg.Root, cfg.Chip, cfg.Line)
	case "", "none":
		logger.Warn("No PWM output configured, duty values are only logged")
		return &Noop{logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown pwm type %q", cfg.Type)
	}
}

// stage holds a duty value between SetDuty and Commit.
type stage struct {
	value   uint32
	pending bool
}

func (s *stage) set(duty uint32) error {
	if duty >= Range {
		return fmt.Errorf("duty %d out of range [0, %d)", duty, Range)
	}
	s.value = duty
	s.pending = true
	return nil
}

// take returns the staged value and clears it.
func (s *stage) take() (uint32, bool) {
	v, ok := s.value, s.pending
	s.pending = false
	return v, ok
}
