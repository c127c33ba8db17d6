package pwm

import (
	"fmt"
	"sync"

	"github.com/hjkoskel/govattu"
)

// DefaultBCMPin is the header pin carrying hardware PWM0 (ALT5).
const DefaultBCMPin = 18

// bcmClockDivisor divides the 19.2 MHz oscillator so that Range ticks span
// one 50 Hz period.
const bcmClockDivisor = 47

// BCM implements Channel on the BCM283x PWM0 peripheral.
type BCM struct {
	mu    sync.Mutex
	hw    govattu.Vattu
	pin   uint8
	stage stage
}

// NewBCM maps the PWM registers and configures PWM0 on pin.
func NewBCM(pin int) (*BCM, error) {
	if pin != DefaultBCMPin {
		return nil, fmt.Errorf("pin %d has no PWM0 function, use %d", pin, DefaultBCMPin)
	}

	hw, err := govattu.Open()
	if err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}

	hw.PinMode(uint8(pin), govattu.ALT5) // ALT5 for PWM0
	hw.PwmSetMode(true, true, false, false)
	hw.PwmSetClock(bcmClockDivisor)
	hw.Pwm0SetRange(Range)

	return &BCM{hw: hw, pin: uint8(pin)}, nil
}

// SetDuty implements Channel.SetDuty.
func (b *BCM) SetDuty(duty uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stage.set(duty)
}

// Commit implements Channel.Commit.
func (b *BCM) Commit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v, ok := b.stage.take(); ok {
		b.hw.Pwm0Set(v)
	}
	return nil
}

// Release implements Channel.Release.
func (b *BCM) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hw.Pwm0Set(0)
	b.hw.PwmSetMode(false, true, false, false)
	return b.hw.Close()
}
