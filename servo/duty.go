// Package servo drives a continuous-rotation servo through a single PWM channel.
package servo

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// PWM timing of the servo line. The duty limits encode the servo's pulse-width
// range at 50 Hz with 13-bit resolution and must not change.
const (
	Frequency  = 50 // Hz
	Resolution = 13 // bits

	NeutralDuty Duty = 614
	MinDuty     Duty = 368
	MaxDuty     Duty = 860
)

// Speed is a signed rotation speed relative to neutral. 0 stops the servo,
// -100 is full clockwise and +100 full counterclockwise.
type Speed int

// Duty is a PWM duty register value.
type Duty uint32

// Channel is the PWM output the driver writes to. SetDuty stages a value and
// Commit latches it; both must be called for the output to change.
type Channel interface {
	SetDuty(duty uint32) error
	Commit() error
}

// Sleeper blocks for a duration. clock.Clock satisfies it.
type Sleeper interface {
	Sleep(d time.Duration)
}

// Handlers holds optional callbacks for driver state changes.
type Handlers struct {
	OnDuty func(d Duty)    // called after every commit
	OnBusy func(busy bool) // called when a sequence starts and ends
}

// Driver owns the PWM channel. Every write sequence holds mu, so a rotation
// requested while another is running waits for it to finish.
type Driver struct {
	mu       sync.Mutex
	ch       Channel
	clock    Sleeper
	logger   *zap.SugaredLogger
	handlers Handlers

	duty atomic.Uint32
	busy atomic.Bool
}

// New creates a Driver writing to ch. Holds are timed with clk.
func New(ch Channel, clk Sleeper, logger *zap.SugaredLogger, handlers Handlers) *Driver {
	d := &Driver{
		ch:       ch,
		clock:    clk,
		logger:   logger,
		handlers: handlers,
	}
	d.duty.Store(uint32(NeutralDuty))
	return d
}

// MapSpeedToDuty converts speed to a duty value around NeutralDuty, clamped to
// [MinDuty, MaxDuty].
func MapSpeedToDuty(speed Speed) Duty {
	duty := int(NeutralDuty) + int(speed)
	if duty < int(MinDuty) {
		return MinDuty
	}
	if duty > int(MaxDuty) {
		return MaxDuty
	}
	return Duty(duty)
}

// SetSpeed maps speed to a duty value and commits it.
func (d *Driver) SetSpeed(speed Speed) Duty {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setSpeed(speed)
}

// SetDutyRaw commits duty as is. The value is not clamped.
func (d *Driver) SetDutyRaw(duty Duty) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setDutyRaw(duty)
}

// Stop returns the servo to neutral.
func (d *Driver) Stop() {
	d.SetSpeed(0)
}

// Duty returns the last committed duty value.
func (d *Driver) Duty() Duty {
	return Duty(d.duty.Load())
}

// Busy reports whether a timed sequence is in progress.
func (d *Driver) Busy() bool {
	return d.busy.Load()
}

func (d *Driver) setSpeed(speed Speed) Duty {
	duty := MapSpeedToDuty(speed)
	d.logger.Infof("Setting speed: %d, Duty: %d", speed, duty)
	d.commit(duty)
	return duty
}

func (d *Driver) setDutyRaw(duty Duty) {
	d.logger.Infof("Setting Duty: %d", duty)
	d.commit(duty)
}

// commit writes and latches duty. Backend errors are logged only; the
// servo keeps whatever the hardware last accepted.
func (d *Driver) commit(duty Duty) {
	if err := d.ch.SetDuty(uint32(duty)); err != nil {
		d.logger.Errorf("set duty %d: %v", duty, err)
		return
	}
	if err := d.ch.Commit(); err != nil {
		d.logger.Errorf("commit duty %d: %v", duty, err)
		return
	}
	d.duty.Store(uint32(duty))
	if d.handlers.OnDuty != nil {
		d.handlers.OnDuty(duty)
	}
}
