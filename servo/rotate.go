package servo

import (
	"strings"
	"time"
)

// TurnDuration is how long one turn of full-speed rotation lasts. A turn is
// timed, not measured on the shaft.
const TurnDuration = 1000 * time.Millisecond

// FullSpeed is the speed magnitude used for rotations.
const FullSpeed Speed = 100

// Direction is the rotation direction of a turn sequence.
type Direction int

const (
	Unknown Direction = iota
	Clockwise
	CounterClockwise
)

// ParseDirection maps "cw" and "ccw" to a Direction. Anything else is Unknown.
func ParseDirection(s string) Direction {
	switch strings.TrimSpace(s) {
	case "cw":
		return Clockwise
	case "ccw":
		return CounterClockwise
	default:
		return Unknown
	}
}

func (dir Direction) String() string {
	switch dir {
	case Clockwise:
		return "cw"
	case CounterClockwise:
		return "ccw"
	default:
		return "unknown"
	}
}

// speed returns the full-speed command for dir, and false for Unknown.
func (dir Direction) speed() (Speed, bool) {
	switch dir {
	case Clockwise:
		return -FullSpeed, true
	case CounterClockwise:
		return FullSpeed, true
	default:
		return 0, false
	}
}

// Rotate runs the servo at full speed in dir for turns seconds, then stops
// it. An Unknown direction still waits out every turn without moving. The
// call blocks until the servo is stopped.
func (d *Driver) Rotate(dir Direction, turns int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.setBusy(true)
	defer d.setBusy(false)

	for i := 0; i < turns; i++ {
		if speed, ok := dir.speed(); ok {
			d.logger.Infof("Rotating %s (%d/%d)", dir, i+1, turns)
			d.setSpeed(speed)
		}
		d.clock.Sleep(TurnDuration)
	}

	d.setSpeed(0)
}

// HoldDuty commits a raw duty value and keeps the channel for one turn
// duration before returning.
func (d *Driver) HoldDuty(duty Duty) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.setBusy(true)
	defer d.setBusy(false)

	d.setDutyRaw(duty)
	d.clock.Sleep(TurnDuration)
}

func (d *Driver) setBusy(busy bool) {
	d.busy.Store(busy)
	if d.handlers.OnBusy != nil {
		d.handlers.OnBusy(busy)
	}
}
