//go:build linux

package indicator

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/multierr"
)

// GPIO implements Indicator using discrete LED lines.
type GPIO struct {
	ready *gpiocdev.Line
	busy  *gpiocdev.Line
}

// NewGPIO requests the configured LED lines as outputs, all off.
func NewGPIO(chip string, readyPin, busyPin *int) (*GPIO, error) {
	g := &GPIO{}

	var err error
	if readyPin != nil {
		g.ready, err = gpiocdev.RequestLine(chip, *readyPin, gpiocdev.AsOutput(0))
		if err != nil {
			return nil, fmt.Errorf("request ready line %d: %w", *readyPin, err)
		}
	}
	if busyPin != nil {
		g.busy, err = gpiocdev.RequestLine(chip, *busyPin, gpiocdev.AsOutput(0))
		if err != nil {
			g.Release()
			return nil, fmt.Errorf("request busy line %d: %w", *busyPin, err)
		}
	}
	return g, nil
}

// Idle implements Indicator.Idle.
func (g *GPIO) Idle() {
	g.set(g.busy, 0)
	g.set(g.ready, 1)
}

// Busy implements Indicator.Busy.
func (g *GPIO) Busy() {
	g.set(g.ready, 0)
	g.set(g.busy, 1)
}

// ConnectionLost implements Indicator.ConnectionLost.
func (g *GPIO) ConnectionLost() {
	g.set(g.ready, 0)
}

// Release implements Indicator.Release.
func (g *GPIO) Release() error {
	var err error
	for _, l := range []*gpiocdev.Line{g.ready, g.busy} {
		if l == nil {
			continue
		}
		l.SetValue(0)
		err = multierr.Append(err, l.Close())
	}
	return err
}

func (g *GPIO) set(l *gpiocdev.Line, v int) {
	if l != nil {
		l.SetValue(v)
	}
}
