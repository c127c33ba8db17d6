//go:build !linux

package indicator

import "errors"

var ErrNotSupported = errors.New("gpio indicator not supported on this platform")

// GPIO is a stub for non-linux platforms.
type GPIO struct{}

// NewGPIO returns an error on non-linux platforms.
func NewGPIO(chip string, readyPin, busyPin *int) (*GPIO, error) {
	return nil, ErrNotSupported
}

func (g *GPIO) Idle()           {}
func (g *GPIO) Busy()           {}
func (g *GPIO) ConnectionLost() {}
func (g *GPIO) Release() error  { return nil }
