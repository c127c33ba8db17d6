package indicator

import "go.uber.org/multierr"

// Multi combines multiple Indicator implementations.
type Multi struct {
	indicators []Indicator
}

// Idle implements Indicator.Idle.
func (m *Multi) Idle() {
	for _, ind := range m.indicators {
		ind.Idle()
	}
}

// Busy implements Indicator.Busy.
func (m *Multi) Busy() {
	for _, ind := range m.indicators {
		ind.Busy()
	}
}

// ConnectionLost implements Indicator.ConnectionLost.
func (m *Multi) ConnectionLost() {
	for _, ind := range m.indicators {
		ind.ConnectionLost()
	}
}

// Release implements Indicator.Release.
func (m *Multi) Release() error {
	var err error
	for _, ind := range m.indicators {
		err = multierr.Append(err, ind.Release())
	}
	return err
}
