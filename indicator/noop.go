package indicator

// Noop implements Indicator but does nothing.
// Used when no indicators are configured.
type Noop struct{}

// Idle implements Indicator.Idle.
func (n *Noop) Idle() {}

// Busy implements Indicator.Busy.
func (n *Noop) Busy() {}

// ConnectionLost implements Indicator.ConnectionLost.
func (n *Noop) ConnectionLost() {}

// Release implements Indicator.Release.
func (n *Noop) Release() error {
	return nil
}
