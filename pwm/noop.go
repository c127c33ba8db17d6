package pwm

import "go.uber.org/zap"

// Noop implements Channel but does nothing beyond logging.
// Used when no PWM output is configured.
type Noop struct {
	logger *zap.SugaredLogger
	stage  stage
}

// SetDuty implements Channel.SetDuty.
func (n *Noop) SetDuty(duty uint32) error {
	return n.stage.set(duty)
}

// Commit implements Channel.Commit.
func (n *Noop) Commit() error {
	if v, ok := n.stage.take(); ok {
		n.logger.Debugf("PWM duty %d/%d", v, Range)
	}
	return nil
}

// Release implements Channel.Release.
func (n *Noop) Release() error {
	return nil
}
