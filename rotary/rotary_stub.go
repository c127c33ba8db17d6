//go:build !linux

package rotary

import (
	"errors"

	"go.uber.org/zap"
)

var ErrNotSupported = errors.New("rotary encoder not supported on this platform")

// Rotary is a stub for non-linux platforms.
type Rotary struct{}

// New returns an error on non-linux platforms.
func New(cfg Config, logger *zap.SugaredLogger, handlers Handlers) (*Rotary, error) {
	if cfg.CLKPin == 0 && cfg.DTPin == 0 {
		return nil, nil
	}
	return nil, ErrNotSupported
}

func (r *Rotary) Release() error { return nil }
