//go:build linux

// Package rotary reads a rotary encoder used as a manual servo control knob.
package rotary

import (
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Rotary handles a rotary encoder input device.
type Rotary struct {
	mu      sync.Mutex
	dtLine  *gpiocdev.Line
	clkLine *gpiocdev.Line
	btnLine *gpiocdev.Line
	clkPin  int
	dec     decoder
	logger  *zap.SugaredLogger
	onTurn  func(delta int)
	onPress func()
}

// New creates a new rotary encoder handler.
// Returns nil if config has no pins specified (CLKPin and DTPin both 0).
func New(cfg Config, logger *zap.SugaredLogger, handlers Handlers) (*Rotary, error) {
	if cfg.CLKPin == 0 && cfg.DTPin == 0 {
		return nil, nil
	}

	if cfg.Chip == "" {
		cfg.Chip = "gpiochip0"
	}

	debounceRotary := 250 * time.Microsecond
	debounceButton := 2 * time.Millisecond

	r := &Rotary{
		clkPin:  cfg.CLKPin,
		logger:  logger,
		onTurn:  handlers.OnTurn,
		onPress: handlers.OnPress,
	}

	var err error

	r.dtLine, err = gpiocdev.RequestLine(cfg.Chip, cfg.DTPin,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(debounceRotary),
		gpiocdev.WithEventHandler(r.handleEvent))
	if err != nil {
		return nil, err
	}

	r.clkLine, err = gpiocdev.RequestLine(cfg.Chip, cfg.CLKPin,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(debounceRotary),
		gpiocdev.WithEventHandler(r.handleEvent))
	if err != nil {
		r.Release()
		return nil, err
	}

	if cfg.ButtonPin > 0 {
		r.btnLine, err = gpiocdev.RequestLine(cfg.Chip, cfg.ButtonPin,
			gpiocdev.WithPullUp,
			gpiocdev.WithFallingEdge,
			gpiocdev.WithDebounce(debounceButton),
			gpiocdev.WithEventHandler(r.handleButton))
		if err != nil {
			r.Release()
			return nil, err
		}
	}

	return r, nil
}

func (r *Rotary) handleEvent(evt gpiocdev.LineEvent) {
	var level int
	switch evt.Type {
	case gpiocdev.LineEventRisingEdge:
		level = 1
	case gpiocdev.LineEventFallingEdge:
		level = 0
	default:
		return
	}

	r.mu.Lock()
	step := r.dec.edge(evt.Offset == r.clkPin, level)
	r.mu.Unlock()

	if step == 0 {
		return
	}
	r.logger.Debugf("Rotary step %+d", step)
	if r.onTurn != nil {
		r.onTurn(step)
	}
}

func (r *Rotary) handleButton(evt gpiocdev.LineEvent) {
	r.logger.Debug("Rotary button pressed")
	if r.onPress != nil {
		r.onPress()
	}
}

// Release releases GPIO resources.
func (r *Rotary) Release() error {
	var err error
	for _, l := range []*gpiocdev.Line{r.dtLine, r.clkLine, r.btnLine} {
		if l != nil {
			err = multierr.Append(err, l.Close())
		}
	}
	return err
}
