package console

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Config holds configuration for the console sources. Either may be empty.
type Config struct {
	Pipe   string `yaml:"pipe"`   // named pipe, e.g. "/tmp/servoap"
	Device string `yaml:"device"` // serial port, e.g. "/dev/serial0"
	Baud   int    `yaml:"baud"`
}

// Handler is called for every parsed command. Calls are serialized per source.
type Handler func(Command)

// source is a line producer run by the console.
type source interface {
	run(ctx context.Context, lines func(string))
	close() error
}

// Console reads commands from its configured sources.
type Console struct {
	handler Handler
	logger  *zap.SugaredLogger
	sources []source
	wg      sync.WaitGroup
}

// New opens the configured sources. Returns nil if none are configured.
func New(cfg Config, handler Handler, logger *zap.SugaredLogger) (*Console, error) {
	if cfg.Pipe == "" && cfg.Device == "" {
		return nil, nil
	}

	c := &Console{handler: handler, logger: logger}

	if cfg.Pipe != "" {
		p, err := newPipe(cfg.Pipe)
		if err != nil {
			return nil, err
		}
		c.sources = append(c.sources, p)
	}

	if cfg.Device != "" {
		s, err := newSerial(cfg.Device, cfg.Baud)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.sources = append(c.sources, s)
	}

	return c, nil
}

// Start runs every source in its own goroutine until ctx is cancelled.
func (c *Console) Start(ctx context.Context) {
	for _, src := range c.sources {
		c.wg.Add(1)
		go func(src source) {
			defer c.wg.Done()
			src.run(ctx, c.dispatch)
		}(src)
	}
}

// Wait blocks until every source has stopped.
func (c *Console) Wait() {
	c.wg.Wait()
}

// Close releases the sources.
func (c *Console) Close() error {
	var err error
	for _, src := range c.sources {
		err = multierr.Append(err, src.close())
	}
	return err
}

func (c *Console) dispatch(line string) {
	line = strings.TrimSpace(line)
	if skipLine(line) {
		return
	}

	cmd, err := ParseLine(line)
	if err != nil {
		c.logger.Warnf("Console parse error: %v", err)
		return
	}
	if c.handler != nil {
		c.handler(cmd)
	}
}
