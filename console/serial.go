package console

import (
	"context"
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// maxLine bounds a serial line; longer input is discarded.
const maxLine = 256

// serialPort reads lines from a UART.
type serialPort struct {
	port   *serial.Port
	device string
}

func newSerial(device string, baud int) (*serialPort, error) {
	if baud == 0 {
		baud = 115200
	}
	c := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: time.Second,
	}
	port, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}

	return &serialPort{port: port, device: device}, nil
}

func (s *serialPort) run(ctx context.Context, lines func(string)) {
	var acc lineAccumulator
	buf := make([]byte, 64)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := s.port.Read(buf)
		if err != nil || n == 0 {
			continue // Timeout, try again
		}
		acc.feed(buf[:n], lines)
	}
}

func (s *serialPort) close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}

// lineAccumulator splits a byte stream on CR or LF.
type lineAccumulator struct {
	buf      []byte
	overflow bool
}

func (a *lineAccumulator) feed(data []byte, lines func(string)) {
	for _, b := range data {
		if b == '\n' || b == '\r' {
			if !a.overflow && len(a.buf) > 0 {
				lines(string(a.buf))
			}
			a.buf = a.buf[:0]
			a.overflow = false
			continue
		}
		if len(a.buf) >= maxLine {
			a.overflow = true
			continue
		}
		a.buf = append(a.buf, b)
	}
}
