package console

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"syscall"
)

// pipe reads lines from a named pipe.
type pipe struct {
	path string
	file *os.File
}

func newPipe(path string) (*pipe, error) {
	os.Remove(path)

	if err := syscall.Mkfifo(path, 0o660); err != nil {
		return nil, fmt.Errorf("create named pipe %s: %w", path, err)
	}

	// Opened read-write so the open does not block waiting for a writer and
	// the reader never sees EOF between writers.
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("open named pipe %s: %w", path, err)
	}

	return &pipe{path: path, file: f}, nil
}

func (p *pipe) run(ctx context.Context, lines func(string)) {
	go func() {
		<-ctx.Done()
		p.file.Close()
	}()

	scanner := bufio.NewScanner(p.file)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		lines(scanner.Text())
	}
}

func (p *pipe) close() error {
	p.file.Close()
	return os.Remove(p.path)
}
