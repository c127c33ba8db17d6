package pwm

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// DefaultSysfsRoot is where the kernel exposes PWM chips.
const DefaultSysfsRoot = "/sys/class/pwm"

// periodNs is one 50 Hz period in nanoseconds.
const periodNs = uint64(1e9 / FrequencyHz)

// Sysfs implements Channel through the Linux PWM sysfs interface.
type Sysfs struct {
	mu       sync.Mutex
	chipPath string
	line     int
	linePath string
	exported bool
	stage    stage
}

// NewSysfs exports line on chip under root, sets the 50 Hz period and enables
// the output with a zero duty cycle.
func NewSysfs(root, chip string, line int) (*Sysfs, error) {
	chipPath := filepath.Join(root, chip)
	s := &Sysfs{
		chipPath: chipPath,
		line:     line,
		linePath: filepath.Join(chipPath, fmt.Sprintf("pwm%d", line)),
	}

	if err := s.export(); err != nil {
		return nil, err
	}
	if err := writeValue(s.lineFile("duty_cycle"), 0); err != nil {
		return nil, errors.Wrap(err, "reset duty cycle")
	}
	if err := writeValue(s.lineFile("period"), periodNs); err != nil {
		return nil, errors.Wrap(err, "set period")
	}
	if err := writeValue(s.lineFile("enable"), 1); err != nil {
		return nil, errors.Wrap(err, "enable output")
	}
	return s, nil
}

// ActiveNs converts a duty value in ticks of Range into the high time of one
// period in nanoseconds.
func ActiveNs(duty uint32) uint64 {
	return uint64(duty) * periodNs / Range
}

// SetDuty implements Channel.SetDuty.
func (s *Sysfs) SetDuty(duty uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage.set(duty)
}

// Commit implements Channel.Commit.
func (s *Sysfs) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.stage.take()
	if !ok {
		return nil
	}
	return errors.Wrapf(writeValue(s.lineFile("duty_cycle"), ActiveNs(v)), "write duty %d", v)
}

// Release implements Channel.Release.
func (s *Sysfs) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exported {
		return nil
	}
	s.exported = false
	return multierr.Combine(
		writeValue(s.lineFile("enable"), 0),
		writeValue(s.chipFile("unexport"), s.line),
	)
}

func (s *Sysfs) export() error {
	if _, err := os.Stat(s.linePath); err == nil {
		s.exported = true
		return nil
	}
	if err := writeValue(s.chipFile("export"), s.line); err != nil {
		return errors.Wrapf(err, "export %s line %d", s.chipPath, s.line)
	}
	// udev may take a moment to create the line directory.
	for i := 0; i < 20; i++ {
		if _, err := os.Stat(s.linePath); err == nil {
			s.exported = true
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return errors.Errorf("%s did not appear after export", s.linePath)
}

func (s *Sysfs) chipFile(name string) string {
	return filepath.Join(s.chipPath, name)
}

func (s *Sysfs) lineFile(name string) string {
	return filepath.Join(s.linePath, name)
}

func writeValue[T int | uint64](path string, value T) error {
	return os.WriteFile(path, []byte(strconv.FormatUint(uint64(value), 10)), 0o660)
}
