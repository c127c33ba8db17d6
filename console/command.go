// Package console accepts servo commands as text lines from a named pipe or a
// serial port.
package console

import (
	"fmt"
	"strconv"
	"strings"

	"servoap/servo"
)

// Kind identifies a console command.
type Kind int

const (
	KindRotate Kind = iota + 1
	KindDuty
	KindStop
)

// Command is one parsed console line.
type Command struct {
	Kind      Kind
	Direction servo.Direction
	Turns     int
	Duty      servo.Duty
}

// ParseLine parses a command line.
// Command format:
//
//	cw <turns>      - rotate clockwise
//	ccw <turns>     - rotate counterclockwise
//	duty <value>    - commit a raw duty value for one second
//	stop            - return to neutral
func ParseLine(line string) (Command, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}

	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "cw", "ccw":
		if len(parts) < 2 {
			return Command{}, fmt.Errorf("%s requires turn count", cmd)
		}
		turns, err := strconv.Atoi(parts[1])
		if err != nil || turns < 0 {
			return Command{}, fmt.Errorf("invalid turn count: %s", parts[1])
		}
		return Command{Kind: KindRotate, Direction: servo.ParseDirection(cmd), Turns: turns}, nil

	case "duty":
		if len(parts) < 2 {
			return Command{}, fmt.Errorf("duty requires a value")
		}
		duty, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			return Command{}, fmt.Errorf("invalid duty: %s", parts[1])
		}
		return Command{Kind: KindDuty, Duty: servo.Duty(duty)}, nil

	case "stop":
		return Command{Kind: KindStop}, nil

	default:
		return Command{}, fmt.Errorf("unknown command: %s", cmd)
	}
}

// skipLine reports whether a line carries no command.
func skipLine(line string) bool {
	return line == "" || strings.HasPrefix(line, "#")
}
