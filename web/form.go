package web

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/ajg/form"

	"servoap/servo"
)

// controlForm is the body of POST /control. Values stay strings so an empty
// field can be told apart from zero.
type controlForm struct {
	Turns     *string `form:"turns"`
	Direction *string `form:"direction"`
}

// dutyForm is the body of POST /control-duty.
type dutyForm struct {
	Duty *string `form:"duty"`
}

func decodeForm(body []byte, dst interface{}) error {
	d := form.NewDecoder(bytes.NewReader(body))
	d.IgnoreUnknownKeys(true)
	return d.Decode(dst)
}

// present reports whether a decoded field carries a value.
func present(v *string) bool {
	return v != nil && *v != ""
}

// parseControl decodes a /control body. ok is false when either field is
// absent or empty; err is set when turns is not an integer.
func parseControl(body []byte) (turns int, direction string, ok bool, err error) {
	var f controlForm
	if err := decodeForm(body, &f); err != nil {
		return 0, "", false, err
	}
	if !present(f.Turns) || !present(f.Direction) {
		return 0, "", false, nil
	}
	turns, err = strconv.Atoi(*f.Turns)
	if err != nil {
		return 0, "", false, fmt.Errorf("invalid turns %q", *f.Turns)
	}
	return turns, *f.Direction, true, nil
}

// parseDuty decodes a /control-duty body. Values that do not fit the 32-bit
// duty register, negative ones included, are errors.
func parseDuty(body []byte) (duty servo.Duty, ok bool, err error) {
	var f dutyForm
	if err := decodeForm(body, &f); err != nil {
		return 0, false, err
	}
	if !present(f.Duty) {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(*f.Duty, 10, 32)
	if err != nil {
		return 0, false, fmt.Errorf("invalid duty %q", *f.Duty)
	}
	return servo.Duty(v), true, nil
}
